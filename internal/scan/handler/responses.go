package handler

import "sentry/internal/scan/models"

// ScanErrorResponse is the 500 body for a scan aborted by an internal fault.
type ScanErrorResponse struct {
	Error         string `json:"error"`
	Message       string `json:"message"`
	EngineVersion string `json:"engineVersion"`
}

// BulkScanItem reports the outcome for one provider of a bulk batch.
type BulkScanItem struct {
	NPI           string           `json:"npi"`
	Name          string           `json:"name"`
	URL           string           `json:"url"`
	Success       bool             `json:"success"`
	RiskScore     int              `json:"riskScore,omitempty"`
	RiskLevel     models.RiskLevel `json:"riskLevel,omitempty"`
	StatusLabel   string           `json:"statusLabel,omitempty"`
	FindingsCount int              `json:"findingsCount,omitempty"`
	PassCount     int              `json:"passCount,omitempty"`
	FailCount     int              `json:"failCount,omitempty"`
	WarnCount     int              `json:"warnCount,omitempty"`
	Error         string           `json:"error,omitempty"`
	DurationMs    int64            `json:"durationMs"`
}

// BulkScanResponse summarizes one batch. NextBatch holds the providers the
// caller should submit next.
type BulkScanResponse struct {
	BatchSize int             `json:"batchSize"`
	Scanned   int             `json:"scanned"`
	Failed    int             `json:"failed"`
	Remaining int             `json:"remaining"`
	Total     int             `json:"total"`
	Results   []BulkScanItem  `json:"results"`
	NextBatch []ProviderInput `json:"nextBatch"`
}

func itemFromResult(p ProviderInput, result *models.ScanResult, label string) BulkScanItem {
	return BulkScanItem{
		NPI:           p.NPI,
		Name:          p.Name,
		URL:           result.URL,
		Success:       true,
		RiskScore:     result.RiskScore,
		RiskLevel:     result.RiskLevel,
		StatusLabel:   label,
		FindingsCount: len(result.Findings),
		PassCount:     result.Meta.ChecksPass,
		FailCount:     result.Meta.ChecksFail,
		WarnCount:     result.Meta.ChecksWarn,
	}
}
