// Package models holds the scan result data model shared by the engine, its
// check modules, the HTTP layer and the registry stores.
package models

// EngineVersion tags every result and every structured scan error.
const EngineVersion = "SENTRY-3.0.0"

// Status is the outcome of a single check.
type Status string

const (
	StatusPass Status = "pass"
	StatusFail Status = "fail"
	StatusWarn Status = "warn"
	StatusSkip Status = "skip"
)

// Severity ranks how much a failing check matters.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
	SeverityInfo     Severity = "info"
)

// Rank orders severities for sorting; higher is worse.
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 4
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	default:
		return 0
	}
}

// Category is one of the three statutory groupings used for weighting.
type Category string

const (
	CategoryDataSovereignty   Category = "data_sovereignty"
	CategoryAITransparency    Category = "ai_transparency"
	CategoryClinicalIntegrity Category = "clinical_integrity"
)

// Categories lists categories in report order.
var Categories = []Category{
	CategoryDataSovereignty,
	CategoryAITransparency,
	CategoryClinicalIntegrity,
}

// PHIRisk describes how likely an endpoint is to receive protected health information.
type PHIRisk string

const (
	PHIRiskDirect   PHIRisk = "direct"
	PHIRiskIndirect PHIRisk = "indirect"
	PHIRiskNone     PHIRisk = "none"
)

// Rank orders PHI risk; direct > indirect > none.
func (r PHIRisk) Rank() int {
	switch r {
	case PHIRiskDirect:
		return 2
	case PHIRiskIndirect:
		return 1
	default:
		return 0
	}
}

// Tier is the three-level compliance classification.
type Tier string

const (
	TierSovereign Tier = "Sovereign"
	TierDrift     Tier = "Drift"
	TierViolation Tier = "Violation"
)

// RiskLevel mirrors Tier in the vocabulary of risk.
type RiskLevel string

const (
	RiskLow      RiskLevel = "Low"
	RiskModerate RiskLevel = "Moderate"
	RiskHigh     RiskLevel = "High"
)

// NodeType labels a border map endpoint.
type NodeType string

const (
	NodePrimary      NodeType = "primary"
	NodeCDN          NodeType = "cdn"
	NodeMail         NodeType = "mail"
	NodeSubProcessor NodeType = "sub-processor"
)

// PageType is the classification of the fetched page.
type PageType string

const (
	PageIntake   PageType = "intake"
	PagePortal   PageType = "portal"
	PageContact  PageType = "contact"
	PageServices PageType = "services"
	PageAbout    PageType = "about"
	PageHomepage PageType = "homepage"
	PageGeneral  PageType = "general"
	PageUnknown  PageType = "unknown"
)

// ScanRequest identifies the provider and site to audit.
type ScanRequest struct {
	NPI string `json:"npi"`
	URL string `json:"url"`
}

// Finding is the evidence-bearing result of exactly one check.
type Finding struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Status      Status         `json:"status"`
	Severity    Severity       `json:"severity"`
	Category    Category       `json:"category"`
	PHIRisk     PHIRisk        `json:"phiRisk"`
	Detail      string         `json:"detail"`
	Clause      string         `json:"clause"`
	PageContext PageType       `json:"pageContext,omitempty"`
	Evidence    map[string]any `json:"evidence,omitempty"`
}

// CategoryScore is the derived score of one category.
type CategoryScore struct {
	Name       string `json:"name"`
	Percentage int    `json:"percentage"`
	Level      Tier   `json:"level"`
	Findings   int    `json:"findings"`
	Passed     int    `json:"passed"`
	Failed     int    `json:"failed"`
	Warnings   int    `json:"warnings"`
}

// CategoryScores is keyed by category in JSON.
type CategoryScores struct {
	DataSovereignty   CategoryScore `json:"data_sovereignty"`
	AITransparency    CategoryScore `json:"ai_transparency"`
	ClinicalIntegrity CategoryScore `json:"clinical_integrity"`
}

// Get returns the score for c.
func (s CategoryScores) Get(c Category) CategoryScore {
	switch c {
	case CategoryDataSovereignty:
		return s.DataSovereignty
	case CategoryAITransparency:
		return s.AITransparency
	default:
		return s.ClinicalIntegrity
	}
}

// DataBorderNode is one geo-located endpoint touched during a scan.
type DataBorderNode struct {
	Domain      string   `json:"domain"`
	IP          string   `json:"ip,omitempty"`
	Country     string   `json:"country"`
	CountryCode string   `json:"countryCode"`
	City        string   `json:"city"`
	Type        NodeType `json:"type"`
	IsSovereign bool     `json:"isSovereign"`
	PHIRisk     PHIRisk  `json:"phiRisk"`
	Purpose     string   `json:"purpose,omitempty"`
}

// PageContext is what the classifier derived from the fetched page.
type PageContext struct {
	Type               PageType `json:"type"`
	PageTitle          string   `json:"pageTitle"`
	HasPatientPortal   bool     `json:"hasPatientPortal"`
	HasIntakeForms     bool     `json:"hasIntakeForms"`
	HasDiagnosticTools bool     `json:"hasDiagnosticTools"`
	HasChatbot         bool     `json:"hasChatbot"`
	ChatbotVendors     []string `json:"chatbotVendors,omitempty"`
	EHRVendor          string   `json:"ehrVendor,omitempty"`
}

// NPIVerification is the informational registry lookup result.
type NPIVerification struct {
	Valid     bool   `json:"valid"`
	Name      string `json:"name,omitempty"`
	Type      string `json:"type,omitempty"`
	Specialty string `json:"specialty,omitempty"`
	State     string `json:"state,omitempty"`
}

// Meta summarizes the run.
type Meta struct {
	ScanID             string   `json:"scanId"`
	Engine             string   `json:"engine"`
	Duration           string   `json:"duration"`
	PageContentFetched bool     `json:"pageContentFetched"`
	PageSize           int      `json:"pageSize"`
	PageType           PageType `json:"pageType"`
	ChecksRun          int      `json:"checksRun"`
	ChecksPass         int      `json:"checksPass"`
	ChecksFail         int      `json:"checksFail"`
	ChecksWarn         int      `json:"checksWarn"`
}

// ScanResult is the complete, internally consistent output of one scan.
type ScanResult struct {
	NPI              string           `json:"npi"`
	URL              string           `json:"url"`
	RiskScore        int              `json:"riskScore"`
	RiskLevel        RiskLevel        `json:"riskLevel"`
	RiskMeterLevel   Tier             `json:"riskMeterLevel"`
	ComplianceStatus Tier             `json:"complianceStatus"`
	Findings         []Finding        `json:"findings"`
	TopIssues        []Finding        `json:"topIssues"`
	CategoryScores   CategoryScores   `json:"categoryScores"`
	DataBorderMap    []DataBorderNode `json:"dataBorderMap"`
	ScanTimestamp    int64            `json:"scanTimestamp"`
	ScanDuration     int64            `json:"scanDuration"`
	EngineVersion    string           `json:"engineVersion"`
	NPIVerification  NPIVerification  `json:"npiVerification"`
	PageContext      PageContext      `json:"pageContext"`
	Meta             Meta             `json:"meta"`
}
