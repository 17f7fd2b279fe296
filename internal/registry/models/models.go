// Package models defines the provider registry record: one row per NPI holding
// the provider's contact profile and the outcome of its latest scan.
package models

import (
	"time"

	scanmodels "sentry/internal/scan/models"
)

// Provider is the profile submitted with a scan or a bulk batch.
type Provider struct {
	NPI   string `json:"npi"`
	Name  string `json:"name,omitempty"`
	URL   string `json:"url,omitempty"`
	City  string `json:"city,omitempty"`
	Zip   string `json:"zip,omitempty"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// Record is the persisted registry entry for a provider.
type Record struct {
	Provider
	RiskScore   int                    `json:"riskScore"`
	RiskLevel   scanmodels.RiskLevel   `json:"riskLevel,omitempty"`
	StatusLabel string                 `json:"statusLabel,omitempty"`
	ScanCount   int                    `json:"scanCount"`
	LastScanAt  time.Time              `json:"lastScanAt"`
	LastResult  *scanmodels.ScanResult `json:"lastResult,omitempty"`
	CreatedAt   time.Time              `json:"createdAt"`
	UpdatedAt   time.Time              `json:"updatedAt"`
}

// Scan is the outcome written to the registry after a successful scan.
type Scan struct {
	Result      *scanmodels.ScanResult
	StatusLabel string
	At          time.Time
}

// NewRecord starts a record for p with no scans.
func NewRecord(p Provider, now time.Time) *Record {
	return &Record{Provider: p, CreatedAt: now, UpdatedAt: now}
}

// Apply merges p into the record and stores scan as the latest outcome.
// Profile fields already present are kept when p leaves them empty.
func (r *Record) Apply(p Provider, scan Scan) {
	r.Name = firstNonEmpty(p.Name, r.Name)
	r.City = firstNonEmpty(p.City, r.City)
	r.Zip = firstNonEmpty(p.Zip, r.Zip)
	r.Email = firstNonEmpty(p.Email, r.Email)
	r.Phone = firstNonEmpty(p.Phone, r.Phone)
	r.URL = firstNonEmpty(p.URL, r.URL)
	if scan.Result != nil {
		r.URL = firstNonEmpty(scan.Result.URL, r.URL)
		r.RiskScore = scan.Result.RiskScore
		r.RiskLevel = scan.Result.RiskLevel
		r.LastResult = scan.Result
	}
	r.StatusLabel = scan.StatusLabel
	r.ScanCount++
	r.LastScanAt = scan.At
	r.UpdatedAt = scan.At
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}
