package handler

import (
	"net/url"
	"strings"

	"sentry/internal/scan/engine"
	dErrors "sentry/pkg/domain-errors"
)

const npiLength = 10

// ScanRequest is the HTTP request body for POST /api/scan.
type ScanRequest struct {
	NPI string `json:"npi"`
	URL string `json:"url"`
}

// Validate trims and checks the request. The URL is normalized to https
// when no scheme is given.
// Implements the Validatable interface for httputil.DecodeAndPrepare.
func (r *ScanRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.NPI = strings.TrimSpace(r.NPI)
	r.URL = strings.TrimSpace(r.URL)
	if r.NPI == "" || r.URL == "" {
		return dErrors.New(dErrors.CodeBadRequest, "NPI and URL are required")
	}
	if !validNPI(r.NPI) {
		return dErrors.New(dErrors.CodeValidation, "npi must be 10 digits")
	}
	normalized, err := validURL(r.URL)
	if err != nil {
		return err
	}
	r.URL = normalized
	return nil
}

// ProviderInput is one provider of a bulk batch.
type ProviderInput struct {
	NPI   string `json:"npi"`
	Name  string `json:"name"`
	URL   string `json:"url"`
	City  string `json:"city,omitempty"`
	Zip   string `json:"zip,omitempty"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// BulkScanRequest is the HTTP request body for POST /api/admin/bulk-scan.
type BulkScanRequest struct {
	Providers []ProviderInput `json:"providers"`
}

// Validate rejects an empty batch. Individual providers are checked as they
// are scanned so one bad row does not fail the whole batch.
func (r *BulkScanRequest) Validate() error {
	if r == nil || len(r.Providers) == 0 {
		return dErrors.New(dErrors.CodeBadRequest, "No providers provided")
	}
	for i := range r.Providers {
		p := &r.Providers[i]
		p.NPI = strings.TrimSpace(p.NPI)
		p.URL = strings.TrimSpace(p.URL)
	}
	return nil
}

func validNPI(npi string) bool {
	if len(npi) != npiLength {
		return false
	}
	for _, c := range npi {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

func validURL(raw string) (string, error) {
	normalized := engine.NormalizeURL(raw)
	u, err := url.Parse(normalized)
	if err != nil || u.Hostname() == "" {
		return "", dErrors.New(dErrors.CodeValidation, "url must be a valid http(s) address")
	}
	return normalized, nil
}
