package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	scanmodels "sentry/internal/scan/models"
)

func TestApplyKeepsExistingProfileFields(t *testing.T) {
	created := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rec := NewRecord(Provider{NPI: "1234567893", Name: "Dr. Ada", City: "Austin", Phone: "555"}, created)

	at := created.Add(time.Hour)
	rec.Apply(Provider{NPI: "1234567893", Email: "ada@example.com"}, Scan{
		Result:      &scanmodels.ScanResult{URL: "https://ada.example.com", RiskScore: 84, RiskLevel: scanmodels.RiskLow},
		StatusLabel: "Verified Sovereign",
		At:          at,
	})

	assert.Equal(t, "Dr. Ada", rec.Name)
	assert.Equal(t, "Austin", rec.City)
	assert.Equal(t, "555", rec.Phone)
	assert.Equal(t, "ada@example.com", rec.Email)
	assert.Equal(t, "https://ada.example.com", rec.URL)
	assert.Equal(t, 84, rec.RiskScore)
	assert.Equal(t, scanmodels.RiskLow, rec.RiskLevel)
	assert.Equal(t, 1, rec.ScanCount)
	assert.Equal(t, at, rec.LastScanAt)
	assert.Equal(t, created, rec.CreatedAt)
	assert.Equal(t, at, rec.UpdatedAt)
}

func TestApplyIncrementsScanCount(t *testing.T) {
	rec := NewRecord(Provider{NPI: "1234567893"}, time.Now())
	for i := 0; i < 3; i++ {
		rec.Apply(Provider{NPI: "1234567893"}, Scan{Result: &scanmodels.ScanResult{}, At: time.Now()})
	}
	assert.Equal(t, 3, rec.ScanCount)
}
