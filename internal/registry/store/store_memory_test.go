package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sentry/internal/registry/models"
	scanmodels "sentry/internal/scan/models"
	"sentry/pkg/platform/sentinel"
)

func fixedClock() func() time.Time {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return func() time.Time { return at }
}

func TestInMemoryStoreFindMissing(t *testing.T) {
	s := NewInMemoryStore()
	_, err := s.FindByNPI(context.Background(), "1234567893")
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestInMemoryStoreRecordScan(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryStore(WithClock(fixedClock()))

	result := &scanmodels.ScanResult{URL: "https://clinic.example.com", RiskScore: 91, RiskLevel: scanmodels.RiskLow}
	rec, err := s.RecordScan(ctx, models.Provider{NPI: "1234567893", Name: "Clinic"}, models.Scan{Result: result, StatusLabel: "Verified Sovereign"})
	require.NoError(t, err)
	assert.Equal(t, 1, rec.ScanCount)
	assert.Equal(t, fixedClock()(), rec.LastScanAt)
	assert.Equal(t, fixedClock()(), rec.CreatedAt)

	_, err = s.RecordScan(ctx, models.Provider{NPI: "1234567893"}, models.Scan{Result: result})
	require.NoError(t, err)

	found, err := s.FindByNPI(ctx, "1234567893")
	require.NoError(t, err)
	assert.Equal(t, 2, found.ScanCount)
	assert.Equal(t, "Clinic", found.Name)
	assert.Equal(t, 91, found.RiskScore)
	assert.Same(t, result, found.LastResult)
}

func TestInMemoryStoreRejectsIncompleteScans(t *testing.T) {
	s := NewInMemoryStore()
	_, err := s.RecordScan(context.Background(), models.Provider{}, models.Scan{Result: &scanmodels.ScanResult{}})
	assert.ErrorIs(t, err, errNPIRequired)

	_, err = s.RecordScan(context.Background(), models.Provider{NPI: "1234567893"}, models.Scan{})
	assert.ErrorIs(t, err, errResultRequired)
}

func TestInMemoryStoreConcurrentScans(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryStore()
	const n = 50

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = s.RecordScan(ctx, models.Provider{NPI: "1234567893"}, models.Scan{Result: &scanmodels.ScanResult{}})
		}()
	}
	wg.Wait()

	found, err := s.FindByNPI(ctx, "1234567893")
	require.NoError(t, err)
	assert.Equal(t, n, found.ScanCount)
}
