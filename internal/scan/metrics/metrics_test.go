package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"sentry/internal/scan/models"
)

func TestObserveProbe(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveProbe("geo", 10*time.Millisecond, nil)
	m.ObserveProbe("geo", 10*time.Millisecond, errors.New("boom"))

	assert.Equal(t, 2, testutil.CollectAndCount(m.ProbeLatency))
	assert.InDelta(t, 1, testutil.ToFloat64(m.ProbeFailures.WithLabelValues("geo", "internal")), 0)
}

func TestObserveScan(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveScan(&models.ScanResult{
		ComplianceStatus: models.TierDrift,
		Findings: []models.Finding{
			{ID: "DR-01", Status: models.StatusPass},
			{ID: "AI-01", Status: models.StatusFail},
		},
	}, time.Second)

	assert.InDelta(t, 1, testutil.ToFloat64(m.ScanOutcome.WithLabelValues("Drift")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.CheckStatus.WithLabelValues("AI-01", "fail")), 0)
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveProbe("mx", time.Millisecond, nil)
		m.ObserveScan(&models.ScanResult{}, time.Second)
		m.IncrementScanFailure()
	})
}
