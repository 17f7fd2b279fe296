package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"sentry/internal/scan/models"
	"sentry/internal/scan/probe"
)

// Metrics provides observability for the scan engine.
type Metrics struct {
	// Probe latencies by probe name (geo, mx, headers, fetch)
	ProbeLatency *prometheus.HistogramVec

	// Probe failures by probe and failure category
	ProbeFailures *prometheus.CounterVec

	// Full scan latency
	ScanLatency prometheus.Histogram

	// Scan outcomes by compliance tier
	ScanOutcome *prometheus.CounterVec

	// Check results by check ID and status
	CheckStatus *prometheus.CounterVec

	// Scans aborted by an internal fault
	ScanFailures prometheus.Counter
}

// New registers the scan metrics with reg, or the default registerer when
// reg is nil.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Metrics{
		ProbeLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "sentry_probe_duration_seconds",
			Help:    "Duration of network probes by probe name",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 15},
		}, []string{"probe"}),

		ProbeFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "sentry_probe_failures_total",
			Help: "Probe failures by probe name and failure category",
		}, []string{"probe", "category"}),

		ScanLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "sentry_scan_duration_seconds",
			Help:    "Duration of a full compliance scan",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 30},
		}),

		ScanOutcome: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "sentry_scan_outcomes_total",
			Help: "Completed scans by compliance tier",
		}, []string{"tier"}),

		CheckStatus: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "sentry_check_results_total",
			Help: "Check results by check id and status",
		}, []string{"check", "status"}),

		ScanFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "sentry_scan_failures_total",
			Help: "Scans aborted by an internal fault",
		}),
	}
}

// ObserveProbe records one probe call. It satisfies probe.Observer.
func (m *Metrics) ObserveProbe(name string, d time.Duration, err error) {
	if m == nil {
		return
	}
	m.ProbeLatency.WithLabelValues(name).Observe(d.Seconds())
	if err != nil {
		m.ProbeFailures.WithLabelValues(name, string(probe.GetCategory(err))).Inc()
	}
}

// ObserveScan records a completed scan and its findings.
func (m *Metrics) ObserveScan(result *models.ScanResult, d time.Duration) {
	if m == nil || result == nil {
		return
	}
	m.ScanLatency.Observe(d.Seconds())
	m.ScanOutcome.WithLabelValues(string(result.ComplianceStatus)).Inc()
	for _, f := range result.Findings {
		m.CheckStatus.WithLabelValues(f.ID, string(f.Status)).Inc()
	}
}

// IncrementScanFailure records a scan that ended in an internal fault.
func (m *Metrics) IncrementScanFailure() {
	if m != nil {
		m.ScanFailures.Inc()
	}
}
