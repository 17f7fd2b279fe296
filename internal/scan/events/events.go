// Package events publishes a scan-completed event for every successful scan.
package events

import (
	"context"
	"log/slog"
	"time"

	"sentry/internal/scan/models"
)

// TypeScanCompleted is the event_type header value.
const TypeScanCompleted = "scan.completed"

// ScanCompleted is the event body. It carries the headline numbers only; the
// full result lives in the registry.
type ScanCompleted struct {
	ScanID        string           `json:"scanId"`
	NPI           string           `json:"npi"`
	URL           string           `json:"url"`
	RiskScore     int              `json:"riskScore"`
	RiskLevel     models.RiskLevel `json:"riskLevel"`
	Tier          models.Tier      `json:"tier"`
	ChecksFail    int              `json:"checksFail"`
	ChecksWarn    int              `json:"checksWarn"`
	EngineVersion string           `json:"engineVersion"`
	ScannedAt     time.Time        `json:"scannedAt"`
}

// FromResult builds the event for result.
func FromResult(result *models.ScanResult) ScanCompleted {
	return ScanCompleted{
		ScanID:        result.Meta.ScanID,
		NPI:           result.NPI,
		URL:           result.URL,
		RiskScore:     result.RiskScore,
		RiskLevel:     result.RiskLevel,
		Tier:          result.ComplianceStatus,
		ChecksFail:    result.Meta.ChecksFail,
		ChecksWarn:    result.Meta.ChecksWarn,
		EngineVersion: result.EngineVersion,
		ScannedAt:     time.UnixMilli(result.ScanTimestamp).UTC(),
	}
}

// Publisher emits scan events.
type Publisher interface {
	Publish(ctx context.Context, evt ScanCompleted) error
}

// LogPublisher writes events to the structured log. It is the publisher used
// when no broker is configured and the fallback while the broker is down.
type LogPublisher struct {
	logger *slog.Logger
}

// NewLogPublisher returns a LogPublisher. A nil logger discards events.
func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(ctx context.Context, evt ScanCompleted) error {
	if p.logger == nil {
		return nil
	}
	p.logger.InfoContext(ctx, "scan event",
		"event_type", TypeScanCompleted,
		"scan_id", evt.ScanID,
		"npi", evt.NPI,
		"risk_score", evt.RiskScore,
		"tier", evt.Tier,
	)
	return nil
}
