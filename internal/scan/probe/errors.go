package probe

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// ErrorCategory normalizes probe failures for logs and metrics. Callers of the
// exported Resolve/Probe methods never see these; they are absorbed into nil
// or empty results.
type ErrorCategory string

const (
	ErrorTimeout        ErrorCategory = "timeout"
	ErrorBadData        ErrorCategory = "bad_data"
	ErrorProviderOutage ErrorCategory = "provider_outage"
	ErrorNotFound       ErrorCategory = "not_found"
	ErrorInternal       ErrorCategory = "internal"
)

// ProbeError wraps one failed lookup.
type ProbeError struct {
	Category   ErrorCategory
	Probe      string
	Message    string
	Underlying error
}

func (e *ProbeError) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("probe %s [%s]: %s: %v", e.Probe, e.Category, e.Message, e.Underlying)
	}
	return fmt.Sprintf("probe %s [%s]: %s", e.Probe, e.Category, e.Message)
}

func (e *ProbeError) Unwrap() error {
	return e.Underlying
}

func newProbeError(category ErrorCategory, probe, message string, underlying error) *ProbeError {
	return &ProbeError{Category: category, Probe: probe, Message: message, Underlying: underlying}
}

// GetCategory extracts the category from err, defaulting to internal.
func GetCategory(err error) ErrorCategory {
	var pe *ProbeError
	if errors.As(err, &pe) {
		return pe.Category
	}
	return ErrorInternal
}

// transportError classifies a failed round trip.
func transportError(probe string, err error) *ProbeError {
	if errors.Is(err, context.DeadlineExceeded) {
		return newProbeError(ErrorTimeout, probe, "request timed out", err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return newProbeError(ErrorTimeout, probe, "request timed out", err)
	}
	return newProbeError(ErrorProviderOutage, probe, "request failed", err)
}
