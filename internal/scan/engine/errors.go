package engine

import (
	"errors"
	"fmt"

	"sentry/internal/scan/models"
	dErrors "sentry/pkg/domain-errors"
)

// ErrScanFailed matches every error produced by an aborted scan.
var ErrScanFailed = errors.New("scan failed")

// ScanError describes an internal fault that aborted a scan.
type ScanError struct {
	EngineVersion string
	Cause         string
}

func (e *ScanError) Error() string {
	return "scan failed: " + e.Cause
}

func (e *ScanError) Is(target error) bool {
	return target == ErrScanFailed
}

// panicError carries a recovered panic out of a worker goroutine.
type panicError struct {
	value any
	stack []byte
}

func (e *panicError) Error() string {
	return fmt.Sprint(e.value)
}

func newScanError(cause error) error {
	return dErrors.Wrap(&ScanError{EngineVersion: models.EngineVersion, Cause: cause.Error()}, dErrors.CodeInternal, "scan failed")
}
