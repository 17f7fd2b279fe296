package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores and clients return these
// (optionally wrapped) and services translate them into domain errors:
//   - ErrNotFound: no record exists for the key
//   - ErrUnavailable: backing service or upstream registry cannot be reached
//   - ErrMalformed: upstream returned data that does not match its contract
//
// For request validation use pkg/domain-errors directly.
var (
	ErrNotFound    = errors.New("not found")
	ErrUnavailable = errors.New("unavailable")
	ErrMalformed   = errors.New("malformed response")
)
