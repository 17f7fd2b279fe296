// Package store persists provider registry records in memory, Redis or
// PostgreSQL. All backends report a missing record as sentinel.ErrNotFound.
package store

import (
	"errors"
	"time"

	"sentry/internal/registry/models"
)

var (
	errNPIRequired    = errors.New("npi is required")
	errResultRequired = errors.New("scan result is required")
)

func validate(p models.Provider, scan models.Scan) error {
	if p.NPI == "" {
		return errNPIRequired
	}
	if scan.Result == nil {
		return errResultRequired
	}
	return nil
}

type options struct {
	now       func() time.Time
	keyPrefix string
	ttl       time.Duration
}

// Option configures a store.
type Option func(*options)

// WithClock overrides the time source used for scan timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithKeyPrefix sets the Redis key prefix.
func WithKeyPrefix(prefix string) Option {
	return func(o *options) {
		if prefix != "" {
			o.keyPrefix = prefix
		}
	}
}

// WithTTL expires Redis records after ttl. Zero keeps them indefinitely.
func WithTTL(ttl time.Duration) Option {
	return func(o *options) {
		o.ttl = ttl
	}
}

func newOptions(opts []Option) options {
	o := options{now: time.Now, keyPrefix: "registry:npi:"}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}
