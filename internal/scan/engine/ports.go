package engine

import (
	"context"

	"sentry/internal/scan/fetch"
	"sentry/internal/scan/models"
	"sentry/internal/scan/probe"
)

// GeoResolver geolocates a hostname; nil means unresolved.
type GeoResolver interface {
	Resolve(ctx context.Context, host string) *probe.GeoInfo
}

// MXResolver lists mail exchangers by ascending preference; empty on failure.
type MXResolver interface {
	Resolve(ctx context.Context, domain string) []probe.MXRecord
}

// HeaderProber returns lower-cased response headers; nil on failure.
type HeaderProber interface {
	Probe(ctx context.Context, url string) map[string]string
}

// PageFetcher retrieves the audited page.
type PageFetcher interface {
	Fetch(ctx context.Context, url string) fetch.Page
}

// NPIVerifier looks an NPI up in the provider registry.
type NPIVerifier interface {
	Verify(ctx context.Context, npi string) models.NPIVerification
}
