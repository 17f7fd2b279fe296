// Package setup assembles a scan engine from probe configuration. Both the
// server and the one-shot CLI build their engine here.
package setup

import (
	"fmt"
	"log/slog"

	"sentry/internal/platform/config"
	"sentry/internal/scan/engine"
	"sentry/internal/scan/fetch"
	"sentry/internal/scan/metrics"
	"sentry/internal/scan/npi"
	"sentry/internal/scan/probe"
	"sentry/internal/scan/vocab"
)

// Engine wires the probes, fetcher and NPI verifier described by cfg. m may
// be nil.
func Engine(cfg config.ProbeConfig, logger *slog.Logger, m *metrics.Metrics) (*engine.Service, error) {
	v, err := vocab.LoadFile(cfg.VocabFile)
	if err != nil {
		return nil, fmt.Errorf("load vocabulary: %w", err)
	}

	probeOpts := []probe.Option{
		probe.WithTimeout(cfg.LookupTimeout),
		probe.WithLogger(logger),
	}
	fetchOpts := []fetch.Option{
		fetch.WithTimeout(cfg.FetchTimeout),
		fetch.WithLogger(logger),
	}
	if m != nil {
		probeOpts = append(probeOpts, probe.WithObserver(m))
		fetchOpts = append(fetchOpts, fetch.WithObserver(m))
	}

	return engine.New(
		probe.NewGeoResolver(cfg.GeoBaseURL, cfg.SovereignCountry, probeOpts...),
		probe.NewMXResolver(cfg.DoHBaseURL, probeOpts...),
		probe.NewHeaderProber(probeOpts...),
		fetch.New(fetchOpts...),
		npi.New(cfg.NPIBaseURL, npi.WithTimeout(cfg.LookupTimeout), npi.WithLogger(logger)),
		engine.WithVocabulary(v),
		engine.WithLogger(logger),
		engine.WithMetrics(m),
	), nil
}
