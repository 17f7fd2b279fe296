// Package probe performs the network lookups a scan depends on: IP
// geolocation, MX resolution over DNS-over-HTTPS, and a header-only probe of
// the target. Every lookup is bounded by its own timeout and resolves to a
// nil or empty result on failure.
package probe

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	// DefaultTimeout bounds every lookup-class call.
	DefaultTimeout = 5 * time.Second

	// UserAgent is sent on every outbound request.
	UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"

	maxLookupBody = 1 << 20
	tracerName    = "sentry/internal/scan/probe"
)

// Observer receives one observation per lookup. err is nil on success.
type Observer interface {
	ObserveProbe(probe string, d time.Duration, err error)
}

type config struct {
	client   *http.Client
	timeout  time.Duration
	logger   *slog.Logger
	observer Observer
	tracer   trace.Tracer
}

// Option configures a probe client.
type Option func(*config)

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(cfg *config) {
		if c != nil {
			cfg.client = c
		}
	}
}

// WithTimeout overrides the per-lookup timeout.
func WithTimeout(d time.Duration) Option {
	return func(cfg *config) {
		if d > 0 {
			cfg.timeout = d
		}
	}
}

// WithLogger sets the logger used for debug-level failure reports.
func WithLogger(l *slog.Logger) Option {
	return func(cfg *config) {
		if l != nil {
			cfg.logger = l
		}
	}
}

// WithObserver attaches a metrics sink.
func WithObserver(o Observer) Option {
	return func(cfg *config) {
		cfg.observer = o
	}
}

// WithTracer overrides the tracer.
func WithTracer(t trace.Tracer) Option {
	return func(cfg *config) {
		if t != nil {
			cfg.tracer = t
		}
	}
}

func newConfig(opts []Option) config {
	cfg := config{
		client:  &http.Client{},
		timeout: DefaultTimeout,
		logger:  slog.New(slog.DiscardHandler),
		tracer:  otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

// run wraps a single lookup with its timeout, span, metrics and failure log.
func (c *config) run(ctx context.Context, probe, target string, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	ctx, span := c.tracer.Start(ctx, "probe."+probe,
		trace.WithAttributes(attribute.String("probe.target", target)))
	defer span.End()

	start := time.Now()
	err := fn(ctx)
	if c.observer != nil {
		c.observer.ObserveProbe(probe, time.Since(start), err)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(GetCategory(err)))
		c.logger.DebugContext(ctx, "probe failed",
			"probe", probe,
			"target", target,
			"category", GetCategory(err),
			"error", err,
		)
	}
	return err
}

func (c *config) newRequest(ctx context.Context, method, url string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("Accept", "application/json, text/html;q=0.9, */*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	return req, nil
}
