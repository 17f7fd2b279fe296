// Package engine orchestrates one compliance scan: it resolves every probe,
// runs the twelve checks over the frozen results and assembles a ScanResult.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"sentry/internal/scan/bordermap"
	"sentry/internal/scan/checks"
	"sentry/internal/scan/metrics"
	"sentry/internal/scan/models"
	"sentry/internal/scan/pagecontext"
	"sentry/internal/scan/probe"
	"sentry/internal/scan/scoring"
	"sentry/internal/scan/vocab"
	"sentry/pkg/requestcontext"
)

// Service runs scans. It holds no per-scan state and is safe for concurrent use.
type Service struct {
	geo     GeoResolver
	mx      MXResolver
	headers HeaderProber
	fetcher PageFetcher
	npi     NPIVerifier

	vocab   *vocab.Vocabulary
	logger  *slog.Logger
	metrics *metrics.Metrics
	tracer  trace.Tracer
	now     func() time.Time
}

type Option func(*Service)

func WithVocabulary(v *vocab.Vocabulary) Option {
	return func(s *Service) {
		if v != nil {
			s.vocab = v
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithTracer(t trace.Tracer) Option {
	return func(s *Service) {
		if t != nil {
			s.tracer = t
		}
	}
}

// WithClock overrides the time source used for timestamps and durations.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// New constructs a Service.
func New(geo GeoResolver, mx MXResolver, headers HeaderProber, fetcher PageFetcher, npi NPIVerifier, opts ...Option) *Service {
	s := &Service{
		geo:     geo,
		mx:      mx,
		headers: headers,
		fetcher: fetcher,
		npi:     npi,
		vocab:   vocab.Default(),
		logger:  slog.New(slog.DiscardHandler),
		tracer:  otel.Tracer("sentry/internal/scan/engine"),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Scan audits req.URL on behalf of req.NPI. It returns either a complete
// result or an error matching ErrScanFailed; never both.
func (s *Service) Scan(ctx context.Context, req models.ScanRequest) (result *models.ScanResult, err error) {
	start := s.now()
	requestID := requestcontext.RequestID(ctx)

	ctx, span := s.tracer.Start(ctx, "scan.run", trace.WithAttributes(
		attribute.String("scan.npi", req.NPI),
		attribute.String("scan.url", req.URL),
	))
	defer span.End()

	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = s.abort(ctx, span, requestID, &panicError{value: r, stack: debug.Stack()})
		}
	}()

	result, err = s.run(ctx, req, start)
	if err != nil {
		return nil, s.abort(ctx, span, requestID, err)
	}

	s.metrics.ObserveScan(result, s.now().Sub(start))
	span.SetAttributes(
		attribute.Int("scan.risk_score", result.RiskScore),
		attribute.String("scan.tier", string(result.ComplianceStatus)),
	)
	s.logger.InfoContext(ctx, "scan completed",
		"request_id", requestID,
		"scan_id", result.Meta.ScanID,
		"npi", result.NPI,
		"url", result.URL,
		"risk_score", result.RiskScore,
		"tier", result.ComplianceStatus,
		"duration_ms", result.ScanDuration,
	)
	return result, nil
}

func (s *Service) abort(ctx context.Context, span trace.Span, requestID string, cause error) error {
	s.metrics.IncrementScanFailure()
	span.RecordError(cause)
	span.SetStatus(codes.Error, "scan failed")

	attrs := []any{"request_id", requestID, "error", cause}
	var pe *panicError
	if errors.As(cause, &pe) {
		attrs = append(attrs, "stack", string(pe.stack))
	}
	s.logger.ErrorContext(ctx, "scan aborted", attrs...)
	return newScanError(cause)
}

// run performs the scan. Errors only surface from recovered worker panics.
func (s *Service) run(ctx context.Context, req models.ScanRequest, start time.Time) (*models.ScanResult, error) {
	target := NormalizeURL(req.URL)

	var (
		verification models.NPIVerification
		side         errgroup.Group
	)
	side.Go(guard(func() error {
		verification = s.npi.Verify(ctx, req.NPI)
		return nil
	}))
	// Also waits while unwinding a panic so no worker outlives the scan.
	defer func() { _ = side.Wait() }()

	page := s.fetcher.Fetch(ctx, target)
	pageCtx := pagecontext.Derive(target, page, s.vocab)
	in := checks.NewInput(target, page, pageCtx, s.vocab)

	net, err := s.resolve(ctx, in)
	if err != nil {
		return nil, err
	}

	border := bordermap.New()
	findings := make([]models.Finding, 0, 12)
	for _, res := range []checks.Result{
		checks.PrimaryResidency(in, net.primary),
		checks.EdgeCache(in, net.headers),
		checks.MailExchange(in, net.mxRecords, net.mxGeo),
		checks.SubProcessorAudit(in, net.subs),
	} {
		findings = append(findings, res.Finding)
		border.Add(res.Nodes...)
	}
	findings = append(findings, checks.RunContent(in)...)

	if err := side.Wait(); err != nil {
		return nil, err
	}

	summary := scoring.Summarize(findings)
	end := s.now()
	duration := end.Sub(start).Milliseconds()

	result := &models.ScanResult{
		NPI:              req.NPI,
		URL:              target,
		RiskScore:        summary.Score,
		RiskLevel:        summary.RiskLevel,
		RiskMeterLevel:   summary.Tier,
		ComplianceStatus: summary.Tier,
		Findings:         findings,
		TopIssues:        summary.TopIssues,
		CategoryScores:   summary.Categories,
		DataBorderMap:    border.Nodes(),
		ScanTimestamp:    end.UnixMilli(),
		ScanDuration:     duration,
		EngineVersion:    models.EngineVersion,
		NPIVerification:  verification,
		PageContext:      pageCtx,
		Meta: models.Meta{
			ScanID:             uuid.NewString(),
			Engine:             models.EngineVersion,
			Duration:           fmt.Sprintf("%dms", duration),
			PageContentFetched: page.Fetched,
			PageSize:           page.Size,
			PageType:           pageCtx.Type,
			ChecksRun:          len(findings),
		},
	}
	for _, f := range findings {
		switch f.Status {
		case models.StatusPass:
			result.Meta.ChecksPass++
		case models.StatusFail:
			result.Meta.ChecksFail++
		case models.StatusWarn:
			result.Meta.ChecksWarn++
		}
	}
	return result, nil
}

// resolved is the frozen network view the DR checks read.
type resolved struct {
	primary   *probe.GeoInfo
	headers   map[string]string
	mxRecords []probe.MXRecord
	mxGeo     []checks.MXGeo
	subs      []checks.SubProcessor
}

// resolve runs every network probe concurrently. Probe failures are absorbed
// by the probes themselves.
func (s *Service) resolve(ctx context.Context, in checks.Input) (*resolved, error) {
	out := &resolved{subs: checks.ExtractSubProcessors(in)}

	var g errgroup.Group
	g.Go(guard(func() error {
		out.primary = s.geo.Resolve(ctx, in.Domain)
		return nil
	}))
	g.Go(guard(func() error {
		out.headers = s.headers.Probe(ctx, in.TargetURL)
		return nil
	}))
	g.Go(guard(func() error {
		out.mxRecords = s.mx.Resolve(ctx, in.Domain)
		geo, err := s.resolveMX(ctx, out.mxRecords)
		out.mxGeo = geo
		return err
	}))
	g.Go(guard(func() error {
		return s.resolveSubProcessors(ctx, out.subs)
	}))

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) resolveMX(ctx context.Context, records []probe.MXRecord) ([]checks.MXGeo, error) {
	top := records[:min(len(records), checks.MaxMXResolved)]
	out := make([]checks.MXGeo, len(top))

	var g errgroup.Group
	g.SetLimit(checks.MaxMXResolved)
	for i, rec := range top {
		g.Go(guard(func() error {
			out[i] = checks.MXGeo{Record: rec, Geo: s.geo.Resolve(ctx, rec.Exchange)}
			return nil
		}))
	}
	return out, g.Wait()
}

func (s *Service) resolveSubProcessors(ctx context.Context, subs []checks.SubProcessor) error {
	var g errgroup.Group
	g.SetLimit(checks.MaxSubProcessorsResolved)
	for i := range subs[:min(len(subs), checks.MaxSubProcessorsResolved)] {
		g.Go(guard(func() error {
			subs[i].Geo = s.geo.Resolve(ctx, subs[i].Domain)
			return nil
		}))
	}
	return g.Wait()
}

// guard converts a panic inside fn into an error so it can cross goroutines.
func guard(fn func() error) func() error {
	return func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = &panicError{value: r, stack: debug.Stack()}
			}
		}()
		return fn()
	}
}
