package handler

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/time/rate"

	registrymodels "sentry/internal/registry/models"
	"sentry/internal/scan/engine"
	"sentry/internal/scan/events"
	"sentry/internal/scan/models"
	"sentry/internal/scan/scoring"
	dErrors "sentry/pkg/domain-errors"
	"sentry/pkg/platform/httputil"
	"sentry/pkg/platform/sentinel"
	"sentry/pkg/requestcontext"
)

// Scanner runs one scan.
type Scanner interface {
	Scan(ctx context.Context, req models.ScanRequest) (*models.ScanResult, error)
}

// Registry records scan outcomes per provider.
type Registry interface {
	FindByNPI(ctx context.Context, npi string) (*registrymodels.Record, error)
	RecordScan(ctx context.Context, p registrymodels.Provider, scan registrymodels.Scan) (*registrymodels.Record, error)
}

// Middleware guards individual routes. Nil entries leave a route open.
type Middleware struct {
	ScanLimit    func(http.Handler) http.Handler
	RegistryRead func(http.Handler) http.Handler
	BulkScan     func(http.Handler) http.Handler
}

// Handler serves the scan, registry and bulk-scan endpoints.
type Handler struct {
	scanner   Scanner
	registry  Registry
	publisher events.Publisher
	logger    *slog.Logger
	bulkDelay time.Duration
}

// Option configures a Handler.
type Option func(*Handler)

// WithRegistry stores every successful scan. Without one the registry
// endpoint answers 404.
func WithRegistry(r Registry) Option {
	return func(h *Handler) {
		h.registry = r
	}
}

// WithPublisher emits a scan-completed event after every successful scan.
func WithPublisher(p events.Publisher) Option {
	return func(h *Handler) {
		if p != nil {
			h.publisher = p
		}
	}
}

// WithBulkDelay spaces consecutive scans in a bulk batch so the geo lookup
// upstream's rate limits hold.
func WithBulkDelay(d time.Duration) Option {
	return func(h *Handler) {
		if d >= 0 {
			h.bulkDelay = d
		}
	}
}

// New constructs a scan handler.
func New(scanner Scanner, logger *slog.Logger, opts ...Option) *Handler {
	h := &Handler{
		scanner:   scanner,
		logger:    logger,
		publisher: events.NewLogPublisher(nil),
		bulkDelay: 2500 * time.Millisecond,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	return h
}

// Register mounts the endpoints on r.
func (h *Handler) Register(r chi.Router, mw Middleware) {
	r.With(optional(mw.ScanLimit)...).Post("/api/scan", h.HandleScan)
	r.With(optional(mw.RegistryRead)...).Get("/api/registry/{npi}", h.HandleGetRecord)
	r.With(optional(mw.BulkScan)...).Post("/api/admin/bulk-scan", h.HandleBulkScan)
}

func optional(mw func(http.Handler) http.Handler) []func(http.Handler) http.Handler {
	if mw == nil {
		return nil
	}
	return []func(http.Handler) http.Handler{mw}
}

// HandleScan handles POST /api/scan.
func (h *Handler) HandleScan(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[ScanRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	result, err := h.scanner.Scan(ctx, models.ScanRequest{NPI: req.NPI, URL: req.URL})
	if err != nil {
		writeScanError(w, err)
		return
	}

	h.record(ctx, registrymodels.Provider{NPI: req.NPI, URL: result.URL}, result, requestcontext.Now(ctx))
	httputil.WriteJSON(w, http.StatusOK, result)
}

// HandleGetRecord handles GET /api/registry/{npi}.
func (h *Handler) HandleGetRecord(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	npi := chi.URLParam(r, "npi")
	if !validNPI(npi) {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "npi must be 10 digits"))
		return
	}
	if h.registry == nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "no scan recorded for npi"))
		return
	}

	rec, err := h.registry.FindByNPI(ctx, npi)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "no scan recorded for npi"))
			return
		}
		h.logger.ErrorContext(ctx, "registry lookup failed",
			"request_id", requestcontext.RequestID(ctx),
			"npi", npi,
			"error", err,
		)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "registry lookup failed"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, rec)
}

// record stores result and publishes its event. Neither is allowed to fail
// the scan that produced it.
func (h *Handler) record(ctx context.Context, p registrymodels.Provider, result *models.ScanResult, at time.Time) {
	requestID := requestcontext.RequestID(ctx)
	if h.registry != nil {
		scan := registrymodels.Scan{
			Result:      result,
			StatusLabel: scoring.ReportGrade(result.RiskScore),
			At:          at,
		}
		if _, err := h.registry.RecordScan(ctx, p, scan); err != nil {
			h.logger.WarnContext(ctx, "failed to record scan in registry",
				"request_id", requestID,
				"npi", p.NPI,
				"error", err,
			)
		}
	}
	if err := h.publisher.Publish(ctx, events.FromResult(result)); err != nil {
		h.logger.WarnContext(ctx, "failed to publish scan event",
			"request_id", requestID,
			"npi", p.NPI,
			"error", err,
		)
	}
}

func writeScanError(w http.ResponseWriter, err error) {
	var se *engine.ScanError
	if errors.As(err, &se) {
		httputil.WriteJSON(w, http.StatusInternalServerError, ScanErrorResponse{
			Error:         "Scan failed",
			Message:       se.Cause,
			EngineVersion: se.EngineVersion,
		})
		return
	}
	httputil.WriteError(w, err)
}

func newBulkPacer(delay time.Duration) *rate.Limiter {
	if delay <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(delay), 1)
}
