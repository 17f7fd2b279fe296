package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	registrymodels "sentry/internal/registry/models"
	"sentry/internal/scan/engine"
	"sentry/internal/scan/models"
	"sentry/internal/scan/scoring"
	"sentry/pkg/platform/httputil"
	"sentry/pkg/requestcontext"
)

const (
	DefaultBatchSize = 10
	MaxBatchSize     = 25
)

// HandleBulkScan handles POST /api/admin/bulk-scan. It scans up to batch_size
// providers in order, one at a time, and hands the rest back as nextBatch.
func (h *Handler) HandleBulkScan(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	req, ok := httputil.DecodeAndPrepare[BulkScanRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	size := batchSize(r.URL.Query().Get("batch_size"))
	batch := req.Providers[:min(size, len(req.Providers))]
	pacer := newBulkPacer(h.bulkDelay)

	results := make([]BulkScanItem, 0, len(batch))
	for _, p := range batch {
		if err := pacer.Wait(ctx); err != nil {
			break
		}
		results = append(results, h.scanProvider(ctx, p))
	}

	processed := len(results)
	resp := BulkScanResponse{
		BatchSize: processed,
		Remaining: len(req.Providers) - processed,
		Total:     len(req.Providers),
		Results:   results,
		NextBatch: append([]ProviderInput{}, req.Providers[processed:]...),
	}
	for _, item := range results {
		if item.Success {
			resp.Scanned++
		} else {
			resp.Failed++
		}
	}

	h.logger.InfoContext(ctx, "bulk scan batch complete",
		"request_id", requestID,
		"subject", requestcontext.Subject(ctx),
		"batch_size", resp.BatchSize,
		"scanned", resp.Scanned,
		"failed", resp.Failed,
		"remaining", resp.Remaining,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) scanProvider(ctx context.Context, p ProviderInput) BulkScanItem {
	start := time.Now()
	item := BulkScanItem{NPI: p.NPI, Name: p.Name, URL: p.URL}
	finish := func(msg string) BulkScanItem {
		item.Error = msg
		item.DurationMs = time.Since(start).Milliseconds()
		return item
	}

	if !validNPI(p.NPI) {
		return finish("NPI must be 10 digits")
	}
	if p.URL == "" {
		return finish("No URL provided")
	}
	target, err := validURL(p.URL)
	if err != nil {
		return finish("Invalid URL")
	}

	result, err := h.scanner.Scan(ctx, models.ScanRequest{NPI: p.NPI, URL: target})
	if err != nil {
		var se *engine.ScanError
		if errors.As(err, &se) {
			return finish(se.Cause)
		}
		return finish("Scan failed")
	}

	h.record(ctx, registrymodels.Provider{
		NPI:   p.NPI,
		Name:  p.Name,
		URL:   result.URL,
		City:  p.City,
		Zip:   p.Zip,
		Email: p.Email,
		Phone: p.Phone,
	}, result, time.Now())

	item = itemFromResult(p, result, scoring.ReportGrade(result.RiskScore))
	item.DurationMs = time.Since(start).Milliseconds()
	return item
}

func batchSize(raw string) int {
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return DefaultBatchSize
	}
	return min(n, MaxBatchSize)
}
