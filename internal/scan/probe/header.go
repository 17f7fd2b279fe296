package probe

import (
	"context"
	"net/http"
	"strings"
)

// HeaderProber issues a single HEAD request and returns the response headers.
type HeaderProber struct {
	cfg config
}

func NewHeaderProber(opts ...Option) *HeaderProber {
	return &HeaderProber{cfg: newConfig(opts)}
}

// Probe returns lower-cased header names mapped to lower-cased values, or nil
// if the target could not be reached. Any HTTP status counts as reachable.
func (h *HeaderProber) Probe(ctx context.Context, target string) map[string]string {
	var headers map[string]string
	err := h.cfg.run(ctx, "headers", target, func(ctx context.Context) error {
		req, err := h.cfg.newRequest(ctx, http.MethodHead, target)
		if err != nil {
			return newProbeError(ErrorBadData, "headers", "build request", err)
		}
		resp, err := h.cfg.client.Do(req)
		if err != nil {
			return transportError("headers", err)
		}
		defer resp.Body.Close()

		headers = make(map[string]string, len(resp.Header))
		for name, values := range resp.Header {
			headers[strings.ToLower(name)] = strings.ToLower(strings.Join(values, ", "))
		}
		return nil
	})
	if err != nil {
		return nil
	}
	return headers
}
