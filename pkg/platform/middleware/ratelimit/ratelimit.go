// Package ratelimit throttles scan submissions per client IP. Every scan fans
// out to several third-party lookups, so the limiter protects those upstreams
// as much as this service.
package ratelimit

import (
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	dErrors "sentry/pkg/domain-errors"
	"sentry/pkg/platform/httputil"
	"sentry/pkg/requestcontext"
)

const idleEviction = 10 * time.Minute

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Middleware keeps one token bucket per client IP.
type Middleware struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	rps      rate.Limit
	burst    int
	logger   *slog.Logger
	disabled bool
	now      func() time.Time
}

type Option func(*Middleware)

// WithDisabled disables rate limiting entirely (local runs, tests).
func WithDisabled(disabled bool) Option {
	return func(m *Middleware) {
		m.disabled = disabled
	}
}

// WithClock overrides the clock used for idle eviction.
func WithClock(now func() time.Time) Option {
	return func(m *Middleware) {
		m.now = now
	}
}

func New(rps float64, burst int, logger *slog.Logger, opts ...Option) *Middleware {
	m := &Middleware{
		visitors: make(map[string]*visitor),
		rps:      rate.Limit(rps),
		burst:    burst,
		logger:   logger,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.disabled {
		logger.Info("scan rate limiting disabled")
	}
	return m
}

// Limit rejects requests over the per-IP budget with 429.
// Expects metadata.ClientMetadata earlier in the chain.
func (m *Middleware) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.disabled {
			next.ServeHTTP(w, r)
			return
		}

		ctx := r.Context()
		ip := requestcontext.ClientIP(ctx)
		lim := m.limiterFor(ip)

		res := lim.ReserveN(m.now(), 1)
		if delay := res.DelayFrom(m.now()); delay > 0 {
			res.CancelAt(m.now())
			m.logger.WarnContext(ctx, "scan rate limit exceeded",
				"client_ip", ip,
				"user_agent", requestcontext.UserAgent(ctx),
				"request_id", requestcontext.RequestID(ctx),
			)
			w.Header().Set("Retry-After", strconv.Itoa(int(delay.Seconds())+1))
			httputil.WriteError(w, dErrors.New(dErrors.CodeRateLimited, "too many scan requests"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (m *Middleware) limiterFor(ip string) *rate.Limiter {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	for key, v := range m.visitors {
		if now.Sub(v.lastSeen) > idleEviction {
			delete(m.visitors, key)
		}
	}

	v, ok := m.visitors[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(m.rps, m.burst)}
		m.visitors[ip] = v
	}
	v.lastSeen = now
	return v.limiter
}
