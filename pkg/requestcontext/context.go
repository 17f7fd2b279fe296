// Package requestcontext provides HTTP-independent context accessors for request-scoped values.
//
// Middleware sets these values; services and stores read them without
// importing net/http.
//
//	requestID := requestcontext.RequestID(ctx)
//	now := requestcontext.Now(ctx)
//
// Tests inject values directly:
//
//	ctx = requestcontext.WithTime(ctx, fixedTime)
package requestcontext

import (
	"context"
	"time"
)

type (
	subjectKey     struct{}
	clientIPKey    struct{}
	userAgentKey   struct{}
	requestIDKey   struct{}
	requestTimeKey struct{}
)

func value[T any](ctx context.Context, key any) T {
	v, _ := ctx.Value(key).(T)
	return v
}

// Subject is the authenticated API subject (JWT "sub"), empty when the
// request was not authenticated.
func Subject(ctx context.Context) string { return value[string](ctx, subjectKey{}) }

func WithSubject(ctx context.Context, subject string) context.Context {
	return context.WithValue(ctx, subjectKey{}, subject)
}

// ClientIP is the caller address resolved by the metadata middleware.
func ClientIP(ctx context.Context) string { return value[string](ctx, clientIPKey{}) }

func UserAgent(ctx context.Context) string { return value[string](ctx, userAgentKey{}) }

// WithClientMetadata records the caller address and User-Agent.
func WithClientMetadata(ctx context.Context, clientIP, userAgent string) context.Context {
	return context.WithValue(context.WithValue(ctx, clientIPKey{}, clientIP), userAgentKey{}, userAgent)
}

func RequestID(ctx context.Context) string { return value[string](ctx, requestIDKey{}) }

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

// Now is the time pinned for this request, or the wall clock outside an HTTP
// request (CLI runs, tests).
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(requestTimeKey{}).(time.Time); ok {
		return t
	}
	return time.Now()
}

func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, requestTimeKey{}, t)
}
