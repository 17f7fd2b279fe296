package testutil

import (
	"net/http"
	"time"

	"sentry/pkg/requestcontext"
)

// WithTime pins the request clock the way the requesttime middleware does.
func WithTime(req *http.Request, t time.Time) *http.Request {
	return req.WithContext(requestcontext.WithTime(req.Context(), t))
}
