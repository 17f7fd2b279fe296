// Package httpserver builds the http.Server used by cmd/server.
package httpserver

import (
	"net/http"
	"time"
)

// WriteTimeout bounds a whole response. A scan fetches one page and resolves
// a handful of lookups, and bulk batches run up to 25 scans, so it is
// generous.
const WriteTimeout = 5 * time.Minute

// New builds an HTTP server with timeouts suited to long-running scans.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      WriteTimeout,
		IdleTimeout:       2 * time.Minute,
	}
}
