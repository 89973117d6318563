// Package httpserver builds the process HTTP server. Timeouts are sized for
// a small JSON API whose slowest requests are bounded by the router's
// per-request deadline.
package httpserver

import (
	"net/http"
	"time"
)

const (
	readHeaderTimeout = 5 * time.Second
	readTimeout       = 15 * time.Second

	// writeTimeout must exceed the router's per-request timeout so slow
	// registry transactions surface as a 504, not a dropped connection.
	writeTimeout = 60 * time.Second
	idleTimeout  = 2 * time.Minute
)

// New builds the server around the given handler.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
	}
}
