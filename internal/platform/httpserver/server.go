package httpserver

import (
	"net/http"
	"time"
)

// New wraps http.Server with timeouts appropriate for a small API gateway.
// The write timeout leaves headroom for a synchronous catalog refresh on a
// cold page request.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}
