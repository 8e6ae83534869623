package httpserver

import (
	"net/http"
	"time"
)

// New builds the HTTP server for the site. Timeouts cover both the
// rendered pages and the JSON API; nothing here streams, so short
// write deadlines are safe.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}
