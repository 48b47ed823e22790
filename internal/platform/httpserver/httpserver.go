package httpserver

import (
	"net/http"
	"time"
)

// New builds the portal's HTTP server. Multipart document uploads can
// be slow on mobile connections, so only the header read is bounded.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
