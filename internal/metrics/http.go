package metrics

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server exposes a collector's registry over HTTP for scraping during
// long batch runs.
type Server struct {
	server *http.Server
	ln     net.Listener
}

// Serve starts serving the collector's metrics at /metrics on the given
// address. It returns once the listener is bound.
func Serve(addr string, c *Collector) (*Server, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("metrics: listening on %s: %w", addr, err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(
		c.Registry(), promhttp.HandlerOpts{}))

	srv := &http.Server{Handler: mux}
	go func() {
		// Serve returns ErrServerClosed on Shutdown; other errors only
		// take down the scrape endpoint, never the generation run.
		_ = srv.Serve(ln)
	}()

	return &Server{server: srv, ln: ln}, nil
}

// Addr returns the bound listener address.
func (s *Server) Addr() string {
	return s.ln.Addr().String()
}

// Shutdown stops the metrics endpoint.
func (s *Server) Shutdown(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return s.server.Shutdown(shutdownCtx)
}
