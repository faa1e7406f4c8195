package observability

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

// MetricsPath is where metrics are served.
const MetricsPath = "/metrics"

// Server serves the Prometheus metrics endpoint.
type Server struct {
	addr     string
	gatherer prometheus.Gatherer
	server   *http.Server
}

// NewServer creates a metrics server for host:port. A nil gatherer uses the
// default registry.
func NewServer(host string, port int, gatherer prometheus.Gatherer) *Server {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return &Server{addr: fmt.Sprintf("%s:%d", host, port), gatherer: gatherer}
}

// Handler returns the metrics HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle(MetricsPath, promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	return mux
}

// Start serves metrics in the background.
func (s *Server) Start() {
	s.server = &http.Server{
		Addr:         s.addr,
		Handler:      s.Handler(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().
			Str("address", s.addr).
			Str("path", MetricsPath).
			Msg("Metrics server listening")

		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("Metrics server error")
		}
	}()
}

// Stop gracefully stops the metrics server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	log.Info().Msg("Stopping metrics server...")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("metrics server shutdown: %w", err)
	}
	return nil
}
