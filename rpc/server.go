package rpc

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hupe1980/mortgagemesh/config"
	"github.com/hupe1980/mortgagemesh/logging"
)

// Server exposes the dispatcher over HTTP: JSON-RPC on /rpc, a liveness
// probe on /healthz and Prometheus metrics on /metrics.
type Server struct {
	httpServer *http.Server
	dispatcher *Dispatcher
	logger     logging.Logger
	shutdown   time.Duration
}

// NewServer constructs a server around the dispatcher.
func NewServer(d *Dispatcher, cfg config.Server, logger logging.Logger) *Server {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	addr := cfg.Addr
	if addr == "" {
		addr = ":8080"
	}
	shutdown := cfg.ShutdownTimeout.Std()
	if shutdown <= 0 {
		shutdown = 10 * time.Second
	}

	mux := http.NewServeMux()
	s := &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       cfg.ReadTimeout.Std(),
			WriteTimeout:      cfg.WriteTimeout.Std(),
		},
		dispatcher: d,
		logger:     logger,
		shutdown:   shutdown,
	}

	mux.HandleFunc("/rpc", s.handleRPC)
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.Handle("/metrics", promhttp.Handler())

	return s
}

// Handler returns the HTTP handler, for tests and embedding.
func (s *Server) Handler() http.Handler { return s.httpServer.Handler }

// Addr returns the configured listen address.
func (s *Server) Addr() string { return s.httpServer.Addr }

// Run serves until ctx is cancelled, then drains in-flight requests within
// the shutdown timeout.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("rpc.server.listen", "addr", s.httpServer.Addr)
		err := s.httpServer.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
			return
		}
		errCh <- err
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdown)
	defer cancel()

	s.logger.Info("rpc.server.shutdown")
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
