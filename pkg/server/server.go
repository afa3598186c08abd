// Package server provides the HTTP surface of the emitter: the event ingest
// endpoint and, under the exporter strategy, the metrics exposition endpoint.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/cxlRay/druid/pkg/emitter"
)

// Server is a lifecycle wrapper around one http.Server.
type Server struct {
	listenAddress   string
	shutdownTimeout time.Duration
	handler         http.Handler
	logger          *slog.Logger

	httpServer   *http.Server
	shutdownOnce sync.Once
	mu           sync.RWMutex
	isRunning    bool
}

// NewIngestServer creates the event ingest server. It accepts JSON events at
// POST /api/v1/events and reports liveness at GET /health.
func NewIngestServer(listenAddress string, shutdownTimeout time.Duration, em *emitter.Emitter, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default().With("component", "server.ingest")
	}

	mux := http.NewServeMux()
	mux.Handle("POST /api/v1/events", &eventsHandler{emitter: em, logger: logger})
	mux.HandleFunc("GET /health", handleHealth)

	return newServer(listenAddress, shutdownTimeout, withMiddleware(mux, logger), logger)
}

// NewExporterServer creates the scrape server for the exporter strategy,
// exposing the collector registry at GET /metrics.
func NewExporterServer(listenAddress string, shutdownTimeout time.Duration, gatherer prometheus.Gatherer, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default().With("component", "server.exporter")
	}

	mux := http.NewServeMux()
	mux.Handle("GET /metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{
		ErrorHandling: promhttp.ContinueOnError,
	}))
	mux.HandleFunc("GET /health", handleHealth)

	return newServer(listenAddress, shutdownTimeout, withMiddleware(mux, logger), logger)
}

func newServer(listenAddress string, shutdownTimeout time.Duration, handler http.Handler, logger *slog.Logger) *Server {
	return &Server{
		listenAddress:   listenAddress,
		shutdownTimeout: shutdownTimeout,
		handler:         handler,
		logger:          logger,
	}
}

// Start starts the HTTP server and blocks until the context is cancelled or
// the listener fails.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return fmt.Errorf("server is already running")
	}
	s.isRunning = true
	s.httpServer = &http.Server{
		Addr:         s.listenAddress,
		Handler:      s.handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	s.mu.Unlock()

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", "address", s.listenAddress)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("context cancelled, shutting down server")
		return s.Shutdown(context.Background())
	case err := <-errChan:
		return err
	}
}

// Shutdown gracefully shuts down the server, bounded by the configured
// shutdown timeout. Safe to call more than once.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.mu.Lock()
		if !s.isRunning {
			s.mu.Unlock()
			return
		}
		s.isRunning = false
		s.mu.Unlock()

		shutdownCtx, cancel := context.WithTimeout(ctx, s.shutdownTimeout)
		defer cancel()

		if s.httpServer != nil {
			if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
				s.logger.Error("error during server shutdown", "error", err)
				shutdownErr = fmt.Errorf("server shutdown error: %w", err)
			}
		}

		s.logger.Info("server stopped")
	})

	return shutdownErr
}

// IsRunning reports whether the server is accepting requests.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// Handler returns the configured HTTP handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// eventsHandler accepts a JSON event or array of events and routes each
// through the emitter.
type eventsHandler struct {
	emitter *emitter.Emitter
	logger  *slog.Logger
}

func (h *eventsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var raw json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		http.Error(w, fmt.Sprintf("malformed event payload: %v", err), http.StatusBadRequest)
		return
	}

	var events []emitter.Event
	if len(raw) > 0 && raw[0] == '[' {
		if err := json.Unmarshal(raw, &events); err != nil {
			http.Error(w, fmt.Sprintf("malformed event array: %v", err), http.StatusBadRequest)
			return
		}
	} else {
		var ev emitter.Event
		if err := json.Unmarshal(raw, &ev); err != nil {
			http.Error(w, fmt.Sprintf("malformed event: %v", err), http.StatusBadRequest)
			return
		}
		events = []emitter.Event{ev}
	}

	for _, ev := range events {
		h.emitter.Emit(ev)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	fmt.Fprintf(w, `{"accepted":%d}`, len(events))
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, `{"status":"ok"}`)
}
