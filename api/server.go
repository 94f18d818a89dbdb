package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	ledgerservice "github.com/Pale-Moon-Guild/grind-bot/app/modules/ledger/application"
	"github.com/Pale-Moon-Guild/grind-bot/app/modules/ledger/infrastructure/dispatch"
	sharedtypes "github.com/Pale-Moon-Guild/grind-bot/app/shared/types"
)

// Server is the read-only HTTP surface: health, game listings, export
// projections, and Prometheus metrics. Mutations go through the message
// transport, never through HTTP.
type Server struct {
	service    ledgerservice.Service
	dispatcher *dispatch.Dispatcher
	logger     *slog.Logger
	httpServer *http.Server
}

// NewServer builds the router and wraps it in an http.Server on addr.
func NewServer(
	addr string,
	service ledgerservice.Service,
	dispatcher *dispatch.Dispatcher,
	logger *slog.Logger,
	registry *prometheus.Registry,
) *Server {
	s := &Server{
		service:    service,
		dispatcher: dispatcher,
		logger:     logger,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealthz)
	r.Get("/games", s.handleListGames)
	r.Get("/games/{name}/export", s.handleGameExport)
	r.Get("/commands", s.handleListCommands)
	if registry != nil {
		r.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Router exposes the handler for tests.
func (s *Server) Router() http.Handler {
	return s.httpServer.Handler
}

// Start serves until the context is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", slog.String("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http shutdown: %w", err)
		}
		return <-errCh
	}
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListGames(w http.ResponseWriter, r *http.Request) {
	summaries, err := s.service.ListGames(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	if summaries == nil {
		summaries = []ledgerservice.GameSummary{}
	}
	s.writeJSON(w, http.StatusOK, summaries)
}

func (s *Server) handleGameExport(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	result, err := s.service.BuildGameExport(r.Context(), sharedtypes.GameName(name))
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	if result.IsFailure() {
		s.writeJSON(w, http.StatusNotFound, result.Failure)
		return
	}
	s.writeJSON(w, http.StatusOK, result.Success)
}

func (s *Server) handleListCommands(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string][]string{"commands": s.dispatcher.Names()})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to encode response", slog.Any("error", err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	s.logger.Error("request failed", slog.Any("error", err))
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}
