// Package server exposes the HTTP surface: health, PR listing, review,
// merge and the GitHub webhook endpoint. Handlers adapt requests to
// the analyzer, the merge gate and the repository client and serialize
// results to JSON; no state is shared between requests.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/stormyy00/autopr/internal/config"
	"github.com/stormyy00/autopr/internal/forge"
	"github.com/stormyy00/autopr/internal/merge"
	"github.com/stormyy00/autopr/internal/notify"
	"github.com/stormyy00/autopr/internal/review"
)

// Server holds the explicitly injected collaborators for all handlers.
type Server struct {
	cfg      *config.Config
	forge    forge.Client
	analyzer *review.Analyzer
	gate     *merge.Gate
	notifier notify.Sender
}

// New creates a Server with explicit dependencies.
func New(cfg *config.Config, fc forge.Client, analyzer *review.Analyzer, gate *merge.Gate, sender notify.Sender) *Server {
	return &Server{
		cfg:      cfg,
		forge:    fc,
		analyzer: analyzer,
		gate:     gate,
		notifier: sender,
	}
}

// Run starts the HTTP server and blocks until the context is
// cancelled or the listener fails.
func (s *Server) Run(ctx context.Context, port int) error {
	mux := http.NewServeMux()
	s.registerRoutes(mux)

	// Review and merge handlers hold the connection for up to the
	// model timeout, so the write timeout must exceed it.
	writeTimeout := s.cfg.Analyzer.ParseTimeout() + 30*time.Second

	addr := fmt.Sprintf(":%d", port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		<-ctx.Done()
		slog.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Warn("HTTP server shutdown error", "error", err)
		}
	}()

	slog.Info("starting HTTP server", "addr", addr)
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

func (s *Server) registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /api/pull-requests", s.handleListPRs)
	mux.HandleFunc("GET /api/review-pr/{number}", s.handleReviewPR)
	mux.HandleFunc("POST /api/merge-pr/{number}", s.handleMergePR)
	mux.HandleFunc("POST /api/webhook", s.handleWebhook)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encoding response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
