package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/nekoallergy22/audio-app-2025/internal/config"
	"github.com/nekoallergy22/audio-app-2025/internal/session"
)

// Server handles HTTP API requests.
type Server struct {
	cfg      *config.Config
	logger   *slog.Logger
	server   *http.Server
	sessions *session.Manager
}

// New creates a new API server.
func New(cfg *config.Config, logger *slog.Logger, sessions *session.Manager) *Server {
	s := &Server{
		cfg:      cfg,
		logger:   logger,
		sessions: sessions,
	}

	s.server = &http.Server{
		Addr:        fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:     s.Handler(),
		ReadTimeout: 15 * time.Second,
		// Synthesis sweeps and archive downloads can outlive a short
		// write timeout.
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Handler returns the route table as an http.Handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /v1/healthz", s.handleHealthz)

	mux.HandleFunc("POST /v1/sessions", s.withAuth(s.handleCreateSession))
	mux.HandleFunc("GET /v1/sessions/{id}", s.withAuth(s.handleGetSession))
	mux.HandleFunc("DELETE /v1/sessions/{id}", s.withAuth(s.handleDeleteSession))

	mux.HandleFunc("PUT /v1/sessions/{id}/text", s.withAuth(s.handleSetText))
	mux.HandleFunc("GET /v1/sessions/{id}/segments", s.withAuth(s.handleListSegments))
	mux.HandleFunc("PATCH /v1/sessions/{id}/segments/{sid}", s.withAuth(s.handleEditSegment))
	mux.HandleFunc("DELETE /v1/sessions/{id}/segments/{sid}", s.withAuth(s.handleDeleteSegment))

	mux.HandleFunc("POST /v1/sessions/{id}/synthesize", s.withAuth(s.handleSynthesizeAll))
	mux.HandleFunc("POST /v1/sessions/{id}/segments/{sid}/synthesize", s.withAuth(s.handleSynthesizeSegment))
	mux.HandleFunc("PUT /v1/sessions/{id}/segments/{sid}/duration", s.withAuth(s.handleSetDuration))
	mux.HandleFunc("PUT /v1/sessions/{id}/segments/{sid}/slide", s.withAuth(s.handleSetSlide))
	mux.HandleFunc("GET /v1/sessions/{id}/segments/{sid}/audio", s.withAuth(s.handleSegmentAudio))

	mux.HandleFunc("GET /v1/sessions/{id}/export/text", s.withAuth(s.handleExportText))
	mux.HandleFunc("GET /v1/sessions/{id}/export/json", s.withAuth(s.handleExportJSON))
	mux.HandleFunc("GET /v1/sessions/{id}/export/zip", s.withAuth(s.handleExportZip))

	mux.HandleFunc("GET /v1/sessions/{id}/events", s.withAuth(s.handleEvents))

	return mux
}

// Start begins listening for HTTP requests.
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", "addr", s.server.Addr)
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server error: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	return s.server.Shutdown(ctx)
}
