package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/c0ncepT23/Travelbuddy-sub005/internal/domain"
	"github.com/c0ncepT23/Travelbuddy-sub005/internal/importer"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// TripStore is the trip and item access the API exposes directly.
type TripStore interface {
	CreateTrip(ctx context.Context, name string) (domain.Trip, error)
	GetTrip(ctx context.Context, id uuid.UUID) (domain.Trip, error)
	ListItems(ctx context.Context, tripID uuid.UUID) ([]domain.SavedItem, error)
	Update(ctx context.Context, id uuid.UUID, patch domain.ItemPatch) (domain.SavedItem, error)
}

// Extractor turns shared content into candidates for user review.
type Extractor interface {
	Extract(ctx context.Context, content string, source domain.SourceType) ([]domain.Candidate, error)
}

// Importer runs confirmed candidates (or raw content) into a trip.
type Importer interface {
	Run(ctx context.Context, tripID uuid.UUID, candidates []domain.Candidate, src domain.SourceAttribution) (importer.Summary, error)
	ImportContent(ctx context.Context, tripID uuid.UUID, content string, source domain.SourceType, src domain.SourceAttribution) (importer.Summary, error)
}

// Confirmer sends the post-import chat message.
type Confirmer interface {
	Confirm(ctx context.Context, tripID uuid.UUID, s importer.Summary) error
}

// Deps are the collaborators behind the API routes. Confirmer may be nil.
type Deps struct {
	Ready     Pinger
	Trips     TripStore
	Extractor Extractor
	Importer  Importer
	Confirmer Confirmer
}

// Server exposes the import API plus health, readiness, and metrics endpoints.
type Server struct {
	httpServer *http.Server
	deps       Deps
	logger     *slog.Logger
}

// NewServer creates an HTTP server with the import routes and /healthz,
// /readyz, and /metrics.
func NewServer(addr string, deps Deps, logger *slog.Logger) *Server {
	s := &Server{deps: deps, logger: logger}

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(newSlogLogger(logger))
	r.Use(chimiddleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(maxBodySize(maxBodyBytes))
		r.Post("/trips", s.handleCreateTrip)
		r.Route("/trips/{tripID}", func(r chi.Router) {
			r.Get("/", s.handleGetTrip)
			r.Get("/items", s.handleListItems)
			r.Patch("/items/{itemID}", s.handleUpdateItem)
			r.Post("/extract", s.handleExtract)
			r.Post("/imports", s.handleImport)
			r.Post("/imports/content", s.handleImportContent)
		})
	})

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		// Imports pace enrichment calls and wait on language models.
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.deps.Ready.Ping(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
