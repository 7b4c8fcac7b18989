// Package server exposes an engine over HTTP.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/pable/go-poker-stats/internal/engine"
	"github.com/pable/go-poker-stats/internal/storage"
)

// Archive stores raw uploads and their processing status. *storage.DB
// satisfies it.
type Archive interface {
	InsertUpload(filename string, content []byte) (string, error)
	UpdateUploadResult(id string, hands int, procErr error) error
	ListUploads() ([]storage.Upload, error)
	Clear() (int64, error)
}

// Config holds server configuration.
type Config struct {
	Port           int
	Log            zerolog.Logger
	Engine         *engine.Engine
	Archive        Archive // optional
	MergeThreshold float64
	MaxUploadBytes int64
	DevMode        bool
}

// Server is the HTTP adapter around one engine.
type Server struct {
	router    *chi.Mux
	server    *http.Server
	log       zerolog.Logger
	engine    *engine.Engine
	archive   Archive
	threshold float64
	maxUpload int64
	port      int
}

// New creates a Server; it does not start listening.
func New(cfg Config) *Server {
	s := &Server{
		router:    chi.NewRouter(),
		log:       cfg.Log.With().Str("component", "server").Logger(),
		engine:    cfg.Engine,
		archive:   cfg.Archive,
		threshold: cfg.MergeThreshold,
		maxUpload: cfg.MaxUploadBytes,
		port:      cfg.Port,
	}
	if s.maxUpload <= 0 {
		s.maxUpload = 32 << 20
	}

	s.setupMiddleware(cfg.DevMode)
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.router,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Handler returns the routed handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupMiddleware(devMode bool) {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(middleware.Timeout(60 * time.Second))

	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if !devMode {
		s.router.Use(middleware.Compress(5))
	}
}

func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)

	s.router.Post("/upload", s.handleUpload)
	s.router.Get("/uploads", s.handleUploads)
	s.router.Post("/reset", s.handleReset)

	s.router.Get("/stats", s.handleStats)
	s.router.Get("/player/{id}", s.handlePlayer)
	s.router.Get("/players", s.handlePlayers)
	s.router.Get("/export", s.handleExport)

	s.router.Post("/mapping", s.handleMapping)
	s.router.Post("/mapping/bulk", s.handleBulkMapping)
	s.router.Get("/merge-suggestions", s.handleMergeSuggestions)
}

// Start listens until Shutdown is called.
func (s *Server) Start() error {
	s.log.Info().Int("port", s.port).Msg("Starting HTTP server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration_ms", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}
