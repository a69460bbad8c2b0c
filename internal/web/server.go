// Package web serves the import API over HTTP.
package web

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/JonMunkholm/sqlimport/internal/config"
	"github.com/JonMunkholm/sqlimport/internal/core"
	mw "github.com/JonMunkholm/sqlimport/internal/web/middleware"
)

// ResultLoader applies a pipeline result to a database. *loader.Loader
// implements it.
type ResultLoader interface {
	Load(ctx context.Context, res *core.PipelineResult) (int64, error)
}

// Server is the HTTP front end of the import pipeline.
type Server struct {
	cfg       *config.Config
	catalog   *core.SchemaCatalog
	templates *core.TemplateStore
	limiter   *core.ImportLimiter
	pipeline  *core.Pipeline
	loader    ResultLoader
	router    *chi.Mux
	server    *http.Server
}

// Option configures a Server.
type Option func(*Server)

// WithLoader enables POST /api/apply.
func WithLoader(l ResultLoader) Option {
	return func(s *Server) { s.loader = l }
}

// WithCatalog shares a schema catalog, for example one preloaded from DDL
// files at startup.
func WithCatalog(c *core.SchemaCatalog) Option {
	return func(s *Server) { s.catalog = c }
}

// WithTemplates shares a mapping template store.
func WithTemplates(t *core.TemplateStore) Option {
	return func(s *Server) { s.templates = t }
}

// NewServer builds the router. Background work started here (rate limiter
// cleanup) stops when ctx is done.
func NewServer(ctx context.Context, cfg *config.Config, opts ...Option) *Server {
	s := &Server{
		cfg:       cfg,
		catalog:   core.NewSchemaCatalog(),
		templates: core.NewTemplateStore(),
		limiter:   core.NewImportLimiter(cfg.Import.MaxConcurrent, cfg.Import.MaxWaitTime),
		router:    chi.NewRouter(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.pipeline = core.NewPipeline(core.PipelineOptions{
		Workers:        cfg.Import.Workers,
		MaxRows:        cfg.Import.MaxRows,
		Strict:         cfg.Import.Strict,
		KeepUnsafeRows: cfg.Import.KeepUnsafeRows,
	}, s.limiter)

	s.setupMiddleware(ctx)
	s.setupRoutes()
	return s
}

func (s *Server) setupMiddleware(ctx context.Context) {
	s.router.Use(middleware.RequestID)
	s.router.Use(mw.TrustedRealIP(s.cfg.Security.TrustedProxies))
	s.router.Use(mw.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5, "application/json", "text/plain"))
	if s.cfg.Server.RequestTimeout > 0 {
		s.router.Use(middleware.Timeout(s.cfg.Server.RequestTimeout))
	}
	s.router.Use(securityHeaders)

	if s.cfg.Rate.Enabled {
		rl := mw.NewRateLimiter(ctx, s.cfg.Rate.RequestsPerMinute, s.cfg.Rate.Burst)
		s.router.Use(rl.Middleware)
	}
}

func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		r.Use(mw.APIKeyAuth(s.cfg.Security.APIKeys))

		r.Get("/transforms", s.handleListTransforms)
		r.Post("/transform/suggest", s.handleSuggestTransforms)
		r.Post("/transform/apply", s.handleApplyTransform)

		r.Post("/schemas/parse", s.handleParseSchema)
		r.Get("/schemas", s.handleListSchemas)
		r.Get("/schemas/{table}", s.handleGetSchema)
		r.Delete("/schemas", s.handleClearSchemas)

		r.Get("/templates", s.handleListTemplates)
		r.Post("/templates", s.handleCreateTemplate)
		r.Post("/templates/match", s.handleMatchTemplates)
		r.Get("/templates/{id}", s.handleGetTemplate)
		r.Put("/templates/{id}", s.handleUpdateTemplate)
		r.Delete("/templates/{id}", s.handleDeleteTemplate)

		r.Post("/automap", s.handleAutoMap)
		r.Post("/validate", s.handleValidate)
		r.Post("/generate-sql", s.handleGenerateSQL)
		r.Post("/apply", s.handleApply)
	})
}

// Start listens on the configured address until Shutdown.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.cfg.Server.Addr(),
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}
	err := s.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown waits for running imports, then stops the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	if active := s.limiter.ActiveCount(); active > 0 {
		slog.Info("waiting for imports to complete", "active", active)
		if err := s.limiter.WaitForDrain(ctx); err != nil {
			slog.Warn("imports did not complete in time", "error", err)
		}
	}
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Catalog returns the server's schema catalog.
func (s *Server) Catalog() *core.SchemaCatalog {
	return s.catalog
}

type healthResponse struct {
	Status   string                   `json:"status"`
	Database bool                     `json:"database"`
	Schemas  int                      `json:"schemas"`
	Imports  core.ImportLimiterStatus `json:"imports"`
	Time     time.Time                `json:"time"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:   "ok",
		Database: s.loader != nil,
		Schemas:  s.catalog.Len(),
		Imports:  s.limiter.Status(),
		Time:     time.Now().UTC(),
	})
}

// securityHeaders adds security headers to all responses. The API serves
// no HTML, so nothing may be framed or loaded.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		w.Header().Set("Referrer-Policy", "no-referrer")
		next.ServeHTTP(w, r)
	})
}
