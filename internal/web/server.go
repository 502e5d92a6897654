// Package web serves the HTML views and the JSON API.
package web

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/emiliopalmerini/growthops/internal/adapters/prometheus"
	sharedmw "github.com/emiliopalmerini/growthops/internal/shared/middleware"
	"github.com/emiliopalmerini/growthops/internal/workspace"
)

//go:embed static/*
var staticFiles embed.FS

// Config holds server settings.
type Config struct {
	Addr            string
	DefaultOwner    string
	ShutdownTimeout time.Duration
}

type Server struct {
	cfg     Config
	svc     *workspace.Service
	logger  *zap.Logger
	metrics *prometheus.Metrics
	router  chi.Router
}

// NewServer builds the router. A nil metrics disables /metrics.
func NewServer(cfg Config, svc *workspace.Service, logger *zap.Logger, metrics *prometheus.Metrics) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}
	s := &Server{
		cfg:     cfg,
		svc:     svc,
		logger:  logger,
		metrics: metrics,
		router:  chi.NewRouter(),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	r := s.router

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(sharedmw.RequestLogger(s.logger))
	r.Use(middleware.Recoverer)
	if s.metrics != nil {
		r.Use(s.metrics.Middleware)
	}
	r.Use(sharedmw.HTMX)
	r.Use(sharedmw.Owner(s.cfg.DefaultOwner))

	staticFS, err := fs.Sub(staticFiles, "static")
	if err != nil {
		panic(fmt.Sprintf("failed to create static filesystem: %v", err))
	}
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(staticFS))))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics.Handler())
	}

	// Pages
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/boards", http.StatusFound)
	})
	r.Get("/boards", s.handleBoards)
	r.Post("/boards", s.handleCreateBoardForm)
	r.Get("/boards/{id}", s.handleKanban)
	r.Post("/boards/{id}/experiments", s.handleCreateExperimentForm)
	r.Get("/boards/{id}/analytics", s.handleAnalytics)
	r.Post("/experiments/{id}/status", s.handleStatusForm)
	r.Get("/vault", s.handleVault)

	r.Route("/api", func(r chi.Router) {
		r.Get("/boards", s.handleAPIListBoards)
		r.Post("/boards", s.handleAPICreateBoard)
		r.Get("/boards/{id}", s.handleAPIGetBoard)
		r.Patch("/boards/{id}", s.handleAPIUpdateBoard)
		r.Put("/boards/{id}/config", s.handleAPISaveBoardConfig)
		r.Get("/boards/{id}/experiments", s.handleAPIBoardExperiments)
		r.Get("/boards/{id}/kanban", s.handleAPIKanban)
		r.Get("/boards/{id}/analytics", s.handleAPIAnalytics)

		r.Get("/experiments", s.handleAPIListExperiments)
		r.Post("/experiments", s.handleAPICreateExperiment)
		r.Route("/experiments/{id}", func(r chi.Router) {
			r.Get("/", s.handleAPIGetExperiment)
			r.Patch("/", s.handleAPIEditExperiment)
			r.Delete("/", s.handleAPIDeleteExperiment)
			r.Put("/status", s.handleAPISetStatus)
			r.Put("/scores/{dimension}", s.handleAPISetDimensionScore)
			r.Put("/ice", s.handleAPISetLegacyScores)
			r.Put("/metrics/{metric}", s.handleAPISetMetricValue)
			r.Put("/result", s.handleAPISetResult)
			r.Post("/tags", s.handleAPIAddTag)
			r.Delete("/tags/{tag}", s.handleAPIRemoveTag)
			r.Post("/comments", s.handleAPIAddComment)
			r.Post("/archive", s.handleAPIArchive)
			r.Post("/complete", s.handleAPIComplete)
		})

		r.Get("/vault", s.handleAPIVault)
		r.Post("/sync", s.handleAPISync)
	})
}

// ServeHTTP lets the server be used directly as a handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Start serves until ctx is done, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	server := &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("http server listening", zap.String("addr", s.cfg.Addr))

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("server shutdown failed", zap.Error(err))
		}
	}()

	err := server.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}
