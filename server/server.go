// Package server hosts the dashboard: the HTML page, the chart and selection
// JSON API, the selection websocket and the metrics endpoint.
package server

import (
	"context"
	"html/template"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"airbnb-dashboard/config"
	"airbnb-dashboard/crossfilter"
	"airbnb-dashboard/models"
	"airbnb-dashboard/services"
	"airbnb-dashboard/utils"
)

// Server represents the HTTP server
type Server struct {
	server   *http.Server
	router   *chi.Mux
	table    *models.Table
	report   *models.InsightReport
	hoods    map[string]struct{}
	sessions *crossfilter.Registry
	metrics  *Metrics
	page     *template.Template
	logger   *utils.Logger
}

// New wires routes over an already loaded table. The table and report are
// shared read-only by every request.
func New(
	cfg config.ServerConfig,
	table *models.Table,
	report *models.InsightReport,
	sessions *crossfilter.Registry,
	logger *utils.Logger,
) *Server {
	s := &Server{
		router:   chi.NewRouter(),
		table:    table,
		report:   report,
		hoods:    make(map[string]struct{}),
		sessions: sessions,
		metrics:  NewMetrics(sessions),
		page:     template.Must(template.ParseFS(webFS, "web/index.html")),
		logger:   logger,
	}
	for _, m := range services.MedianByNeighbourhood(table) {
		s.hoods[m.Neighbourhood] = struct{}{}
	}
	s.metrics.ObserveTable(table)

	requestTimeout := cfg.WriteTimeout
	if requestTimeout <= 0 {
		requestTimeout = 60 * time.Second
	}

	router := s.router

	// Middleware
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{
		Logger:  log.New(logger.Writer(), "", log.LstdFlags),
		NoColor: false,
	}))
	router.Use(middleware.Recoverer)
	router.Use(s.metrics.Instrument)

	// CORS configuration
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CorsOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		MaxAge:         300,
	}))

	// Plain request/response routes. The websocket below outlives any
	// request timeout and is registered outside this group.
	router.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(requestTimeout))

		r.Get("/", s.handleIndex)
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())

		r.Route("/api", func(r chi.Router) {
			r.Get("/health", s.handleHealth)

			r.Route("/v1", func(r chi.Router) {
				r.Get("/measures", s.handleMeasures)
				r.Get("/summary", s.handleSummary)

				r.Route("/charts", func(r chi.Router) {
					r.Get("/scatter", s.handleScatter)
					r.Get("/boxplot", s.handleBoxplot)
				})

				r.Route("/sessions", func(r chi.Router) {
					r.Post("/", s.handleCreateSession)

					r.Route("/{id}", func(r chi.Router) {
						r.Delete("/", s.handleDeleteSession)

						r.Route("/selection", func(r chi.Router) {
							r.Get("/", s.handleGetSelection)
							r.Delete("/", s.handleClearSelection)
							r.Post("/toggle", s.handleToggle)
							r.Put("/zoom", s.handleSetZoom)
							r.Delete("/zoom", s.handleResetZoom)
						})

						r.Get("/charts/linked", s.handleLinked)
						r.Get("/charts/median.png", s.handleMedianPNG)
					})
				})
			})
		})
	})

	// WebSocket endpoint for selection pushes
	router.Get("/ws/sessions/{id}", s.handleSelectionSocket)

	s.server = &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	return s
}

// Handler exposes the router, e.g. for httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe starts the HTTP server
func (s *Server) ListenAndServe() error {
	s.logger.Info("[server] Dashboard listening on http://%s", s.server.Addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
