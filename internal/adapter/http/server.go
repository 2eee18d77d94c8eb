package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/couchcryptid/urbanpulse-service/internal/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server exposes the JSON API plus health, readiness, and metrics endpoints.
type Server struct {
	httpServer *http.Server
	api        API
	pageSize   int
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /healthz, /readyz, /metrics and the
// /api/v1 routes. pageSize is the default list page size.
func NewServer(addr string, api API, ready sharedobs.ReadinessChecker, pageSize int, metrics *observability.Metrics, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		api:      api,
		pageSize: pageSize,
		metrics:  metrics,
		logger:   logger,
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(ready))
	mux.Handle("GET /metrics", promhttp.Handler())

	s.routes(mux)
	return s
}

func (s *Server) routes(mux *http.ServeMux) {
	handle := func(pattern string, h http.HandlerFunc) {
		mux.Handle(pattern, s.instrument(pattern, h))
	}
	admin := func(pattern string, h http.HandlerFunc) {
		handle(pattern, requireAdmin(h))
	}

	handle("GET /api/v1/location", s.handleLocation)
	handle("GET /api/v1/location/search", s.handleLocationSearch)
	handle("GET /api/v1/dashboard", s.handleDashboard)
	handle("GET /api/v1/weather", s.handleWeather)
	handle("GET /api/v1/news", s.handleNews)
	handle("GET /api/v1/services", s.handleServices)

	handle("GET /api/v1/incidents", s.handleListIncidents)
	handle("POST /api/v1/incidents", s.handleCreateIncident)
	handle("GET /api/v1/incidents/{id}", s.handleGetIncident)
	handle("PATCH /api/v1/incidents/{id}", s.handleUpdateIncident)
	handle("PUT /api/v1/incidents/{id}/photo", s.handleUploadPhoto)

	handle("GET /api/v1/communities", s.handleListCommunities)
	handle("POST /api/v1/communities", s.handleCreateCommunity)
	handle("GET /api/v1/communities/{id}", s.handleGetCommunity)
	handle("POST /api/v1/communities/{id}/join", s.handleJoinCommunity)
	handle("GET /api/v1/communities/{id}/posts", s.handleListPosts)
	handle("POST /api/v1/communities/{id}/posts", s.handleCreatePost)
	handle("GET /api/v1/posts/{id}/comments", s.handleListComments)
	handle("POST /api/v1/posts/{id}/comments", s.handleCreateComment)

	admin("PATCH /api/v1/admin/incidents/{id}/status", s.handleSetIncidentStatus)
	admin("DELETE /api/v1/admin/incidents/{id}", s.handleDeleteIncident)
	admin("GET /api/v1/admin/users", s.handleListUsers)
	admin("POST /api/v1/admin/users", s.handleCreateUser)
	admin("GET /api/v1/admin/users/{id}", s.handleGetUser)
	admin("PATCH /api/v1/admin/users/{id}", s.handleUpdateUserRole)
	admin("DELETE /api/v1/admin/users/{id}", s.handleDeleteUser)
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

// AllReady combines readiness checks. Every failing check is reported.
func AllReady(checks ...sharedobs.ReadinessChecker) sharedobs.ReadinessChecker {
	return readinessGroup(checks)
}

type readinessGroup []sharedobs.ReadinessChecker

func (g readinessGroup) CheckReadiness(ctx context.Context) error {
	var errs []error
	for _, c := range g {
		if c == nil {
			continue
		}
		if err := c.CheckReadiness(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
