package http

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/couchcryptid/urbanpulse-service/internal/domain"
	"github.com/google/uuid"
)

// Identity headers set by the upstream gateway.
const (
	headerUserID   = "X-User-ID"
	headerUserRole = "X-User-Role"
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Unwrap() http.ResponseWriter { return r.ResponseWriter }

// instrument records request count and latency under the route pattern.
func (s *Server) instrument(pattern string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		if s.metrics != nil {
			s.metrics.HTTPRequests.WithLabelValues(pattern, strconv.Itoa(rec.status)).Inc()
			s.metrics.HTTPDuration.WithLabelValues(pattern).Observe(time.Since(start).Seconds())
		}
		s.logger.Debug("request served",
			"method", r.Method,
			"route", pattern,
			"status", rec.status,
			"duration", time.Since(start),
		)
	})
}

// requireAdmin rejects callers whose gateway-asserted role is not admin.
func requireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if domain.Role(r.Header.Get(headerUserRole)) != domain.RoleAdmin {
			writeJSON(w, http.StatusForbidden, errorResponse{Error: "admin role required"})
			return
		}
		next(w, r)
	}
}

// callerID returns the gateway-asserted user id, or nil when absent.
func callerID(r *http.Request) (*uuid.UUID, error) {
	v := r.Header.Get(headerUserID)
	if v == "" {
		return nil, nil
	}
	id, err := uuid.Parse(v)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed %s header", domain.ErrInvalidInput, headerUserID)
	}
	return &id, nil
}

// requireCaller is callerID for operations that must be attributed.
func requireCaller(r *http.Request) (uuid.UUID, error) {
	id, err := callerID(r)
	if err != nil {
		return uuid.Nil, err
	}
	if id == nil {
		return uuid.Nil, fmt.Errorf("%w: %s header required", domain.ErrForbidden, headerUserID)
	}
	return *id, nil
}
