package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/couchcryptid/urbanpulse-service/internal/domain"
	"github.com/couchcryptid/urbanpulse-service/internal/service"
	"github.com/google/uuid"
)

const maxBodyBytes = 1 << 20

type errorResponse struct {
	Error   string            `json:"error"`
	Details map[string]string `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // client may have gone away
}

// writeError maps domain errors onto HTTP status codes. Unexpected errors are
// logged and reported without their message.
func writeError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	var (
		verr *service.ValidationError
		perr *domain.ProviderError
	)
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "validation failed", Details: verr.Fields})
	case errors.Is(err, domain.ErrInvalidInput):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "not found"})
	case errors.Is(err, domain.ErrConflict):
		writeJSON(w, http.StatusConflict, errorResponse{Error: "conflict"})
	case errors.Is(err, domain.ErrForbidden):
		writeJSON(w, http.StatusForbidden, errorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrProviderDisabled):
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "feature not configured"})
	case errors.As(err, &perr):
		logger.Warn("provider error", "path", r.URL.Path, "provider", perr.Provider, "kind", perr.Kind, "error", err)
		writeJSON(w, http.StatusBadGateway, errorResponse{
			Error:   "upstream provider failed",
			Details: map[string]string{"provider": perr.Provider, "kind": string(perr.Kind)},
		})
	default:
		logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

// decodeJSON reads a JSON request body into T. Unknown fields are rejected.
func decodeJSON[T any](w http.ResponseWriter, r *http.Request) (T, error) {
	var v T
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&v); err != nil {
		return v, fmt.Errorf("%w: malformed request body: %v", domain.ErrInvalidInput, err)
	}
	return v, nil
}

func pathID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: malformed id %q", domain.ErrInvalidInput, r.PathValue("id"))
	}
	return id, nil
}

// coordinates parses lat/lon query parameters. Both absent yields nil; one
// without the other is an error.
func coordinates(r *http.Request) (*domain.Coordinates, error) {
	q := r.URL.Query()
	latStr, lonStr := q.Get("lat"), q.Get("lon")
	if latStr == "" && lonStr == "" {
		return nil, nil
	}
	if latStr == "" || lonStr == "" {
		return nil, fmt.Errorf("%w: lat and lon must be given together", domain.ErrInvalidInput)
	}
	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid lat %q", domain.ErrInvalidInput, latStr)
	}
	lon, err := strconv.ParseFloat(lonStr, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid lon %q", domain.ErrInvalidInput, lonStr)
	}
	c := domain.Coordinates{Lat: lat, Lon: lon}
	if !c.Valid() {
		return nil, fmt.Errorf("%w: coordinates out of range (%s, %s)", domain.ErrInvalidInput, latStr, lonStr)
	}
	return &c, nil
}

func (s *Server) pageRequest(r *http.Request) (domain.PageRequest, error) {
	page, err := intParam(r, "page")
	if err != nil {
		return domain.PageRequest{}, err
	}
	limit, err := intParam(r, "limit")
	if err != nil {
		return domain.PageRequest{}, err
	}
	return domain.NormalizePage(page, limit, s.pageSize), nil
}

func intParam(r *http.Request, name string) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid %s %q", domain.ErrInvalidInput, name, v)
	}
	return n, nil
}

func floatParam(r *http.Request, name string) (float64, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%w: invalid %s %q", domain.ErrInvalidInput, name, v)
	}
	return f, nil
}

// listQuery parses the shared q/category/sort parameters.
func listQuery(r *http.Request) (domain.Query, error) {
	q := r.URL.Query()
	sortKey, err := domain.ParseSortKey(q.Get("sort"))
	if err != nil {
		return domain.Query{}, err
	}
	return domain.Query{
		Text:                q.Get("q"),
		Category:            q.Get("category"),
		Sort:                sortKey,
		MissingDistanceLast: q.Get("missing") == "last",
	}, nil
}

// listOptions parses the geo, text, sort and page parameters of a listing.
// With a center and no explicit sort, results are ordered by distance.
func (s *Server) listOptions(r *http.Request) (service.ListOptions, error) {
	center, err := coordinates(r)
	if err != nil {
		return service.ListOptions{}, err
	}
	radius, err := floatParam(r, "radius")
	if err != nil {
		return service.ListOptions{}, err
	}
	query, err := listQuery(r)
	if err != nil {
		return service.ListOptions{}, err
	}
	page, err := s.pageRequest(r)
	if err != nil {
		return service.ListOptions{}, err
	}
	if center != nil && query.Sort == domain.SortNone {
		query.Sort = domain.SortDistance
	}
	return service.ListOptions{Center: center, RadiusKm: radius, Query: query, Page: page}, nil
}

// unratedListOptions is listOptions for listings whose records carry no rating.
func (s *Server) unratedListOptions(r *http.Request) (service.ListOptions, error) {
	opts, err := s.listOptions(r)
	if err != nil {
		return service.ListOptions{}, err
	}
	if opts.Query.Sort == domain.SortRating {
		return service.ListOptions{}, fmt.Errorf("%w: sort %q is only supported for services", domain.ErrInvalidInput, domain.SortRating)
	}
	return opts, nil
}

// clientIP prefers the first X-Forwarded-For hop set by the gateway.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		return strings.TrimSpace(first)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
