package http

import (
	"net/http"

	"github.com/couchcryptid/urbanpulse-service/internal/domain"
	"github.com/couchcryptid/urbanpulse-service/internal/pipeline"
	"github.com/couchcryptid/urbanpulse-service/internal/service"
)

type weatherResponse struct {
	Location domain.UserLocation `json:"location"`
	service.WeatherView
}

type locationResponse struct {
	Location    domain.UserLocation   `json:"location"`
	Transitions []domain.ResolveState `json:"transitions"`
	Fallback    bool                  `json:"fallback"`
}

// locate resolves the caller from lat/lon or, without them, the client IP.
func (s *Server) locate(r *http.Request) (domain.Resolution, error) {
	device, err := coordinates(r)
	if err != nil {
		return domain.Resolution{}, err
	}
	return s.api.Locations.Locate(r.Context(), device, clientIP(r)), nil
}

func (s *Server) handleLocation(w http.ResponseWriter, r *http.Request) {
	res, err := s.locate(r)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, locationResponse{
		Location:    res.Location,
		Transitions: res.Transitions,
		Fallback:    res.UsedFallback(),
	})
}

func (s *Server) handleLocationSearch(w http.ResponseWriter, r *http.Request) {
	loc, err := s.api.Locations.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, loc)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	res, err := s.locate(r)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, s.api.Dashboard.Build(r.Context(), res.Location))
}

func (s *Server) handleWeather(w http.ResponseWriter, r *http.Request) {
	res, err := s.locate(r)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, weatherResponse{
		Location:    res.Location,
		WeatherView: s.api.Dashboard.Weather(r.Context(), res.Location),
	})
}

func (s *Server) handleNews(w http.ResponseWriter, r *http.Request) {
	page, err := s.pageRequest(r)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	location := r.URL.Query().Get("location")
	if location == "" {
		res, err := s.locate(r)
		if err != nil {
			writeError(w, r, s.logger, err)
			return
		}
		location = res.Location.DisplayName()
	}
	writeJSON(w, http.StatusOK, s.api.Dashboard.News(r.Context(), location, page))
}

func (s *Server) handleServices(w http.ResponseWriter, r *http.Request) {
	opts, err := s.listOptions(r)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	center := opts.Center
	if center == nil {
		res := s.api.Locations.Locate(r.Context(), nil, clientIP(r))
		c := res.Location.Coordinates()
		center = &c
		if opts.Query.Sort == domain.SortNone {
			opts.Query.Sort = domain.SortDistance
		}
	}

	result, err := s.api.Discovery.Run(r.Context(), pipeline.Request{
		Center:   *center,
		RadiusKm: opts.RadiusKm,
		Category: opts.Query.Category,
		Query:    opts.Query,
		Page:     opts.Page,
	})
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
