package http

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/couchcryptid/urbanpulse-service/internal/domain"
	"github.com/couchcryptid/urbanpulse-service/internal/service"
	"github.com/google/uuid"
)

const maxPhotoBytes = 10 << 20

func (s *Server) handleListIncidents(w http.ResponseWriter, r *http.Request) {
	opts, err := s.unratedListOptions(r)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	in := service.ListIncidentsInput{
		Status:      domain.IncidentStatus(r.URL.Query().Get("status")),
		Category:    opts.Query.Category,
		ListOptions: opts,
	}
	if v := r.URL.Query().Get("reporter"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			writeError(w, r, s.logger, fmt.Errorf("%w: malformed reporter %q", domain.ErrInvalidInput, v))
			return
		}
		in.ReporterID = &id
	}

	page, err := s.api.Incidents.List(r.Context(), in)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (s *Server) handleCreateIncident(w http.ResponseWriter, r *http.Request) {
	reporter, err := callerID(r)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	in, err := decodeJSON[service.CreateIncidentInput](w, r)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	inc, err := s.api.Incidents.Create(r.Context(), in, reporter)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, inc)
}

func (s *Server) handleGetIncident(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	inc, err := s.api.Incidents.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, inc)
}

func (s *Server) handleUpdateIncident(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	in, err := decodeJSON[service.UpdateIncidentInput](w, r)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	inc, err := s.api.Incidents.Update(r.Context(), id, in)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, inc)
}

func (s *Server) handleUploadPhoto(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	if r.ContentLength <= 0 {
		writeJSON(w, http.StatusLengthRequired, errorResponse{Error: "Content-Length required"})
		return
	}
	if r.ContentLength > maxPhotoBytes {
		writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{Error: "photo too large"})
		return
	}
	contentType, _, _ := strings.Cut(r.Header.Get("Content-Type"), ";")

	body := http.MaxBytesReader(w, r.Body, maxPhotoBytes)
	inc, err := s.api.Incidents.UploadPhoto(r.Context(), id, strings.TrimSpace(contentType), body, r.ContentLength)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, inc)
}

type statusRequest struct {
	Status domain.IncidentStatus `json:"status"`
}

func (s *Server) handleSetIncidentStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	req, err := decodeJSON[statusRequest](w, r)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	inc, err := s.api.Incidents.SetStatus(r.Context(), id, req.Status)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, inc)
}

func (s *Server) handleDeleteIncident(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	if err := s.api.Incidents.Delete(r.Context(), id); err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
