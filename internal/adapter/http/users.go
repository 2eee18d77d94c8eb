package http

import (
	"net/http"

	"github.com/couchcryptid/urbanpulse-service/internal/service"
)

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	page, err := s.pageRequest(r)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	users, err := s.api.Users.List(r.Context(), r.URL.Query().Get("q"), page)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	in, err := decodeJSON[service.CreateUserInput](w, r)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	u, err := s.api.Users.Create(r.Context(), in)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, u)
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	u, err := s.api.Users.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (s *Server) handleUpdateUserRole(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	in, err := decodeJSON[service.UpdateRoleInput](w, r)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	u, err := s.api.Users.UpdateRole(r.Context(), id, in)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	if err := s.api.Users.Delete(r.Context(), id); err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
