package http

import (
	"net/http"

	"github.com/couchcryptid/urbanpulse-service/internal/service"
)

func (s *Server) handleListCommunities(w http.ResponseWriter, r *http.Request) {
	opts, err := s.unratedListOptions(r)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	page, err := s.api.Communities.List(r.Context(), service.ListCommunitiesInput{
		Category:    opts.Query.Category,
		ListOptions: opts,
	})
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (s *Server) handleCreateCommunity(w http.ResponseWriter, r *http.Request) {
	in, err := decodeJSON[service.CreateCommunityInput](w, r)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	c, err := s.api.Communities.Create(r.Context(), in)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (s *Server) handleGetCommunity(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	c, err := s.api.Communities.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) handleJoinCommunity(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	user, err := requireCaller(r)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	c, err := s.api.Communities.Join(r.Context(), id, user)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) handleListPosts(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	page, err := s.pageRequest(r)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	posts, err := s.api.Communities.Posts(r.Context(), id, page)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, posts)
}

func (s *Server) handleCreatePost(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	author, err := requireCaller(r)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	in, err := decodeJSON[service.CreatePostInput](w, r)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	p, err := s.api.Communities.CreatePost(r.Context(), id, author, in)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (s *Server) handleListComments(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	page, err := s.pageRequest(r)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	comments, err := s.api.Communities.Comments(r.Context(), id, page)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, comments)
}

func (s *Server) handleCreateComment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	author, err := requireCaller(r)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	in, err := decodeJSON[service.CreateCommentInput](w, r)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	c, err := s.api.Communities.CreateComment(r.Context(), id, author, in)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}
