package server

import (
	"errors"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/jabiru-analytics/jabiru/internal/models"
	"github.com/jabiru-analytics/jabiru/internal/store"
)

type projectRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Context     *string `json:"context"`
}

func validProjectName(name string) bool {
	n := utf8.RuneCountInString(strings.TrimSpace(name))
	return n >= 1 && n <= 255
}

type projectList struct {
	Projects []*models.Project `json:"projects"`
	Total    int               `json:"total"`
}

// projectOr404 loads a project owned by the caller or writes the 404 itself.
func (s *Server) projectOr404(w http.ResponseWriter, r *http.Request) (*models.Project, bool) {
	p, err := s.store.GetProject(r.Context(), chi.URLParam(r, "projectID"), currentUser(r).ID)
	if errors.Is(err, store.ErrNotFound) {
		s.respondError(w, http.StatusNotFound, "Project not found")
		return nil, false
	}
	if err != nil {
		s.internalError(w, "get project", err)
		return nil, false
	}
	return p, true
}

func (s *Server) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	var req projectRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Name == nil || !validProjectName(*req.Name) {
		s.respondError(w, http.StatusBadRequest, "name must be between 1 and 255 characters")
		return
	}
	p := &models.Project{
		Name:        strings.TrimSpace(*req.Name),
		Description: req.Description,
		Context:     req.Context,
		OwnerID:     currentUser(r).ID,
	}
	if err := s.store.CreateProject(r.Context(), p); err != nil {
		s.internalError(w, "create project", err)
		return
	}
	s.respondJSON(w, http.StatusOK, p)
}

func (s *Server) handleListProjects(w http.ResponseWriter, r *http.Request) {
	page, err := pageParams(r, 10, 100)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	items, total, err := s.store.ListProjects(r.Context(), currentUser(r).ID, page)
	if err != nil {
		s.internalError(w, "list projects", err)
		return
	}
	s.respondJSON(w, http.StatusOK, projectList{Projects: items, Total: total})
}

func (s *Server) handleGetProject(w http.ResponseWriter, r *http.Request) {
	p, ok := s.projectOr404(w, r)
	if !ok {
		return
	}
	s.respondJSON(w, http.StatusOK, p)
}

func (s *Server) handleUpdateProject(w http.ResponseWriter, r *http.Request) {
	var req projectRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Name != nil {
		if !validProjectName(*req.Name) {
			s.respondError(w, http.StatusBadRequest, "name must be between 1 and 255 characters")
			return
		}
		trimmed := strings.TrimSpace(*req.Name)
		req.Name = &trimmed
	}
	p, err := s.store.UpdateProject(r.Context(), chi.URLParam(r, "projectID"), currentUser(r).ID, models.ProjectUpdate{
		Name:        req.Name,
		Description: req.Description,
		Context:     req.Context,
	})
	if errors.Is(err, store.ErrNotFound) {
		s.respondError(w, http.StatusNotFound, "Project not found")
		return
	}
	if err != nil {
		s.internalError(w, "update project", err)
		return
	}
	s.respondJSON(w, http.StatusOK, p)
}

func (s *Server) handleDeleteProject(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "projectID")
	err := s.store.DeleteProject(r.Context(), id, currentUser(r).ID)
	if errors.Is(err, store.ErrNotFound) {
		s.respondError(w, http.StatusNotFound, "Project not found")
		return
	}
	if err != nil {
		s.internalError(w, "delete project", err)
		return
	}
	if err := s.files.DeleteProjectDir(id); err != nil {
		s.logger.Warn("remove project uploads", zap.String("project_id", id), zap.Error(err))
	}
	w.WriteHeader(http.StatusNoContent)
}
