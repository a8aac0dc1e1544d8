package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/jabiru-analytics/jabiru/internal/models"
	"github.com/jabiru-analytics/jabiru/internal/store"
)

type canvasRequest struct {
	Name        *string         `json:"name"`
	ContentJSON json.RawMessage `json:"content_json"`
}

type canvasList struct {
	Canvases []*models.Canvas `json:"canvases"`
	Total    int              `json:"total"`
}

// validContent accepts an absent body or a JSON object.
func validContent(raw json.RawMessage) bool {
	if len(raw) == 0 || string(raw) == "null" {
		return true
	}
	var obj map[string]any
	return json.Unmarshal(raw, &obj) == nil
}

func (s *Server) handleCreateCanvas(w http.ResponseWriter, r *http.Request) {
	p, ok := s.projectOr404(w, r)
	if !ok {
		return
	}
	var req canvasRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Name == nil || strings.TrimSpace(*req.Name) == "" {
		s.respondError(w, http.StatusBadRequest, "name is required")
		return
	}
	if !validContent(req.ContentJSON) {
		s.respondError(w, http.StatusBadRequest, "content_json must be a JSON object")
		return
	}
	c := &models.Canvas{
		Name:      strings.TrimSpace(*req.Name),
		ProjectID: p.ID,
		CreatedBy: currentUser(r).ID,
	}
	if string(req.ContentJSON) != "null" {
		c.ContentJSON = req.ContentJSON
	}
	if err := s.store.CreateCanvas(r.Context(), c); err != nil {
		s.internalError(w, "create canvas", err)
		return
	}
	s.respondJSON(w, http.StatusOK, c)
}

func (s *Server) handleListCanvases(w http.ResponseWriter, r *http.Request) {
	p, ok := s.projectOr404(w, r)
	if !ok {
		return
	}
	page, err := pageParams(r, 100, 1000)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	items, total, err := s.store.ListCanvases(r.Context(), p.ID, page)
	if err != nil {
		s.internalError(w, "list canvases", err)
		return
	}
	s.respondJSON(w, http.StatusOK, canvasList{Canvases: items, Total: total})
}

func (s *Server) canvasNotFoundOr500(w http.ResponseWriter, msg string, err error) {
	if errors.Is(err, store.ErrNotFound) {
		s.respondError(w, http.StatusNotFound, "Canvas not found")
		return
	}
	s.internalError(w, msg, err)
}

func (s *Server) handleGetCanvas(w http.ResponseWriter, r *http.Request) {
	c, err := s.store.GetCanvas(r.Context(), chi.URLParam(r, "canvasID"), currentUser(r).ID)
	if err != nil {
		s.canvasNotFoundOr500(w, "get canvas", err)
		return
	}
	s.respondJSON(w, http.StatusOK, c)
}

func (s *Server) handleUpdateCanvas(w http.ResponseWriter, r *http.Request) {
	var req canvasRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
		s.respondError(w, http.StatusBadRequest, "name must not be empty")
		return
	}
	if !validContent(req.ContentJSON) {
		s.respondError(w, http.StatusBadRequest, "content_json must be a JSON object")
		return
	}
	upd := models.CanvasUpdate{Name: req.Name}
	if string(req.ContentJSON) != "null" {
		upd.ContentJSON = req.ContentJSON
	}
	c, err := s.store.UpdateCanvas(r.Context(), chi.URLParam(r, "canvasID"), currentUser(r).ID, upd)
	if err != nil {
		s.canvasNotFoundOr500(w, "update canvas", err)
		return
	}
	s.respondJSON(w, http.StatusOK, c)
}

func (s *Server) handleDeleteCanvas(w http.ResponseWriter, r *http.Request) {
	c, err := s.store.GetCanvas(r.Context(), chi.URLParam(r, "canvasID"), currentUser(r).ID)
	if err != nil {
		s.canvasNotFoundOr500(w, "get canvas", err)
		return
	}
	if err := s.store.DeleteCanvas(r.Context(), c.ID); err != nil {
		s.canvasNotFoundOr500(w, "delete canvas", err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"detail": "Canvas deleted successfully"})
}
