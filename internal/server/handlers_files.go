package server

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/jabiru-analytics/jabiru/internal/analysis"
	"github.com/jabiru-analytics/jabiru/internal/models"
	"github.com/jabiru-analytics/jabiru/internal/storage"
	"github.com/jabiru-analytics/jabiru/internal/store"
)

// AllowedExtensions are the upload types the API accepts.
var AllowedExtensions = []string{".csv", ".tsv", ".txt", ".json", ".xlsx"}

func allowedExtension(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, a := range AllowedExtensions {
		if ext == a {
			return true
		}
	}
	return false
}

// uploadMimeTypes pins the allowed extensions; the system mime table varies by host.
var uploadMimeTypes = map[string]string{
	".csv":  "text/csv",
	".tsv":  "text/tab-separated-values",
	".txt":  "text/plain",
	".json": "application/json",
	".xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
}

func mimeTypeFor(name string) *string {
	ext := strings.ToLower(filepath.Ext(name))
	if t, ok := uploadMimeTypes[ext]; ok {
		return &t
	}
	t := mime.TypeByExtension(ext)
	if t == "" {
		return nil
	}
	if mt, _, err := mime.ParseMediaType(t); err == nil {
		t = mt
	}
	return &t
}

type fileList struct {
	Files []*models.File `json:"files"`
	Total int            `json:"total"`
}

func (s *Server) handleUploadFile(w http.ResponseWriter, r *http.Request) {
	p, ok := s.projectOr404(w, r)
	if !ok {
		return
	}
	mr, err := r.MultipartReader()
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "Expected a multipart/form-data upload")
		return
	}

	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			s.respondError(w, http.StatusBadRequest, "File is required")
			return
		}
		if err != nil {
			s.respondError(w, http.StatusBadRequest, "Malformed multipart body")
			return
		}
		if part.FormName() != "file" {
			part.Close()
			continue
		}
		s.storeUpload(w, r, p, part.FileName(), part)
		part.Close()
		return
	}
}

func (s *Server) storeUpload(w http.ResponseWriter, r *http.Request, p *models.Project, filename string, body io.Reader) {
	if filename == "" {
		s.respondError(w, http.StatusBadRequest, "Filename is required")
		return
	}
	if !allowedExtension(filename) {
		s.respondError(w, http.StatusBadRequest,
			"File type not allowed. Allowed types: "+strings.Join(AllowedExtensions, ", "))
		return
	}

	rel, size, err := s.files.Save(p.ID, filename, body, s.cfg.MaxUploadBytes)
	if errors.Is(err, storage.ErrFileTooLarge) {
		s.respondError(w, http.StatusBadRequest,
			fmt.Sprintf("File too large. Maximum size: %gMB", float64(s.cfg.MaxUploadBytes)/(1<<20)))
		return
	}
	if err != nil {
		s.internalError(w, "save upload", err)
		return
	}

	f := &models.File{
		Filename:   filepath.Base(filename),
		Path:       rel,
		Size:       size,
		MimeType:   mimeTypeFor(filename),
		ProjectID:  p.ID,
		UploadedBy: currentUser(r).ID,
	}
	if err := s.store.CreateFile(r.Context(), f); err != nil {
		_ = s.files.Delete(rel)
		s.internalError(w, "record upload", err)
		return
	}
	s.logger.Info("file uploaded",
		zap.String("file_id", f.ID), zap.String("project_id", p.ID), zap.Int64("size", size))
	s.respondJSON(w, http.StatusOK, f)
}

func (s *Server) handleListFiles(w http.ResponseWriter, r *http.Request) {
	p, ok := s.projectOr404(w, r)
	if !ok {
		return
	}
	page, err := pageParams(r, 100, 1000)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	items, total, err := s.store.ListFiles(r.Context(), p.ID, page)
	if err != nil {
		s.internalError(w, "list files", err)
		return
	}
	s.respondJSON(w, http.StatusOK, fileList{Files: items, Total: total})
}

func (s *Server) fileOr404(w http.ResponseWriter, r *http.Request) (*models.File, bool) {
	f, err := s.store.GetFile(r.Context(), chi.URLParam(r, "fileID"), currentUser(r).ID)
	if errors.Is(err, store.ErrNotFound) {
		s.respondError(w, http.StatusNotFound, "File not found")
		return nil, false
	}
	if err != nil {
		s.internalError(w, "get file", err)
		return nil, false
	}
	return f, true
}

func (s *Server) handleDeleteFile(w http.ResponseWriter, r *http.Request) {
	f, ok := s.fileOr404(w, r)
	if !ok {
		return
	}
	if err := s.store.DeleteFile(r.Context(), f.ID); err != nil && !errors.Is(err, store.ErrNotFound) {
		s.internalError(w, "delete file", err)
		return
	}
	if err := s.files.Delete(f.Path); err != nil {
		s.logger.Warn("remove stored file", zap.String("file_id", f.ID), zap.Error(err))
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"detail": "File deleted successfully"})
}

// parseOptions reads delimiter, encoding and sheet overrides from the query.
func parseOptions(r *http.Request) (analysis.Options, error) {
	q := r.URL.Query()
	opt := analysis.Options{Encoding: q.Get("encoding"), Sheet: q.Get("sheet")}
	switch d := q.Get("delimiter"); {
	case d == "":
	case d == "tab" || d == `\t`:
		opt.Delimiter = '\t'
	case utf8.RuneCountInString(d) == 1:
		opt.Delimiter, _ = utf8.DecodeRuneInString(d)
	default:
		return opt, errors.New("delimiter must be a single character")
	}
	return opt, nil
}

// loadFrame parses a stored file, writing the error response itself on failure.
// what names the feature in the "only available" message.
func (s *Server) loadFrame(w http.ResponseWriter, f *models.File, opt analysis.Options, what string) (*analysis.Frame, *analysis.Metadata, bool) {
	if !analysis.IsTabular(f.Filename) {
		s.respondError(w, http.StatusBadRequest, what+" only available for CSV, TSV and XLSX files")
		return nil, nil, false
	}
	if s.cfg.MaxProcessBytes > 0 && f.Size > s.cfg.MaxProcessBytes {
		s.respondError(w, http.StatusBadRequest, "File too large to process")
		return nil, nil, false
	}
	data, err := s.files.ReadFile(f.Path)
	if err != nil {
		s.internalError(w, "read stored file", err)
		return nil, nil, false
	}
	frame, meta, err := analysis.ParseNamed(f.Filename, data, opt)
	if err != nil {
		s.logger.Warn("parse file", zap.String("file_id", f.ID), zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "Error processing file: "+err.Error())
		return nil, nil, false
	}
	return frame, meta, true
}

func (s *Server) handlePreviewFile(w http.ResponseWriter, r *http.Request) {
	f, ok := s.fileOr404(w, r)
	if !ok {
		return
	}
	rows := analysis.DefaultPreviewRows
	if v := r.URL.Query().Get("rows"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			s.respondError(w, http.StatusBadRequest, "rows must be an integer")
			return
		}
		rows = n
	}
	opt, err := parseOptions(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	frame, meta, ok := s.loadFrame(w, f, opt, "Preview")
	if !ok {
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]any{
		"preview":  analysis.Preview(frame, rows),
		"metadata": meta,
	})
}

func (s *Server) handleColumnStats(w http.ResponseWriter, r *http.Request) {
	f, ok := s.fileOr404(w, r)
	if !ok {
		return
	}
	// chi routes on RawPath when the request carries one, leaving params escaped.
	column := chi.URLParam(r, "column")
	if r.URL.RawPath != "" {
		if unescaped, err := url.PathUnescape(column); err == nil {
			column = unescaped
		}
	}
	opt, err := parseOptions(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	frame, _, ok := s.loadFrame(w, f, opt, "Statistics")
	if !ok {
		return
	}
	st, err := analysis.ColumnStatistics(frame, column)
	if errors.Is(err, analysis.ErrInvalidArgument) {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		s.internalError(w, "column statistics", err)
		return
	}
	s.respondJSON(w, http.StatusOK, st)
}
