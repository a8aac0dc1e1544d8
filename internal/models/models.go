// Package models holds the persisted entities shared by the store and the HTTP API.
package models

import (
	"encoding/json"
	"time"
)

// DefaultCanvasContent is stored for canvases created without content.
var DefaultCanvasContent = json.RawMessage(`{"blocks":[],"version":"1.0"}`)

// User is an account that owns projects.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	FirstName    *string   `json:"first_name"`
	LastName     *string   `json:"last_name"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Project groups uploaded files and canvases. Context is free text handed to
// the chat assistant.
type Project struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	Context     *string   `json:"context"`
	OwnerID     string    `json:"owner_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ProjectUpdate carries the fields a PUT may change; nil means unchanged.
type ProjectUpdate struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Context     *string `json:"context"`
}

// File is an uploaded dataset. Path is relative to the upload directory.
type File struct {
	ID         string    `json:"id"`
	Filename   string    `json:"filename"`
	Path       string    `json:"path"`
	Size       int64     `json:"size"`
	MimeType   *string   `json:"mime_type"`
	ProjectID  string    `json:"project_id"`
	UploadedBy string    `json:"uploaded_by"`
	CreatedAt  time.Time `json:"created_at"`
}

// Canvas is a saved dashboard layout.
type Canvas struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	ProjectID   string          `json:"project_id"`
	ContentJSON json.RawMessage `json:"content_json"`
	CreatedBy   string          `json:"created_by"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// CanvasUpdate carries the fields a PUT may change.
type CanvasUpdate struct {
	Name        *string         `json:"name"`
	ContentJSON json.RawMessage `json:"content_json"`
}

// Page is a window over a listing.
type Page struct {
	Offset int
	Limit  int
}
