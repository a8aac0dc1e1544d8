package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jabiru-analytics/jabiru/internal/models"
)

const fileColumns = `f.id, f.filename, f.path, f.size, f.mime_type, f.project_id, f.uploaded_by, f.created_at`

func scanFile(row rowScanner) (*models.File, error) {
	var f models.File
	var mime sql.NullString
	if err := row.Scan(&f.ID, &f.Filename, &f.Path, &f.Size, &mime, &f.ProjectID, &f.UploadedBy, &f.CreatedAt); err != nil {
		return nil, err
	}
	f.MimeType = fromNullable(mime)
	return &f, nil
}

// CreateFile records an uploaded file.
func (s *Store) CreateFile(ctx context.Context, f *models.File) error {
	f.ID = newID()
	f.CreatedAt = s.now()
	_, err := s.exec(ctx,
		`INSERT INTO files (id, filename, path, size, mime_type, project_id, uploaded_by, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		f.ID, f.Filename, f.Path, f.Size, nullable(f.MimeType), f.ProjectID, f.UploadedBy, f.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return fmt.Errorf("create file: %w", err)
	}
	return nil
}

// GetFile returns the file if its project belongs to ownerID.
func (s *Store) GetFile(ctx context.Context, id, ownerID string) (*models.File, error) {
	f, err := scanFile(s.queryRow(ctx,
		`SELECT `+fileColumns+` FROM files f JOIN projects p ON p.id = f.project_id
		 WHERE f.id = ? AND p.owner_id = ?`, id, ownerID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get file: %w", err)
	}
	return f, nil
}

// ListFiles returns one page of a project's files and the total count.
func (s *Store) ListFiles(ctx context.Context, projectID string, page models.Page) ([]*models.File, int, error) {
	total, err := s.count(ctx, `SELECT COUNT(*) FROM files WHERE project_id = ?`, projectID)
	if err != nil {
		return nil, 0, fmt.Errorf("count files: %w", err)
	}
	rows, err := s.query(ctx,
		`SELECT `+fileColumns+` FROM files f WHERE f.project_id = ? ORDER BY f.created_at, f.id LIMIT ? OFFSET ?`,
		projectID, page.Limit, page.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list files: %w", err)
	}
	defer rows.Close()

	items := []*models.File{}
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan file: %w", err)
		}
		items = append(items, f)
	}
	return items, total, rows.Err()
}

// ListProjectFilePaths returns the stored paths of every file in a project.
func (s *Store) ListProjectFilePaths(ctx context.Context, projectID string) ([]string, error) {
	rows, err := s.query(ctx, `SELECT path FROM files WHERE project_id = ?`, projectID)
	if err != nil {
		return nil, fmt.Errorf("list file paths: %w", err)
	}
	defer rows.Close()
	var paths []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		paths = append(paths, p)
	}
	return paths, rows.Err()
}

// DeleteFile removes the file record.
func (s *Store) DeleteFile(ctx context.Context, id string) error {
	res, err := s.exec(ctx, `DELETE FROM files WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete file: %w", err)
	}
	return affectedOrNotFound(res)
}
