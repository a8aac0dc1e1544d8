package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jabiru-analytics/jabiru/internal/models"
)

const canvasColumns = `c.id, c.name, c.project_id, c.content_json, c.created_by, c.created_at, c.updated_at`

func scanCanvas(row rowScanner) (*models.Canvas, error) {
	var c models.Canvas
	var content string
	if err := row.Scan(&c.ID, &c.Name, &c.ProjectID, &content, &c.CreatedBy, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	c.ContentJSON = json.RawMessage(content)
	return &c, nil
}

// CreateCanvas inserts c; empty content is replaced by the default layout.
func (s *Store) CreateCanvas(ctx context.Context, c *models.Canvas) error {
	c.ID = newID()
	c.CreatedAt = s.now()
	c.UpdatedAt = c.CreatedAt
	if len(c.ContentJSON) == 0 {
		c.ContentJSON = models.DefaultCanvasContent
	}
	_, err := s.exec(ctx,
		`INSERT INTO canvases (id, name, project_id, content_json, created_by, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.Name, c.ProjectID, string(c.ContentJSON), c.CreatedBy, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create canvas: %w", err)
	}
	return nil
}

// GetCanvas returns the canvas if its project belongs to ownerID.
func (s *Store) GetCanvas(ctx context.Context, id, ownerID string) (*models.Canvas, error) {
	c, err := scanCanvas(s.queryRow(ctx,
		`SELECT `+canvasColumns+` FROM canvases c JOIN projects p ON p.id = c.project_id
		 WHERE c.id = ? AND p.owner_id = ?`, id, ownerID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get canvas: %w", err)
	}
	return c, nil
}

// ListCanvases returns one page of a project's canvases and the total count.
func (s *Store) ListCanvases(ctx context.Context, projectID string, page models.Page) ([]*models.Canvas, int, error) {
	total, err := s.count(ctx, `SELECT COUNT(*) FROM canvases WHERE project_id = ?`, projectID)
	if err != nil {
		return nil, 0, fmt.Errorf("count canvases: %w", err)
	}
	rows, err := s.query(ctx,
		`SELECT `+canvasColumns+` FROM canvases c WHERE c.project_id = ? ORDER BY c.created_at, c.id LIMIT ? OFFSET ?`,
		projectID, page.Limit, page.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list canvases: %w", err)
	}
	defer rows.Close()

	items := []*models.Canvas{}
	for rows.Next() {
		c, err := scanCanvas(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan canvas: %w", err)
		}
		items = append(items, c)
	}
	return items, total, rows.Err()
}

// UpdateCanvas applies the set fields of upd to a canvas the owner can see.
func (s *Store) UpdateCanvas(ctx context.Context, id, ownerID string, upd models.CanvasUpdate) (*models.Canvas, error) {
	c, err := s.GetCanvas(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}
	if upd.Name != nil {
		c.Name = *upd.Name
	}
	if len(upd.ContentJSON) > 0 {
		c.ContentJSON = upd.ContentJSON
	}
	c.UpdatedAt = s.now()
	res, err := s.exec(ctx,
		`UPDATE canvases SET name = ?, content_json = ?, updated_at = ? WHERE id = ?`,
		c.Name, string(c.ContentJSON), c.UpdatedAt, id)
	if err != nil {
		return nil, fmt.Errorf("update canvas: %w", err)
	}
	if err := affectedOrNotFound(res); err != nil {
		return nil, err
	}
	return c, nil
}

// DeleteCanvas removes the canvas record.
func (s *Store) DeleteCanvas(ctx context.Context, id string) error {
	res, err := s.exec(ctx, `DELETE FROM canvases WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete canvas: %w", err)
	}
	return affectedOrNotFound(res)
}
