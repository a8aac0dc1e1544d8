package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jabiru-analytics/jabiru/internal/models"
)

const projectColumns = `id, name, description, context, owner_id, created_at, updated_at`

func scanProject(row rowScanner) (*models.Project, error) {
	var p models.Project
	var desc, pctx sql.NullString
	if err := row.Scan(&p.ID, &p.Name, &desc, &pctx, &p.OwnerID, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	p.Description = fromNullable(desc)
	p.Context = fromNullable(pctx)
	return &p, nil
}

// CreateProject inserts p, assigning its ID and timestamps.
func (s *Store) CreateProject(ctx context.Context, p *models.Project) error {
	p.ID = newID()
	p.CreatedAt = s.now()
	p.UpdatedAt = p.CreatedAt
	_, err := s.exec(ctx,
		`INSERT INTO projects (`+projectColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Name, nullable(p.Description), nullable(p.Context), p.OwnerID, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create project: %w", err)
	}
	return nil
}

// GetProject returns the project if it exists and belongs to ownerID.
func (s *Store) GetProject(ctx context.Context, id, ownerID string) (*models.Project, error) {
	p, err := scanProject(s.queryRow(ctx,
		`SELECT `+projectColumns+` FROM projects WHERE id = ? AND owner_id = ?`, id, ownerID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get project: %w", err)
	}
	return p, nil
}

// ListProjects returns one page of the owner's projects and the total count.
func (s *Store) ListProjects(ctx context.Context, ownerID string, page models.Page) ([]*models.Project, int, error) {
	total, err := s.count(ctx, `SELECT COUNT(*) FROM projects WHERE owner_id = ?`, ownerID)
	if err != nil {
		return nil, 0, fmt.Errorf("count projects: %w", err)
	}
	rows, err := s.query(ctx,
		`SELECT `+projectColumns+` FROM projects WHERE owner_id = ? ORDER BY created_at, id LIMIT ? OFFSET ?`,
		ownerID, page.Limit, page.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	items := []*models.Project{}
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan project: %w", err)
		}
		items = append(items, p)
	}
	return items, total, rows.Err()
}

// UpdateProject applies the non-nil fields of upd.
func (s *Store) UpdateProject(ctx context.Context, id, ownerID string, upd models.ProjectUpdate) (*models.Project, error) {
	p, err := s.GetProject(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}
	if upd.Name != nil {
		p.Name = *upd.Name
	}
	if upd.Description != nil {
		p.Description = upd.Description
	}
	if upd.Context != nil {
		p.Context = upd.Context
	}
	p.UpdatedAt = s.now()
	res, err := s.exec(ctx,
		`UPDATE projects SET name = ?, description = ?, context = ?, updated_at = ? WHERE id = ? AND owner_id = ?`,
		p.Name, nullable(p.Description), nullable(p.Context), p.UpdatedAt, id, ownerID)
	if err != nil {
		return nil, fmt.Errorf("update project: %w", err)
	}
	if err := affectedOrNotFound(res); err != nil {
		return nil, err
	}
	return p, nil
}

// DeleteProject removes the project; files and canvases cascade.
func (s *Store) DeleteProject(ctx context.Context, id, ownerID string) error {
	res, err := s.exec(ctx, `DELETE FROM projects WHERE id = ? AND owner_id = ?`, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	return affectedOrNotFound(res)
}
