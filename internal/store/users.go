package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jabiru-analytics/jabiru/internal/models"
)

const userColumns = `id, username, email, password_hash, first_name, last_name, created_at, updated_at`

func scanUser(row rowScanner) (*models.User, error) {
	var u models.User
	var first, last sql.NullString
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &first, &last, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	u.FirstName = fromNullable(first)
	u.LastName = fromNullable(last)
	return &u, nil
}

// CreateUser inserts u, assigning its ID and timestamps.
func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	u.ID = newID()
	u.CreatedAt = s.now()
	u.UpdatedAt = u.CreatedAt
	_, err := s.exec(ctx,
		`INSERT INTO users (`+userColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Username, u.Email, u.PasswordHash, nullable(u.FirstName), nullable(u.LastName), u.CreatedAt, u.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (s *Store) getUser(ctx context.Context, where string, arg any) (*models.User, error) {
	u, err := scanUser(s.queryRow(ctx, `SELECT `+userColumns+` FROM users WHERE `+where+` = ?`, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

// GetUserByUsername looks a user up by login name.
func (s *Store) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.getUser(ctx, "username", username)
}

// GetUserByID looks a user up by primary key.
func (s *Store) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	return s.getUser(ctx, "id", id)
}

// UserExists reports which identifying field of a prospective user is
// already taken: "username", "email", or "" when neither is.
func (s *Store) UserExists(ctx context.Context, username, email string) (string, error) {
	n, err := s.count(ctx, `SELECT COUNT(*) FROM users WHERE username = ?`, username)
	if err != nil {
		return "", fmt.Errorf("check username: %w", err)
	}
	if n > 0 {
		return "username", nil
	}
	n, err = s.count(ctx, `SELECT COUNT(*) FROM users WHERE email = ?`, email)
	if err != nil {
		return "", fmt.Errorf("check email: %w", err)
	}
	if n > 0 {
		return "email", nil
	}
	return "", nil
}
