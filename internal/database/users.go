package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"scantrack/internal/models"
)

// CreateUser registers an operator account.
func (db *DB) CreateUser(ctx context.Context, username, fullName, role string) (*models.User, error) {
	now := time.Now().UTC()
	result, err := db.db.ExecContext(ctx,
		`INSERT INTO users (username, full_name, role, created_at) VALUES (?, ?, ?, ?)`,
		username, fullName, role, now)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get last insert id: %w", err)
	}
	return &models.User{ID: id, Username: username, FullName: fullName, Role: role, CreatedAt: now}, nil
}

// GetUser returns a user by id, nil when absent.
func (db *DB) GetUser(ctx context.Context, id int64) (*models.User, error) {
	var u models.User
	err := db.db.QueryRowContext(ctx,
		`SELECT id, username, full_name, role, created_at FROM users WHERE id = ?`, id).
		Scan(&u.ID, &u.Username, &u.FullName, &u.Role, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &u, nil
}
