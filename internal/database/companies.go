package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"scantrack/internal/models"
)

// CreateCompany registers a shipping company.
func (db *DB) CreateCompany(ctx context.Context, name string) (*models.ShippingCompany, error) {
	now := time.Now().UTC()
	result, err := db.db.ExecContext(ctx,
		`INSERT INTO companies (company_name, created_at) VALUES (?, ?)`, name, now)
	if err != nil {
		return nil, fmt.Errorf("failed to create company: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get last insert id: %w", err)
	}
	return &models.ShippingCompany{ID: id, CompanyName: name, CreatedAt: now}, nil
}

// GetCompany returns a company by id, nil when absent.
func (db *DB) GetCompany(ctx context.Context, id int64) (*models.ShippingCompany, error) {
	var c models.ShippingCompany
	err := db.db.QueryRowContext(ctx,
		`SELECT id, company_name, created_at FROM companies WHERE id = ?`, id).
		Scan(&c.ID, &c.CompanyName, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get company: %w", err)
	}
	return &c, nil
}

// ListCompanies returns all companies sorted by name, matching the order the
// company selector shows them in.
func (db *DB) ListCompanies(ctx context.Context) ([]models.ShippingCompany, error) {
	rows, err := db.db.QueryContext(ctx,
		`SELECT id, company_name, created_at FROM companies ORDER BY company_name ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list companies: %w", err)
	}
	defer rows.Close()

	var companies []models.ShippingCompany
	for rows.Next() {
		var c models.ShippingCompany
		if err := rows.Scan(&c.ID, &c.CompanyName, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan company: %w", err)
		}
		companies = append(companies, c)
	}
	return companies, rows.Err()
}
