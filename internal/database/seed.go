package database

import (
	"context"
	"fmt"

	"scantrack/internal/models"
)

// SeedDefaults populates an empty database with a starter admin, a few
// carriers and one device so a fresh install can register scans immediately.
// A database that already has companies is left untouched.
func (db *DB) SeedDefaults(ctx context.Context) error {
	var count int
	if err := db.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM companies`).Scan(&count); err != nil {
		return fmt.Errorf("failed to check companies: %w", err)
	}
	if count > 0 {
		return nil
	}

	for _, name := range []string{"Aramex", "FedEx", "UPS"} {
		if _, err := db.CreateCompany(ctx, name); err != nil {
			return err
		}
	}

	if _, err := db.CreateUser(ctx, "admin", "Admin User", models.RoleAdmin); err != nil {
		return err
	}

	if _, err := db.CreateDevice(ctx, "Warehouse PDA 1"); err != nil {
		return err
	}

	return nil
}
