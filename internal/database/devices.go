package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"scantrack/internal/models"

	"github.com/google/uuid"
)

// CreateDevice registers a scanner device with a generated api key.
func (db *DB) CreateDevice(ctx context.Context, deviceName string) (*models.Device, error) {
	now := time.Now().UTC()
	apiKey := "key_" + uuid.NewString()

	result, err := db.db.ExecContext(ctx,
		`INSERT INTO devices (device_name, api_key, active, created_at) VALUES (?, ?, 1, ?)`,
		deviceName, apiKey, now)
	if err != nil {
		return nil, fmt.Errorf("failed to create device: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get last insert id: %w", err)
	}
	return &models.Device{ID: id, DeviceName: deviceName, APIKey: apiKey, Active: true, CreatedAt: now}, nil
}

// GetDevice returns a device by id, nil when absent.
func (db *DB) GetDevice(ctx context.Context, id int64) (*models.Device, error) {
	return db.getDevice(ctx, `SELECT id, device_name, api_key, active, created_at FROM devices WHERE id = ?`, id)
}

// GetDeviceByAPIKey returns a device by its api key, nil when absent. Used by
// the API auth middleware, normally through the device cache.
func (db *DB) GetDeviceByAPIKey(ctx context.Context, apiKey string) (*models.Device, error) {
	return db.getDevice(ctx, `SELECT id, device_name, api_key, active, created_at FROM devices WHERE api_key = ?`, apiKey)
}

func (db *DB) getDevice(ctx context.Context, query string, arg interface{}) (*models.Device, error) {
	var d models.Device
	err := db.db.QueryRowContext(ctx, query, arg).
		Scan(&d.ID, &d.DeviceName, &d.APIKey, &d.Active, &d.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get device: %w", err)
	}
	return &d, nil
}

// SetDeviceActive toggles a device on or off without rotating its key.
func (db *DB) SetDeviceActive(ctx context.Context, id int64, active bool) error {
	result, err := db.db.ExecContext(ctx, `UPDATE devices SET active = ? WHERE id = ?`, active, id)
	if err != nil {
		return fmt.Errorf("failed to update device: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if affected == 0 {
		return models.ErrDeviceNotFound
	}
	return nil
}
