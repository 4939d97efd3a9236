package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"scantrack/internal/models"
)

// CreateShipment validates a scan against companies/users/devices and stores
// the acknowledged shipment with denormalized display names captured at
// submission time. A missing user or device is tolerated (the name fields
// stay null); a missing company or an inactive device rejects the scan.
func (db *DB) CreateShipment(ctx context.Context, req models.ScanRequest) (*models.Shipment, error) {
	company, err := db.GetCompany(ctx, req.CompanyID)
	if err != nil {
		return nil, err
	}
	if company == nil {
		return nil, models.ErrCompanyNotFound
	}

	shipment := models.Shipment{
		Barcode:     req.Barcode,
		CompanyID:   company.ID,
		CompanyName: company.CompanyName,
		ScannedAt:   req.ScannedAt,
		Status:      models.StatusInProgress,
	}
	if shipment.ScannedAt.IsZero() {
		shipment.ScannedAt = time.Now().UTC()
	}

	if req.UserID != 0 {
		user, err := db.GetUser(ctx, req.UserID)
		if err != nil {
			return nil, err
		}
		if user != nil {
			shipment.UserID = &user.ID
			shipment.UserName = &user.FullName
		}
	}

	if req.DeviceID != nil {
		device, err := db.GetDevice(ctx, *req.DeviceID)
		if err != nil {
			return nil, err
		}
		if device != nil {
			if !device.Active {
				return nil, models.ErrDeviceInactive
			}
			shipment.DeviceID = &device.ID
			shipment.DeviceName = &device.DeviceName
		}
	}

	query := `INSERT INTO shipments (barcode, company_id, company_name, user_id, user_name, device_id, device_name, scanned_at, status)
              VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	result, err := db.db.ExecContext(ctx, query,
		shipment.Barcode,
		shipment.CompanyID,
		shipment.CompanyName,
		shipment.UserID,
		shipment.UserName,
		shipment.DeviceID,
		shipment.DeviceName,
		shipment.ScannedAt,
		shipment.Status,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create shipment: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get last insert id: %w", err)
	}
	shipment.ID = id

	return &shipment, nil
}

// GetShipment returns a shipment by id, nil when absent.
func (db *DB) GetShipment(ctx context.Context, id int64) (*models.Shipment, error) {
	query := `SELECT id, barcode, company_id, company_name, user_id, user_name, device_id, device_name, scanned_at, status
              FROM shipments WHERE id = ?`
	var s models.Shipment
	err := db.db.QueryRowContext(ctx, query, id).Scan(
		&s.ID, &s.Barcode, &s.CompanyID, &s.CompanyName, &s.UserID, &s.UserName, &s.DeviceID, &s.DeviceName, &s.ScannedAt, &s.Status,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get shipment: %w", err)
	}
	return &s, nil
}

// ListShipments returns the most recent shipments, newest first.
func (db *DB) ListShipments(ctx context.Context, limit int) ([]models.Shipment, error) {
	query := `SELECT id, barcode, company_id, company_name, user_id, user_name, device_id, device_name, scanned_at, status
              FROM shipments ORDER BY scanned_at DESC LIMIT ?`
	rows, err := db.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list shipments: %w", err)
	}
	defer rows.Close()

	var shipments []models.Shipment
	for rows.Next() {
		var s models.Shipment
		err := rows.Scan(
			&s.ID, &s.Barcode, &s.CompanyID, &s.CompanyName, &s.UserID, &s.UserName, &s.DeviceID, &s.DeviceName, &s.ScannedAt, &s.Status,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan shipment: %w", err)
		}
		shipments = append(shipments, s)
	}
	return shipments, rows.Err()
}

// UpdateShipmentStatus moves a shipment through its lifecycle.
func (db *DB) UpdateShipmentStatus(ctx context.Context, id int64, status string) error {
	result, err := db.db.ExecContext(ctx, `UPDATE shipments SET status = ? WHERE id = ?`, status, id)
	if err != nil {
		return fmt.Errorf("failed to update shipment status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("shipment %d not found", id)
	}
	return nil
}
