package models

import "time"

// ScanRequest is the submitScan call payload. ScannedAt carries the original
// capture time; the service defaults it to its own clock when zero.
type ScanRequest struct {
	Barcode   string    `json:"barcode"`
	CompanyID int64     `json:"company_id"`
	UserID    int64     `json:"user_id"`
	DeviceID  *int64    `json:"device_id"`
	ScannedAt time.Time `json:"scanned_at,omitempty"`
}
