package models

import "time"

// Shipment is a scan acknowledged by the shipment service. Company, user and
// device names are denormalized at submission time; they are display data,
// never a relational reference.
type Shipment struct {
	ID          int64     `json:"id"`
	Barcode     string    `json:"barcode"`
	CompanyID   int64     `json:"company_id"`
	CompanyName string    `json:"company_name"`
	UserID      *int64    `json:"user_id"`
	UserName    *string   `json:"user_name"`
	DeviceID    *int64    `json:"device_id"`
	DeviceName  *string   `json:"device_name"`
	ScannedAt   time.Time `json:"scanned_at"`
	Status      string    `json:"status"` // in_progress, delivered, returned
}
