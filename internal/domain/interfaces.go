package domain

import (
	"context"

	"scantrack/internal/models"
)

// ShipmentService is the remote collaborator: the authoritative store of
// acknowledged scans. Implemented over HTTP by internal/remote and faked in
// tests.
type ShipmentService interface {
	SubmitScan(ctx context.Context, req models.ScanRequest) (*models.Shipment, error)
	ListCompanies(ctx context.Context) ([]models.ShippingCompany, error)
}

// PendingStore is the client's durable queue of unacknowledged scans.
type PendingStore interface {
	Enqueue(ctx context.Context, scan models.PendingScan) error
	Remove(ctx context.Context, key models.ScanKey) error
	List() []models.PendingScan
	Len() int
}

// HistorySink receives scan records for the operator's recent-scans feed.
type HistorySink interface {
	AppendConfirmed(s models.Shipment)
	AppendProvisional(s models.Shipment)
}

// ConnectivitySource answers the current online flag; only the connectivity
// monitor mutates the underlying state.
type ConnectivitySource interface {
	IsOnline() bool
}

// DeviceCache caches device credentials for API auth on the server side.
type DeviceCache interface {
	GetDevice(ctx context.Context, apiKey string) (*models.Device, error)
	SetDevice(ctx context.Context, device *models.Device) error
	InvalidateDevice(ctx context.Context, apiKey string) error
}
