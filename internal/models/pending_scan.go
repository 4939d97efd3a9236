package models

// PendingScan is a locally captured scan that the shipment service has not
// acknowledged yet. ScannedAt is fixed at capture time and reused on every
// sync attempt; it is an RFC3339 string so the persisted form round-trips
// byte-for-byte.
type PendingScan struct {
	Barcode   string `json:"barcode"`
	CompanyID string `json:"company_id"`
	UserID    int64  `json:"user_id"`
	ScannedAt string `json:"scanned_at"`
}

// ScanKey identifies a queued scan for removal. The queue has no server ids,
// so the (barcode, scanned_at) pair is the only stable identity.
type ScanKey struct {
	Barcode   string
	ScannedAt string
}

func (p PendingScan) Key() ScanKey {
	return ScanKey{Barcode: p.Barcode, ScannedAt: p.ScannedAt}
}
