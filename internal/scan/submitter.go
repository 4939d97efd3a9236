package scan

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"scantrack/internal/domain"
	"scantrack/internal/metrics"
	"scantrack/internal/models"

	"github.com/rs/zerolog"
)

// Validation failures. These surface immediately and cause no queue or
// network side effect.
var (
	ErrBarcodeRequired = errors.New("barcode is required")
	ErrCompanyRequired = errors.New("shipping company is required")
)

type Status string

const (
	// StatusConfirmed: the service acknowledged the scan right away.
	StatusConfirmed Status = "confirmed"
	// StatusQueuedOffline: the scan is saved locally and will sync later.
	StatusQueuedOffline Status = "queued_offline"
)

// Result is what the operator sees after a submission. Every non-validation
// path ends in one of these; raw transport errors never escape.
type Result struct {
	Status   Status
	Shipment models.Shipment
}

// Submitter runs the per-scan decision procedure: validate, try the service
// when online, fall back to the durable queue otherwise.
type Submitter struct {
	service      domain.ShipmentService
	queue        domain.PendingStore
	history      domain.HistorySink
	connectivity domain.ConnectivitySource
	logger       zerolog.Logger

	user     models.User
	deviceID *int64

	mu        sync.RWMutex
	companies map[int64]string
}

func NewSubmitter(
	service domain.ShipmentService,
	queue domain.PendingStore,
	history domain.HistorySink,
	connectivity domain.ConnectivitySource,
	user models.User,
	deviceID *int64,
	logger *zerolog.Logger,
) *Submitter {
	return &Submitter{
		service:      service,
		queue:        queue,
		history:      history,
		connectivity: connectivity,
		user:         user,
		deviceID:     deviceID,
		logger:       logger.With().Str("component", "scan").Logger(),
		companies:    make(map[int64]string),
	}
}

// UpdateCompanies refreshes the display names used for provisional entries.
func (s *Submitter) UpdateCompanies(companies []models.ShippingCompany) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.companies = make(map[int64]string, len(companies))
	for _, c := range companies {
		s.companies[c.ID] = c.CompanyName
	}
}

// Submit records one scan. It returns a validation error, or a Result whose
// status tells the operator whether the scan was confirmed or saved offline.
// A failed durable write is the one remaining error path: losing a scan
// silently is worse than surfacing a storage fault.
func (s *Submitter) Submit(ctx context.Context, barcode, companyID string) (Result, error) {
	companyNum, err := validate(barcode, companyID)
	if err != nil {
		return Result{}, err
	}
	barcode = strings.TrimSpace(barcode)

	// Capture time is fixed here and reused on every retry, so the record
	// reflects when the operator scanned, not when the network recovered.
	scannedAt := time.Now().UTC()

	if s.connectivity.IsOnline() {
		shipment, err := s.service.SubmitScan(ctx, models.ScanRequest{
			Barcode:   barcode,
			CompanyID: companyNum,
			UserID:    s.user.ID,
			DeviceID:  s.deviceID,
			ScannedAt: scannedAt,
		})
		if err == nil {
			s.history.AppendConfirmed(*shipment)
			metrics.IncScansAccepted("online")
			s.logger.Info().Str("barcode", barcode).Int64("shipment_id", shipment.ID).Msg("scan confirmed")
			return Result{Status: StatusConfirmed, Shipment: *shipment}, nil
		}
		s.logger.Warn().Err(err).Str("barcode", barcode).Msg("submission failed, saving offline")
	}

	return s.saveOffline(ctx, barcode, companyNum, scannedAt)
}

// validate is the pure half of the flow: it decides without side effects
// whether a submission may proceed, and normalizes the company id.
func validate(barcode, companyID string) (int64, error) {
	if strings.TrimSpace(barcode) == "" {
		return 0, ErrBarcodeRequired
	}
	if strings.TrimSpace(companyID) == "" {
		return 0, ErrCompanyRequired
	}
	companyNum, err := strconv.ParseInt(strings.TrimSpace(companyID), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid company id %q", ErrCompanyRequired, companyID)
	}
	return companyNum, nil
}

func (s *Submitter) saveOffline(ctx context.Context, barcode string, companyID int64, scannedAt time.Time) (Result, error) {
	pending := models.PendingScan{
		Barcode:   barcode,
		CompanyID: strconv.FormatInt(companyID, 10),
		UserID:    s.user.ID,
		ScannedAt: scannedAt.Format(time.RFC3339Nano),
	}

	if err := s.queue.Enqueue(ctx, pending); err != nil {
		return Result{}, fmt.Errorf("save scan offline: %w", err)
	}

	provisional := s.provisionalShipment(barcode, companyID, scannedAt)
	s.history.AppendProvisional(provisional)
	metrics.IncScansAccepted("offline")
	s.logger.Info().Str("barcode", barcode).Msg("scan saved offline")

	return Result{Status: StatusQueuedOffline, Shipment: provisional}, nil
}

// provisionalShipment builds the display-only feed entry for a queued scan.
// The id is a placeholder; the real id arrives when the scan syncs.
func (s *Submitter) provisionalShipment(barcode string, companyID int64, scannedAt time.Time) models.Shipment {
	s.mu.RLock()
	companyName, ok := s.companies[companyID]
	s.mu.RUnlock()
	if !ok {
		companyName = "unknown company"
	}

	userID := s.user.ID
	userName := s.user.FullName
	deviceName := "web scan (offline)"

	return models.Shipment{
		ID:          scannedAt.UnixMilli(),
		Barcode:     barcode,
		CompanyID:   companyID,
		CompanyName: companyName,
		UserID:      &userID,
		UserName:    &userName,
		DeviceID:    s.deviceID,
		DeviceName:  &deviceName,
		ScannedAt:   scannedAt,
		Status:      models.StatusInProgress,
	}
}
