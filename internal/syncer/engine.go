package syncer

import (
	"context"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"scantrack/internal/domain"
	"scantrack/internal/metrics"
	"scantrack/internal/models"

	"github.com/rs/zerolog"
)

type Outcome string

const (
	// OutcomeNoOp means the queue was already empty.
	OutcomeNoOp Outcome = "no-op"
	// OutcomeFullySynced means every queued scan was acknowledged.
	OutcomeFullySynced Outcome = "fully-synced"
	// OutcomePartialFailure means a submission failed and one or more scans
	// remain queued.
	OutcomePartialFailure Outcome = "partial-failure"
	// OutcomeSkipped means another drain was already in flight and this
	// trigger was coalesced into it.
	OutcomeSkipped Outcome = "skipped"
)

// Report summarizes one drain run.
type Report struct {
	Outcome   Outcome
	Synced    int
	Remaining int
	Err       error
}

// Engine drains the local scan queue into the shipment service. Scans go out
// oldest first with their original capture time, and the run stops at the
// first failure so records never arrive out of order. The engine performs no
// internal retry; the next connectivity transition or an explicit trigger is
// the retry.
type Engine struct {
	queue   domain.PendingStore
	service domain.ShipmentService
	history domain.HistorySink
	logger  zerolog.Logger

	draining atomic.Bool
}

func New(queue domain.PendingStore, service domain.ShipmentService, history domain.HistorySink, logger *zerolog.Logger) *Engine {
	return &Engine{
		queue:   queue,
		service: service,
		history: history,
		logger:  logger.With().Str("component", "syncer").Logger(),
	}
}

// TriggerAsync starts a drain on its own goroutine. Safe to call from the
// connectivity monitor's transition callback.
func (e *Engine) TriggerAsync(ctx context.Context) {
	go e.Drain(ctx)
}

// Drain runs one complete sync attempt. At most one drain is active at a
// time; a concurrent call returns OutcomeSkipped without touching the queue.
func (e *Engine) Drain(ctx context.Context) Report {
	if !e.draining.CompareAndSwap(false, true) {
		e.logger.Debug().Msg("drain already in progress, trigger ignored")
		return Report{Outcome: OutcomeSkipped}
	}
	defer e.draining.Store(false)

	scans := e.queue.List()
	if len(scans) == 0 {
		return Report{Outcome: OutcomeNoOp}
	}

	e.logger.Info().Int("pending", len(scans)).Msg("drain started")

	synced := 0
	for _, scan := range scans {
		if err := ctx.Err(); err != nil {
			return e.report(synced, fmt.Errorf("drain interrupted: %w", err))
		}

		shipment, err := e.submit(ctx, scan)
		if err != nil {
			reason := "transport"
			if models.IsDomainError(err) {
				reason = "domain_reject"
			}
			metrics.IncDrainFailure(reason)
			e.logger.Warn().Err(err).
				Str("barcode", scan.Barcode).
				Str("scanned_at", scan.ScannedAt).
				Str("reason", reason).
				Msg("drain halted, scan left queued")
			return e.report(synced, err)
		}

		if err := e.queue.Remove(ctx, scan.Key()); err != nil {
			// The service acknowledged the scan but the local delete did not
			// persist. Halting keeps the queue consistent; the next drain
			// re-submits and the idempotent removal cleans up.
			e.logger.Error().Err(err).Str("barcode", scan.Barcode).Msg("failed to remove synced scan")
			return e.report(synced, err)
		}

		e.history.AppendConfirmed(*shipment)
		metrics.IncScansSynced()
		synced++
	}

	e.logger.Info().Int("synced", synced).Msg("drain completed")
	return Report{Outcome: OutcomeFullySynced, Synced: synced}
}

func (e *Engine) submit(ctx context.Context, scan models.PendingScan) (*models.Shipment, error) {
	companyID, err := strconv.ParseInt(scan.CompanyID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid company id %q: %w", scan.CompanyID, err)
	}

	scannedAt, err := time.Parse(time.RFC3339, scan.ScannedAt)
	if err != nil {
		return nil, fmt.Errorf("invalid scan time %q: %w", scan.ScannedAt, err)
	}

	return e.service.SubmitScan(ctx, models.ScanRequest{
		Barcode:   scan.Barcode,
		CompanyID: companyID,
		UserID:    scan.UserID,
		ScannedAt: scannedAt,
	})
}

func (e *Engine) report(synced int, err error) Report {
	return Report{
		Outcome:   OutcomePartialFailure,
		Synced:    synced,
		Remaining: e.queue.Len(),
		Err:       err,
	}
}
