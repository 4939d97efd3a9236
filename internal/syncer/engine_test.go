package syncer

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"scantrack/internal/history"
	"scantrack/internal/kv"
	"scantrack/internal/models"
	"scantrack/internal/queue"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeService struct {
	mu        sync.Mutex
	submitted []models.ScanRequest
	failOn    map[string]error
	gate      chan struct{}
	nextID    int64
}

func (f *fakeService) SubmitScan(ctx context.Context, req models.ScanRequest) (*models.Shipment, error) {
	if f.gate != nil {
		<-f.gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if err, ok := f.failOn[req.Barcode]; ok {
		return nil, err
	}

	f.submitted = append(f.submitted, req)
	f.nextID++
	return &models.Shipment{
		ID:          f.nextID,
		Barcode:     req.Barcode,
		CompanyID:   req.CompanyID,
		CompanyName: "Aramex",
		ScannedAt:   req.ScannedAt,
		Status:      models.StatusInProgress,
	}, nil
}

func (f *fakeService) ListCompanies(ctx context.Context) ([]models.ShippingCompany, error) {
	return nil, nil
}

func (f *fakeService) barcodes() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.submitted))
	for i, req := range f.submitted {
		out[i] = req.Barcode
	}
	return out
}

func setupEngine(t *testing.T) (*Engine, *queue.ScanQueue, *fakeService, *history.Feed) {
	t.Helper()
	store, err := kv.NewFileStore(t.TempDir())
	require.NoError(t, err)

	q, err := queue.Load(context.Background(), store, models.QueueStorageKey)
	require.NoError(t, err)

	service := &fakeService{}
	feed := history.New(10)
	logger := zerolog.Nop()
	return New(q, service, feed, &logger), q, service, feed
}

func enqueue(t *testing.T, q *queue.ScanQueue, barcode, scannedAt string) {
	t.Helper()
	require.NoError(t, q.Enqueue(context.Background(), models.PendingScan{
		Barcode:   barcode,
		CompanyID: "7",
		UserID:    2,
		ScannedAt: scannedAt,
	}))
}

func TestDrainEmptyQueueIsNoOp(t *testing.T) {
	engine, _, service, _ := setupEngine(t)

	report := engine.Drain(context.Background())
	assert.Equal(t, OutcomeNoOp, report.Outcome)
	assert.Empty(t, service.barcodes())
}

func TestDrainSubmitsInOrderAndEmptiesQueue(t *testing.T) {
	engine, q, service, feed := setupEngine(t)
	enqueue(t, q, "X2", "2026-01-10T08:00:00Z")
	enqueue(t, q, "X3", "2026-01-10T08:01:00Z")

	report := engine.Drain(context.Background())

	assert.Equal(t, OutcomeFullySynced, report.Outcome)
	assert.Equal(t, 2, report.Synced)
	assert.Equal(t, []string{"X2", "X3"}, service.barcodes())
	assert.Equal(t, 0, q.Len())

	// History gets confirmed entries, newest first.
	entries := feed.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "X3", entries[0].Shipment.Barcode)
	assert.False(t, entries[0].Provisional)
}

func TestDrainPreservesOriginalScanTime(t *testing.T) {
	engine, q, service, _ := setupEngine(t)
	enqueue(t, q, "X1", "2026-01-10T08:00:00Z")

	report := engine.Drain(context.Background())
	require.Equal(t, OutcomeFullySynced, report.Outcome)

	service.mu.Lock()
	defer service.mu.Unlock()
	require.Len(t, service.submitted, 1)
	want, _ := time.Parse(time.RFC3339, "2026-01-10T08:00:00Z")
	assert.True(t, service.submitted[0].ScannedAt.Equal(want), "drain must submit the capture time, not retry time")
}

func TestDrainStopsAtFirstFailure(t *testing.T) {
	engine, q, service, _ := setupEngine(t)
	enqueue(t, q, "A", "2026-01-10T08:00:00Z")
	enqueue(t, q, "B", "2026-01-10T08:01:00Z")
	service.failOn = map[string]error{"A": errors.New("connection refused")}

	report := engine.Drain(context.Background())

	assert.Equal(t, OutcomePartialFailure, report.Outcome)
	assert.Equal(t, 0, report.Synced)
	assert.Equal(t, 2, report.Remaining)
	// B was scanned after A; it must not be submitted while A is stuck.
	assert.Empty(t, service.barcodes())
	assert.Equal(t, 2, q.Len())
}

func TestDrainPartialFailureKeepsOnlyFailedTail(t *testing.T) {
	engine, q, service, _ := setupEngine(t)
	enqueue(t, q, "A", "2026-01-10T08:00:00Z")
	enqueue(t, q, "B", "2026-01-10T08:01:00Z")
	service.failOn = map[string]error{"B": errors.New("timeout")}

	report := engine.Drain(context.Background())

	assert.Equal(t, OutcomePartialFailure, report.Outcome)
	assert.Equal(t, 1, report.Synced)
	assert.Equal(t, []string{"A"}, service.barcodes())

	remaining := q.List()
	require.Len(t, remaining, 1)
	assert.Equal(t, "B", remaining[0].Barcode)

	// Next trigger retries B and succeeds.
	service.failOn = nil
	report = engine.Drain(context.Background())
	assert.Equal(t, OutcomeFullySynced, report.Outcome)
	assert.Equal(t, []string{"A", "B"}, service.barcodes())
	assert.Equal(t, 0, q.Len())
}

func TestDomainRejectionAlsoHaltsDrain(t *testing.T) {
	engine, q, service, _ := setupEngine(t)
	enqueue(t, q, "A", "2026-01-10T08:00:00Z")
	enqueue(t, q, "B", "2026-01-10T08:01:00Z")
	service.failOn = map[string]error{"A": models.ErrCompanyNotFound}

	report := engine.Drain(context.Background())

	assert.Equal(t, OutcomePartialFailure, report.Outcome)
	assert.ErrorIs(t, report.Err, models.ErrCompanyNotFound)
	assert.Equal(t, 2, q.Len(), "a rejected scan stays queued rather than being dropped")
}

func TestConcurrentDrainIsSingleFlight(t *testing.T) {
	engine, q, service, _ := setupEngine(t)
	enqueue(t, q, "X1", "2026-01-10T08:00:00Z")

	service.gate = make(chan struct{})

	first := make(chan Report, 1)
	go func() {
		first <- engine.Drain(context.Background())
	}()

	// Wait for the first drain to hold the single-flight guard.
	require.Eventually(t, func() bool {
		return engine.draining.Load()
	}, 2*time.Second, time.Millisecond)

	second := engine.Drain(context.Background())
	assert.Equal(t, OutcomeSkipped, second.Outcome)

	close(service.gate)
	report := <-first
	assert.Equal(t, OutcomeFullySynced, report.Outcome)
	// The scan went out exactly once.
	assert.Equal(t, []string{"X1"}, service.barcodes())
}
