package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"scantrack/internal/kv"
	"scantrack/internal/models"
)

// ScanQueue holds scans that the shipment service has not acknowledged yet.
// Insertion order is sync order. Every mutation rewrites the full serialized
// queue in the store before returning; a mutation whose durable write fails
// is rolled back in memory, so the persisted queue always matches List().
type ScanQueue struct {
	mu    sync.Mutex
	store kv.Store
	key   string
	scans []models.PendingScan
}

// Load builds a queue on top of store, restoring any scans a previous
// process left behind under key.
func Load(ctx context.Context, store kv.Store, key string) (*ScanQueue, error) {
	data, err := store.Read(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("load scan queue: %w", err)
	}

	q := &ScanQueue{store: store, key: key}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &q.scans); err != nil {
			return nil, fmt.Errorf("decode scan queue: %w", err)
		}
	}
	return q, nil
}

// Enqueue appends scan and persists. Duplicate content is allowed; dedup only
// happens on removal by exact key match.
func (q *ScanQueue) Enqueue(ctx context.Context, scan models.PendingScan) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.scans = append(q.scans, scan)
	if err := q.persist(ctx); err != nil {
		q.scans = q.scans[:len(q.scans)-1]
		return fmt.Errorf("persist scan queue: %w", err)
	}
	return nil
}

// Remove drops the first entry matching key and persists. An absent key is a
// no-op: a retry may race with an earlier successful removal.
func (q *ScanQueue) Remove(ctx context.Context, key models.ScanKey) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	idx := -1
	for i, s := range q.scans {
		if s.Key() == key {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil
	}

	// Capped capacity forces append to reallocate, leaving prev intact for
	// rollback when the durable write fails.
	prev := q.scans
	q.scans = append(q.scans[:idx:idx], q.scans[idx+1:]...)
	if err := q.persist(ctx); err != nil {
		q.scans = prev
		return fmt.Errorf("persist scan queue: %w", err)
	}
	return nil
}

// List returns a snapshot, oldest first.
func (q *ScanQueue) List() []models.PendingScan {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := make([]models.PendingScan, len(q.scans))
	copy(out, q.scans)
	return out
}

func (q *ScanQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.scans)
}

// persist is called with q.mu held.
func (q *ScanQueue) persist(ctx context.Context) error {
	data, err := json.Marshal(q.scans)
	if err != nil {
		return fmt.Errorf("encode scan queue: %w", err)
	}
	return q.store.Write(ctx, q.key, data)
}
