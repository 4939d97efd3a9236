package history

import (
	"sync"

	"scantrack/internal/models"
)

// Entry is one row of the operator's recent-scans feed. Provisional entries
// were queued offline and have no server id yet; they are never patched in
// place once the underlying scan syncs, the feed is an activity log and the
// shipment service holds the record of truth.
type Entry struct {
	Shipment    models.Shipment
	Provisional bool
}

// Feed keeps the most recent scans, newest first, bounded to a fixed
// capacity.
type Feed struct {
	mu       sync.Mutex
	capacity int
	entries  []Entry
}

func New(capacity int) *Feed {
	if capacity <= 0 {
		capacity = models.DefaultHistorySize
	}
	return &Feed{capacity: capacity}
}

// AppendConfirmed prepends a server-acknowledged shipment.
func (f *Feed) AppendConfirmed(s models.Shipment) {
	f.prepend(Entry{Shipment: s})
}

// AppendProvisional prepends a not-yet-confirmed shipment.
func (f *Feed) AppendProvisional(s models.Shipment) {
	f.prepend(Entry{Shipment: s, Provisional: true})
}

func (f *Feed) prepend(e Entry) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.entries = append([]Entry{e}, f.entries...)
	if len(f.entries) > f.capacity {
		f.entries = f.entries[:f.capacity]
	}
}

// Entries returns a snapshot, newest first.
func (f *Feed) Entries() []Entry {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]Entry, len(f.entries))
	copy(out, f.entries)
	return out
}

func (f *Feed) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.entries)
}
