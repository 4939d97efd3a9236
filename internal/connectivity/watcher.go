package connectivity

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Prober answers whether the remote side is reachable right now.
type Prober interface {
	Probe(ctx context.Context) bool
}

// Watcher is host plumbing: it turns periodic reachability probes into the
// edge-triggered signals the Monitor consumes. The Monitor itself stays
// probe-free.
type Watcher struct {
	monitor  *Monitor
	prober   Prober
	interval time.Duration
	logger   *zerolog.Logger
}

func NewWatcher(monitor *Monitor, prober Prober, interval time.Duration, logger *zerolog.Logger) *Watcher {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &Watcher{
		monitor:  monitor,
		prober:   prober,
		interval: interval,
		logger:   logger,
	}
}

// Run probes until ctx is done, forwarding transitions to the monitor.
func (w *Watcher) Run(ctx context.Context) {
	w.logger.Debug().Dur("interval", w.interval).Msg("connectivity watcher started")
	defer w.logger.Debug().Msg("connectivity watcher stopped")

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if w.prober.Probe(ctx) {
				w.monitor.SetOnline()
			} else {
				w.monitor.SetOffline()
			}
		}
	}
}
