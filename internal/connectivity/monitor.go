package connectivity

import (
	"sync"

	"github.com/rs/zerolog"
)

// Monitor owns the process-wide online/offline flag. Only host signals
// (SetOnline/SetOffline) mutate it; the monitor never probes the network
// itself. Subscribers registered with OnOnline run on every offline-to-online
// transition, and they run before any IsOnline caller can observe the new
// state, so a drain trigger is never outrun by a submission that already saw
// the flag flip.
type Monitor struct {
	mu       sync.Mutex
	online   bool
	onOnline []func()
	logger   *zerolog.Logger
}

// NewMonitor starts from the host's reported connectivity at startup.
func NewMonitor(initialOnline bool, logger *zerolog.Logger) *Monitor {
	return &Monitor{online: initialOnline, logger: logger}
}

// IsOnline reports the current state.
func (m *Monitor) IsOnline() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.online
}

// OnOnline registers a transition callback. Callbacks run synchronously on
// the signal goroutine while the state lock is held; they must not call back
// into the monitor and should hand real work to another goroutine.
func (m *Monitor) OnOnline(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onOnline = append(m.onOnline, fn)
}

// SetOnline records a host "became online" signal. Repeated same-state
// signals do not fire callbacks.
func (m *Monitor) SetOnline() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.online {
		return
	}
	m.online = true
	m.logger.Info().Msg("connectivity: online")
	for _, fn := range m.onOnline {
		fn()
	}
}

// SetOffline records a host "became offline" signal.
func (m *Monitor) SetOffline() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.online {
		return
	}
	m.online = false
	m.logger.Warn().Msg("connectivity: offline")
}
