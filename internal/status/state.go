package status

import (
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/matheus3301/wachats/internal/bus"
)

// State represents the client's view of backend connectivity.
type State string

const (
	Connecting State = "CONNECTING"
	Online     State = "ONLINE"
	Degraded   State = "DEGRADED"
	Offline    State = "OFFLINE"
)

// EventChanged is published on the bus after every transition.
const EventChanged = "status.changed"

// OfflineAfter is the number of consecutive failed polls after which a
// degraded backend is reported offline.
const OfflineAfter = 3

// validTransitions defines allowed state transitions.
var validTransitions = map[State][]State{
	Connecting: {Online, Offline},
	Online:     {Degraded},
	Degraded:   {Online, Offline},
	Offline:    {Connecting, Online},
}

// Machine tracks and enforces connectivity state transitions.
type Machine struct {
	mu       sync.RWMutex
	current  State
	failures int
	lastErr  error
	bus      *bus.Bus
}

// NewMachine creates a new state machine starting in Connecting state.
func NewMachine(b *bus.Bus) *Machine {
	return &Machine{
		current: Connecting,
		bus:     b,
	}
}

// Current returns the current state.
func (m *Machine) Current() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// LastError returns the error of the most recent failed request, or nil
// once a request has succeeded again.
func (m *Machine) LastError() error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastErr
}

// Transition attempts to move to a new state. Returns error if transition is invalid.
func (m *Machine) Transition(to State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.transitionLocked(to)
}

// ReportSuccess records a successful backend round trip.
func (m *Machine) ReportSuccess() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures = 0
	m.lastErr = nil
	if m.current != Online {
		_ = m.transitionLocked(Online)
	}
}

// ReportFailure records a failed backend round trip.
func (m *Machine) ReportFailure(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures++
	m.lastErr = err
	switch m.current {
	case Connecting:
		_ = m.transitionLocked(Offline)
	case Online:
		_ = m.transitionLocked(Degraded)
	case Degraded:
		if m.failures >= OfflineAfter {
			_ = m.transitionLocked(Offline)
		}
	}
}

func (m *Machine) transitionLocked(to State) error {
	allowed := validTransitions[m.current]
	if !slices.Contains(allowed, to) {
		return fmt.Errorf("invalid transition from %s to %s", m.current, to)
	}
	from := m.current
	m.current = to
	if m.bus != nil {
		m.bus.Publish(bus.Event{
			Kind:      EventChanged,
			Timestamp: time.Now(),
			Payload: StatusChange{
				From: from,
				To:   to,
			},
		})
	}
	return nil
}

// StatusChange is the payload for status change events.
type StatusChange struct {
	From State
	To   State
}
