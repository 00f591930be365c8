package session

import (
	"log"
	"sync"
	"time"

	"intervalpacer/internal/events"
)

// RemotePhase is a companion device's view of the primary schedule: just the
// current phase and when it ends, adopted verbatim rather than re-derived.
type RemotePhase struct {
	Kind       PhaseKind
	Interval   int
	PhaseEndAt time.Time
	Paused     bool
	AdoptedAt  time.Time
}

// Mirror aligns a secondary device's session view to the primary's schedule.
// It never runs its own scheduler; it only tracks what the primary reports.
type Mirror struct {
	clock  Clock
	logger *log.Logger

	mu      sync.RWMutex
	current *RemotePhase

	phaseEvent *events.Broker[RemotePhase]
}

// NewMirror creates an empty mirror.
func NewMirror(clock Clock, logger *log.Logger) *Mirror {
	if clock == nil {
		panic("Mirror: clock cannot be nil")
	}
	if logger == nil {
		panic("Mirror: logger cannot be nil")
	}
	return &Mirror{
		clock:      clock,
		logger:     logger,
		phaseEvent: events.NewBroker[RemotePhase](true),
	}
}

// AdoptRemoteSchedule replaces the mirrored view with the primary's current
// phase. Called on every inbound sync event from the companion channel.
func (m *Mirror) AdoptRemoteSchedule(kind PhaseKind, interval int, phaseEndAt time.Time, paused bool) {
	now := m.clock.Now()
	phase := RemotePhase{
		Kind:       kind,
		Interval:   interval,
		PhaseEndAt: phaseEndAt,
		Paused:     paused,
		AdoptedAt:  now,
	}

	m.mu.Lock()
	m.current = &phase
	m.mu.Unlock()

	m.logger.Printf("Mirror: adopted remote phase %s %d, ends %v, paused=%t",
		kind, interval, phaseEndAt.Format(time.RFC3339), paused)
	m.phaseEvent.Publish(phase)
}

// Clear drops the mirrored view, e.g. when the primary session ends.
func (m *Mirror) Clear() {
	m.mu.Lock()
	m.current = nil
	m.mu.Unlock()
	m.logger.Printf("Mirror: cleared")
}

// CurrentPhase returns the mirrored phase, if one has been adopted.
func (m *Mirror) CurrentPhase() (RemotePhase, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.current == nil {
		return RemotePhase{}, false
	}
	return *m.current, true
}

// TimeRemainingInPhase derives the countdown from the adopted absolute end
// instant. While the primary is paused the value is frozen at adoption time.
func (m *Mirror) TimeRemainingInPhase() time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.current == nil {
		return 0
	}
	ref := m.clock.Now()
	if m.current.Paused {
		ref = m.current.AdoptedAt
	}
	remaining := m.current.PhaseEndAt.Sub(ref)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// ListenToPhase registers a callback for adopted phase updates. The last
// adopted phase is replayed to new subscribers. Returns a deregistration
// function.
func (m *Mirror) ListenToPhase(fn func(RemotePhase)) func() {
	return m.phaseEvent.Subscribe(fn)
}
