package session

import (
	"errors"
	"fmt"
	"time"
)

// PhaseKind identifies the kind of a workout phase.
type PhaseKind int

const (
	PhaseWarmup PhaseKind = iota
	PhaseActive
	PhaseRecovery
	PhaseCooldown
	PhasePaused
	PhaseCompleted
)

// String returns the display name of the phase kind.
func (k PhaseKind) String() string {
	switch k {
	case PhaseWarmup:
		return "Warmup"
	case PhaseActive:
		return "Active"
	case PhaseRecovery:
		return "Recovery"
	case PhaseCooldown:
		return "Cooldown"
	case PhasePaused:
		return "Paused"
	case PhaseCompleted:
		return "Completed"
	default:
		return fmt.Sprintf("PhaseKind(%d)", int(k))
	}
}

// PhaseConfig describes an interval session: an optional warmup, TotalIntervals
// pairs of Active/Recovery phases, and an optional cooldown. Supplied once at
// session start and never mutated afterwards.
type PhaseConfig struct {
	Name             string
	ActiveDuration   time.Duration
	RecoveryDuration time.Duration
	WarmupDuration   time.Duration
	CooldownDuration time.Duration
	TotalIntervals   int
	WarmupEnabled    bool
	CooldownEnabled  bool
}

// Validate reports whether the config is usable. Durations must be
// non-negative and the interval count must not be negative. A zero interval
// count is legal and yields a warmup/cooldown-only (possibly empty) schedule.
func (c PhaseConfig) Validate() error {
	if c.TotalIntervals < 0 {
		return fmt.Errorf("total intervals must not be negative, got %d", c.TotalIntervals)
	}
	for _, d := range []struct {
		name string
		dur  time.Duration
	}{
		{"active", c.ActiveDuration},
		{"recovery", c.RecoveryDuration},
		{"warmup", c.WarmupDuration},
		{"cooldown", c.CooldownDuration},
	} {
		if d.dur < 0 {
			return fmt.Errorf("%s duration must not be negative, got %v", d.name, d.dur)
		}
	}
	return nil
}

// warmup returns the effective warmup duration (0 when disabled).
func (c PhaseConfig) warmup() time.Duration {
	if !c.WarmupEnabled {
		return 0
	}
	return c.WarmupDuration
}

// cooldown returns the effective cooldown duration (0 when disabled).
func (c PhaseConfig) cooldown() time.Duration {
	if !c.CooldownEnabled {
		return 0
	}
	return c.CooldownDuration
}

// durationFor returns the configured duration for a phase kind.
func (c PhaseConfig) durationFor(kind PhaseKind) time.Duration {
	switch kind {
	case PhaseWarmup:
		return c.warmup()
	case PhaseActive:
		return c.ActiveDuration
	case PhaseRecovery:
		return c.RecoveryDuration
	case PhaseCooldown:
		return c.cooldown()
	default:
		return 0
	}
}

// TotalDuration returns the total scheduled duration of the session.
func (c PhaseConfig) TotalDuration() time.Duration {
	total := c.warmup() + c.cooldown()
	total += time.Duration(c.TotalIntervals) * (c.ActiveDuration + c.RecoveryDuration)
	return total
}

// ScheduledPhase is one entry in a Schedule. It is immutable once created;
// recalculation (pause shift, manual skip) replaces entries wholesale rather
// than patching them in place.
type ScheduledPhase struct {
	Kind     PhaseKind
	Interval int // 1..N for Active/Recovery, 0 for Warmup/Cooldown
	StartAt  time.Time
	EndAt    time.Time
}

// Duration returns the length of the phase. Zero-length phases are legal.
func (p ScheduledPhase) Duration() time.Duration {
	return p.EndAt.Sub(p.StartAt)
}

// Label returns a short display label, e.g. "Active 2" or "Cooldown".
func (p ScheduledPhase) Label() string {
	if p.Interval > 0 {
		return fmt.Sprintf("%s %d", p.Kind, p.Interval)
	}
	return p.Kind.String()
}

// Schedule is the ordered, contiguous sequence of phases covering an entire
// session. phase[i].EndAt always equals phase[i+1].StartAt.
type Schedule []ScheduledPhase

// TotalDuration returns the sum of all phase durations.
func (s Schedule) TotalDuration() time.Duration {
	var total time.Duration
	for _, p := range s {
		total += p.Duration()
	}
	return total
}

// EndAt returns the end instant of the last phase, or the zero time for an
// empty schedule.
func (s Schedule) EndAt() time.Time {
	if len(s) == 0 {
		return time.Time{}
	}
	return s[len(s)-1].EndAt
}

// ErrInvalidTransition is returned when an operation is called in a session
// state that does not permit it. The session state is left unchanged.
var ErrInvalidTransition = errors.New("invalid session transition")

// ErrNoSession is returned by facade operations when no session is active.
var ErrNoSession = errors.New("no active session")

// Status is the lifecycle state of a session.
type Status int

const (
	StatusIdle Status = iota
	StatusRunning
	StatusPaused
	StatusFinishing
	StatusEnded
)

// String returns the display name of the status.
func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "Idle"
	case StatusRunning:
		return "Running"
	case StatusPaused:
		return "Paused"
	case StatusFinishing:
		return "Finishing"
	case StatusEnded:
		return "Ended"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}
