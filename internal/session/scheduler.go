package session

import (
	"fmt"
	"log"
	"time"
)

// PhaseScheduler is the state machine that owns a session's schedule and
// derives timing purely from absolute instants: "time remaining" is always
// the current phase's EndAt minus now, never a decremented counter. That is
// what keeps the countdown exact across arbitrary process suspension.
//
// Not safe for concurrent use; the caller (Manager) serializes all access.
type PhaseScheduler struct {
	cfg              PhaseConfig
	schedule         Schedule
	currentIndex     int
	status           Status
	sessionStartAt   time.Time
	pauseStartedAt   time.Time
	accumulatedPause time.Duration
	logger           *log.Logger
}

// NewPhaseScheduler creates an idle scheduler.
func NewPhaseScheduler(logger *log.Logger) *PhaseScheduler {
	if logger == nil {
		panic("PhaseScheduler: logger cannot be nil")
	}
	return &PhaseScheduler{status: StatusIdle, logger: logger}
}

// Start builds the schedule and begins the session. Requires StatusIdle.
// Returns the first scheduled phase. If the config yields an empty schedule,
// the scheduler moves straight to StatusFinishing and the returned phase has
// kind PhaseCompleted.
func (s *PhaseScheduler) Start(startAt time.Time, cfg PhaseConfig) (ScheduledPhase, error) {
	if s.status != StatusIdle {
		return ScheduledPhase{}, fmt.Errorf("start while %s: %w", s.status, ErrInvalidTransition)
	}
	if err := cfg.Validate(); err != nil {
		return ScheduledPhase{}, fmt.Errorf("start: %w", err)
	}

	s.cfg = cfg
	s.schedule = BuildSchedule(startAt, cfg)
	s.currentIndex = 0
	s.sessionStartAt = startAt
	s.accumulatedPause = 0
	s.pauseStartedAt = time.Time{}

	if len(s.schedule) == 0 {
		s.status = StatusFinishing
		s.logger.Printf("PhaseScheduler: empty schedule, session immediately complete")
		return ScheduledPhase{Kind: PhaseCompleted, StartAt: startAt, EndAt: startAt}, nil
	}

	s.status = StatusRunning
	first := s.schedule[0]
	s.logger.Printf("PhaseScheduler: started, %d phases, total %v, first %s",
		len(s.schedule), s.schedule.TotalDuration(), first.Label())
	return first, nil
}

// TickResult describes what a single Tick call did.
type TickResult struct {
	// Transitions holds the phases entered during this call, in order.
	// Normally at most one; zero-duration phases are chained through within
	// one call, producing one entry each.
	Transitions []ScheduledPhase
	// Completed is true when the final phase ended and the scheduler moved
	// to StatusFinishing.
	Completed bool
}

// Advanced reports whether the call changed the current phase.
func (r TickResult) Advanced() bool {
	return len(r.Transitions) > 0 || r.Completed
}

// Tick advances the session if the current phase has ended. It is a no-op
// unless the session is running, and never fails. A phase ends when
// now >= EndAt, so a tick exactly at the boundary advances. At most one
// positive-duration phase is crossed per call: when the process was suspended
// across several boundaries the caller must loop Tick until it stabilizes, so
// every intermediate phase still produces its transition (and its side
// effects) in order. now earlier than the current phase is treated as "not
// yet ended"; the phase index never moves backwards.
func (s *PhaseScheduler) Tick(now time.Time) TickResult {
	var res TickResult
	if s.status != StatusRunning {
		return res
	}

	current := s.schedule[s.currentIndex]
	if now.Before(current.EndAt) {
		return res
	}

	for {
		s.currentIndex++
		if s.currentIndex >= len(s.schedule) {
			s.status = StatusFinishing
			res.Completed = true
			s.logger.Printf("PhaseScheduler: final phase ended, session finishing")
			return res
		}
		next := s.schedule[s.currentIndex]
		res.Transitions = append(res.Transitions, next)
		s.logger.Printf("PhaseScheduler: entered %s", next.Label())

		// Chain through already-elapsed zero-length phases so each still
		// yields its own transition within this call.
		if next.Duration() == 0 && !now.Before(next.EndAt) {
			continue
		}
		return res
	}
}

// Pause suspends the session. Requires StatusRunning. The remaining time of
// the current phase is not recomputed here; the schedule is shifted once, at
// Resume, by the measured pause delta.
func (s *PhaseScheduler) Pause(now time.Time) error {
	if s.status != StatusRunning {
		return fmt.Errorf("pause while %s: %w", s.status, ErrInvalidTransition)
	}
	s.pauseStartedAt = now
	s.status = StatusPaused
	s.logger.Printf("PhaseScheduler: paused at %v", now.Format(time.RFC3339))
	return nil
}

// Resume restarts a paused session. Requires StatusPaused. Every phase from
// the current one onward is shifted by the pause delta, anchored to the
// absolute recorded pause instant. Shifting (rather than recomputing
// remaining = duration - elapsed) is what prevents pause time from
// compounding over repeated pause/resume cycles.
func (s *PhaseScheduler) Resume(now time.Time) (ScheduledPhase, error) {
	if s.status != StatusPaused {
		return ScheduledPhase{}, fmt.Errorf("resume while %s: %w", s.status, ErrInvalidTransition)
	}
	delta := now.Sub(s.pauseStartedAt)
	if delta < 0 {
		// Clock went backwards while paused; treat as an instant resume.
		delta = 0
	}

	shifted := make(Schedule, len(s.schedule))
	copy(shifted, s.schedule[:s.currentIndex])
	for i := s.currentIndex; i < len(s.schedule); i++ {
		p := s.schedule[i]
		shifted[i] = ScheduledPhase{
			Kind:     p.Kind,
			Interval: p.Interval,
			StartAt:  p.StartAt.Add(delta),
			EndAt:    p.EndAt.Add(delta),
		}
	}
	s.schedule = shifted
	s.accumulatedPause += delta
	s.pauseStartedAt = time.Time{}
	s.status = StatusRunning
	s.logger.Printf("PhaseScheduler: resumed after %v pause", delta)
	return s.schedule[s.currentIndex], nil
}

// Skip ends the current phase immediately and rebuilds the remaining schedule
// anchored at now, with every remaining phase restored to its full configured
// duration. Requires StatusRunning. Rebuilding from now (instead of adding
// the next duration to whatever time was left) guarantees the skipped phase's
// leftover time never bleeds into the next phase. When the current phase is
// the last one, the session completes and completed is true.
func (s *PhaseScheduler) Skip(now time.Time) (next ScheduledPhase, completed bool, err error) {
	if s.status != StatusRunning {
		return ScheduledPhase{}, false, fmt.Errorf("skip while %s: %w", s.status, ErrInvalidTransition)
	}

	remaining := s.schedule[s.currentIndex+1:]
	if len(remaining) == 0 {
		s.status = StatusFinishing
		s.logger.Printf("PhaseScheduler: skipped final phase, session finishing")
		return ScheduledPhase{}, true, nil
	}

	segs := make([]segment, len(remaining))
	for i, p := range remaining {
		segs[i] = segment{kind: p.Kind, interval: p.Interval, duration: s.cfg.durationFor(p.Kind)}
	}
	rebuilt := layoutSegments(now, segs)

	s.schedule = append(s.schedule[:s.currentIndex:s.currentIndex], rebuilt...)
	next = s.schedule[s.currentIndex]
	s.logger.Printf("PhaseScheduler: skipped to %s", next.Label())
	return next, false, nil
}

// End terminates the session from any state except Idle and Ended. The
// schedule is cleared and all per-session state reset.
func (s *PhaseScheduler) End() error {
	if s.status == StatusIdle || s.status == StatusEnded {
		return fmt.Errorf("end while %s: %w", s.status, ErrInvalidTransition)
	}
	s.schedule = nil
	s.currentIndex = 0
	s.pauseStartedAt = time.Time{}
	s.status = StatusEnded
	s.logger.Printf("PhaseScheduler: ended")
	return nil
}

// Status returns the current lifecycle state.
func (s *PhaseScheduler) Status() Status {
	return s.status
}

// CurrentPhase returns the phase the session is in, if any.
func (s *PhaseScheduler) CurrentPhase() (ScheduledPhase, bool) {
	if s.status != StatusRunning && s.status != StatusPaused {
		return ScheduledPhase{}, false
	}
	return s.schedule[s.currentIndex], true
}

// CurrentIndex returns the index of the current phase within the schedule.
func (s *PhaseScheduler) CurrentIndex() int {
	return s.currentIndex
}

// PhaseCount returns the number of phases in the schedule.
func (s *PhaseScheduler) PhaseCount() int {
	return len(s.schedule)
}

// Schedule returns a copy of the current schedule.
func (s *PhaseScheduler) Schedule() Schedule {
	out := make(Schedule, len(s.schedule))
	copy(out, s.schedule)
	return out
}

// Config returns the config the session was started with.
func (s *PhaseScheduler) Config() PhaseConfig {
	return s.cfg
}

// AccumulatedPause returns the total pause time absorbed so far.
func (s *PhaseScheduler) AccumulatedPause() time.Duration {
	return s.accumulatedPause
}

// TimeRemainingInPhase returns how much of the current phase is left. While
// paused the value is frozen at the pause instant. Zero in any terminal or
// idle state.
func (s *PhaseScheduler) TimeRemainingInPhase(now time.Time) time.Duration {
	phase, ok := s.CurrentPhase()
	if !ok {
		return 0
	}
	ref := now
	if s.status == StatusPaused {
		ref = s.pauseStartedAt
	}
	remaining := phase.EndAt.Sub(ref)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// TotalElapsed returns active (non-paused) time since the session started.
func (s *PhaseScheduler) TotalElapsed(now time.Time) time.Duration {
	if s.status == StatusIdle || s.sessionStartAt.IsZero() {
		return 0
	}
	ref := now
	if s.status == StatusPaused {
		ref = s.pauseStartedAt
	}
	elapsed := ref.Sub(s.sessionStartAt) - s.accumulatedPause
	if elapsed < 0 {
		return 0
	}
	return elapsed
}

// ProgressFraction returns session progress in [0.0, 1.0].
func (s *PhaseScheduler) ProgressFraction(now time.Time) float64 {
	if s.status == StatusFinishing || s.status == StatusEnded {
		return 1.0
	}
	total := s.schedule.TotalDuration()
	if total <= 0 {
		return 0
	}
	frac := float64(s.TotalElapsed(now)) / float64(total)
	if frac < 0 {
		return 0
	}
	if frac > 1 {
		return 1
	}
	return frac
}
