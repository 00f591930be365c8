package session

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"intervalpacer/internal/events"
	"intervalpacer/internal/runutil"
)

// ErrSessionActive is returned by StartSession while a session is running or
// paused.
var ErrSessionActive = errors.New("a session is already active")

// CueRenderer receives phase-change cues (audio/haptic). Fire-and-forget.
type CueRenderer interface {
	OnPhaseChanged(kind PhaseKind, interval int)
}

// DisplayStatus is what the background status display renders.
type DisplayStatus struct {
	SessionID uuid.UUID
	Phase     PhaseKind
	Interval  int
	Remaining time.Duration
	Progress  float64
	StepCount int
}

// StatusDisplay renders a coarse session summary. Render must be idempotent:
// it is called on phase changes and step milestones, not on every tick.
type StatusDisplay interface {
	Render(status DisplayStatus)
}

// Snapshot is a point-in-time view of the session for UI consumption.
type Snapshot struct {
	SessionID  uuid.UUID
	Status     Status
	Config     PhaseConfig
	Phase      ScheduledPhase
	PhaseIndex int
	PhaseCount int
	Remaining  time.Duration
	Elapsed    time.Duration
	Progress   float64
	StepCount  int
}

// Steps between background display refreshes driven by step counting.
const stepMilestoneSize = 500

// Manager is the externally consumed session facade. It owns one
// PhaseScheduler per started session, drives it from a periodic tick
// goroutine, fans phase changes out to collaborators, and keeps the reminder
// set in lockstep with every schedule mutation.
//
// All state is guarded by one mutex: the tick goroutine and user-initiated
// actions are serialized through it, so the scheduler itself never sees
// concurrent calls.
type Manager struct {
	clock     Clock
	reminders *ReminderDispatcher
	cue       CueRenderer
	display   StatusDisplay
	logger    *log.Logger
	tickEvery time.Duration

	mu            sync.Mutex
	scheduler     *PhaseScheduler
	sessionID     uuid.UUID
	stepCount     int
	lastMilestone int

	phaseChangeEvent *events.Broker[ScheduledPhase]
	completeEvent    *events.Broker[uuid.UUID]
	snapshotEvent    *events.Broker[Snapshot]

	doneChan     chan struct{}
	wg           sync.WaitGroup
	shutdownOnce sync.Once
}

// NewManagerArg holds the dependencies for a Manager. Clock, Reminders and
// Logger are required; Cue and Display may be nil (no-op). TickInterval
// defaults to one second.
type NewManagerArg struct {
	Clock        Clock
	Reminders    *ReminderDispatcher
	Cue          CueRenderer
	Display      StatusDisplay
	Logger       *log.Logger
	TickInterval time.Duration
}

// NewManager creates a Manager and starts its tick goroutine.
func NewManager(arg NewManagerArg) *Manager {
	if arg.Clock == nil {
		panic("Manager: clock cannot be nil")
	}
	if arg.Reminders == nil {
		panic("Manager: reminders cannot be nil")
	}
	if arg.Logger == nil {
		panic("Manager: logger cannot be nil")
	}
	if arg.TickInterval <= 0 {
		arg.TickInterval = time.Second
	}

	m := &Manager{
		clock:            arg.Clock,
		reminders:        arg.Reminders,
		cue:              arg.Cue,
		display:          arg.Display,
		logger:           arg.Logger,
		tickEvery:        arg.TickInterval,
		phaseChangeEvent: events.NewBroker[ScheduledPhase](false),
		completeEvent:    events.NewBroker[uuid.UUID](false),
		snapshotEvent:    events.NewBroker[Snapshot](true),
		doneChan:         make(chan struct{}),
	}

	runutil.SafeGoWG(m.logger, &m.wg, m.run)
	return m
}

// run is the tick loop. It only ever calls CatchUp, a cheap
// compare-and-maybe-advance, so it never blocks for long.
func (m *Manager) run() {
	ticker := m.clock.NewTicker(m.tickEvery)
	defer ticker.Stop()

	for {
		select {
		case <-m.doneChan:
			m.logger.Printf("Manager: tick loop exiting")
			return
		case <-ticker.C():
			m.CatchUp()
		}
	}
}

// StartSession builds the schedule for cfg starting now and begins the
// session. Returns the first scheduled phase. A degenerate config (empty
// schedule) completes immediately.
func (m *Manager) StartSession(cfg PhaseConfig) (ScheduledPhase, error) {
	now := m.clock.Now()

	m.mu.Lock()
	if m.scheduler != nil {
		if st := m.scheduler.Status(); st == StatusRunning || st == StatusPaused {
			m.mu.Unlock()
			return ScheduledPhase{}, fmt.Errorf("session %s: %w", m.sessionID, ErrSessionActive)
		}
	}
	sched := NewPhaseScheduler(m.logger)
	first, err := sched.Start(now, cfg)
	if err != nil {
		m.mu.Unlock()
		return ScheduledPhase{}, err
	}
	m.scheduler = sched
	m.sessionID = uuid.New()
	m.stepCount = 0
	m.lastMilestone = 0
	schedule := sched.Schedule()
	finished := sched.Status() == StatusFinishing
	if finished {
		// Degenerate config: nothing to run through.
		_ = sched.End()
	}
	snap := m.snapshotLocked(now)
	id := m.sessionID
	m.mu.Unlock()

	m.logger.Printf("Manager: session %s started: %q, %d phases, total %v",
		id, cfg.Name, len(schedule), schedule.TotalDuration())

	if finished {
		m.snapshotEvent.Publish(snap)
		m.renderDisplay(snap)
		m.completeEvent.Publish(id)
		m.logger.Printf("Manager: session %s complete (empty schedule)", id)
		return first, nil
	}

	m.reminders.ScheduleAll(schedule, now)
	m.notifyPhase(first)
	m.snapshotEvent.Publish(snap)
	m.renderDisplay(snap)
	return first, nil
}

// PauseSession suspends the running session and cancels pending reminders so
// none can fire against a schedule that will shift at resume.
func (m *Manager) PauseSession() error {
	now := m.clock.Now()

	m.mu.Lock()
	if m.scheduler == nil {
		m.mu.Unlock()
		return ErrNoSession
	}
	err := m.scheduler.Pause(now)
	var snap Snapshot
	if err == nil {
		snap = m.snapshotLocked(now)
	}
	m.mu.Unlock()
	if err != nil {
		return err
	}

	m.reminders.CancelAll()
	m.snapshotEvent.Publish(snap)
	m.renderDisplay(snap)
	m.logger.Printf("Manager: session %s paused", snap.SessionID)
	return nil
}

// ResumeSession restarts a paused session. The scheduler shifts the remaining
// phases by the pause delta and the reminder set is rebuilt against the
// shifted schedule.
func (m *Manager) ResumeSession() error {
	now := m.clock.Now()

	m.mu.Lock()
	if m.scheduler == nil {
		m.mu.Unlock()
		return ErrNoSession
	}
	_, err := m.scheduler.Resume(now)
	var snap Snapshot
	var schedule Schedule
	if err == nil {
		snap = m.snapshotLocked(now)
		schedule = m.scheduler.Schedule()
	}
	m.mu.Unlock()
	if err != nil {
		return err
	}

	m.reminders.ScheduleAll(schedule, now)
	m.snapshotEvent.Publish(snap)
	m.renderDisplay(snap)
	m.logger.Printf("Manager: session %s resumed", snap.SessionID)
	return nil
}

// SkipPhase ends the current phase immediately. The remaining schedule is
// rebuilt anchored at now and reminders are replaced against it. Skipping the
// final phase completes the session.
func (m *Manager) SkipPhase() error {
	now := m.clock.Now()

	m.mu.Lock()
	if m.scheduler == nil {
		m.mu.Unlock()
		return ErrNoSession
	}
	next, completed, err := m.scheduler.Skip(now)
	var snap Snapshot
	var schedule Schedule
	var id uuid.UUID
	if err == nil {
		if completed {
			_ = m.scheduler.End()
		} else {
			schedule = m.scheduler.Schedule()
		}
		snap = m.snapshotLocked(now)
		id = m.sessionID
	}
	m.mu.Unlock()
	if err != nil {
		return err
	}

	if completed {
		m.reminders.CancelAll()
		m.snapshotEvent.Publish(snap)
		m.renderDisplay(snap)
		m.completeEvent.Publish(id)
		m.logger.Printf("Manager: session %s complete (final phase skipped)", id)
		return nil
	}

	m.reminders.ScheduleAll(schedule, now)
	m.notifyPhase(next)
	m.snapshotEvent.Publish(snap)
	m.renderDisplay(snap)
	return nil
}

// EndSession terminates the session. Pending reminders are cancelled
// synchronously before this returns, so none can fire after the session has
// logically ended.
func (m *Manager) EndSession() error {
	now := m.clock.Now()

	m.mu.Lock()
	if m.scheduler == nil {
		m.mu.Unlock()
		return ErrNoSession
	}
	err := m.scheduler.End()
	var snap Snapshot
	if err == nil {
		snap = m.snapshotLocked(now)
	}
	m.mu.Unlock()
	if err != nil {
		return err
	}

	m.reminders.CancelAll()
	m.snapshotEvent.Publish(snap)
	m.renderDisplay(snap)
	m.logger.Printf("Manager: session %s ended", snap.SessionID)
	return nil
}

// CatchUp drives the scheduler forward to the current wall-clock time,
// replaying every crossed phase boundary as its own phase-change event, in
// order. This is both the normal per-tick path and the suspension-recovery
// path: after the process was suspended for any length of time, one CatchUp
// call emits exactly the missed transitions. The loop is bounded by the
// schedule length.
func (m *Manager) CatchUp() {
	now := m.clock.Now()

	m.mu.Lock()
	if m.scheduler == nil || m.scheduler.Status() != StatusRunning {
		m.mu.Unlock()
		return
	}
	var transitions []ScheduledPhase
	completed := false
	limit := m.scheduler.PhaseCount()
	for i := 0; i <= limit; i++ {
		res := m.scheduler.Tick(now)
		transitions = append(transitions, res.Transitions...)
		if res.Completed {
			completed = true
			break
		}
		if !res.Advanced() {
			break
		}
	}
	if completed {
		_ = m.scheduler.End()
	}
	snap := m.snapshotLocked(now)
	id := m.sessionID
	m.mu.Unlock()

	for _, p := range transitions {
		m.notifyPhase(p)
	}
	m.snapshotEvent.Publish(snap)
	if len(transitions) > 0 || completed {
		m.renderDisplay(snap)
	}
	if completed {
		m.reminders.CancelAll()
		m.completeEvent.Publish(id)
		m.logger.Printf("Manager: session %s complete", id)
	}
}

// ReportSteps records the session's running step total from an external
// source. The background display is re-rendered only when the total crosses
// a 500-step milestone.
func (m *Manager) ReportSteps(total int) {
	now := m.clock.Now()

	m.mu.Lock()
	m.stepCount = total
	milestone := total / stepMilestoneSize
	render := milestone > m.lastMilestone
	if render {
		m.lastMilestone = milestone
	}
	snap := m.snapshotLocked(now)
	m.mu.Unlock()

	if render {
		m.renderDisplay(snap)
	}
}

// Snapshot returns the current session view.
func (m *Manager) Snapshot() Snapshot {
	now := m.clock.Now()
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked(now)
}

// CurrentPhase returns the phase the session is in, if any.
func (m *Manager) CurrentPhase() (ScheduledPhase, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.scheduler == nil {
		return ScheduledPhase{}, false
	}
	return m.scheduler.CurrentPhase()
}

// TimeRemainingInPhase returns the time left in the current phase.
func (m *Manager) TimeRemainingInPhase() time.Duration {
	now := m.clock.Now()
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.scheduler == nil {
		return 0
	}
	return m.scheduler.TimeRemainingInPhase(now)
}

// TotalElapsed returns active (non-paused) session time.
func (m *Manager) TotalElapsed() time.Duration {
	now := m.clock.Now()
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.scheduler == nil {
		return 0
	}
	return m.scheduler.TotalElapsed(now)
}

// ProgressFraction returns session progress in [0.0, 1.0].
func (m *Manager) ProgressFraction() float64 {
	now := m.clock.Now()
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.scheduler == nil {
		return 0
	}
	return m.scheduler.ProgressFraction(now)
}

// ListenToPhaseChange registers a callback invoked once per entered phase, in
// schedule order. Returns a deregistration function.
func (m *Manager) ListenToPhaseChange(fn func(ScheduledPhase)) func() {
	return m.phaseChangeEvent.Subscribe(fn)
}

// ListenToSessionComplete registers a callback invoked when a session
// completes or is skipped to completion. Returns a deregistration function.
func (m *Manager) ListenToSessionComplete(fn func(uuid.UUID)) func() {
	return m.completeEvent.Subscribe(fn)
}

// ListenToSnapshot registers a channel to receive snapshot updates, including
// one per tick while running. Returns a deregistration function.
func (m *Manager) ListenToSnapshot(ch chan<- Snapshot) func() {
	return m.snapshotEvent.SubscribeChan(ch)
}

// Shutdown stops the tick goroutine. Safe to call multiple times.
func (m *Manager) Shutdown() {
	m.shutdownOnce.Do(func() {
		m.logger.Printf("Manager: shutting down")
		close(m.doneChan)
		m.wg.Wait()
		m.logger.Printf("Manager: shutdown complete")
	})
}

// snapshotLocked builds a Snapshot from the current state.
// Must be called with mu held.
func (m *Manager) snapshotLocked(now time.Time) Snapshot {
	snap := Snapshot{SessionID: m.sessionID, Status: StatusIdle, StepCount: m.stepCount}
	if m.scheduler == nil {
		return snap
	}
	snap.Status = m.scheduler.Status()
	snap.Config = m.scheduler.Config()
	snap.PhaseIndex = m.scheduler.CurrentIndex()
	snap.PhaseCount = m.scheduler.PhaseCount()
	if phase, ok := m.scheduler.CurrentPhase(); ok {
		snap.Phase = phase
	}
	snap.Remaining = m.scheduler.TimeRemainingInPhase(now)
	snap.Elapsed = m.scheduler.TotalElapsed(now)
	snap.Progress = m.scheduler.ProgressFraction(now)
	return snap
}

// notifyPhase fans a phase change out to the cue renderer and event
// subscribers. External calls only; never hold mu here.
func (m *Manager) notifyPhase(p ScheduledPhase) {
	if m.cue != nil {
		m.cue.OnPhaseChanged(p.Kind, p.Interval)
	}
	m.phaseChangeEvent.Publish(p)
}

// renderDisplay forwards a snapshot to the status display, if any.
func (m *Manager) renderDisplay(snap Snapshot) {
	if m.display == nil {
		return
	}
	m.display.Render(displayStatusFrom(snap))
}

// displayStatusFrom reduces a snapshot to the coarse display contract.
func displayStatusFrom(snap Snapshot) DisplayStatus {
	ds := DisplayStatus{
		SessionID: snap.SessionID,
		Phase:     snap.Phase.Kind,
		Interval:  snap.Phase.Interval,
		Remaining: snap.Remaining,
		Progress:  snap.Progress,
		StepCount: snap.StepCount,
	}
	switch snap.Status {
	case StatusPaused:
		ds.Phase = PhasePaused
	case StatusFinishing, StatusEnded:
		ds.Phase = PhaseCompleted
		ds.Interval = 0
	}
	return ds
}
