package session

import (
	"errors"
	"io"
	"log"
	"sort"
	"sync"
	"testing"
	"time"
)

// t0 is the session start instant used throughout these tests.
var t0 = time.Date(2024, 3, 1, 7, 0, 0, 0, time.UTC)

func testLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

// scenarioConfig is five 180s/180s intervals with no warmup or cooldown:
// ten phases, 1800s total.
func scenarioConfig() PhaseConfig {
	return PhaseConfig{
		Name:             "scenario",
		ActiveDuration:   180 * time.Second,
		RecoveryDuration: 180 * time.Second,
		TotalIntervals:   5,
	}
}

func fullConfig() PhaseConfig {
	return PhaseConfig{
		Name:             "full",
		ActiveDuration:   3 * time.Minute,
		RecoveryDuration: 2 * time.Minute,
		TotalIntervals:   4,
		WarmupDuration:   5 * time.Minute,
		WarmupEnabled:    true,
		CooldownDuration: 4 * time.Minute,
		CooldownEnabled:  true,
	}
}

// fakeClock is a manually-driven Clock. Advance moves time; EmitTick delivers
// one tick to whoever holds a ticker from this clock.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	tickCh chan time.Time
}

func newFakeClock(start time.Time) *fakeClock {
	return &fakeClock{now: start, tickCh: make(chan time.Time, 16)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func (c *fakeClock) NewTicker(time.Duration) Ticker {
	return &fakeTicker{ch: c.tickCh}
}

func (c *fakeClock) EmitTick() {
	c.tickCh <- c.Now()
}

type fakeTicker struct {
	ch chan time.Time
}

func (t *fakeTicker) C() <-chan time.Time { return t.ch }
func (t *fakeTicker) Stop()               {}

// fakeSink is an in-memory ReminderSink with failure injection.
type fakeSink struct {
	mu            sync.Mutex
	pending       map[int]fakeReminder
	registerCalls int
	cancelCalls   [][]int
	failRegister  map[int]error
	pendingHidden int // pretend this many pending reminders were dropped
	pendingErr    error
}

type fakeReminder struct {
	id      int
	firesAt time.Time
	title   string
	body    string
	sound   string
}

func newFakeSink() *fakeSink {
	return &fakeSink{pending: make(map[int]fakeReminder), failRegister: make(map[int]error)}
}

func (s *fakeSink) Register(id int, firesAt time.Time, title, body, sound string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.registerCalls++
	if err, ok := s.failRegister[id]; ok {
		return err
	}
	if _, dup := s.pending[id]; dup {
		return errors.New("duplicate reminder id")
	}
	s.pending[id] = fakeReminder{id: id, firesAt: firesAt, title: title, body: body, sound: sound}
	return nil
}

func (s *fakeSink) Cancel(ids []int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	recorded := make([]int, len(ids))
	copy(recorded, ids)
	s.cancelCalls = append(s.cancelCalls, recorded)
	for _, id := range ids {
		delete(s.pending, id)
	}
	return nil
}

func (s *fakeSink) Pending() ([]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pendingErr != nil {
		return nil, s.pendingErr
	}
	ids := make([]int, 0, len(s.pending))
	for id := range s.pending {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	if s.pendingHidden > 0 && s.pendingHidden <= len(ids) {
		ids = ids[:len(ids)-s.pendingHidden]
	}
	return ids, nil
}

func (s *fakeSink) pendingIDs(t *testing.T) []int {
	t.Helper()
	ids, err := s.Pending()
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	return ids
}

func (s *fakeSink) reminderAt(t *testing.T, id int) fakeReminder {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.pending[id]
	if !ok {
		t.Fatalf("no pending reminder with id %d", id)
	}
	return r
}

// recordingCue records phase-change cues in order.
type recordingCue struct {
	mu    sync.Mutex
	calls []cueCall
}

type cueCall struct {
	kind     PhaseKind
	interval int
}

func (c *recordingCue) OnPhaseChanged(kind PhaseKind, interval int) {
	c.mu.Lock()
	c.calls = append(c.calls, cueCall{kind: kind, interval: interval})
	c.mu.Unlock()
}

func (c *recordingCue) snapshot() []cueCall {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]cueCall, len(c.calls))
	copy(out, c.calls)
	return out
}

// recordingDisplay records Render calls.
type recordingDisplay struct {
	mu    sync.Mutex
	calls []DisplayStatus
}

func (d *recordingDisplay) Render(status DisplayStatus) {
	d.mu.Lock()
	d.calls = append(d.calls, status)
	d.mu.Unlock()
}

func (d *recordingDisplay) snapshot() []DisplayStatus {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]DisplayStatus, len(d.calls))
	copy(out, d.calls)
	return out
}
