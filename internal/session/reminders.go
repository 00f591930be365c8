package session

import (
	"fmt"
	"log"
	"sync"
	"time"
)

// ReminderSink is the external reminder subsystem. Registration and
// cancellation are treated as fire-and-forget: failures are logged and the
// in-memory schedule stays authoritative for timing regardless.
type ReminderSink interface {
	Register(id int, firesAt time.Time, title, body, sound string) error
	Cancel(ids []int) error
	Pending() ([]int, error)
}

// ReminderDispatcher turns a schedule into one-shot reminders, one per phase
// boundary still in the future, keyed by the boundary's slot index in the
// schedule. Reminders are never patched: every reschedule cancels everything
// first and registers the new set, so no duplicate or stale reminder can
// survive a pause, resume, or skip.
type ReminderDispatcher struct {
	sink   ReminderSink
	sound  string
	logger *log.Logger

	mu     sync.Mutex
	issued []int
}

// NewReminderDispatcher creates a dispatcher delivering to sink. sound names
// the notification sound passed through to the sink.
func NewReminderDispatcher(sink ReminderSink, sound string, logger *log.Logger) *ReminderDispatcher {
	if sink == nil {
		panic("ReminderDispatcher: sink cannot be nil")
	}
	if logger == nil {
		panic("ReminderDispatcher: logger cannot be nil")
	}
	return &ReminderDispatcher{sink: sink, sound: sound, logger: logger}
}

// ScheduleAll replaces all pending reminders with one per schedule boundary
// whose EndAt is still after now. After registering it asks the sink how many
// reminders are actually pending and logs a recoverable warning on shortfall.
func (d *ReminderDispatcher) ScheduleAll(schedule Schedule, now time.Time) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.cancelAllLocked()

	issued := make([]int, 0, len(schedule))
	for i, phase := range schedule {
		if !phase.EndAt.After(now) {
			continue
		}
		title, body := reminderContent(schedule, i)
		if err := d.sink.Register(i, phase.EndAt, title, body, d.sound); err != nil {
			d.logger.Printf("ReminderDispatcher: register slot %d failed: %v", i, err)
			continue
		}
		issued = append(issued, i)
	}
	d.issued = issued
	d.logger.Printf("ReminderDispatcher: scheduled %d reminders", len(issued))

	pending, err := d.sink.Pending()
	if err != nil {
		d.logger.Printf("ReminderDispatcher: pending check failed: %v", err)
		return
	}
	if len(pending) < len(issued) {
		d.logger.Printf("ReminderDispatcher: warning: expected %d pending reminders, sink reports %d",
			len(issued), len(pending))
	}
}

// CancelAll synchronously cancels every reminder this dispatcher has issued.
func (d *ReminderDispatcher) CancelAll() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cancelAllLocked()
}

// PendingCount returns how many reminders the dispatcher believes are issued.
func (d *ReminderDispatcher) PendingCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.issued)
}

// cancelAllLocked cancels issued reminders. Must be called with mu held.
func (d *ReminderDispatcher) cancelAllLocked() {
	if len(d.issued) == 0 {
		return
	}
	if err := d.sink.Cancel(d.issued); err != nil {
		d.logger.Printf("ReminderDispatcher: cancel failed: %v", err)
	}
	d.issued = nil
}

// reminderContent builds the notification text for the boundary at slot i.
// The message announces what comes next, not what just ended.
func reminderContent(schedule Schedule, i int) (title, body string) {
	if i == len(schedule)-1 {
		return "Workout complete", "Great work. Your session is done."
	}
	next := schedule[i+1]
	title = fmt.Sprintf("Next up: %s", next.Label())
	body = fmt.Sprintf("%s starts now (%s)", next.Label(), next.Duration().Round(time.Second))
	return title, body
}
