package notify

import (
	"fmt"
	"log"
	"sort"
	"sync"
	"time"
)

// LocalSink delivers reminders by logging them when their fire instant
// arrives. It stands in for an OS notification service: registrations are
// kept in memory and fire from timers, so nothing survives a restart. That
// is acceptable because the scheduler re-registers the full set on every
// schedule change.
type LocalSink struct {
	logger *log.Logger

	mu      sync.Mutex
	pending map[int]*pendingReminder
}

type pendingReminder struct {
	title string
	body  string
	sound string
	timer *time.Timer
}

func NewLocalSink(logger *log.Logger) *LocalSink {
	if logger == nil {
		panic("LocalSink: logger cannot be nil")
	}
	return &LocalSink{logger: logger, pending: make(map[int]*pendingReminder)}
}

// Register arms a reminder. Duplicate ids are rejected; the dispatcher
// always cancels before re-registering a slot.
func (s *LocalSink) Register(id int, firesAt time.Time, title, body, sound string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, dup := s.pending[id]; dup {
		return fmt.Errorf("reminder %d already registered", id)
	}

	delay := time.Until(firesAt)
	if delay < 0 {
		delay = 0
	}
	r := &pendingReminder{title: title, body: body, sound: sound}
	r.timer = time.AfterFunc(delay, func() { s.fire(id) })
	s.pending[id] = r
	return nil
}

// Cancel disarms the given reminders. Unknown ids are ignored.
func (s *LocalSink) Cancel(ids []int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		if r, ok := s.pending[id]; ok {
			r.timer.Stop()
			delete(s.pending, id)
		}
	}
	return nil
}

// Pending returns the ids of all armed reminders, sorted.
func (s *LocalSink) Pending() ([]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]int, 0, len(s.pending))
	for id := range s.pending {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids, nil
}

func (s *LocalSink) fire(id int) {
	s.mu.Lock()
	r, ok := s.pending[id]
	if ok {
		delete(s.pending, id)
	}
	s.mu.Unlock()
	if !ok {
		return
	}
	s.logger.Printf("Reminder: [%s] %s: %s", r.sound, r.title, r.body)
}
