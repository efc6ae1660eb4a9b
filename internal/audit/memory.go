package audit

import (
	"context"
	"sync"
)

// MemorySink collects events in memory. Used in tests and when no Kafka
// brokers are configured.
type MemorySink struct {
	mu     sync.RWMutex
	events []Event
}

func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

func (s *MemorySink) Emit(_ context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, stamp(event))
	return nil
}

// Events returns a snapshot of everything emitted so far.
func (s *MemorySink) Events() []Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Event, len(s.events))
	copy(out, s.events)
	return out
}

// ByAction filters the snapshot by action name.
func (s *MemorySink) ByAction(action string) []Event {
	var out []Event
	for _, e := range s.Events() {
		if e.Action == action {
			out = append(out, e)
		}
	}
	return out
}
