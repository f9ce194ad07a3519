package sinkmock

import (
	"context"
	"sync"

	"peerlend-backend/internal/domain/loan"
)

// Sink records published events in order. Safe for concurrent use.
type Sink struct {
	mu     sync.Mutex
	Events []loan.Event

	PublishFn func(ctx context.Context, events ...loan.Event) error
}

func (s *Sink) Publish(ctx context.Context, events ...loan.Event) error {
	if s.PublishFn != nil {
		return s.PublishFn(ctx, events...)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Events = append(s.Events, events...)
	return nil
}

// Types lists the recorded event types in publish order.
func (s *Sink) Types() []loan.EventType {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]loan.EventType, 0, len(s.Events))
	for _, e := range s.Events {
		out = append(out, e.Type)
	}
	return out
}

// CountByType tallies recorded events.
func (s *Sink) CountByType(t loan.EventType) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, e := range s.Events {
		if e.Type == t {
			n++
		}
	}
	return n
}
