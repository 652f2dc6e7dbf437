// Package source supplies raw port visit events to the pipeline.
package source

import (
	"context"
	"sync"
	"time"

	"github.com/okian/portinsight/internal/domain/model"
)

// Source returns the events whose start time falls inside [from, to].
// Events without a start time are passed through so the aggregator can
// account for them.
type Source interface {
	Events(ctx context.Context, from, to time.Time) ([]model.Event, error)
}

func inRange(e *model.Event, from, to time.Time) bool {
	if e.StartTime.IsZero() {
		return true
	}
	return !e.StartTime.Before(from) && !e.StartTime.After(to)
}

// MemorySource is a Source over an in-process slice.
type MemorySource struct {
	mu     sync.RWMutex
	events []model.Event
}

// NewMemorySource returns a source seeded with events.
func NewMemorySource(events ...model.Event) *MemorySource {
	s := &MemorySource{}
	s.Add(events...)
	return s
}

// Add appends events.
func (s *MemorySource) Add(events ...model.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, events...)
}

// Events implements Source.
func (s *MemorySource) Events(ctx context.Context, from, to time.Time) ([]model.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Event, 0, len(s.events))
	for i := range s.events {
		if inRange(&s.events[i], from, to) {
			out = append(out, s.events[i])
		}
	}
	return out, nil
}
