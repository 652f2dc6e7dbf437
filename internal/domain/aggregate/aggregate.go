// Package aggregate reduces port visit events into one summary per port.
package aggregate

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/okian/portinsight/internal/domain/dedupe"
	"github.com/okian/portinsight/internal/domain/model"
)

const day = 24 * time.Hour

// DefaultAnalysisPeriodDays is the trailing window length used when callers
// have no configured value.
const DefaultAnalysisPeriodDays = 30

// DropReason names why an event did not contribute to any summary.
type DropReason string

const (
	DropWrongType    DropReason = "wrong_type"
	DropMissingPort  DropReason = "missing_port"
	DropBadDuration  DropReason = "bad_duration"
	DropOverDuration DropReason = "over_max_duration"
	DropMissingStart DropReason = "missing_start_time"
	DropOutOfWindow  DropReason = "out_of_window"
	DropDuplicate    DropReason = "duplicate"
)

// FilterStats reports how the input events were filtered.
type FilterStats struct {
	Total   int
	Kept    int
	Dropped map[DropReason]int
}

// Result is the output of one aggregation run.
type Result struct {
	PeriodStart    time.Time
	PeriodEnd      time.Time
	ProcessingDate time.Time
	Summaries      []model.PortVisitSummary
	Stats          FilterStats
}

// Window returns the inclusive [start, end] bounds for a processing date.
func Window(processingDate time.Time, analysisPeriodDays int) (time.Time, time.Time) {
	return processingDate.Add(-time.Duration(analysisPeriodDays) * day), processingDate
}

// Aggregate filters events to qualifying port visits inside the trailing
// window and emits one summary per port id, sorted by port id.
func Aggregate(ctx context.Context, events []model.Event, processingDate time.Time, analysisPeriodDays int, opts ...Option) (Result, error) {
	if processingDate.IsZero() {
		return Result{}, fmt.Errorf("%w: processing date is required", ErrInput)
	}
	if analysisPeriodDays <= 0 {
		return Result{}, fmt.Errorf("%w: analysis period must be positive, got %d days", ErrInput, analysisPeriodDays)
	}

	s := settings{}
	for _, opt := range opts {
		opt(&s)
	}
	if s.deduper == nil {
		s.deduper = dedupe.NewInMemoryDeduper()
	}

	start, end := Window(processingDate, analysisPeriodDays)
	res := Result{
		PeriodStart:    start,
		PeriodEnd:      end,
		ProcessingDate: processingDate,
		Stats:          FilterStats{Total: len(events), Dropped: make(map[DropReason]int)},
	}

	groups := make(map[string]*portGroup)
	for i := range events {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		e := &events[i]
		if reason, ok := s.qualify(ctx, e, start, end); !ok {
			res.Stats.Dropped[reason]++
			continue
		}
		res.Stats.Kept++

		g, ok := groups[e.PortID]
		if !ok {
			g = newPortGroup()
			groups[e.PortID] = g
		}
		g.add(e)
	}

	res.Summaries = make([]model.PortVisitSummary, 0, len(groups))
	for id, g := range groups {
		res.Summaries = append(res.Summaries, g.summary(id, start, end, processingDate))
	}
	sort.Slice(res.Summaries, func(i, j int) bool {
		return res.Summaries[i].PortID < res.Summaries[j].PortID
	})
	return res, nil
}

// qualify applies the filter chain. Duplicate detection runs last so a record
// only consumes its id once it would otherwise count.
func (s *settings) qualify(ctx context.Context, e *model.Event, start, end time.Time) (DropReason, bool) {
	if e.EventType != model.EventTypePortVisit {
		return DropWrongType, false
	}
	if e.PortID == "" {
		return DropMissingPort, false
	}
	h, ok := e.Hours()
	if !ok || !(h > 0) {
		return DropBadDuration, false
	}
	if s.maxDurationHours > 0 && h > s.maxDurationHours {
		return DropOverDuration, false
	}
	if e.StartTime.IsZero() {
		return DropMissingStart, false
	}
	if e.StartTime.Before(start) || e.StartTime.After(end) {
		return DropOutOfWindow, false
	}
	if e.EventID != "" && s.deduper.SeenAndRecord(ctx, e.EventID) {
		return DropDuplicate, false
	}
	return "", true
}
