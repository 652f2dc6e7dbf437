package aggregate

import (
	"time"

	"github.com/okian/portinsight/internal/domain/model"
)

// portGroup accumulates qualifying visits of a single port.
type portGroup struct {
	visits    int
	hours     float64
	vessels   map[string]struct{}
	first     time.Time
	last      time.Time
	names     valueVotes
	countries valueVotes
}

func newPortGroup() *portGroup {
	return &portGroup{
		vessels:   make(map[string]struct{}),
		names:     make(valueVotes),
		countries: make(valueVotes),
	}
}

func (g *portGroup) add(e *model.Event) {
	h, _ := e.Hours()
	g.visits++
	g.hours += h
	g.vessels[e.VesselID] = struct{}{}
	if g.first.IsZero() || e.StartTime.Before(g.first) {
		g.first = e.StartTime
	}
	if e.StartTime.After(g.last) {
		g.last = e.StartTime
	}
	g.names.vote(e.PortName, e.StartTime)
	g.countries.vote(e.PortCountry, e.StartTime)
}

func (g *portGroup) summary(portID string, start, end, processingDate time.Time) model.PortVisitSummary {
	return model.PortVisitSummary{
		PortID:              portID,
		PortName:            g.names.winner(),
		PortCountry:         g.countries.winner(),
		VisitCount:          g.visits,
		AvgStayHours:        g.hours / float64(g.visits),
		TotalTradeHours:     g.hours,
		DistinctVessels:     len(g.vessels),
		FirstVisit:          g.first,
		LastVisit:           g.last,
		AnalysisPeriodStart: start,
		AnalysisPeriodEnd:   end,
		ProcessingDate:      processingDate,
	}
}

type vote struct {
	count  int
	latest time.Time
}

// valueVotes resolves a descriptive attribute that should be constant per
// port: the most frequent non-empty value wins, then the one seen latest,
// then the lexicographically smallest.
type valueVotes map[string]*vote

func (v valueVotes) vote(value string, at time.Time) {
	if value == "" {
		return
	}
	cur, ok := v[value]
	if !ok {
		cur = &vote{}
		v[value] = cur
	}
	cur.count++
	if at.After(cur.latest) {
		cur.latest = at
	}
}

func (v valueVotes) winner() string {
	var (
		best  string
		bestV *vote
	)
	for value, cur := range v {
		switch {
		case bestV == nil,
			cur.count > bestV.count,
			cur.count == bestV.count && cur.latest.After(bestV.latest),
			cur.count == bestV.count && cur.latest.Equal(bestV.latest) && value < best:
			best, bestV = value, cur
		}
	}
	return best
}
