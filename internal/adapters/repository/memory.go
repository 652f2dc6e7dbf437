package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/okian/portinsight/internal/domain/model"
)

// MemoryStore keeps rows in maps guarded by a single lock, so each replace
// is atomic with respect to readers.
type MemoryStore struct {
	mu        sync.RWMutex
	summaries map[time.Time][]model.PortVisitSummary
	insights  map[time.Time][]model.InvestmentInsight
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		summaries: make(map[time.Time][]model.PortVisitSummary),
		insights:  make(map[time.Time][]model.InvestmentInsight),
	}
}

func (s *MemoryStore) ReplaceSummaries(ctx context.Context, date time.Time, rows []model.PortVisitSummary) error {
	if date.IsZero() {
		return ErrInvalidDate
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	cp := append([]model.PortVisitSummary(nil), rows...)
	sort.Slice(cp, func(i, j int) bool { return cp[i].PortID < cp[j].PortID })

	s.mu.Lock()
	defer s.mu.Unlock()
	s.summaries[DateKey(date)] = cp
	return nil
}

func (s *MemoryStore) Summaries(ctx context.Context, date time.Time) ([]model.PortVisitSummary, error) {
	if date.IsZero() {
		return nil, ErrInvalidDate
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.PortVisitSummary(nil), s.summaries[DateKey(date)]...), nil
}

func (s *MemoryStore) ReplaceInsights(ctx context.Context, date time.Time, rows []model.InvestmentInsight) error {
	if date.IsZero() {
		return ErrInvalidDate
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	cp := append([]model.InvestmentInsight(nil), rows...)
	sortInsights(cp)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.insights[DateKey(date)] = cp
	return nil
}

func (s *MemoryStore) Insights(ctx context.Context, date time.Time) ([]model.InvestmentInsight, error) {
	if date.IsZero() {
		return nil, ErrInvalidDate
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.InvestmentInsight(nil), s.insights[DateKey(date)]...), nil
}

func (s *MemoryStore) ProcessingDates(ctx context.Context) ([]time.Time, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	out := make([]time.Time, 0, len(s.insights))
	for d, rows := range s.insights {
		if len(rows) > 0 {
			out = append(out, d)
		}
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].After(out[j]) })
	return out, nil
}

// Close is a no-op.
func (s *MemoryStore) Close() error { return nil }

func sortInsights(rows []model.InvestmentInsight) {
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].OverallScore != rows[j].OverallScore {
			return rows[i].OverallScore > rows[j].OverallScore
		}
		return rows[i].PortID < rows[j].PortID
	})
}
