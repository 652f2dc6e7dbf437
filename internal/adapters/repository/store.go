// Package repository persists port summaries and investment insights keyed
// by processing date.
package repository

import (
	"context"
	"time"

	"github.com/okian/portinsight/internal/domain/model"
)

// SummaryStore is the sink for aggregated port summaries.
type SummaryStore interface {
	// ReplaceSummaries atomically swaps every summary for date with rows.
	ReplaceSummaries(ctx context.Context, date time.Time, rows []model.PortVisitSummary) error
	// Summaries returns the rows for date ordered by port id.
	Summaries(ctx context.Context, date time.Time) ([]model.PortVisitSummary, error)
}

// InsightStore is the sink for scored insights.
type InsightStore interface {
	// ReplaceInsights atomically swaps every insight for date with rows.
	ReplaceInsights(ctx context.Context, date time.Time, rows []model.InvestmentInsight) error
	// Insights returns the rows for date ordered by overall score desc, then port id.
	Insights(ctx context.Context, date time.Time) ([]model.InvestmentInsight, error)
}

// Store combines both sinks.
type Store interface {
	SummaryStore
	InsightStore

	// ProcessingDates lists dates that hold insights, newest first.
	ProcessingDates(ctx context.Context) ([]time.Time, error)
	Close() error
}

// DateKey normalises a processing date to its UTC calendar day.
func DateKey(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
