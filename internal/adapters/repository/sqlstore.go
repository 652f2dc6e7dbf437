package repository

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/okian/portinsight/internal/domain/model"
	"github.com/okian/portinsight/pkg/metrics"
)

// InMemoryDSN opens a private in-memory SQLite database.
const InMemoryDSN = ":memory:"

// SQLStore persists rows in SQLite through gorm. Each replace runs its
// delete and insert inside one transaction.
type SQLStore struct {
	db *gorm.DB
}

// OpenSQLStore opens (and migrates) the database at path.
func OpenSQLStore(path string) (*SQLStore, error) {
	if path != InMemoryDSN {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("%w: create data dir: %w", ErrStore, err)
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", ErrStore, path, err)
	}

	// A single connection serialises writers and keeps :memory: databases
	// shared across calls.
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStore, err)
	}
	sqlDB.SetMaxOpenConns(1)

	if path != InMemoryDSN {
		for _, pragma := range []string{
			"PRAGMA journal_mode=WAL",
			"PRAGMA synchronous=NORMAL",
			"PRAGMA busy_timeout=5000",
		} {
			if err := db.Exec(pragma).Error; err != nil {
				return nil, fmt.Errorf("%w: %s: %w", ErrStore, pragma, err)
			}
		}
	}

	if err := db.AutoMigrate(&summaryRecord{}, &insightRecord{}); err != nil {
		return nil, fmt.Errorf("%w: migrate: %w", ErrStore, err)
	}
	return &SQLStore{db: db}, nil
}

func (s *SQLStore) ReplaceSummaries(ctx context.Context, date time.Time, rows []model.PortVisitSummary) error {
	if date.IsZero() {
		return ErrInvalidDate
	}
	defer observe(time.Now(), "replace_summaries")

	day := dayString(date)
	recs := make([]summaryRecord, len(rows))
	for i := range rows {
		recs[i] = newSummaryRecord(day, &rows[i])
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("processing_date = ?", day).Delete(&summaryRecord{}).Error; err != nil {
			return err
		}
		if len(recs) == 0 {
			return nil
		}
		return tx.CreateInBatches(recs, 200).Error
	})
	if err != nil {
		return fmt.Errorf("%w: replace summaries for %s: %w", ErrStore, day, err)
	}
	return nil
}

func (s *SQLStore) Summaries(ctx context.Context, date time.Time) ([]model.PortVisitSummary, error) {
	if date.IsZero() {
		return nil, ErrInvalidDate
	}
	defer observe(time.Now(), "summaries")

	var recs []summaryRecord
	err := s.db.WithContext(ctx).
		Where("processing_date = ?", dayString(date)).
		Order("port_id ASC").
		Find(&recs).Error
	if err != nil {
		return nil, fmt.Errorf("%w: query summaries: %w", ErrStore, err)
	}
	out := make([]model.PortVisitSummary, len(recs))
	for i := range recs {
		out[i] = recs[i].model()
	}
	return out, nil
}

func (s *SQLStore) ReplaceInsights(ctx context.Context, date time.Time, rows []model.InvestmentInsight) error {
	if date.IsZero() {
		return ErrInvalidDate
	}
	defer observe(time.Now(), "replace_insights")

	day := dayString(date)
	recs := make([]insightRecord, len(rows))
	for i := range rows {
		recs[i] = newInsightRecord(day, &rows[i])
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("processing_date = ?", day).Delete(&insightRecord{}).Error; err != nil {
			return err
		}
		if len(recs) == 0 {
			return nil
		}
		return tx.CreateInBatches(recs, 200).Error
	})
	if err != nil {
		return fmt.Errorf("%w: replace insights for %s: %w", ErrStore, day, err)
	}
	return nil
}

func (s *SQLStore) Insights(ctx context.Context, date time.Time) ([]model.InvestmentInsight, error) {
	if date.IsZero() {
		return nil, ErrInvalidDate
	}
	defer observe(time.Now(), "insights")

	var recs []insightRecord
	err := s.db.WithContext(ctx).
		Where("processing_date = ?", dayString(date)).
		Order("overall_score DESC").
		Order("port_id ASC").
		Find(&recs).Error
	if err != nil {
		return nil, fmt.Errorf("%w: query insights: %w", ErrStore, err)
	}
	out := make([]model.InvestmentInsight, len(recs))
	for i := range recs {
		out[i] = recs[i].model()
	}
	return out, nil
}

func (s *SQLStore) ProcessingDates(ctx context.Context) ([]time.Time, error) {
	var days []string
	err := s.db.WithContext(ctx).
		Model(&insightRecord{}).
		Distinct("processing_date").
		Order("processing_date DESC").
		Pluck("processing_date", &days).Error
	if err != nil {
		return nil, fmt.Errorf("%w: list dates: %w", ErrStore, err)
	}
	out := make([]time.Time, 0, len(days))
	for _, d := range days {
		if t := parseDay(d); !t.IsZero() {
			out = append(out, t)
		}
	}
	return out, nil
}

// Close releases the underlying connection.
func (s *SQLStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func observe(start time.Time, op string) {
	metrics.RecordStoreLatency(op, float64(time.Since(start).Microseconds())/1000)
}
