// Package service orchestrates the aggregation and scoring stages for one
// or many processing dates.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/okian/portinsight/internal/adapters/repository"
	"github.com/okian/portinsight/internal/adapters/source"
	"github.com/okian/portinsight/internal/adapters/worker"
	"github.com/okian/portinsight/internal/domain/aggregate"
	"github.com/okian/portinsight/internal/domain/dedupe"
	"github.com/okian/portinsight/internal/domain/model"
	"github.com/okian/portinsight/internal/domain/scoring"
	"github.com/okian/portinsight/pkg/logger"
	"github.com/okian/portinsight/pkg/metrics"
)

const (
	stageAggregate = "aggregate"
	stageScore     = "score"

	defaultBackfillWorkers = 4
)

// Service runs the pipeline against a source and a store.
type Service struct {
	store      repository.Store
	source     source.Source
	scorer     *scoring.Scorer
	scorerOpts []scoring.Option

	analysisPeriodDays int
	maxDurationHours   float64
	dedupeSize         int
	backfillWorkers    int

	logger logger.Logger
}

// Report describes one pipeline run for a processing date.
type Report struct {
	RunID             string
	ProcessingDate    time.Time
	PeriodStart       time.Time
	PeriodEnd         time.Time
	StartedAt         time.Time
	AggregateDuration time.Duration
	ScoreDuration     time.Duration
	Stats             aggregate.FilterStats
	Summaries         int
	Insights          int
	ByPriority        map[model.Priority]int
}

// DateReport is the outcome of one backfilled date.
type DateReport struct {
	Date   time.Time
	Report Report
	Err    error
}

// New constructs a Service. Without options it reads from an empty memory
// source and writes to a memory store.
func New(opts ...Option) (*Service, error) {
	s := &Service{
		store:              repository.NewMemoryStore(),
		source:             source.NewMemorySource(),
		analysisPeriodDays: aggregate.DefaultAnalysisPeriodDays,
		backfillWorkers:    defaultBackfillWorkers,
		logger:             logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.analysisPeriodDays <= 0 {
		return nil, fmt.Errorf("%w: analysis period must be positive, got %d days", aggregate.ErrInput, s.analysisPeriodDays)
	}

	scorer, err := scoring.New(s.scorerOpts...)
	if err != nil {
		return nil, fmt.Errorf("build scorer: %w", err)
	}
	s.scorer = scorer
	return s, nil
}

// Store returns the backing store.
func (s *Service) Store() repository.Store { return s.store }

// Aggregate reads the window's events, summarises them per port and replaces
// the summaries stored for date.
func (s *Service) Aggregate(ctx context.Context, date time.Time) (res aggregate.Result, err error) {
	start := time.Now()
	defer func() {
		metrics.RecordStageRun(stageAggregate, err, float64(time.Since(start).Milliseconds()))
	}()

	date, err = normalize(date)
	if err != nil {
		return aggregate.Result{}, err
	}
	from, to := aggregate.Window(date, s.analysisPeriodDays)
	events, err := s.source.Events(ctx, from, to)
	if err != nil {
		return aggregate.Result{}, fmt.Errorf("read events: %w", err)
	}

	res, err = aggregate.Aggregate(ctx, events, date, s.analysisPeriodDays,
		aggregate.WithMaxDurationHours(s.maxDurationHours),
		aggregate.WithDeduper(dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))),
	)
	if err != nil {
		return aggregate.Result{}, fmt.Errorf("aggregate: %w", err)
	}
	if err = s.store.ReplaceSummaries(ctx, date, res.Summaries); err != nil {
		return aggregate.Result{}, fmt.Errorf("store summaries: %w", err)
	}

	dropped := make(map[string]int, len(res.Stats.Dropped))
	for reason, n := range res.Stats.Dropped {
		dropped[string(reason)] = n
	}
	metrics.RecordEvents(res.Stats.Total, res.Stats.Kept, dropped)
	metrics.UpdateSummaries(len(res.Summaries))

	s.logger.Info(ctx, "aggregation finished",
		logger.String("date", date.Format(time.DateOnly)),
		logger.Int("events", res.Stats.Total),
		logger.Int("kept", res.Stats.Kept),
		logger.Any("dropped", dropped),
		logger.Int("ports", len(res.Summaries)),
	)
	return res, nil
}

// Score scores the stored summaries for date and replaces its insights.
func (s *Service) Score(ctx context.Context, date time.Time) (insights []model.InvestmentInsight, err error) {
	start := time.Now()
	defer func() {
		metrics.RecordStageRun(stageScore, err, float64(time.Since(start).Milliseconds()))
	}()

	date, err = normalize(date)
	if err != nil {
		return nil, err
	}
	summaries, err := s.store.Summaries(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("load summaries: %w", err)
	}
	insights, err = s.scorer.Score(ctx, summaries)
	if err != nil {
		return nil, fmt.Errorf("score: %w", err)
	}
	for i := range insights {
		insights[i].ProcessingDate = date
	}
	if err = s.store.ReplaceInsights(ctx, date, insights); err != nil {
		return nil, fmt.Errorf("store insights: %w", err)
	}

	counts := countByPriority(insights)
	for _, p := range model.Priorities {
		metrics.UpdateInsights(string(p), counts[p])
	}
	s.logger.Info(ctx, "scoring finished",
		logger.String("date", date.Format(time.DateOnly)),
		logger.String("growth_mode", string(s.scorer.GrowthMode())),
		logger.Int("insights", len(insights)),
		logger.Int("high", counts[model.PriorityHigh]),
		logger.Int("medium", counts[model.PriorityMedium]),
		logger.Int("low", counts[model.PriorityLow]),
	)
	return insights, nil
}

// Run executes both stages for date. Each stage replaces its rows atomically
// but the two stages commit separately; if scoring fails after aggregation
// committed, the date's insights are cleared so no insights from an earlier
// run sit beside the new summaries.
func (s *Service) Run(ctx context.Context, date time.Time) (Report, error) {
	rep := Report{RunID: uuid.NewString(), StartedAt: time.Now()}
	log := s.logger.With(logger.String("run_id", rep.RunID))

	date, err := normalize(date)
	if err != nil {
		return rep, err
	}
	rep.ProcessingDate = date

	res, err := s.Aggregate(ctx, date)
	rep.AggregateDuration = time.Since(rep.StartedAt)
	if err != nil {
		log.Error(ctx, "run failed", logger.String("stage", stageAggregate), logger.Error(err))
		return rep, err
	}
	rep.PeriodStart, rep.PeriodEnd = res.PeriodStart, res.PeriodEnd
	rep.Stats = res.Stats
	rep.Summaries = len(res.Summaries)

	scoreStart := time.Now()
	insights, err := s.Score(ctx, date)
	rep.ScoreDuration = time.Since(scoreStart)
	if err != nil {
		log.Error(ctx, "run failed", logger.String("stage", stageScore), logger.Error(err))
		if clearErr := s.store.ReplaceInsights(context.WithoutCancel(ctx), date, nil); clearErr != nil {
			log.Error(ctx, "clearing stale insights failed", logger.Error(clearErr))
		}
		return rep, err
	}
	rep.Insights = len(insights)
	rep.ByPriority = countByPriority(insights)

	metrics.MarkSuccess(time.Now())
	log.Info(ctx, "run finished",
		logger.String("date", date.Format(time.DateOnly)),
		logger.Duration("aggregate", rep.AggregateDuration),
		logger.Duration("score", rep.ScoreDuration),
	)
	return rep, nil
}

// RunDate adapts Run to the scheduler and worker runner contracts.
func (s *Service) RunDate(ctx context.Context, date time.Time) error {
	_, err := s.Run(ctx, date)
	return err
}

// Backfill runs every date in [from, to] on a bounded worker pool. Dates are
// independent, so a failure for one date does not stop the others.
func (s *Service) Backfill(ctx context.Context, from, to time.Time) ([]DateReport, error) {
	from, err := normalize(from)
	if err != nil {
		return nil, err
	}
	to, err = normalize(to)
	if err != nil {
		return nil, err
	}
	if to.Before(from) {
		return nil, fmt.Errorf("%w: range end %s is before start %s", ErrInvalidDate, to.Format(time.DateOnly), from.Format(time.DateOnly))
	}

	var dates []time.Time
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		dates = append(dates, d)
	}

	var (
		mu      sync.Mutex
		reports = make(map[time.Time]Report, len(dates))
	)
	pool := worker.NewPool(s.backfillWorkers, worker.RunnerFunc(func(ctx context.Context, d time.Time) error {
		rep, err := s.Run(ctx, d)
		mu.Lock()
		reports[d] = rep
		mu.Unlock()
		return err
	}), worker.WithName("backfill"), worker.WithLogger(s.logger))

	s.logger.Info(ctx, "backfill starting",
		logger.String("from", from.Format(time.DateOnly)),
		logger.String("to", to.Format(time.DateOnly)),
		logger.Int("dates", len(dates)),
		logger.Int("workers", pool.Size()),
	)

	results := pool.Process(ctx, dates)
	out := make([]DateReport, 0, len(results))
	var errs []error
	for _, r := range results {
		out = append(out, DateReport{Date: r.Date, Report: reports[r.Date], Err: r.Err})
		if r.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", r.Date.Format(time.DateOnly), r.Err))
		}
	}
	failed, skipped := len(errs), len(dates)-len(results)
	if skipped > 0 {
		errs = append(errs, fmt.Errorf("%d dates not started: %w", skipped, ctx.Err()))
	}
	if len(errs) > 0 {
		return out, fmt.Errorf("%w: %d failed, %d not started: %w", ErrBackfill, failed, skipped, errors.Join(errs...))
	}
	s.logger.Info(ctx, "backfill finished", logger.Int("dates", len(out)))
	return out, nil
}

// Insights returns the stored insights for date.
func (s *Service) Insights(ctx context.Context, date time.Time) ([]model.InvestmentInsight, error) {
	date, err := normalize(date)
	if err != nil {
		return nil, err
	}
	return s.store.Insights(ctx, date)
}

// Summaries returns the stored summaries for date.
func (s *Service) Summaries(ctx context.Context, date time.Time) ([]model.PortVisitSummary, error) {
	date, err := normalize(date)
	if err != nil {
		return nil, err
	}
	return s.store.Summaries(ctx, date)
}

// Close releases the store.
func (s *Service) Close() error {
	return s.store.Close()
}

func normalize(date time.Time) (time.Time, error) {
	if date.IsZero() {
		return time.Time{}, fmt.Errorf("%w: %w: processing date is required", ErrInvalidDate, aggregate.ErrInput)
	}
	return repository.DateKey(date), nil
}

func countByPriority(insights []model.InvestmentInsight) map[model.Priority]int {
	counts := make(map[model.Priority]int, len(model.Priorities))
	for _, p := range model.Priorities {
		counts[p] = 0
	}
	for i := range insights {
		counts[insights[i].InvestmentPriority]++
	}
	return counts
}
