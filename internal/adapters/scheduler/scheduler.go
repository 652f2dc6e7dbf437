// Package scheduler triggers the daily pipeline run on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/okian/portinsight/internal/adapters/repository"
	"github.com/okian/portinsight/pkg/logger"
	"github.com/robfig/cron/v3"
)

// DefaultSchedule runs once a day at 02:15 UTC.
const DefaultSchedule = "15 2 * * *"

// Runner processes one processing date.
type Runner interface {
	Run(ctx context.Context, date time.Time) error
}

// Scheduler invokes a Runner for today's date on every cron tick.
type Scheduler struct {
	mu      sync.Mutex
	cron    *cron.Cron
	spec    string
	runner  Runner
	logger  logger.Logger
	now     func() time.Time
	started bool
}

// New validates spec and builds a scheduler. Ticks that fire while a run is
// still in progress are skipped.
func New(spec string, runner Runner, opts ...Option) (*Scheduler, error) {
	if _, err := cron.ParseStandard(spec); err != nil {
		return nil, fmt.Errorf("%w: %q: %w", ErrInvalidSchedule, spec, err)
	}
	s := &Scheduler{
		spec:   spec,
		runner: runner,
		logger: logger.Nop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	cl := cronLogger{l: s.logger}
	s.cron = cron.New(
		cron.WithLocation(time.UTC),
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)
	return s, nil
}

// Start registers the job and starts ticking. Runs use ctx.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return ErrAlreadyStarted
	}
	if _, err := s.cron.AddFunc(s.spec, func() { _ = s.RunOnce(ctx) }); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidSchedule, err)
	}
	s.cron.Start()
	s.started = true
	s.logger.Info(ctx, "scheduler started", logger.String("schedule", s.spec))
	return nil
}

// Stop halts ticking and waits for a running job or ctx, whichever first.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return nil
	}
	s.started = false
	s.mu.Unlock()

	done := s.cron.Stop()
	select {
	case <-done.Done():
		s.logger.Info(ctx, "scheduler stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("scheduler stop: %w", ctx.Err())
	}
}

// RunOnce runs the pipeline for the current UTC day.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	date := repository.DateKey(s.now())
	s.logger.Info(ctx, "scheduled run starting", logger.String("date", date.Format(time.DateOnly)))
	if err := s.runner.Run(ctx, date); err != nil {
		s.logger.Error(ctx, "scheduled run failed", logger.String("date", date.Format(time.DateOnly)), logger.Error(err))
		return err
	}
	return nil
}

// Next returns the next activation time, zero when not started.
func (s *Scheduler) Next() time.Time {
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}

// cronLogger routes cron's internal logging to the structured logger.
type cronLogger struct {
	l logger.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...any) {
	c.l.Debug(context.Background(), "cron: "+msg, pairs(keysAndValues)...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...any) {
	c.l.Error(context.Background(), "cron: "+msg, append(pairs(keysAndValues), logger.Error(err))...)
}

func pairs(kv []any) []logger.Field {
	fields := make([]logger.Field, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			key = fmt.Sprint(kv[i])
		}
		fields = append(fields, logger.Any(key, kv[i+1]))
	}
	return fields
}
