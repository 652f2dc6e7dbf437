// Package worker runs independent processing dates on a bounded pool.
package worker

import (
	"context"
	"runtime"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/okian/portinsight/pkg/logger"
	"github.com/okian/portinsight/pkg/metrics"
)

// Runner processes a single processing date.
type Runner interface {
	Run(ctx context.Context, date time.Time) error
}

// RunnerFunc adapts a function to Runner.
type RunnerFunc func(ctx context.Context, date time.Time) error

// Run implements Runner.
func (f RunnerFunc) Run(ctx context.Context, date time.Time) error { return f(ctx, date) }

// Result is the outcome for one date.
type Result struct {
	Date     time.Time
	Err      error
	Duration time.Duration
}

// worker drains the shared job channel until it closes or ctx is done.
type worker struct {
	name    string
	runner  Runner
	jobs    <-chan time.Time
	results chan<- Result
	logger  logger.Logger
}

func (w *worker) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case date, ok := <-w.jobs:
			if !ok {
				return
			}
			w.results <- w.process(ctx, date)
		}
	}
}

func (w *worker) process(ctx context.Context, date time.Time) Result {
	metrics.WorkerStarted()
	defer metrics.WorkerFinished()

	start := time.Now()
	err := w.runner.Run(ctx, date)
	res := Result{Date: date, Err: err, Duration: time.Since(start)}
	if err != nil {
		w.logger.Error(ctx, "processing date failed",
			logger.String("date", date.Format(time.DateOnly)),
			logger.Error(err),
		)
	}
	return res
}

// Pool runs a Runner over many dates with at most Size concurrent calls.
type Pool struct {
	size   int
	runner Runner
	name   string
	logger logger.Logger
}

// NewPool creates a pool. A size below 1 defaults to runtime.NumCPU().
func NewPool(size int, runner Runner, opts ...Option) *Pool {
	if size < 1 {
		size = runtime.NumCPU()
	}
	p := &Pool{
		size:   size,
		runner: runner,
		name:   "worker",
		logger: logger.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Size returns the number of workers.
func (p *Pool) Size() int { return p.size }

// Process runs every date and returns one Result per date that was started,
// ordered by date. Dates not started before ctx is done are omitted.
func (p *Pool) Process(ctx context.Context, dates []time.Time) []Result {
	if len(dates) == 0 {
		return nil
	}
	n := min(p.size, len(dates))
	jobs := make(chan time.Time)
	results := make(chan Result, len(dates))

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		w := &worker{
			name:    p.name + "-" + strconv.Itoa(i),
			runner:  p.runner,
			jobs:    jobs,
			results: results,
		}
		w.logger = p.logger.With(logger.String("worker", w.name))
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.run(ctx)
		}()
	}

feed:
	for _, d := range dates {
		select {
		case <-ctx.Done():
			break feed
		case jobs <- d:
		}
	}
	close(jobs)
	wg.Wait()
	close(results)

	out := make([]Result, 0, len(dates))
	for r := range results {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}
