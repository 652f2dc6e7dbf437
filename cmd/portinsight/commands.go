package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"time"

	"github.com/okian/portinsight/internal/adapters/export"
	"github.com/okian/portinsight/internal/adapters/repository"
	"github.com/okian/portinsight/internal/adapters/scheduler"
	"github.com/okian/portinsight/internal/adapters/source"
	"github.com/okian/portinsight/internal/adapters/worker"
	service "github.com/okian/portinsight/internal/app"
	"github.com/okian/portinsight/internal/config"
	"github.com/okian/portinsight/internal/domain/model"
	"github.com/okian/portinsight/internal/domain/scoring"
	"github.com/okian/portinsight/pkg/logger"
	"github.com/okian/portinsight/pkg/metrics"
)

const shutdownTimeout = 30 * time.Second

const usage = `usage: portinsight <command> [flags]

commands:
  run       -date YYYY-MM-DD          aggregate and score one processing date
  backfill  -from YYYY-MM-DD -to ...  run every date in a range
  serve                               run daily on the configured schedule
  show      -date YYYY-MM-DD          print stored insights (-format csv|json, -summaries)
  dates                               list processing dates that hold insights
`

var errUsage = errors.New("invalid usage")

// run dispatches one command. Results go to stdout, logs to stderr.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		_, _ = io.WriteString(stderr, usage)
		return errUsage
	}
	cmd, args := args[0], args[1:]

	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}
	if err := logger.InitWithOptions(logger.Options{Format: cfg.LogFormat, Writer: stderr}); err != nil {
		return err
	}
	log := logger.Get()
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	switch cmd {
	case "run":
		return runCmd(ctx, cfg, log, args, stdout)
	case "backfill":
		return backfillCmd(ctx, cfg, log, args, stdout)
	case "serve":
		return serveCmd(ctx, cfg, log, args)
	case "show":
		return showCmd(ctx, cfg, log, args, stdout)
	case "dates":
		return datesCmd(ctx, cfg, log, stdout)
	case "help", "-h", "-help", "--help":
		_, _ = io.WriteString(stdout, usage)
		return nil
	}
	_, _ = io.WriteString(stderr, usage)
	return fmt.Errorf("%w: unknown command %q", errUsage, cmd)
}

func newService(cfg *config.Config, log logger.Logger) (*service.Service, error) {
	mode, err := scoring.ParseGrowthMode(cfg.GrowthMode)
	if err != nil {
		return nil, err
	}
	store, err := repository.OpenSQLStore(cfg.DBPath)
	if err != nil {
		return nil, err
	}
	svc, err := service.New(
		service.WithLogger(log.Named("pipeline")),
		service.WithStore(store),
		service.WithSource(source.NewFileSource(cfg.EventsPath)),
		service.WithScorerOptions(
			scoring.WithGrowthMode(mode),
			scoring.WithWeights(scoring.Weights{
				TradeVolume:     cfg.WeightTradeVolume,
				Efficiency:      cfg.WeightEfficiency,
				GrowthPotential: cfg.WeightGrowthPotential,
			}),
		),
		service.WithAnalysisPeriodDays(cfg.AnalysisPeriodDays),
		service.WithMaxDurationHours(cfg.MaxDurationHours),
		service.WithDedupeSize(cfg.DedupeSize),
		service.WithBackfillWorkers(cfg.BackfillWorkers),
	)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	return svc, nil
}

// dateFlag parses YYYY-MM-DD and defaults to today in UTC.
type dateFlag struct {
	t time.Time
}

func (d *dateFlag) String() string {
	if d.t.IsZero() {
		return ""
	}
	return d.t.Format(time.DateOnly)
}

func (d *dateFlag) Set(s string) error {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return fmt.Errorf("date must be YYYY-MM-DD: %w", err)
	}
	d.t = t
	return nil
}

func (d *dateFlag) value() time.Time {
	if d.t.IsZero() {
		return repository.DateKey(time.Now())
	}
	return d.t
}

func parseFlags(fs *flag.FlagSet, args []string) error {
	fs.SetOutput(io.Discard)
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %s: %w", errUsage, fs.Name(), err)
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("%w: %s: unexpected arguments %v", errUsage, fs.Name(), fs.Args())
	}
	return nil
}

func runCmd(ctx context.Context, cfg *config.Config, log logger.Logger, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	var date dateFlag
	fs.Var(&date, "date", "processing date (default today, UTC)")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	svc, err := newService(cfg, log)
	if err != nil {
		return err
	}
	defer func() { _ = svc.Close() }()

	rep, err := svc.Run(ctx, date.value())
	if err != nil {
		return err
	}
	printReport(stdout, &rep)
	return nil
}

func backfillCmd(ctx context.Context, cfg *config.Config, log logger.Logger, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("backfill", flag.ContinueOnError)
	var from, to dateFlag
	fs.Var(&from, "from", "first processing date")
	fs.Var(&to, "to", "last processing date (default today, UTC)")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if from.t.IsZero() {
		return fmt.Errorf("%w: backfill: -from is required", errUsage)
	}

	svc, err := newService(cfg, log)
	if err != nil {
		return err
	}
	defer func() { _ = svc.Close() }()

	reports, err := svc.Backfill(ctx, from.value(), to.value())
	for i := range reports {
		if reports[i].Err != nil {
			fmt.Fprintf(stdout, "%s\tfailed\t%v\n", reports[i].Date.Format(time.DateOnly), reports[i].Err)
			continue
		}
		printReport(stdout, &reports[i].Report)
	}
	return err
}

func serveCmd(ctx context.Context, cfg *config.Config, log logger.Logger, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	svc, err := newService(cfg, log)
	if err != nil {
		return err
	}
	defer func() { _ = svc.Close() }()

	sched, err := scheduler.New(cfg.Schedule, worker.RunnerFunc(svc.RunDate), scheduler.WithLogger(log.Named("scheduler")))
	if err != nil {
		return err
	}
	if err := sched.Start(ctx); err != nil {
		return err
	}
	log.Info(ctx, "serving", logger.String("schedule", cfg.Schedule), logger.Time("next", sched.Next()), logger.String("metrics_addr", cfg.MetricsAddr))

	var serveErr error
	if cfg.MetricsAddr != "" {
		serveErr = metrics.Serve(ctx, cfg.MetricsAddr)
	} else {
		<-ctx.Done()
	}

	stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := sched.Stop(stopCtx); err != nil {
		log.Error(ctx, "scheduler shutdown failed", logger.Error(err))
	}
	return serveErr
}

func showCmd(ctx context.Context, cfg *config.Config, log logger.Logger, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("show", flag.ContinueOnError)
	var date dateFlag
	fs.Var(&date, "date", "processing date (default today, UTC)")
	format := fs.String("format", string(export.FormatCSV), "output format: csv or json")
	summaries := fs.Bool("summaries", false, "print port visit summaries instead of insights")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	f, err := export.ParseFormat(*format)
	if err != nil {
		return err
	}

	svc, err := newService(cfg, log)
	if err != nil {
		return err
	}
	defer func() { _ = svc.Close() }()

	if *summaries {
		rows, err := svc.Summaries(ctx, date.value())
		if err != nil {
			return err
		}
		return export.WriteSummaries(stdout, f, rows)
	}
	rows, err := svc.Insights(ctx, date.value())
	if err != nil {
		return err
	}
	return export.WriteInsights(stdout, f, rows)
}

func datesCmd(ctx context.Context, cfg *config.Config, log logger.Logger, stdout io.Writer) error {
	svc, err := newService(cfg, log)
	if err != nil {
		return err
	}
	defer func() { _ = svc.Close() }()

	dates, err := svc.Store().ProcessingDates(ctx)
	if err != nil {
		return err
	}
	for _, d := range dates {
		fmt.Fprintln(stdout, d.Format(time.DateOnly))
	}
	return nil
}

func printReport(w io.Writer, rep *service.Report) {
	fmt.Fprintf(w, "%s\trun=%s\tevents=%d\tkept=%d\tports=%d\thigh=%d\tmedium=%d\tlow=%d\n",
		rep.ProcessingDate.Format(time.DateOnly), rep.RunID,
		rep.Stats.Total, rep.Stats.Kept, rep.Summaries,
		rep.ByPriority[model.PriorityHigh], rep.ByPriority[model.PriorityMedium], rep.ByPriority[model.PriorityLow],
	)
}
