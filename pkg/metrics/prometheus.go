// Package metrics provides Prometheus metrics for the portinsight pipeline.
package metrics

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 10 * time.Second
)

var defaultBuckets = []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000}

// Manager owns every pipeline metric.
type Manager struct {
	namespace string
	subsystem string
	buckets   []float64
	registry  prometheus.Registerer

	stageRuns       *prometheus.CounterVec
	stageLatency    *prometheus.HistogramVec
	eventsSeen      prometheus.Counter
	eventsKept      prometheus.Counter
	eventsDropped   *prometheus.CounterVec
	summaries       prometheus.Gauge
	insights        *prometheus.GaugeVec
	lastSuccessUnix prometheus.Gauge
	storeLatency    *prometheus.HistogramVec
	workersBusy     prometheus.Gauge
}

var globalManager *Manager //nolint:gochecknoglobals // process-wide metrics singleton

var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // avoids default Go collectors

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates and registers the metric set.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace: "portinsight",
		subsystem: "pipeline",
		buckets:   defaultBuckets,
		registry:  prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.stageRuns = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "stage_runs_total",
		Help:      "Stage executions by stage and outcome",
	}, []string{"stage", "status"})

	m.stageLatency = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "stage_latency_milliseconds",
		Help:      "Stage wall time in milliseconds",
		Buckets:   m.buckets,
	}, []string{"stage"})

	m.eventsSeen = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "events_seen_total",
		Help:      "Events read from the source",
	})

	m.eventsKept = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "events_kept_total",
		Help:      "Events that qualified as port visits",
	})

	m.eventsDropped = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "events_dropped_total",
		Help:      "Events excluded from aggregation by reason",
	}, []string{"reason"})

	m.summaries = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "port_summaries",
		Help:      "Port summaries written by the last aggregation",
	})

	m.insights = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "investment_insights",
		Help:      "Insights written by the last scoring run, by priority",
	}, []string{"priority"})

	m.lastSuccessUnix = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "last_success_unix_seconds",
		Help:      "Completion time of the last successful run",
	})

	m.storeLatency = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "store_latency_milliseconds",
		Help:      "Store operation latency in milliseconds",
		Buckets:   m.buckets,
	}, []string{"op"})

	m.workersBusy = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "workers_busy",
		Help:      "Backfill workers currently processing a date",
	})
}

// RecordStageRun counts a stage execution and its latency.
func RecordStageRun(stage string, err error, latencyMs float64) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	globalManager.stageRuns.WithLabelValues(stage, status).Inc()
	globalManager.stageLatency.WithLabelValues(stage).Observe(latencyMs)
}

// RecordEvents adds the outcome of one aggregation's filtering.
func RecordEvents(seen, kept int, dropped map[string]int) {
	globalManager.eventsSeen.Add(float64(seen))
	globalManager.eventsKept.Add(float64(kept))
	for reason, n := range dropped {
		globalManager.eventsDropped.WithLabelValues(reason).Add(float64(n))
	}
}

// UpdateSummaries sets the summary gauge.
func UpdateSummaries(n int) {
	globalManager.summaries.Set(float64(n))
}

// UpdateInsights sets the per-priority insight gauge.
func UpdateInsights(priority string, n int) {
	globalManager.insights.WithLabelValues(priority).Set(float64(n))
}

// MarkSuccess stamps the last successful run.
func MarkSuccess(t time.Time) {
	globalManager.lastSuccessUnix.Set(float64(t.Unix()))
}

// RecordStoreLatency observes one store operation.
func RecordStoreLatency(op string, latencyMs float64) {
	globalManager.storeLatency.WithLabelValues(op).Observe(latencyMs)
}

// WorkerStarted and WorkerFinished track busy backfill workers.
func WorkerStarted()  { globalManager.workersBusy.Inc() }
func WorkerFinished() { globalManager.workersBusy.Dec() }

// GetRegistry returns the registry backing the global metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

// Handler serves the global registry.
func Handler() http.Handler {
	return promhttp.HandlerFor(customRegistry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is done.
func Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: readHeaderTimeout}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("%w: %w", ErrServe, err)
		}
		return nil
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
