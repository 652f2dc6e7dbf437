package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestManagerCreation(t *testing.T) {
	Convey("Given a private registry", t, func() {
		registry := prometheus.NewRegistry()
		m := NewManager(
			WithNamespace("test"),
			WithSubsystem("unit"),
			WithLatencyBuckets([]float64{1, 10}),
			WithPrometheusRegistry(registry),
		)

		Convey("Then every metric is registered under the namespace", func() {
			So(m, ShouldNotBeNil)
			m.summaries.Set(3)
			So(testutil.ToFloat64(m.summaries), ShouldEqual, 3.0)

			families, err := registry.Gather()
			So(err, ShouldBeNil)
			for _, f := range families {
				So(strings.HasPrefix(f.GetName(), "test_unit_"), ShouldBeTrue)
			}
		})
	})
}

func TestRecording(t *testing.T) {
	Convey("Given the global metrics", t, func() {
		Convey("When a stage run is recorded", func() {
			before := testutil.ToFloat64(globalManager.stageRuns.WithLabelValues("score", "error"))
			RecordStageRun("score", errors.New("boom"), 12)
			RecordStageRun("score", nil, 3)

			Convey("Then the outcome counter moves", func() {
				So(testutil.ToFloat64(globalManager.stageRuns.WithLabelValues("score", "error")), ShouldEqual, before+1)
			})
		})

		Convey("When events are recorded", func() {
			seen := testutil.ToFloat64(globalManager.eventsSeen)
			RecordEvents(10, 7, map[string]int{"wrong_type": 2, "duplicate": 1})

			Convey("Then counters accumulate", func() {
				So(testutil.ToFloat64(globalManager.eventsSeen), ShouldEqual, seen+10)
			})
		})

		Convey("When gauges are updated", func() {
			UpdateSummaries(5)
			UpdateInsights("HIGH", 2)
			MarkSuccess(time.Unix(1700000000, 0))
			RecordStoreLatency("summaries", 0.5)

			So(testutil.ToFloat64(globalManager.summaries), ShouldEqual, 5.0)
			So(testutil.ToFloat64(globalManager.insights.WithLabelValues("HIGH")), ShouldEqual, 2.0)
			So(testutil.ToFloat64(globalManager.lastSuccessUnix), ShouldEqual, 1700000000.0)

			busy := testutil.ToFloat64(globalManager.workersBusy)
			WorkerStarted()
			So(testutil.ToFloat64(globalManager.workersBusy), ShouldEqual, busy+1)
			WorkerFinished()
			So(testutil.ToFloat64(globalManager.workersBusy), ShouldEqual, busy)
		})

		Convey("When the handler is scraped", func() {
			UpdateSummaries(1)
			rec := httptest.NewRecorder()
			Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

			So(rec.Code, ShouldEqual, http.StatusOK)
			So(rec.Body.String(), ShouldContainSubstring, "portinsight_pipeline_port_summaries")
			So(GetRegistry(), ShouldNotBeNil)
		})
	})
}
