package service_test

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/okian/portinsight/internal/adapters/repository"
	"github.com/okian/portinsight/internal/adapters/source"
	service "github.com/okian/portinsight/internal/app"
	"github.com/okian/portinsight/internal/domain/model"
	"github.com/okian/portinsight/internal/domain/scoring"
	. "github.com/smartystreets/goconvey/convey"
)

// cohort builds twelve ports with varied traffic and a few noisy records.
func cohort() []model.Event {
	var events []model.Event
	for p := 0; p < 12; p++ {
		port := fmt.Sprintf("P%02d", p)
		for v := 0; v <= p; v++ {
			at := processingDate.AddDate(0, 0, -(v%25)-1)
			events = append(events, visit(
				fmt.Sprintf("%s-%d", port, v), port, fmt.Sprintf("V%d", v%(p/2+1)),
				float64(4+(p*v)%30), at,
			))
		}
	}
	dup := events[5]
	noisy := []model.Event{
		dup,
		{EventID: "x1", EventType: "fishing", PortID: "P00", StartTime: processingDate, DurationHours: model.Float(1)},
		{EventID: "x2", EventType: model.EventTypePortVisit, PortID: "", StartTime: processingDate, DurationHours: model.Float(1)},
		{EventID: "x3", EventType: model.EventTypePortVisit, PortID: "P01", StartTime: processingDate, DurationHours: model.Float(0)},
		{EventID: "x4", EventType: model.EventTypePortVisit, PortID: "P01", StartTime: processingDate},
	}
	return append(events, noisy...)
}

func TestService_Integration(t *testing.T) {
	ctx := context.Background()

	Convey("Given a service backed by a SQLite file", t, func() {
		store, err := repository.OpenSQLStore(filepath.Join(t.TempDir(), "portinsight.db"))
		So(err, ShouldBeNil)
		defer func() { _ = store.Close() }()

		svc, err := service.New(
			service.WithStore(store),
			service.WithSource(source.NewMemorySource(cohort()...)),
			service.WithMaxDurationHours(8760),
		)
		So(err, ShouldBeNil)

		Convey("When the same date is run twice", func() {
			first, err := svc.Run(ctx, processingDate)
			So(err, ShouldBeNil)
			firstInsights, err := svc.Insights(ctx, processingDate)
			So(err, ShouldBeNil)
			firstSummaries, err := svc.Summaries(ctx, processingDate)
			So(err, ShouldBeNil)

			second, err := svc.Run(ctx, processingDate)
			So(err, ShouldBeNil)
			secondInsights, err := svc.Insights(ctx, processingDate)
			So(err, ShouldBeNil)
			secondSummaries, err := svc.Summaries(ctx, processingDate)
			So(err, ShouldBeNil)

			Convey("Then the stored rows are identical and not duplicated", func() {
				So(first.RunID, ShouldNotEqual, second.RunID)
				So(secondSummaries, ShouldResemble, firstSummaries)
				So(secondInsights, ShouldResemble, firstInsights)
				So(secondInsights, ShouldHaveLength, 12)
			})

			Convey("Then noisy records are filtered and counted", func() {
				So(first.Stats.Total, ShouldEqual, 78+5)
				So(first.Stats.Kept, ShouldEqual, 78)
				So(first.Stats.Dropped["duplicate"], ShouldEqual, 1)
				So(first.Stats.Dropped["wrong_type"], ShouldEqual, 1)
				So(first.Stats.Dropped["missing_port"], ShouldEqual, 1)
				So(first.Stats.Dropped["bad_duration"], ShouldEqual, 2)
			})

			Convey("Then every port has one summary and one insight", func() {
				So(len(firstSummaries), ShouldEqual, len(firstInsights))
				ports := map[string]bool{}
				for _, s := range firstSummaries {
					So(ports[s.PortID], ShouldBeFalse)
					ports[s.PortID] = true
				}
				for _, in := range firstInsights {
					So(ports[in.PortID], ShouldBeTrue)
				}
			})

			Convey("Then scores stay in range and tiers match the overall score", func() {
				steps := map[float64]bool{20: true, 40: true, 60: true, 80: true, 100: true}
				for _, in := range firstInsights {
					So(steps[in.TradeVolumeScore], ShouldBeTrue)
					So(steps[in.EfficiencyScore], ShouldBeTrue)
					So(steps[in.GrowthPotentialScore], ShouldBeTrue)
					So(in.OverallScore, ShouldBeBetweenOrEqual, 20.0, 100.0)

					priority, advice, roi := scoring.Classify(in.OverallScore)
					So(in.InvestmentPriority, ShouldEqual, priority)
					So(in.RecommendedInvestment, ShouldEqual, advice)
					So(in.ExpectedROI, ShouldEqual, roi)
				}
				for i := 1; i < len(firstInsights); i++ {
					So(firstInsights[i-1].OverallScore, ShouldBeGreaterThanOrEqualTo, firstInsights[i].OverallScore)
				}
			})
		})

		Convey("When a later date is run", func() {
			_, err := svc.Run(ctx, processingDate)
			So(err, ShouldBeNil)
			_, err = svc.Run(ctx, processingDate.AddDate(0, 0, 10))
			So(err, ShouldBeNil)

			Convey("Then both dates are kept independently", func() {
				dates, err := store.ProcessingDates(ctx)
				So(err, ShouldBeNil)
				So(dates, ShouldHaveLength, 2)
				So(dates[0], ShouldEqual, processingDate.AddDate(0, 0, 10))
				So(dates[1].Equal(processingDate), ShouldBeTrue)
			})
		})
	})

	Convey("Given the vessels-only growth variant", t, func() {
		svc, err := service.New(
			service.WithSource(source.NewMemorySource(cohort()...)),
			service.WithScorerOptions(scoring.WithGrowthMode(scoring.GrowthVesselsOnly)),
		)
		So(err, ShouldBeNil)

		rep, err := svc.Run(ctx, processingDate)
		So(err, ShouldBeNil)
		So(rep.Insights, ShouldEqual, 12)
	})
}
