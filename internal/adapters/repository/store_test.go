package repository_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/okian/portinsight/internal/adapters/repository"
	"github.com/okian/portinsight/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

var (
	dayOne = time.Date(2024, 3, 30, 0, 0, 0, 0, time.UTC)
	dayTwo = time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)
)

func summaries(date time.Time, ports ...string) []model.PortVisitSummary {
	out := make([]model.PortVisitSummary, 0, len(ports))
	for i, p := range ports {
		out = append(out, model.PortVisitSummary{
			PortID:              p,
			PortName:            "Port " + p,
			PortCountry:         "NOR",
			VisitCount:          i + 1,
			AvgStayHours:        float64(10 * (i + 1)),
			TotalTradeHours:     float64(10 * (i + 1) * (i + 1)),
			DistinctVessels:     i + 1,
			FirstVisit:          date.Add(-48 * time.Hour),
			LastVisit:           date.Add(-time.Hour),
			AnalysisPeriodStart: date.AddDate(0, 0, -30),
			AnalysisPeriodEnd:   date,
			ProcessingDate:      date,
		})
	}
	return out
}

func insight(date time.Time, port string, overall float64, p model.Priority) model.InvestmentInsight {
	return model.InvestmentInsight{
		PortID:                port,
		PortName:              "Port " + port,
		PortCountry:           "NOR",
		TradeVolumeScore:      overall,
		EfficiencyScore:       overall,
		GrowthPotentialScore:  overall,
		OverallScore:          overall,
		InvestmentPriority:    p,
		RecommendedInvestment: "advice",
		ExpectedROI:           12.5,
		ProcessingDate:        date,
	}
}

func storeContract(newStore func() repository.Store) {
	ctx := context.Background()

	Convey("When summaries are replaced for a date", func() {
		s := newStore()
		defer func() { _ = s.Close() }()

		So(s.ReplaceSummaries(ctx, dayOne, summaries(dayOne, "B", "A")), ShouldBeNil)
		So(s.ReplaceSummaries(ctx, dayTwo, summaries(dayTwo, "C")), ShouldBeNil)
		So(s.ReplaceSummaries(ctx, dayOne, summaries(dayOne, "A", "D")), ShouldBeNil)

		Convey("Then only the latest rows for that date remain", func() {
			got, err := s.Summaries(ctx, dayOne)
			So(err, ShouldBeNil)
			So(got, ShouldHaveLength, 2)
			So(got[0].PortID, ShouldEqual, "A")
			So(got[1].PortID, ShouldEqual, "D")
			So(got[1].TotalTradeHours, ShouldEqual, 40.0)
			So(got[1].AnalysisPeriodStart.Equal(dayOne.AddDate(0, 0, -30)), ShouldBeTrue)
			So(got[1].LastVisit.Equal(dayOne.Add(-time.Hour)), ShouldBeTrue)
			So(got[0].ProcessingDate.Equal(dayOne), ShouldBeTrue)
		})

		Convey("And other dates are untouched", func() {
			got, err := s.Summaries(ctx, dayTwo)
			So(err, ShouldBeNil)
			So(got, ShouldHaveLength, 1)
			So(got[0].PortID, ShouldEqual, "C")
		})

		Convey("And replacing with nothing clears the date", func() {
			So(s.ReplaceSummaries(ctx, dayOne, nil), ShouldBeNil)
			got, err := s.Summaries(ctx, dayOne)
			So(err, ShouldBeNil)
			So(got, ShouldBeEmpty)
		})
	})

	Convey("When insights are replaced", func() {
		s := newStore()
		defer func() { _ = s.Close() }()

		So(s.ReplaceInsights(ctx, dayOne, []model.InvestmentInsight{
			insight(dayOne, "LOW", 40, model.PriorityLow),
			insight(dayOne, "TOP", 92, model.PriorityHigh),
			insight(dayOne, "MID", 66, model.PriorityMedium),
			insight(dayOne, "AAA", 66, model.PriorityMedium),
		}), ShouldBeNil)
		So(s.ReplaceInsights(ctx, dayTwo, []model.InvestmentInsight{insight(dayTwo, "TOP", 100, model.PriorityHigh)}), ShouldBeNil)

		Convey("Then they come back ranked", func() {
			got, err := s.Insights(ctx, dayOne)
			So(err, ShouldBeNil)
			So(got, ShouldHaveLength, 4)
			So(got[0].PortID, ShouldEqual, "TOP")
			So(got[1].PortID, ShouldEqual, "AAA")
			So(got[2].PortID, ShouldEqual, "MID")
			So(got[3].PortID, ShouldEqual, "LOW")
			So(got[0].InvestmentPriority, ShouldEqual, model.PriorityHigh)
			So(got[0].ExpectedROI, ShouldEqual, 12.5)
		})

		Convey("And the processing dates are listed newest first", func() {
			dates, err := s.ProcessingDates(ctx)
			So(err, ShouldBeNil)
			So(dates, ShouldHaveLength, 2)
			So(dates[0].Equal(dayTwo), ShouldBeTrue)
			So(dates[1].Equal(dayOne), ShouldBeTrue)
		})

		Convey("And a second replace supersedes the first", func() {
			So(s.ReplaceInsights(ctx, dayOne, []model.InvestmentInsight{insight(dayOne, "MID", 70, model.PriorityMedium)}), ShouldBeNil)
			got, err := s.Insights(ctx, dayOne)
			So(err, ShouldBeNil)
			So(got, ShouldHaveLength, 1)
			So(got[0].OverallScore, ShouldEqual, 70.0)
		})
	})

	Convey("When the date is missing", func() {
		s := newStore()
		defer func() { _ = s.Close() }()

		So(errors.Is(s.ReplaceSummaries(ctx, time.Time{}, nil), repository.ErrInvalidDate), ShouldBeTrue)
		So(errors.Is(s.ReplaceInsights(ctx, time.Time{}, nil), repository.ErrInvalidDate), ShouldBeTrue)
		_, err := s.Summaries(ctx, time.Time{})
		So(errors.Is(err, repository.ErrInvalidDate), ShouldBeTrue)
		_, err = s.Insights(ctx, time.Time{})
		So(errors.Is(err, repository.ErrInvalidDate), ShouldBeTrue)
	})
}

func TestMemoryStore(t *testing.T) {
	Convey("Given a memory store", t, func() {
		storeContract(func() repository.Store { return repository.NewMemoryStore() })
	})
}

func TestSQLStore(t *testing.T) {
	Convey("Given an in-memory SQLite store", t, func() {
		storeContract(func() repository.Store {
			s, err := repository.OpenSQLStore(repository.InMemoryDSN)
			So(err, ShouldBeNil)
			return s
		})
	})

	Convey("Given a file-backed SQLite store", t, func() {
		ctx := context.Background()
		path := filepath.Join(t.TempDir(), "data", "portinsight.db")

		s, err := repository.OpenSQLStore(path)
		So(err, ShouldBeNil)
		So(s.ReplaceSummaries(ctx, dayOne, summaries(dayOne, "A")), ShouldBeNil)
		So(s.Close(), ShouldBeNil)

		Convey("Then rows survive a reopen", func() {
			reopened, err := repository.OpenSQLStore(path)
			So(err, ShouldBeNil)
			defer func() { _ = reopened.Close() }()

			got, err := reopened.Summaries(ctx, dayOne)
			So(err, ShouldBeNil)
			So(got, ShouldHaveLength, 1)
		})
	})
}

func TestDateKey(t *testing.T) {
	Convey("Given timestamps within one UTC day", t, func() {
		a := time.Date(2024, 3, 31, 23, 59, 0, 0, time.UTC)
		b := time.Date(2024, 3, 31, 1, 0, 0, 0, time.UTC)
		So(repository.DateKey(a).Equal(repository.DateKey(b)), ShouldBeTrue)
		So(repository.DateKey(a).Equal(dayTwo), ShouldBeTrue)
	})
}
