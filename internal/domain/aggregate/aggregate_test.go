package aggregate_test

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/okian/portinsight/internal/domain/aggregate"
	"github.com/okian/portinsight/internal/domain/dedupe"
	"github.com/okian/portinsight/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

var processingDate = time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)

func visit(id, port, vessel string, hours float64, daysAgo int) model.Event {
	return model.Event{
		EventID:       id,
		EventType:     model.EventTypePortVisit,
		VesselID:      vessel,
		PortID:        port,
		PortName:      "Port " + port,
		PortCountry:   "NOR",
		StartTime:     processingDate.Add(-time.Duration(daysAgo) * 24 * time.Hour),
		DurationHours: model.Float(hours),
	}
}

func TestAggregate(t *testing.T) {
	ctx := context.Background()

	Convey("Given three qualifying visits across two ports", t, func() {
		events := []model.Event{
			visit("e1", "P1", "V1", 10, 1),
			visit("e2", "P1", "V2", 20, 2),
			visit("e3", "P2", "V1", 5, 3),
		}

		Convey("When aggregating with the default window", func() {
			res, err := aggregate.Aggregate(ctx, events, processingDate, aggregate.DefaultAnalysisPeriodDays)

			Convey("Then one summary per port is produced", func() {
				So(err, ShouldBeNil)
				So(res.Summaries, ShouldHaveLength, 2)

				p1 := res.Summaries[0]
				So(p1.PortID, ShouldEqual, "P1")
				So(p1.VisitCount, ShouldEqual, 2)
				So(p1.AvgStayHours, ShouldEqual, 15.0)
				So(p1.TotalTradeHours, ShouldEqual, 30.0)
				So(p1.DistinctVessels, ShouldEqual, 2)
				So(p1.PortName, ShouldEqual, "Port P1")
				So(p1.FirstVisit, ShouldEqual, events[1].StartTime)
				So(p1.LastVisit, ShouldEqual, events[0].StartTime)

				p2 := res.Summaries[1]
				So(p2.PortID, ShouldEqual, "P2")
				So(p2.VisitCount, ShouldEqual, 1)
				So(p2.AvgStayHours, ShouldEqual, 5.0)
				So(p2.TotalTradeHours, ShouldEqual, 5.0)
				So(p2.DistinctVessels, ShouldEqual, 1)
			})

			Convey("And the window bounds are stamped on every row", func() {
				for _, s := range res.Summaries {
					So(s.AnalysisPeriodStart, ShouldEqual, processingDate.AddDate(0, 0, -30))
					So(s.AnalysisPeriodEnd, ShouldEqual, processingDate)
					So(s.ProcessingDate, ShouldEqual, processingDate)
				}
				So(res.Stats.Total, ShouldEqual, 3)
				So(res.Stats.Kept, ShouldEqual, 3)
			})
		})
	})

	Convey("Given events that must be filtered out", t, func() {
		wrongType := visit("f1", "P1", "V1", 10, 1)
		wrongType.EventType = "fishing"
		noPort := visit("f2", "", "V1", 10, 1)
		zero := visit("f3", "P1", "V1", 0, 1)
		negative := visit("f4", "P1", "V1", -4, 1)
		missing := visit("f5", "P1", "V1", 1, 1)
		missing.DurationHours = nil
		nan := visit("f6", "P1", "V1", math.NaN(), 1)
		tooOld := visit("f7", "P1", "V1", 10, 31)
		future := visit("f8", "P1", "V1", 10, 0)
		future.StartTime = processingDate.Add(time.Second)
		undated := visit("f9", "P1", "V1", 10, 1)
		undated.StartTime = time.Time{}

		events := []model.Event{wrongType, noPort, zero, negative, missing, nan, tooOld, future, undated}

		Convey("When aggregating", func() {
			res, err := aggregate.Aggregate(ctx, events, processingDate, 30)

			Convey("Then none of them contribute", func() {
				So(err, ShouldBeNil)
				So(res.Summaries, ShouldBeEmpty)
				So(res.Stats.Kept, ShouldEqual, 0)
				So(res.Stats.Dropped[aggregate.DropWrongType], ShouldEqual, 1)
				So(res.Stats.Dropped[aggregate.DropMissingPort], ShouldEqual, 1)
				So(res.Stats.Dropped[aggregate.DropBadDuration], ShouldEqual, 4)
				So(res.Stats.Dropped[aggregate.DropOutOfWindow], ShouldEqual, 2)
				So(res.Stats.Dropped[aggregate.DropMissingStart], ShouldEqual, 1)
			})
		})
	})

	Convey("Given visits exactly on the window bounds", t, func() {
		atStart := visit("b1", "P1", "V1", 3, 30)
		atEnd := visit("b2", "P1", "V2", 3, 0)

		res, err := aggregate.Aggregate(ctx, []model.Event{atStart, atEnd}, processingDate, 30)

		Convey("Then both bounds are inclusive", func() {
			So(err, ShouldBeNil)
			So(res.Summaries, ShouldHaveLength, 1)
			So(res.Summaries[0].VisitCount, ShouldEqual, 2)
		})
	})

	Convey("Given a repeated event id", t, func() {
		events := []model.Event{
			visit("dup", "P1", "V1", 10, 1),
			visit("dup", "P1", "V1", 10, 1),
			visit("", "P1", "V3", 4, 1),
			visit("", "P1", "V3", 4, 1),
		}

		res, err := aggregate.Aggregate(ctx, events, processingDate, 30)

		Convey("Then identified records count once and anonymous ones always count", func() {
			So(err, ShouldBeNil)
			So(res.Summaries[0].VisitCount, ShouldEqual, 3)
			So(res.Summaries[0].DistinctVessels, ShouldEqual, 2)
			So(res.Stats.Dropped[aggregate.DropDuplicate], ShouldEqual, 1)
		})

		Convey("And a supplied deduper is honoured", func() {
			d := dedupe.NewInMemoryDeduper()
			_, err := aggregate.Aggregate(ctx, events, processingDate, 30, aggregate.WithDeduper(d))
			So(err, ShouldBeNil)
			So(d.Size(), ShouldEqual, 1)
		})
	})

	Convey("Given a maximum duration cap", t, func() {
		events := []model.Event{
			visit("m1", "P1", "V1", 9000, 1),
			visit("m2", "P1", "V2", 100, 1),
		}

		res, err := aggregate.Aggregate(ctx, events, processingDate, 30, aggregate.WithMaxDurationHours(8760))

		Convey("Then visits above the cap are dropped", func() {
			So(err, ShouldBeNil)
			So(res.Summaries[0].VisitCount, ShouldEqual, 1)
			So(res.Stats.Dropped[aggregate.DropOverDuration], ShouldEqual, 1)
		})
	})

	Convey("Given conflicting port names", t, func() {
		a := visit("n1", "P1", "V1", 1, 5)
		a.PortName = "Tromso"
		b := visit("n2", "P1", "V1", 1, 4)
		b.PortName = "Tromsø"
		c := visit("n3", "P1", "V1", 1, 3)
		c.PortName = "Tromsø"
		d := visit("n4", "P2", "V1", 1, 3)
		d.PortName = "Bodo"
		e := visit("n5", "P2", "V1", 1, 2)
		e.PortName = "Bodø"
		f := visit("n6", "P2", "V1", 1, 1)
		f.PortName = ""

		res, err := aggregate.Aggregate(ctx, []model.Event{a, b, c, d, e, f}, processingDate, 30)

		Convey("Then the most frequent value wins and ties go to the latest", func() {
			So(err, ShouldBeNil)
			So(res.Summaries[0].PortName, ShouldEqual, "Tromsø")
			So(res.Summaries[1].PortName, ShouldEqual, "Bodø")
		})
	})

	Convey("Given invalid parameters", t, func() {
		Convey("When the processing date is missing", func() {
			_, err := aggregate.Aggregate(ctx, nil, time.Time{}, 30)
			So(errors.Is(err, aggregate.ErrInput), ShouldBeTrue)
		})

		Convey("When the analysis period is not positive", func() {
			_, err := aggregate.Aggregate(ctx, nil, processingDate, 0)
			So(errors.Is(err, aggregate.ErrInput), ShouldBeTrue)
		})
	})

	Convey("Given no events", t, func() {
		res, err := aggregate.Aggregate(ctx, nil, processingDate, 30)

		Convey("Then the result is empty and not an error", func() {
			So(err, ShouldBeNil)
			So(res.Summaries, ShouldBeEmpty)
		})
	})

	Convey("Given a cancelled context", t, func() {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := aggregate.Aggregate(cctx, []model.Event{visit("c1", "P1", "V1", 1, 1)}, processingDate, 30)
		So(err, ShouldEqual, context.Canceled)
	})
}
