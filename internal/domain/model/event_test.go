package model_test

import (
	"testing"

	model "github.com/okian/portinsight/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func TestEventHours(t *testing.T) {
	convey.Convey("Given an Event", t, func() {
		convey.Convey("When the duration is present", func() {
			e := model.Event{DurationHours: model.Float(12.5)}
			h, ok := e.Hours()

			convey.Convey("Then Hours reports it", func() {
				convey.So(ok, convey.ShouldBeTrue)
				convey.So(h, convey.ShouldEqual, 12.5)
			})
		})

		convey.Convey("When the duration is absent", func() {
			e := model.Event{}
			h, ok := e.Hours()

			convey.Convey("Then Hours reports absence", func() {
				convey.So(ok, convey.ShouldBeFalse)
				convey.So(h, convey.ShouldEqual, 0.0)
			})
		})
	})
}

func TestPriorityValid(t *testing.T) {
	convey.Convey("Given investment priorities", t, func() {
		for _, p := range model.Priorities {
			convey.So(p.Valid(), convey.ShouldBeTrue)
		}
		convey.So(model.Priority("URGENT").Valid(), convey.ShouldBeFalse)
	})
}
