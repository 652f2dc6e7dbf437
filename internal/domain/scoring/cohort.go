package scoring

import (
	"fmt"
	"math"

	"github.com/okian/portinsight/internal/domain/model"
	"github.com/shopspring/decimal"
)

// Cohort holds the extremes every port is normalised against.
type Cohort struct {
	MaxTradeHours float64
	MinAvgStay    float64
	MaxVessels    int
	MaxVisits     int
	Size          int
}

// NewCohort is the first pass over the summaries. It rejects rows whose
// metrics cannot serve as a normalisation basis.
func NewCohort(summaries []model.PortVisitSummary) (Cohort, error) {
	c := Cohort{Size: len(summaries)}
	for i := range summaries {
		s := &summaries[i]
		if err := checkMetrics(s); err != nil {
			return Cohort{}, err
		}
		if i == 0 || s.TotalTradeHours > c.MaxTradeHours {
			c.MaxTradeHours = s.TotalTradeHours
		}
		if i == 0 || s.AvgStayHours < c.MinAvgStay {
			c.MinAvgStay = s.AvgStayHours
		}
		if s.DistinctVessels > c.MaxVessels {
			c.MaxVessels = s.DistinctVessels
		}
		if s.VisitCount > c.MaxVisits {
			c.MaxVisits = s.VisitCount
		}
	}
	return c, nil
}

func checkMetrics(s *model.PortVisitSummary) error {
	metrics := []struct {
		name  string
		value float64
	}{
		{"total_trade_hours", s.TotalTradeHours},
		{"avg_stay_hours", s.AvgStayHours},
	}
	for _, m := range metrics {
		if m.value < 0 || math.IsNaN(m.value) || math.IsInf(m.value, 0) {
			return fmt.Errorf("%w: port %s has %s=%v", ErrDegenerateCohort, s.PortID, m.name, m.value)
		}
	}
	if s.VisitCount < 0 || s.DistinctVessels < 0 {
		return fmt.Errorf("%w: port %s has negative counts", ErrDegenerateCohort, s.PortID)
	}
	return nil
}

// ratio is a share of a cohort extreme, held in decimal so bounds such as
// 2.4/3.0 compare as exactly 0.8.
type ratio struct {
	v   decimal.Decimal
	inf bool // x/0 with x > 0
	nan bool
}

// newRatio divides num by den with 0/0 defined as 1 (the port sits on the
// extreme) and x/0 as +Inf.
func newRatio(num, den float64) ratio {
	if den == 0 {
		if num == 0 {
			return ratio{v: decimal.NewFromInt(1)}
		}
		return ratio{inf: true}
	}
	return ratio{v: decimal.NewFromFloat(num).Div(decimal.NewFromFloat(den))}
}

func countRatio(num, den int) ratio {
	return newRatio(float64(num), float64(den))
}

// floatRatio wraps an already computed ratio.
func floatRatio(r float64) ratio {
	switch {
	case math.IsNaN(r):
		return ratio{nan: true}
	case math.IsInf(r, 1):
		return ratio{inf: true}
	case math.IsInf(r, -1):
		return ratio{v: decimal.NewFromInt(-1)}
	}
	return ratio{v: decimal.NewFromFloat(r)}
}

func (r ratio) atLeast(bound decimal.Decimal) bool {
	return !r.nan && (r.inf || r.v.GreaterThanOrEqual(bound))
}

func (r ratio) atMost(bound decimal.Decimal) bool {
	return !r.nan && !r.inf && r.v.LessThanOrEqual(bound)
}
