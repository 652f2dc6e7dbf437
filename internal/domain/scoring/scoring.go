// Package scoring turns a cohort of port summaries into investment insights.
//
// Every sub-score is a step function over a ratio to the cohort extreme and
// takes one of 100, 80, 60, 40 or 20. The overall score is their weighted sum
// and drives the HIGH/MEDIUM/LOW tier.
package scoring

import (
	"context"
	"sort"

	"github.com/okian/portinsight/internal/domain/model"
	"github.com/shopspring/decimal"
)

const (
	minScore = 20

	highThreshold   = 80
	mediumThreshold = 60

	scorePrecision = 2
)

// Advisories per tier.
const (
	AdviceHigh   = "Priority investment in port infrastructure, cold chain facilities, and logistics optimization"
	AdviceMedium = "Consider investment in specialized facilities and operational improvements"
	AdviceLow    = "Monitor for future opportunities, focus on cost-effective improvements"
)

// Step tables, best step first. A ratio earns the first score whose bound it
// satisfies.
var (
	atLeastSteps = []step{
		{decimal.RequireFromString("0.8"), 100},
		{decimal.RequireFromString("0.6"), 80},
		{decimal.RequireFromString("0.4"), 60},
		{decimal.RequireFromString("0.2"), 40},
	}
	atMostSteps = []step{
		{decimal.RequireFromString("1.2"), 100},
		{decimal.RequireFromString("1.5"), 80},
		{decimal.RequireFromString("2.0"), 60},
		{decimal.RequireFromString("3.0"), 40},
	}
)

type step struct {
	bound decimal.Decimal
	score float64
}

// Scorer computes investment insights for one processing date.
type Scorer struct {
	growth  GrowthMode
	weights Weights
}

// New builds a Scorer with the joint growth rule and 40/30/30 weights unless
// overridden.
func New(opts ...Option) (*Scorer, error) {
	s := &Scorer{growth: GrowthJoint, weights: DefaultWeights}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.weights.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// GrowthMode reports the configured growth formula.
func (s *Scorer) GrowthMode() GrowthMode { return s.growth }

// Score normalises each summary against the cohort and classifies it.
// The result holds one insight per summary, ordered by overall score
// descending then port id.
func (s *Scorer) Score(ctx context.Context, summaries []model.PortVisitSummary) ([]model.InvestmentInsight, error) {
	cohort, err := NewCohort(summaries)
	if err != nil {
		return nil, err
	}

	out := make([]model.InvestmentInsight, 0, len(summaries))
	for i := range summaries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out = append(out, s.scorePort(&cohort, &summaries[i]))
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].OverallScore != out[j].OverallScore {
			return out[i].OverallScore > out[j].OverallScore
		}
		return out[i].PortID < out[j].PortID
	})
	return out, nil
}

func (s *Scorer) scorePort(c *Cohort, p *model.PortVisitSummary) model.InvestmentInsight {
	trade := atLeastScore(newRatio(p.TotalTradeHours, c.MaxTradeHours))
	efficiency := atMostScore(newRatio(p.AvgStayHours, c.MinAvgStay))

	vessels := countRatio(p.DistinctVessels, c.MaxVessels)
	var growth float64
	if s.growth == GrowthVesselsOnly {
		growth = atLeastScore(vessels)
	} else {
		growth = jointScore(vessels, countRatio(p.VisitCount, c.MaxVisits))
	}

	overall := round(s.weights.TradeVolume*trade + s.weights.Efficiency*efficiency + s.weights.GrowthPotential*growth)
	priority, advice, roi := Classify(overall)

	return model.InvestmentInsight{
		PortID:                p.PortID,
		PortName:              p.PortName,
		PortCountry:           p.PortCountry,
		TradeVolumeScore:      trade,
		EfficiencyScore:       efficiency,
		GrowthPotentialScore:  growth,
		OverallScore:          overall,
		InvestmentPriority:    priority,
		RecommendedInvestment: advice,
		ExpectedROI:           roi,
		ProcessingDate:        p.ProcessingDate,
	}
}

// TradeVolumeScore grades a share of the cohort maximum. Also used for the
// vessels-only growth rule, which shares its steps.
func TradeVolumeScore(r float64) float64 { return atLeastScore(floatRatio(r)) }

// EfficiencyScore grades average stay relative to the shortest in the cohort.
func EfficiencyScore(r float64) float64 { return atMostScore(floatRatio(r)) }

// JointGrowthScore requires both ratios to clear the same step.
func JointGrowthScore(vessels, visits float64) float64 {
	return jointScore(floatRatio(vessels), floatRatio(visits))
}

func atLeastScore(r ratio) float64 {
	for _, st := range atLeastSteps {
		if r.atLeast(st.bound) {
			return st.score
		}
	}
	return minScore
}

func atMostScore(r ratio) float64 {
	for _, st := range atMostSteps {
		if r.atMost(st.bound) {
			return st.score
		}
	}
	return minScore
}

func jointScore(vessels, visits ratio) float64 {
	for _, st := range atLeastSteps {
		if vessels.atLeast(st.bound) && visits.atLeast(st.bound) {
			return st.score
		}
	}
	return minScore
}

// Classify maps an overall score to its tier, advisory and expected ROI.
func Classify(overall float64) (model.Priority, string, float64) {
	switch {
	case overall >= highThreshold:
		return model.PriorityHigh, AdviceHigh, round(15.0 + (overall-highThreshold)*0.5)
	case overall >= mediumThreshold:
		return model.PriorityMedium, AdviceMedium, round(8.0 + (overall-mediumThreshold)*0.35)
	default:
		return model.PriorityLow, AdviceLow, round(3.0 + overall*0.08)
	}
}

// round keeps two decimals, matching DECIMAL(5,2) columns downstream.
func round(v float64) float64 {
	return decimal.NewFromFloat(v).Round(scorePrecision).InexactFloat64()
}
