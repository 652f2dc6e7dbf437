package scoring

import (
	"fmt"
	"math"
)

// GrowthMode selects how the growth potential sub-score is derived.
type GrowthMode string

const (
	// GrowthJoint requires the vessel and visit ratios to clear a step together.
	GrowthJoint GrowthMode = "joint"
	// GrowthVesselsOnly scores growth from the distinct vessel ratio alone.
	GrowthVesselsOnly GrowthMode = "vessels"
)

// ParseGrowthMode accepts "joint" or "vessels"; empty means joint.
func ParseGrowthMode(s string) (GrowthMode, error) {
	switch GrowthMode(s) {
	case "", GrowthJoint:
		return GrowthJoint, nil
	case GrowthVesselsOnly:
		return GrowthVesselsOnly, nil
	}
	return "", fmt.Errorf("unknown growth mode %q", s)
}

// Weights are the composite score coefficients.
type Weights struct {
	TradeVolume     float64
	Efficiency      float64
	GrowthPotential float64
}

// DefaultWeights is the 40/30/30 rubric.
var DefaultWeights = Weights{TradeVolume: 0.4, Efficiency: 0.3, GrowthPotential: 0.3}

const weightSumTolerance = 1e-9

// Validate checks the weights are non-negative and sum to one, which keeps
// the overall score inside [0, 100].
func (w Weights) Validate() error {
	for _, v := range []float64{w.TradeVolume, w.Efficiency, w.GrowthPotential} {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %+v", ErrInvalidWeights, w)
		}
	}
	if sum := w.TradeVolume + w.Efficiency + w.GrowthPotential; math.Abs(sum-1) > weightSumTolerance {
		return fmt.Errorf("%w: weights sum to %v", ErrInvalidWeights, sum)
	}
	return nil
}

// Option applies a configuration option to the Scorer.
type Option func(*Scorer)

// WithGrowthMode selects the growth potential formula.
func WithGrowthMode(mode GrowthMode) Option {
	return func(s *Scorer) {
		if mode == GrowthJoint || mode == GrowthVesselsOnly {
			s.growth = mode
		}
	}
}

// WithWeights overrides the composite weights. Invalid weights surface from New.
func WithWeights(w Weights) Option {
	return func(s *Scorer) {
		s.weights = w
	}
}
