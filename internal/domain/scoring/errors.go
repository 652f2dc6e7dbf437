package scoring

import "errors"

// Sentinel errors for scoring.
var (
	ErrDegenerateCohort = errors.New("degenerate cohort")
	ErrInvalidWeights   = errors.New("invalid scoring weights")
)
