package aggregate

import "errors"

// ErrInput marks a missing or malformed aggregation parameter.
var ErrInput = errors.New("invalid aggregation input")
