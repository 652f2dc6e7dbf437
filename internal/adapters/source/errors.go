package source

import "errors"

// ErrSource is returned when events cannot be read or decoded.
var ErrSource = errors.New("event source failure")
