package repository

import "errors"

// Sentinel kinds for store errors.
var (
	ErrInvalidDate = errors.New("processing date is required")
	ErrStore       = errors.New("store operation failed")
)
