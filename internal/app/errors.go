package service

import "errors"

var (
	// ErrInvalidDate is returned for a zero processing date or an inverted range.
	ErrInvalidDate = errors.New("invalid processing date")
	// ErrBackfill is returned when one or more backfill dates failed.
	ErrBackfill = errors.New("backfill incomplete")
)
