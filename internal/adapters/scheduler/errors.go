package scheduler

import "errors"

var (
	// ErrInvalidSchedule is returned for a cron spec that does not parse.
	ErrInvalidSchedule = errors.New("invalid schedule")
	// ErrAlreadyStarted is returned when Start is called twice.
	ErrAlreadyStarted = errors.New("scheduler already started")
)
