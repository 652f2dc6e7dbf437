package aggregate

import "github.com/okian/portinsight/internal/domain/dedupe"

// Option configures one aggregation run.
type Option func(*settings)

type settings struct {
	maxDurationHours float64
	deduper          dedupe.Deduper
}

// WithMaxDurationHours drops visits longer than h hours. Zero disables the cap.
func WithMaxDurationHours(h float64) Option {
	return func(s *settings) {
		if h > 0 {
			s.maxDurationHours = h
		}
	}
}

// WithDeduper replaces the per-run event id deduper.
func WithDeduper(d dedupe.Deduper) Option {
	return func(s *settings) {
		if d != nil {
			s.deduper = d
		}
	}
}
