package service

import (
	"github.com/okian/portinsight/internal/adapters/repository"
	"github.com/okian/portinsight/internal/adapters/source"
	"github.com/okian/portinsight/internal/domain/scoring"
	"github.com/okian/portinsight/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithStore sets where summaries and insights are persisted.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithSource sets where raw events are read from.
func WithSource(src source.Source) Option {
	return func(s *Service) {
		if src != nil {
			s.source = src
		}
	}
}

// WithScorerOptions configures the scorer built by New.
func WithScorerOptions(opts ...scoring.Option) Option {
	return func(s *Service) {
		s.scorerOpts = append(s.scorerOpts, opts...)
	}
}

// WithAnalysisPeriodDays sets the trailing window length.
func WithAnalysisPeriodDays(days int) Option {
	return func(s *Service) {
		s.analysisPeriodDays = days
	}
}

// WithMaxDurationHours drops visits longer than h hours. Zero disables the cap.
func WithMaxDurationHours(h float64) Option {
	return func(s *Service) {
		if h >= 0 {
			s.maxDurationHours = h
		}
	}
}

// WithDedupeSize bounds the event id cache for each aggregation. Zero is unbounded.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size >= 0 {
			s.dedupeSize = size
		}
	}
}

// WithBackfillWorkers caps how many dates a backfill processes at once.
func WithBackfillWorkers(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.backfillWorkers = count
		}
	}
}
