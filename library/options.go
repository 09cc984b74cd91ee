package library

import (
	"io"
	"log/slog"
	"time"
)

// Option configures a LibraryService.
type Option func(*LibraryService)

// WithClock replaces time.Now for every loan the service creates.
func WithClock(now func() time.Time) Option {
	return func(s *LibraryService) {
		if now != nil {
			s.now = now
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *LibraryService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithJournal records every circulation change in j.
func WithJournal(j Journal) Option {
	return func(s *LibraryService) {
		if j != nil {
			s.journal = j
		}
	}
}

func WithMetrics(m *Metrics) Option {
	return func(s *LibraryService) {
		s.metrics = m
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
