// Package history defines the execution history record and the repository
// that stores it.
package history

import (
	"context"
	"time"
)

// Entry records one query execution attempt that reached Jira.
type Entry struct {
	ID          int64
	QueryID     string
	JQL         string
	Success     bool
	Error       string
	Duration    time.Duration
	ResultCount int
	ExecutedAt  time.Time
}

// Repository persists execution history.
type Repository interface {
	// Record appends an entry.
	Record(ctx context.Context, entry Entry) error

	// Recent returns up to limit entries, newest first. An empty queryID
	// returns entries for every query.
	Recent(ctx context.Context, queryID string, limit int) ([]Entry, error)

	// Close releases any resources held by the repository.
	Close() error
}

// Summary aggregates a slice of entries.
type Summary struct {
	Runs        int
	Failures    int
	AvgDuration time.Duration
	LastRun     time.Time
}

// Summarize aggregates entries into a Summary.
func Summarize(entries []Entry) Summary {
	var s Summary
	var total time.Duration
	for _, e := range entries {
		s.Runs++
		if !e.Success {
			s.Failures++
		}
		total += e.Duration
		if e.ExecutedAt.After(s.LastRun) {
			s.LastRun = e.ExecutedAt
		}
	}
	if s.Runs > 0 {
		s.AvgDuration = total / time.Duration(s.Runs)
	}
	return s
}
