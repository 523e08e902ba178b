package query

import (
	"context"
	"time"

	"github.com/zjrosen/jqlboard/internal/history"
	"github.com/zjrosen/jqlboard/internal/jira"
)

// Source fetches one page of issues for a JQL string. *jira.Client
// satisfies it.
type Source interface {
	Search(ctx context.Context, req jira.SearchRequest) (*jira.SearchResult, error)
}

// Recorder receives every execution attempt that reached the Source.
type Recorder interface {
	Record(ctx context.Context, entry history.Entry) error
}

// Clock abstracts time so cache expiry and stats timestamps can be tested.
type Clock interface {
	Now() time.Time
}

// RealClock returns the actual current time.
type RealClock struct{}

// Now returns the current time.
func (RealClock) Now() time.Time { return time.Now() }
