package query

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/zjrosen/jqlboard/internal/jira"
)

// fakeClock is a settable Clock.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func makeIssues(from, n int) []jira.Issue {
	out := make([]jira.Issue, n)
	for i := range n {
		key := fmt.Sprintf("BAU-%d", from+i+1)
		out[i] = jira.Issue{ID: fmt.Sprint(10000 + from + i), Key: key}
	}
	return out
}

func issueKeys(issues []jira.Issue) []string {
	keys := make([]string, len(issues))
	for i, is := range issues {
		keys[i] = is.Key
	}
	return keys
}

// pagedSource serves a fixed result set of total issues page by page.
type pagedSource struct {
	mu       sync.Mutex
	total    int
	requests []jira.SearchRequest
	failAt   int // StartAt that returns an error; -1 disables
	hook     func(req jira.SearchRequest)
}

func newPagedSource(total int) *pagedSource {
	return &pagedSource{total: total, failAt: -1}
}

func (s *pagedSource) Search(_ context.Context, req jira.SearchRequest) (*jira.SearchResult, error) {
	s.mu.Lock()
	s.requests = append(s.requests, req)
	hook := s.hook
	s.mu.Unlock()

	if hook != nil {
		hook(req)
	}
	if req.StartAt == s.failAt {
		return nil, fmt.Errorf("jira: HTTP 503: unavailable")
	}

	n := max(min(req.MaxResults, s.total-req.StartAt), 0)
	return &jira.SearchResult{
		Issues:     makeIssues(req.StartAt, n),
		Total:      s.total,
		StartAt:    req.StartAt,
		MaxResults: req.MaxResults,
	}, nil
}

func (s *pagedSource) calls() []jira.SearchRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]jira.SearchRequest(nil), s.requests...)
}
