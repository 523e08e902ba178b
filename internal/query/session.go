package query

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/zjrosen/jqlboard/internal/jira"
	"github.com/zjrosen/jqlboard/internal/log"
)

// Session holds one caller's working issue set and pagination. It is not
// safe for concurrent use; the Catalog and Executor it shares are.
type Session struct {
	catalog   *Catalog
	executor  *Executor
	paginator *Paginator
	loader    *BatchLoader

	current *Definition
	issues  []jira.Issue
	state   *PaginationState
	last    *Execution
}

// NewSession wires a session over shared components.
func NewSession(catalog *Catalog, executor *Executor, paginator *Paginator, loader *BatchLoader) *Session {
	return &Session{
		catalog:   catalog,
		executor:  executor,
		paginator: paginator,
		loader:    loader,
	}
}

// Catalog returns the shared catalog.
func (s *Session) Catalog() *Catalog { return s.catalog }

// Executor returns the shared executor.
func (s *Session) Executor() *Executor { return s.executor }

// Run executes def and makes its first page the working set. On failure the
// previous working set is kept.
func (s *Session) Run(ctx context.Context, def Definition, force bool) (*Execution, error) {
	exec, err := s.executor.Execute(ctx, def, ExecuteOptions{ForceRefresh: force})
	if err != nil {
		return nil, err
	}

	state, err := NewPaginationState(exec.Definition.JQL, exec.Total, exec.MaxResults)
	if err != nil {
		return nil, err
	}
	state.StartAt = exec.StartAt

	d := exec.Definition
	s.current = &d
	s.issues = exec.Issues
	s.state = state
	s.last = exec

	log.Debug(log.CatJQL, "session query replaced", "query", d.ID, "issues", len(exec.Issues), "total", exec.Total)
	return exec, nil
}

// RunByID looks id up in the catalog and runs it.
func (s *Session) RunByID(ctx context.Context, id string, force bool) (*Execution, error) {
	def, ok := s.catalog.Get(id)
	if !ok {
		return nil, newError(KindRejected, id, fmt.Errorf("%w: unknown query id %q", ErrInvalidQuery, id))
	}
	return s.Run(ctx, def, force)
}

// RunJQL runs free-form jql outside the catalog. A limit below 1 selects
// DefaultMaxResults.
func (s *Session) RunJQL(ctx context.Context, jql string, limit int, force bool) (*Execution, error) {
	if strings.TrimSpace(jql) == "" {
		return nil, newError(KindRejected, AdhocQueryID, ErrEmptyQuery)
	}
	if limit < 1 {
		limit = DefaultMaxResults
	}
	return s.Run(ctx, Definition{
		ID:         AdhocQueryID,
		Name:       "Ad-hoc query",
		JQL:        jql,
		MaxResults: limit,
		Category:   CategoryCustom,
	}, force)
}

// GoToPage replaces the working set with page. pageSize 0 keeps the current
// size.
func (s *Session) GoToPage(ctx context.Context, page, pageSize int) ([]jira.Issue, error) {
	if s.state == nil {
		return nil, newError(KindConfiguration, "", ErrNoPagination)
	}
	issues, err := s.paginator.GoToPage(ctx, s.state, page, pageSize)
	if err != nil {
		return nil, err
	}
	s.issues = issues
	return issues, nil
}

// NextPage advances one page.
func (s *Session) NextPage(ctx context.Context) ([]jira.Issue, error) {
	issues, err := s.paginator.Next(ctx, s.state)
	if err != nil {
		return nil, err
	}
	s.issues = issues
	return issues, nil
}

// PreviousPage goes back one page.
func (s *Session) PreviousPage(ctx context.Context) ([]jira.Issue, error) {
	issues, err := s.paginator.Previous(ctx, s.state)
	if err != nil {
		return nil, err
	}
	s.issues = issues
	return issues, nil
}

// LoadAll batch-loads up to target issues. Whatever was loaded, even when an
// error stopped the load early, becomes the working set.
func (s *Session) LoadAll(ctx context.Context, target int, progress ProgressFunc) (*BatchResult, error) {
	if s.state == nil {
		return nil, newError(KindConfiguration, "", ErrNoPagination)
	}
	res, err := s.loader.Load(ctx, s.state, target, progress)
	if res != nil && len(res.Issues) > 0 {
		s.issues = res.Issues
	}
	return res, err
}

// ResetPagination leaves batch mode and reloads page 1 with the page size
// in effect before the batch load.
func (s *Session) ResetPagination(ctx context.Context) ([]jira.Issue, error) {
	if s.state == nil {
		return nil, newError(KindConfiguration, "", ErrNoPagination)
	}
	return s.GoToPage(ctx, 1, s.state.navPageSize())
}

// Issues returns a copy of the working set.
func (s *Session) Issues() []jira.Issue {
	return slices.Clone(s.issues)
}

// Pagination returns a copy of the pagination state. The bool is false
// before the first successful run.
func (s *Session) Pagination() (PaginationState, bool) {
	if s.state == nil {
		return PaginationState{}, false
	}
	return *s.state, true
}

// Current returns the definition behind the working set.
func (s *Session) Current() (Definition, bool) {
	if s.current == nil {
		return Definition{}, false
	}
	return s.current.clone(), true
}

// LastExecution returns the most recent successful Run.
func (s *Session) LastExecution() (*Execution, bool) {
	return s.last, s.last != nil
}
