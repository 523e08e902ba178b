package query

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/zjrosen/jqlboard/internal/jira"
	"github.com/zjrosen/jqlboard/internal/log"
	"github.com/zjrosen/jqlboard/internal/tracing"
)

// PaginationState tracks where the current working set sits in the full
// result set.
type PaginationState struct {
	Total       int
	StartAt     int
	PageSize    int
	JQL         string
	BatchLoaded bool

	// pageSizeBeforeBatch is the page size in effect before a batch load,
	// restored when leaving batch mode.
	pageSizeBeforeBatch int
}

// navPageSize is the page size used when navigating without an explicit
// size. Leaving batch mode falls back to the size in effect before it.
func (s PaginationState) navPageSize() int {
	if s.BatchLoaded && s.pageSizeBeforeBatch > 0 {
		return s.pageSizeBeforeBatch
	}
	return s.PageSize
}

// NewPaginationState returns a state positioned at the first page.
func NewPaginationState(jql string, total, pageSize int) (*PaginationState, error) {
	if pageSize < 1 {
		return nil, newError(KindConfiguration, "", fmt.Errorf("%w: got %d", ErrInvalidPageSize, pageSize))
	}
	return &PaginationState{Total: max(total, 0), PageSize: pageSize, JQL: jql}, nil
}

// HasMore reports whether results exist past the current page.
func (s PaginationState) HasMore() bool {
	return s.StartAt+s.PageSize < s.Total
}

// CurrentPage is the 1-based page number of StartAt.
func (s PaginationState) CurrentPage() int {
	if s.PageSize < 1 {
		return 1
	}
	return s.StartAt/s.PageSize + 1
}

// TotalPages is the number of pages of PageSize needed to cover Total.
func (s PaginationState) TotalPages() int {
	return pageCount(s.Total, s.PageSize)
}

// ShowingRange returns the 1-based inclusive range of the current page.
// Both values are 0 when there are no results or StartAt is past the end,
// which happens when a refresh reports a smaller Total.
func (s PaginationState) ShowingRange() (from, to int) {
	if s.Total == 0 || s.StartAt >= s.Total {
		return 0, 0
	}
	return s.StartAt + 1, min(s.StartAt+s.PageSize, s.Total)
}

func pageCount(total, size int) int {
	if size < 1 || total <= 0 {
		return 0
	}
	return (total + size - 1) / size
}

// Paginator replaces the working set with a single page fetched from the
// source.
type Paginator struct {
	source Source
	tracer trace.Tracer
}

// NewPaginator creates a paginator over source.
func NewPaginator(source Source) *Paginator {
	return &Paginator{source: source, tracer: otel.Tracer(tracerName)}
}

// GoToPage fetches page (1-based) and updates state on success. A pageSize of
// 0 keeps the state's current size, or the pre-batch size in batch mode. On
// failure state is left untouched.
func (p *Paginator) GoToPage(ctx context.Context, state *PaginationState, page, pageSize int) (issues []jira.Issue, err error) {
	ctx, span := p.tracer.Start(ctx, tracing.SpanQueryPage)
	defer func() { tracing.Finish(span, err) }()

	if state == nil {
		return nil, newError(KindConfiguration, "", ErrNoPagination)
	}
	if pageSize < 0 {
		return nil, newError(KindConfiguration, "", fmt.Errorf("%w: got %d", ErrInvalidPageSize, pageSize))
	}
	if pageSize == 0 {
		pageSize = state.navPageSize()
	}
	if pageSize < 1 {
		return nil, newError(KindConfiguration, "", fmt.Errorf("%w: got %d", ErrInvalidPageSize, pageSize))
	}

	last := max(pageCount(state.Total, pageSize), 1)
	if page < 1 || page > last {
		return nil, newError(KindRejected, "", fmt.Errorf("%w: page %d of %d", ErrPageOutOfRange, page, last))
	}
	if p.source == nil {
		return nil, newError(KindConfiguration, "", ErrSourceUnavailable)
	}

	startAt := (page - 1) * pageSize
	span.SetAttributes(
		attribute.Int(tracing.AttrPageNumber, page),
		attribute.Int(tracing.AttrPageStartAt, startAt),
		attribute.Int(tracing.AttrPageSize, pageSize),
	)

	res, err := callSource(ctx, p.source, jira.SearchRequest{JQL: state.JQL, MaxResults: pageSize, StartAt: startAt})
	if err != nil {
		log.ErrorErr(log.CatPager, "page fetch failed", err, "page", page, "startAt", startAt)
		return nil, newError(KindSource, "", err)
	}
	if res.MaxResults <= 0 {
		return nil, newError(KindConfiguration, "", fmt.Errorf("%w: %d", ErrInvalidResultLimit, res.MaxResults))
	}

	state.StartAt = startAt
	state.PageSize = pageSize
	state.Total = max(res.Total, 0)
	state.BatchLoaded = false

	log.Debug(log.CatPager, "page loaded", "page", page, "startAt", startAt, "size", pageSize, "returned", len(res.Issues), "total", state.Total)
	return res.Issues, nil
}

// Next moves to the page after the current one.
func (p *Paginator) Next(ctx context.Context, state *PaginationState) ([]jira.Issue, error) {
	if state == nil {
		return nil, newError(KindConfiguration, "", ErrNoPagination)
	}
	size := state.navPageSize()
	if size < 1 || state.StartAt+size >= state.Total {
		return nil, newError(KindRejected, "", fmt.Errorf("%w: already on the last page", ErrPageOutOfRange))
	}
	return p.GoToPage(ctx, state, state.StartAt/size+2, size)
}

// Previous moves to the page before the current one.
func (p *Paginator) Previous(ctx context.Context, state *PaginationState) ([]jira.Issue, error) {
	if state == nil {
		return nil, newError(KindConfiguration, "", ErrNoPagination)
	}
	size := state.navPageSize()
	if size < 1 || state.StartAt/size < 1 {
		return nil, newError(KindRejected, "", fmt.Errorf("%w: already on the first page", ErrPageOutOfRange))
	}
	return p.GoToPage(ctx, state, state.StartAt/size, size)
}
