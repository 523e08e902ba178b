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

// DefaultBatchPageSize is the page size used for batch loads.
const DefaultBatchPageSize = 100

// Progress is reported after every page of a batch load.
type Progress struct {
	Page   int
	Loaded int
	Target int
}

// ProgressFunc receives batch progress. It runs on the loading goroutine.
type ProgressFunc func(Progress)

// BatchResult is the outcome of a batch load. It is returned alongside an
// error when the load stopped early, holding whatever was fetched.
type BatchResult struct {
	Issues []jira.Issue
	Target int
	Pages  int
}

// Complete reports whether the load reached its target.
func (r *BatchResult) Complete() bool {
	return len(r.Issues) >= r.Target
}

// BatchLoader accumulates a large result set page by page.
type BatchLoader struct {
	source   Source
	pageSize int
	tracer   trace.Tracer
}

// NewBatchLoader creates a loader. A pageSize below 1 selects
// DefaultBatchPageSize.
func NewBatchLoader(source Source, pageSize int) *BatchLoader {
	if pageSize < 1 {
		pageSize = DefaultBatchPageSize
	}
	return &BatchLoader{source: source, pageSize: pageSize, tracer: otel.Tracer(tracerName)}
}

// Load fetches up to target issues (capped at state.Total) for state.JQL in
// ascending offset order. It stops at the first short page, the first error
// or when ctx is done. When at least one issue was loaded, state is switched
// to batch mode covering the loaded issues.
func (b *BatchLoader) Load(ctx context.Context, state *PaginationState, target int, progress ProgressFunc) (result *BatchResult, err error) {
	ctx, span := b.tracer.Start(ctx, tracing.SpanQueryBatch)
	defer func() { tracing.Finish(span, err) }()

	if state == nil {
		return nil, newError(KindConfiguration, "", ErrNoPagination)
	}
	if b.source == nil {
		return nil, newError(KindConfiguration, "", ErrSourceUnavailable)
	}

	target = max(min(target, state.Total), 0)
	size := min(b.pageSize, target)
	result = &BatchResult{Issues: []jira.Issue{}, Target: target}
	span.SetAttributes(attribute.Int(tracing.AttrBatchTarget, target), attribute.Int(tracing.AttrPageSize, size))

	defer func() {
		span.SetAttributes(attribute.Int(tracing.AttrBatchPages, result.Pages), attribute.Int(tracing.AttrQueryResultCount, len(result.Issues)))
		if len(result.Issues) > 0 {
			enterBatchMode(state, len(result.Issues))
		}
	}()

	for offset := 0; offset < target; offset += size {
		if err := ctx.Err(); err != nil {
			log.Info(log.CatPager, "batch load cancelled", "loaded", len(result.Issues), "target", target)
			span.AddEvent(tracing.EventBatchStopped)
			return result, err
		}

		want := min(size, target-offset)
		res, err := callSource(ctx, b.source, jira.SearchRequest{JQL: state.JQL, MaxResults: want, StartAt: offset})
		if err != nil {
			log.ErrorErr(log.CatPager, "batch page failed", err, "startAt", offset, "loaded", len(result.Issues))
			span.AddEvent(tracing.EventBatchStopped)
			return result, newError(KindSource, "", err)
		}
		if res.MaxResults <= 0 {
			return result, newError(KindConfiguration, "", fmt.Errorf("%w: %d", ErrInvalidResultLimit, res.MaxResults))
		}

		page := res.Issues[:min(len(res.Issues), want)]
		result.Issues = append(result.Issues, page...)
		result.Pages++
		if progress != nil {
			progress(Progress{Page: result.Pages, Loaded: len(result.Issues), Target: target})
		}

		if len(page) < want {
			log.Debug(log.CatPager, "short page, stopping", "startAt", offset, "want", want, "got", len(page))
			span.AddEvent(tracing.EventBatchStopped)
			break
		}
	}

	log.Info(log.CatPager, "batch load finished", "loaded", len(result.Issues), "target", target, "pages", result.Pages)
	return result, nil
}

func enterBatchMode(state *PaginationState, loaded int) {
	if !state.BatchLoaded {
		state.pageSizeBeforeBatch = state.PageSize
	}
	state.BatchLoaded = true
	state.StartAt = 0
	state.PageSize = loaded
}
