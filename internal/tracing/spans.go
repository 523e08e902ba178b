package tracing

import (
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Span names.
const (
	SpanQueryExecute  = "query.execute"
	SpanQueryValidate = "query.validate"
	SpanQueryPage     = "query.page"
	SpanQueryBatch    = "query.batch"
)

// Span attribute keys.
const (
	AttrQueryID          = "query.id"
	AttrQueryCached      = "query.cached"
	AttrQueryResultCount = "query.result_count"
	AttrQueryTotal       = "query.total"
	AttrPageStartAt      = "page.start_at"
	AttrPageSize         = "page.size"
	AttrPageNumber       = "page.number"
	AttrBatchTarget      = "batch.target"
	AttrBatchPages       = "batch.pages"
	AttrErrorKind        = "error.kind"
)

// Event names.
const (
	EventCacheHit     = "cache.hit"
	EventPageFetched  = "page.fetched"
	EventBatchStopped = "batch.stopped"
)

// Finish records err on span, sets its status and ends it.
func Finish(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
