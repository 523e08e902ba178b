package query

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/zjrosen/jqlboard/internal/history"
	"github.com/zjrosen/jqlboard/internal/jira"
	"github.com/zjrosen/jqlboard/internal/log"
	"github.com/zjrosen/jqlboard/internal/tracing"
)

const tracerName = "github.com/zjrosen/jqlboard/internal/query"

// ExecuteOptions tunes a single Execute call.
type ExecuteOptions struct {
	// ForceRefresh bypasses the cache read. The fresh result is still cached.
	ForceRefresh bool
}

// Execution is a successful query run.
type Execution struct {
	Definition Definition
	Issues     []jira.Issue
	Total      int
	StartAt    int
	MaxResults int
	Cached     bool
	// Duration is zero for cache hits.
	Duration time.Duration
	// Timestamp is the fetch time, which for cache hits is when the entry
	// was stored.
	Timestamp time.Time
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithClock sets the clock used for timing, stats and cache expiry.
func WithClock(clock Clock) ExecutorOption {
	return func(e *Executor) { e.clock = clock }
}

// WithRecorder sends every attempt that reaches the source to r.
func WithRecorder(r Recorder) ExecutorOption {
	return func(e *Executor) { e.recorder = r }
}

// WithTracer overrides the tracer taken from the global provider.
func WithTracer(t trace.Tracer) ExecutorOption {
	return func(e *Executor) { e.tracer = t }
}

// Executor runs definitions through the cache and the source and keeps
// per-query stats. It is safe for concurrent use.
type Executor struct {
	source   Source
	cache    *Cache
	stats    *statsBook
	clock    Clock
	recorder Recorder
	tracer   trace.Tracer
}

// NewExecutor creates an executor. source may be nil, in which case every
// cache miss fails with ErrSourceUnavailable. A nil cache selects an
// in-memory cache with DefaultCacheTTL.
func NewExecutor(source Source, cache *Cache, opts ...ExecutorOption) *Executor {
	e := &Executor{
		source: source,
		stats:  newStatsBook(),
		clock:  RealClock{},
		tracer: otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(e)
	}
	if cache == nil {
		cache = NewMemoryCache(DefaultCacheTTL, e.clock)
	}
	e.cache = cache
	return e
}

// HasSource reports whether a source is configured.
func (e *Executor) HasSource() bool { return e.source != nil }

// Execute runs def, serving a cached result when one is valid.
func (e *Executor) Execute(ctx context.Context, def Definition, opts ExecuteOptions) (exec *Execution, err error) {
	ctx, span := e.tracer.Start(ctx, tracing.SpanQueryExecute,
		trace.WithAttributes(attribute.String(tracing.AttrQueryID, def.ID)))
	defer func() { tracing.Finish(span, err) }()

	if def.MaxResults <= 0 {
		def.MaxResults = DefaultMaxResults
	}
	key := NewCacheKey(def)

	if !opts.ForceRefresh {
		if entry, ok := e.cache.Get(ctx, key); ok {
			span.AddEvent(tracing.EventCacheHit)
			span.SetAttributes(
				attribute.Bool(tracing.AttrQueryCached, true),
				attribute.Int(tracing.AttrQueryResultCount, len(entry.Issues)),
			)
			log.Debug(log.CatJQL, "cache hit", "query", def.ID, "issues", len(entry.Issues))
			return &Execution{
				Definition: def,
				Issues:     entry.Issues,
				Total:      entry.Total,
				StartAt:    entry.StartAt,
				MaxResults: entry.MaxResults,
				Cached:     true,
				Timestamp:  entry.FetchedAt,
			}, nil
		}
	}
	span.SetAttributes(attribute.Bool(tracing.AttrQueryCached, false))

	if e.source == nil {
		log.Warn(log.CatJQL, "no source configured", "query", def.ID)
		return nil, newError(KindConfiguration, def.ID, ErrSourceUnavailable)
	}

	start := e.clock.Now()
	res, err := callSource(ctx, e.source, jira.SearchRequest{JQL: def.JQL, MaxResults: def.MaxResults})
	elapsed := e.clock.Now().Sub(start)

	if err != nil {
		e.recordAttempt(ctx, def, elapsed, 0, err)
		log.ErrorErr(log.CatJQL, "query failed", err, "query", def.ID, "elapsed", elapsed)
		return nil, newError(KindSource, def.ID, err)
	}
	if res.MaxResults <= 0 {
		e.recordAttempt(ctx, def, elapsed, 0, ErrInvalidResultLimit)
		log.Error(log.CatJQL, "source returned invalid maxResults", "query", def.ID, "maxResults", res.MaxResults)
		return nil, newError(KindConfiguration, def.ID, fmt.Errorf("%w: %d", ErrInvalidResultLimit, res.MaxResults))
	}

	entry := e.cache.Put(ctx, key, CacheEntry{
		Issues:     res.Issues,
		Total:      max(res.Total, 0),
		StartAt:    max(res.StartAt, 0),
		MaxResults: res.MaxResults,
	})
	e.recordAttempt(ctx, def, elapsed, len(res.Issues), nil)

	span.SetAttributes(
		attribute.Int(tracing.AttrQueryResultCount, len(entry.Issues)),
		attribute.Int(tracing.AttrQueryTotal, entry.Total),
	)
	log.Info(log.CatJQL, "query executed", "query", def.ID, "issues", len(entry.Issues), "total", entry.Total, "elapsed", elapsed)

	return &Execution{
		Definition: def,
		Issues:     entry.Issues,
		Total:      entry.Total,
		StartAt:    entry.StartAt,
		MaxResults: entry.MaxResults,
		Duration:   elapsed,
		Timestamp:  entry.FetchedAt,
	}, nil
}

func (e *Executor) recordAttempt(ctx context.Context, def Definition, elapsed time.Duration, count int, attemptErr error) {
	now := e.clock.Now()
	e.stats.record(def.ID, elapsed, count, attemptErr == nil, now)

	if e.recorder == nil {
		return
	}
	entry := history.Entry{
		QueryID:     def.ID,
		JQL:         def.JQL,
		Success:     attemptErr == nil,
		Duration:    elapsed,
		ResultCount: count,
		ExecutedAt:  now,
	}
	if attemptErr != nil {
		entry.Error = attemptErr.Error()
	}
	if err := e.recorder.Record(ctx, entry); err != nil {
		log.ErrorErr(log.CatDB, "failed to record execution", err, "query", def.ID)
	}
}

// callSource invokes src and converts a panic into an error. A nil result
// without an error is treated as a failure.
func callSource(ctx context.Context, src Source, req jira.SearchRequest) (res *jira.SearchResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			res = nil
			err = fmt.Errorf("source panicked: %v", r)
		}
	}()

	res, err = src.Search(ctx, req)
	if err == nil && res == nil {
		err = errors.New("source returned no result")
	}
	return res, err
}

// Stats returns the stats for id. The bool is false when id was never
// attempted.
func (e *Executor) Stats(id string) (StatsSnapshot, bool) {
	return e.stats.get(id)
}

// AllStats returns stats for every attempted query, sorted by id.
func (e *Executor) AllStats() []StatsSnapshot {
	return e.stats.all()
}

// ClearCache drops every cached result.
func (e *Executor) ClearCache(ctx context.Context) error {
	return e.cache.Clear(ctx)
}

// CacheInfo summarises the result cache.
func (e *Executor) CacheInfo(ctx context.Context) CacheInfo {
	return e.cache.Info(ctx)
}
