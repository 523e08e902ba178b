package query

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"github.com/zjrosen/jqlboard/internal/jira"
	"github.com/zjrosen/jqlboard/internal/log"
	"github.com/zjrosen/jqlboard/internal/tracing"
)

// Confidence says how thoroughly a JQL string was checked.
type Confidence int

const (
	// ConfidenceReduced means only offline checks ran.
	ConfidenceReduced Confidence = iota + 1
	// ConfidenceFull means Jira accepted the query.
	ConfidenceFull
)

func (c Confidence) String() string {
	switch c {
	case ConfidenceFull:
		return "full"
	case ConfidenceReduced:
		return "reduced"
	default:
		return "unknown"
	}
}

// Validation is an accepted JQL string.
type Validation struct {
	Message    string
	Confidence Confidence
}

// forbiddenKeywords matches destructive statements as whole words, so field
// names such as "updated" remain legal.
var forbiddenKeywords = regexp.MustCompile(`(?i)\b(DELETE|DROP|UPDATE|INSERT|ALTER|TRUNCATE)\b`)

// sqlSyntax matches SQL-only clauses. ORDER BY is valid JQL and is not
// listed.
var sqlSyntax = regexp.MustCompile(`(?i)\b(SELECT|FROM|WHERE|GROUP\s+BY)\b`)

// Validate checks jql without touching the cache or stats. With a source the
// query is run with a limit of 1; without one only offline checks run.
func (e *Executor) Validate(ctx context.Context, jql string) (v Validation, err error) {
	ctx, span := e.tracer.Start(ctx, tracing.SpanQueryValidate)
	defer func() { tracing.Finish(span, err) }()

	if strings.TrimSpace(jql) == "" {
		return Validation{}, newError(KindRejected, "", ErrEmptyQuery)
	}

	if kw := forbiddenKeywords.FindString(jql); kw != "" {
		kw = strings.ToUpper(kw)
		log.Warn(log.CatJQL, "rejected forbidden keyword", "keyword", kw)
		return Validation{}, newError(KindRejected, "", fmt.Errorf("%w: %s is not allowed", ErrForbiddenKeyword, kw))
	}

	if e.source == nil {
		if m := sqlSyntax.FindString(jql); m != "" {
			return Validation{}, newError(KindRejected, "", fmt.Errorf("%w: found %q", ErrSQLSyntax, m))
		}
		return Validation{
			Message:    "JQL looks correct (full validation requires a Jira connection)",
			Confidence: ConfidenceReduced,
		}, nil
	}

	res, err := callSource(ctx, e.source, jira.SearchRequest{JQL: jql, MaxResults: 1})
	if err != nil {
		log.Debug(log.CatJQL, "live validation failed", "error", err)
		return Validation{}, newError(KindRejected, "", fmt.Errorf("%w: %w", ErrInvalidQuery, err))
	}
	if res.MaxResults <= 0 {
		return Validation{}, newError(KindConfiguration, "", fmt.Errorf("%w: %d", ErrInvalidResultLimit, res.MaxResults))
	}
	span.SetAttributes(attribute.Int(tracing.AttrQueryTotal, res.Total))

	return Validation{Message: "JQL is valid and executable", Confidence: ConfidenceFull}, nil
}
