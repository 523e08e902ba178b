package query

import (
	"errors"
	"fmt"
)

// ErrorKind classifies failures so callers can decide how to react without
// string matching.
type ErrorKind int

const (
	// KindConfiguration means the executor or its inputs are misconfigured.
	// Retrying will not help.
	KindConfiguration ErrorKind = iota + 1
	// KindRejected means the request was refused before reaching Jira.
	KindRejected
	// KindSource means Jira (or the transport) failed.
	KindSource
)

func (k ErrorKind) String() string {
	switch k {
	case KindConfiguration:
		return "configuration"
	case KindRejected:
		return "rejected"
	case KindSource:
		return "source"
	default:
		return "unknown"
	}
}

// Configuration errors.
var (
	ErrSourceUnavailable  = errors.New("jira client not available")
	ErrInvalidResultLimit = errors.New("source reported a non-positive result limit")
	ErrInvalidPageSize    = errors.New("page size must be at least 1")
	ErrNoPagination       = errors.New("no query has been run yet")
)

// Rejections.
var (
	ErrEmptyQuery       = errors.New("JQL cannot be empty")
	ErrForbiddenKeyword = errors.New("forbidden keyword")
	ErrSQLSyntax        = errors.New("JQL must not contain SQL syntax")
	ErrPageOutOfRange   = errors.New("page out of range")
	ErrInvalidQuery     = errors.New("invalid query definition")
)

// Error is the failure type returned by Executor, Paginator and BatchLoader.
type Error struct {
	Kind    ErrorKind
	QueryID string
	Err     error
}

func (e *Error) Error() string {
	if e.QueryID == "" {
		return fmt.Sprintf("%s error: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("query %s: %s error: %v", e.QueryID, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func newError(kind ErrorKind, queryID string, err error) *Error {
	return &Error{Kind: kind, QueryID: queryID, Err: err}
}

// KindOf returns the ErrorKind of err, or 0 if err is not an *Error.
func KindOf(err error) ErrorKind {
	var qe *Error
	if errors.As(err, &qe) {
		return qe.Kind
	}
	return 0
}

// IsConfigurationError reports whether err is a configuration failure.
func IsConfigurationError(err error) bool { return KindOf(err) == KindConfiguration }

// IsRejected reports whether err was refused before reaching Jira.
func IsRejected(err error) bool { return KindOf(err) == KindRejected }

// IsSourceFailure reports whether err came from Jira or the transport.
func IsSourceFailure(err error) bool { return KindOf(err) == KindSource }
