package sqlite

import (
	"database/sql"
	"time"

	"github.com/zjrosen/jqlboard/internal/history"
)

// ExecutionModel is one row of the executions table. Times are Unix
// milliseconds and durations nanoseconds.
type ExecutionModel struct {
	ID          int64
	QueryID     string
	JQL         string
	Success     bool
	Error       sql.NullString
	DurationNS  int64
	ResultCount int
	ExecutedAt  int64
}

func toExecutionModel(e history.Entry) ExecutionModel {
	m := ExecutionModel{
		ID:          e.ID,
		QueryID:     e.QueryID,
		JQL:         e.JQL,
		Success:     e.Success,
		DurationNS:  int64(e.Duration),
		ResultCount: e.ResultCount,
		ExecutedAt:  e.ExecutedAt.UnixMilli(),
	}
	if e.Error != "" {
		m.Error = sql.NullString{String: e.Error, Valid: true}
	}
	return m
}

func (m ExecutionModel) toDomain() history.Entry {
	return history.Entry{
		ID:          m.ID,
		QueryID:     m.QueryID,
		JQL:         m.JQL,
		Success:     m.Success,
		Error:       m.Error.String,
		Duration:    time.Duration(m.DurationNS),
		ResultCount: m.ResultCount,
		ExecutedAt:  time.UnixMilli(m.ExecutedAt),
	}
}
