package sqlite

import (
	"context"
	"fmt"

	"github.com/zjrosen/jqlboard/internal/history"
)

const executionColumns = `id, query_id, jql, success, error, duration_ns, result_count, executed_at`

// DefaultRecentLimit caps Recent when called with a non-positive limit.
const DefaultRecentLimit = 20

// historyRepository implements history.Repository using SQLite.
type historyRepository struct {
	db *DB
}

func newHistoryRepository(db *DB) *historyRepository {
	return &historyRepository{db: db}
}

var _ history.Repository = (*historyRepository)(nil)

func scanExecution(scanner interface{ Scan(...any) error }) (ExecutionModel, error) {
	var m ExecutionModel
	err := scanner.Scan(
		&m.ID, &m.QueryID, &m.JQL, &m.Success, &m.Error,
		&m.DurationNS, &m.ResultCount, &m.ExecutedAt,
	)
	return m, err
}

// Record inserts entry. The entry's ID is ignored.
func (r *historyRepository) Record(ctx context.Context, entry history.Entry) error {
	m := toExecutionModel(entry)
	_, err := r.db.conn.ExecContext(ctx,
		`INSERT INTO executions (query_id, jql, success, error, duration_ns, result_count, executed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		m.QueryID, m.JQL, m.Success, m.Error, m.DurationNS, m.ResultCount, m.ExecutedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert execution: %w", err)
	}
	return nil
}

// Recent returns up to limit entries, newest first.
func (r *historyRepository) Recent(ctx context.Context, queryID string, limit int) ([]history.Entry, error) {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}

	query := `SELECT ` + executionColumns + ` FROM executions`
	args := []any{}
	if queryID != "" {
		query += ` WHERE query_id = ?`
		args = append(args, queryID)
	}
	query += ` ORDER BY executed_at DESC, id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := r.db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query executions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	entries := []history.Entry{}
	for rows.Next() {
		m, err := scanExecution(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan execution: %w", err)
		}
		entries = append(entries, m.toDomain())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate executions: %w", err)
	}
	return entries, nil
}

// Close closes the underlying database.
func (r *historyRepository) Close() error {
	return r.db.Close()
}
