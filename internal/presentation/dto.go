package presentation

import (
	"cmp"
	"slices"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"

	"github.com/zjrosen/jqlboard/internal/history"
	"github.com/zjrosen/jqlboard/internal/jira"
	"github.com/zjrosen/jqlboard/internal/query"
)

const (
	// MaxSummaryWidth is the display width summaries are truncated to.
	MaxSummaryWidth = 80

	// TimestampLayout is the layout every exported timestamp is rendered in.
	TimestampLayout = "2006-01-02 15:04"

	missingValue = "N/A"
	unassigned   = "Unassigned"
	unknown      = "Unknown"
)

// jiraTimestampLayouts are tried in order when parsing issue timestamps.
var jiraTimestampLayouts = []string{
	"2006-01-02T15:04:05.000-0700",
	time.RFC3339Nano,
	"2006-01-02T15:04:05-0700",
	"2006-01-02",
}

// ExportColumns is the fixed export header.
var ExportColumns = []string{"Key", "Summary", "Status", "Priority", "Assignee", "Created", "Updated"}

// ExportRow is the flat projection of one issue.
type ExportRow struct {
	Key      string `json:"key"`
	Summary  string `json:"summary"`
	Status   string `json:"status"`
	Priority string `json:"priority"`
	Assignee string `json:"assignee"`
	Created  string `json:"created"`
	Updated  string `json:"updated"`
}

// Record returns the row's cells in ExportColumns order.
func (r ExportRow) Record() []string {
	return []string{r.Key, r.Summary, r.Status, r.Priority, r.Assignee, r.Created, r.Updated}
}

// ExportRows projects issues in order. The same input always yields the
// same rows.
func ExportRows(issues []jira.Issue) []ExportRow {
	rows := make([]ExportRow, len(issues))
	for i, issue := range issues {
		rows[i] = ExportRow{
			Key:      issue.Key,
			Summary:  TruncateSummary(issue.Fields.Summary),
			Status:   orDefault(issue.StatusName(), unknown),
			Priority: orDefault(issue.PriorityName(), unknown),
			Assignee: orDefault(issue.AssigneeName(), unassigned),
			Created:  FormatTimestamp(issue.Fields.Created),
			Updated:  FormatTimestamp(issue.Fields.Updated),
		}
	}
	return rows
}

// TruncateSummary shortens s to MaxSummaryWidth display cells, ending it
// with "..." when cut.
func TruncateSummary(s string) string {
	return runewidth.Truncate(strings.TrimSpace(s), MaxSummaryWidth, "...")
}

// FormatTimestamp renders a Jira timestamp with TimestampLayout. Empty input
// renders as "N/A"; unparseable input is returned unchanged.
func FormatTimestamp(raw string) string {
	if raw == "" {
		return missingValue
	}
	for _, layout := range jiraTimestampLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Format(TimestampLayout)
		}
	}
	return raw
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

// Count is one bucket of a summary.
type Count struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// CountBy buckets issues by key, largest bucket first. Ties sort by name.
// Empty keys are counted as "Unknown".
func CountBy(issues []jira.Issue, key func(jira.Issue) string) []Count {
	counts := make(map[string]int)
	for _, issue := range issues {
		counts[orDefault(key(issue), unknown)]++
	}

	out := make([]Count, 0, len(counts))
	for name, n := range counts {
		out = append(out, Count{Name: name, Count: n})
	}
	slices.SortFunc(out, func(a, b Count) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	})
	return out
}

// StatusSummary counts issues by status name.
func StatusSummary(issues []jira.Issue) []Count {
	return CountBy(issues, jira.Issue.StatusName)
}

// PrioritySummary counts issues by priority name.
func PrioritySummary(issues []jira.Issue) []Count {
	return CountBy(issues, jira.Issue.PriorityName)
}

// ProjectSummary counts issues by project key.
func ProjectSummary(issues []jira.Issue) []Count {
	return CountBy(issues, func(i jira.Issue) string {
		if i.Fields.Project == nil {
			return ""
		}
		return i.Fields.Project.Key
	})
}

// QueryRow describes one catalog entry.
type QueryRow struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Category    string   `json:"category"`
	MaxResults  int      `json:"max_results"`
	Tags        []string `json:"tags"`
	Description string   `json:"description,omitempty"`
	JQL         string   `json:"jql"`
}

// QueryRows converts catalog definitions.
func QueryRows(defs []query.Definition) []QueryRow {
	rows := make([]QueryRow, len(defs))
	for i, d := range defs {
		tags := d.Tags
		if tags == nil {
			tags = []string{}
		}
		rows[i] = QueryRow{
			ID:          d.ID,
			Name:        d.Name,
			Category:    string(d.Category),
			MaxResults:  d.MaxResults,
			Tags:        tags,
			Description: d.Description,
			JQL:         d.JQL,
		}
	}
	return rows
}

// StatsRow is one query's execution statistics.
type StatsRow struct {
	QueryID         string  `json:"query_id"`
	Executions      int     `json:"executions"`
	Successful      int     `json:"successful"`
	SuccessRate     float64 `json:"success_rate"`
	AverageMillis   int64   `json:"average_ms"`
	LastResultCount int     `json:"last_result_count"`
	LastExecution   string  `json:"last_execution"`
}

// StatsRows converts executor snapshots.
func StatsRows(stats []query.StatsSnapshot) []StatsRow {
	rows := make([]StatsRow, len(stats))
	for i, s := range stats {
		rows[i] = StatsRow{
			QueryID:         s.QueryID,
			Executions:      s.TotalExecutions,
			Successful:      s.SuccessfulExecutions,
			SuccessRate:     s.SuccessRate,
			AverageMillis:   s.AverageExecutionTime.Milliseconds(),
			LastResultCount: s.LastResultCount,
			LastExecution:   formatTime(s.LastExecution),
		}
	}
	return rows
}

// HistoryRow is one persisted execution attempt.
type HistoryRow struct {
	QueryID     string `json:"query_id"`
	Success     bool   `json:"success"`
	Error       string `json:"error,omitempty"`
	DurationMS  int64  `json:"duration_ms"`
	ResultCount int    `json:"result_count"`
	ExecutedAt  string `json:"executed_at"`
	JQL         string `json:"jql"`
}

// HistoryRows converts history entries.
func HistoryRows(entries []history.Entry) []HistoryRow {
	rows := make([]HistoryRow, len(entries))
	for i, e := range entries {
		rows[i] = HistoryRow{
			QueryID:     e.QueryID,
			Success:     e.Success,
			Error:       e.Error,
			DurationMS:  e.Duration.Milliseconds(),
			ResultCount: e.ResultCount,
			ExecutedAt:  formatTime(e.ExecutedAt),
			JQL:         e.JQL,
		}
	}
	return rows
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return missingValue
	}
	return t.Format(TimestampLayout)
}
