package presentation

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/zjrosen/jqlboard/internal/history"
	"github.com/zjrosen/jqlboard/internal/jira"
	"github.com/zjrosen/jqlboard/internal/query"
)

// Format selects how a Formatter renders output.
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatCSV   Format = "csv"
)

// ParseFormat maps a flag value to a Format. Empty selects FormatTable.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatTable:
		return FormatTable, nil
	case FormatJSON:
		return FormatJSON, nil
	case FormatCSV:
		return FormatCSV, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want table, json or csv)", s)
	}
}

// Formatter handles output formatting
type Formatter struct {
	writer io.Writer
	format Format
	header lipgloss.Style
	cell   lipgloss.Style
	muted  lipgloss.Style
}

// NewFormatter creates a new formatter. Colors follow the capabilities of
// writer, so buffers and pipes get plain text.
func NewFormatter(writer io.Writer, format Format) *Formatter {
	r := lipgloss.NewRenderer(writer)
	return &Formatter{
		writer: writer,
		format: format,
		header: r.NewStyle().Bold(true).Foreground(lipgloss.Color("12")).Padding(0, 1),
		cell:   r.NewStyle().Padding(0, 1),
		muted:  r.NewStyle().Foreground(lipgloss.Color("8")),
	}
}

// Format returns the configured output format.
func (f *Formatter) Format() Format { return f.format }

// FormatIssues writes the export projection of issues.
func (f *Formatter) FormatIssues(issues []jira.Issue) error {
	rows := ExportRows(issues)
	return f.render(rows, ExportColumns, func(yield func([]string)) {
		for _, r := range rows {
			yield(r.Record())
		}
	})
}

// FormatQueries writes catalog entries.
func (f *Formatter) FormatQueries(defs []query.Definition) error {
	rows := QueryRows(defs)
	return f.render(rows, []string{"ID", "Name", "Category", "Limit", "Tags", "JQL"}, func(yield func([]string)) {
		for _, r := range rows {
			yield([]string{r.ID, r.Name, r.Category, strconv.Itoa(r.MaxResults), strings.Join(r.Tags, ","), r.JQL})
		}
	})
}

// FormatStats writes per-query execution statistics.
func (f *Formatter) FormatStats(stats []query.StatsSnapshot) error {
	rows := StatsRows(stats)
	return f.render(rows, []string{"Query", "Runs", "OK", "Success", "Avg", "Last count", "Last run"}, func(yield func([]string)) {
		for _, r := range rows {
			yield([]string{
				r.QueryID,
				strconv.Itoa(r.Executions),
				strconv.Itoa(r.Successful),
				fmt.Sprintf("%.0f%%", r.SuccessRate*100),
				fmt.Sprintf("%dms", r.AverageMillis),
				strconv.Itoa(r.LastResultCount),
				r.LastExecution,
			})
		}
	})
}

// FormatHistory writes persisted execution attempts.
func (f *Formatter) FormatHistory(entries []history.Entry) error {
	rows := HistoryRows(entries)
	return f.render(rows, []string{"When", "Query", "Result", "Count", "Duration", "Error"}, func(yield func([]string)) {
		for _, r := range rows {
			result := "ok"
			if !r.Success {
				result = "failed"
			}
			yield([]string{r.ExecutedAt, r.QueryID, result, strconv.Itoa(r.ResultCount), fmt.Sprintf("%dms", r.DurationMS), r.Error})
		}
	})
}

// FormatSummary writes a count summary under title.
func (f *Formatter) FormatSummary(title string, counts []Count) error {
	if f.format == FormatTable {
		if _, err := fmt.Fprintln(f.writer, f.muted.Render(title)); err != nil {
			return err
		}
	}
	return f.render(counts, []string{title, "Count"}, func(yield func([]string)) {
		for _, c := range counts {
			yield([]string{c.Name, strconv.Itoa(c.Count)})
		}
	})
}

// FormatCacheInfo writes cache occupancy.
func (f *Formatter) FormatCacheInfo(info query.CacheInfo) error {
	if f.format == FormatJSON {
		return f.writeJSON(struct {
			Entries    int     `json:"entries"`
			Issues     int     `json:"cached_issues"`
			TTLMinutes float64 `json:"ttl_minutes"`
		}{info.EntryCount, info.TotalCachedIssues, info.TTLMinutes})
	}
	return f.render(nil, []string{"Entries", "Cached issues", "TTL (min)"}, func(yield func([]string)) {
		yield([]string{
			strconv.Itoa(info.EntryCount),
			strconv.Itoa(info.TotalCachedIssues),
			strconv.FormatFloat(info.TTLMinutes, 'f', -1, 64),
		})
	})
}

// FormatPagination writes a one-line cursor description such as
// "Showing 101-200 of 250 (page 2/3)".
func (f *Formatter) FormatPagination(state query.PaginationState) error {
	if f.format == FormatJSON {
		from, to := state.ShowingRange()
		return f.writeJSON(struct {
			Total      int  `json:"total"`
			StartAt    int  `json:"start_at"`
			PageSize   int  `json:"page_size"`
			Page       int  `json:"page"`
			TotalPages int  `json:"total_pages"`
			From       int  `json:"from"`
			To         int  `json:"to"`
			HasMore    bool `json:"has_more"`
			Batch      bool `json:"batch_loaded"`
		}{state.Total, state.StartAt, state.PageSize, state.CurrentPage(), state.TotalPages(), from, to, state.HasMore(), state.BatchLoaded})
	}
	_, err := fmt.Fprintln(f.writer, f.muted.Render(DescribePagination(state)))
	return err
}

// DescribePagination renders the cursor as a short human string.
func DescribePagination(state query.PaginationState) string {
	if state.Total == 0 {
		return "No results"
	}
	from, to := state.ShowingRange()
	s := fmt.Sprintf("Showing %d-%d of %d (page %d/%d)", from, to, state.Total, state.CurrentPage(), state.TotalPages())
	if state.BatchLoaded {
		s += " [batch]"
	}
	return s
}

// render dispatches on the configured format. jsonValue is encoded as-is
// for FormatJSON; records feeds the CSV and table renderers.
func (f *Formatter) render(jsonValue any, headers []string, records func(yield func([]string))) error {
	switch f.format {
	case FormatJSON:
		return f.writeJSON(jsonValue)
	case FormatCSV:
		return f.writeCSV(headers, records)
	default:
		return f.writeTable(headers, records)
	}
}

func (f *Formatter) writeJSON(v any) error {
	encoder := json.NewEncoder(f.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func (f *Formatter) writeCSV(headers []string, records func(yield func([]string))) error {
	w := csv.NewWriter(f.writer)
	if err := w.Write(headers); err != nil {
		return fmt.Errorf("writing csv header: %w", err)
	}
	var writeErr error
	records(func(rec []string) {
		if writeErr == nil {
			writeErr = w.Write(rec)
		}
	})
	if writeErr != nil {
		return fmt.Errorf("writing csv record: %w", writeErr)
	}
	w.Flush()
	return w.Error()
}

func (f *Formatter) writeTable(headers []string, records func(yield func([]string))) error {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(f.muted).
		Headers(headers...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return f.header
			}
			return f.cell
		})
	records(func(rec []string) { t.Row(rec...) })

	_, err := fmt.Fprintln(f.writer, t.Render())
	return err
}
