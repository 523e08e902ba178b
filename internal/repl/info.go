package repl

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"

	"github.com/zjrosen/jqlboard/internal/presentation"
	"github.com/zjrosen/jqlboard/internal/query"
)

const historyLimit = 20

var errNoJira = errors.New("jira is not configured")

func (r *REPL) cmdStats(_ context.Context, args []string) error {
	executor := r.session.Executor()
	var stats []query.StatsSnapshot
	if len(args) > 0 {
		s, ok := executor.Stats(args[0])
		if !ok {
			r.printf("No executions recorded for %s.\n", args[0])
			return nil
		}
		stats = append(stats, s)
	} else {
		stats = executor.AllStats()
	}
	if len(stats) == 0 {
		r.printf("No executions yet.\n")
		return nil
	}
	return r.formatter().FormatStats(stats)
}

func (r *REPL) cmdCache(ctx context.Context, _ []string) error {
	return r.formatter().FormatCacheInfo(r.session.Executor().CacheInfo(ctx))
}

func (r *REPL) cmdClear(ctx context.Context, _ []string) error {
	if err := r.session.Executor().ClearCache(ctx); err != nil {
		return err
	}
	green := color.New(color.FgGreen).SprintFunc()
	r.printf("%s Cache cleared\n", green("✓"))
	return nil
}

func (r *REPL) cmdSummary(context.Context, []string) error {
	issues := r.session.Issues()
	if len(issues) == 0 {
		return fmt.Errorf("no issues loaded; run a query first")
	}
	f := r.formatter()
	if err := f.FormatSummary("Status", presentation.StatusSummary(issues)); err != nil {
		return err
	}
	if err := f.FormatSummary("Priority", presentation.PrioritySummary(issues)); err != nil {
		return err
	}
	return f.FormatSummary("Project", presentation.ProjectSummary(issues))
}

// cmdExport writes the loaded issues to a file. The format comes from the
// second argument or, failing that, the file extension.
func (r *REPL) cmdExport(_ context.Context, args []string) error {
	if len(args) == 0 || len(args) > 2 {
		return fmt.Errorf("usage: export <file> [csv|json]")
	}
	issues := r.session.Issues()
	if len(issues) == 0 {
		return fmt.Errorf("no issues loaded; run a query first")
	}

	path := args[0]
	name := strings.TrimPrefix(filepath.Ext(path), ".")
	if len(args) == 2 {
		name = args[1]
	}
	format, err := presentation.ParseFormat(name)
	if err != nil {
		return err
	}
	if format == presentation.FormatTable {
		format = presentation.FormatCSV
	}

	f, err := os.Create(path) //nolint:gosec // G304: export path comes from the user
	if err != nil {
		return fmt.Errorf("creating export file: %w", err)
	}
	if err := presentation.NewFormatter(f, format).FormatIssues(issues); err != nil {
		_ = f.Close()
		return fmt.Errorf("writing export: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing export file: %w", err)
	}

	green := color.New(color.FgGreen).SprintFunc()
	r.printf("%s Exported %d issues to %s\n", green("✓"), len(issues), path)
	return nil
}

func (r *REPL) cmdHistory(ctx context.Context, args []string) error {
	if r.history == nil {
		return fmt.Errorf("execution history is disabled")
	}
	var id string
	if len(args) > 0 {
		id = args[0]
	}
	entries, err := r.history.Recent(ctx, id, historyLimit)
	if err != nil {
		return fmt.Errorf("reading history: %w", err)
	}
	if len(entries) == 0 {
		r.printf("No executions recorded.\n")
		return nil
	}
	return r.formatter().FormatHistory(entries)
}

func (r *REPL) cmdWhoami(ctx context.Context, _ []string) error {
	if r.directory == nil {
		return errNoJira
	}
	user, err := r.directory.Myself(ctx)
	if err != nil {
		return fmt.Errorf("connection check failed: %w", err)
	}
	green := color.New(color.FgGreen).SprintFunc()
	r.printf("%s Connected as %s", green("✓"), user.DisplayName)
	if user.EmailAddress != "" {
		r.printf(" <%s>", user.EmailAddress)
	}
	r.printf("\n")
	return nil
}

func (r *REPL) cmdProjects(ctx context.Context, _ []string) error {
	if r.projects == nil {
		return errNoJira
	}
	projects, err := r.projects.Get(ctx, projectsCacheKey, struct{}{}, r.projectsTTL)
	if err != nil {
		return fmt.Errorf("listing projects: %w", err)
	}
	if len(projects) == 0 {
		r.printf("No projects visible.\n")
		return nil
	}
	green := color.New(color.FgGreen).SprintFunc()
	for _, p := range projects {
		r.printf("  %s  %s\n", green(fmt.Sprintf("%-10s", p.Key)), p.Name)
	}
	return nil
}
