package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zjrosen/jqlboard/internal/presentation"
	"github.com/zjrosen/jqlboard/internal/query"
)

var (
	runForce    bool
	runJQL      string
	runPage     int
	runPageSize int
	runAll      bool
	runTarget   int
	runFormat   string
	runSummary  bool
)

var runCmd = &cobra.Command{
	Use:   "run [query-id]",
	Short: "Run a catalog query or ad-hoc JQL",
	Long: `Run a catalog query by id, or free-form JQL with --jql, and print the
resulting page of issues.

Results are cached for cache.ttl; --force bypasses the cache. --page jumps to
a later page, and --all loads up to --target issues in batches.

Examples:
  jqlboard run pending
  jqlboard run high_priority --force
  jqlboard run expedientes_all --page 2 --page-size 50
  jqlboard run --jql "project = BAU AND created >= -7d" --format csv
  jqlboard run expedientes_all --all --target 500 --format json | jq length`,
	Args: cobra.MaximumNArgs(1),
	RunE: runQuery,
}

func init() {
	runCmd.Flags().BoolVarP(&runForce, "force", "f", false, "bypass the result cache")
	runCmd.Flags().StringVar(&runJQL, "jql", "", "run this JQL instead of a catalog query")
	runCmd.Flags().IntVarP(&runPage, "page", "p", 1, "page to show")
	runCmd.Flags().IntVar(&runPageSize, "page-size", 0, "page size (default: the query's result limit)")
	runCmd.Flags().BoolVarP(&runAll, "all", "a", false, "batch load instead of showing one page")
	runCmd.Flags().IntVar(&runTarget, "target", 0, "issues to batch load with --all (default: pagination.batch_target)")
	runCmd.Flags().StringVarP(&runFormat, "format", "o", "table", "output format: table, json or csv")
	runCmd.Flags().BoolVar(&runSummary, "summary", false, "print status and priority counts instead of issues")
	rootCmd.AddCommand(runCmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
	format, err := presentation.ParseFormat(runFormat)
	if err != nil {
		return err
	}
	if (len(args) == 0) == (runJQL == "") {
		return fmt.Errorf("give either a query id or --jql")
	}

	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = a.close() }()

	ctx := cmd.Context()
	session := a.session

	var exec *query.Execution
	if runJQL != "" {
		exec, err = session.RunJQL(ctx, runJQL, cfg.Jira.MaxResultsDefault, runForce)
	} else {
		exec, err = session.RunByID(ctx, args[0], runForce)
	}
	if err != nil {
		return err
	}

	issues := exec.Issues
	switch {
	case runAll:
		target := runTarget
		if target < 1 {
			target = cfg.Pagination.BatchTarget
		}
		res, loadErr := session.LoadAll(ctx, target, func(p query.Progress) {
			fmt.Fprintf(cmd.ErrOrStderr(), "loaded %d/%d issues\n", p.Loaded, p.Target)
		})
		if loadErr != nil && (res == nil || len(res.Issues) == 0) {
			return loadErr
		}
		if loadErr != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: stopped early: %v\n", loadErr)
		}
		issues = res.Issues
	case runPage != 1 || runPageSize > 0:
		size := runPageSize
		if size < 1 {
			size = exec.MaxResults
		}
		if issues, err = session.GoToPage(ctx, runPage, size); err != nil {
			return err
		}
	}

	f := presentation.NewFormatter(cmd.OutOrStdout(), format)
	if runSummary {
		if err := f.FormatSummary("Status", presentation.StatusSummary(issues)); err != nil {
			return err
		}
		return f.FormatSummary("Priority", presentation.PrioritySummary(issues))
	}
	if err := f.FormatIssues(issues); err != nil {
		return err
	}
	if format == presentation.FormatTable {
		if state, ok := session.Pagination(); ok {
			return f.FormatPagination(state)
		}
	}
	return nil
}

// joinArgs rebuilds a JQL string split by the shell.
func joinArgs(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}
