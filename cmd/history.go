package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zjrosen/jqlboard/internal/history"
	"github.com/zjrosen/jqlboard/internal/infrastructure/sqlite"
	"github.com/zjrosen/jqlboard/internal/presentation"
)

var (
	historyQuery  string
	historyLimit  int
	historyFormat string
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent query executions",
	Long: `Show executions recorded in the local history database, newest first.
Cache hits are not recorded.

Examples:
  jqlboard history
  jqlboard history --query pending --limit 5
  jqlboard history --format json | jq '.[] | select(.success == false)'`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if !cfg.History.Enabled {
			return fmt.Errorf("execution history is disabled (history.enabled: false)")
		}
		format, err := presentation.ParseFormat(historyFormat)
		if err != nil {
			return err
		}

		db, err := sqlite.NewDB(cfg.History.Path)
		if err != nil {
			return fmt.Errorf("opening history: %w", err)
		}
		defer func() { _ = db.Close() }()

		entries, err := db.HistoryRepository().Recent(cmd.Context(), historyQuery, historyLimit)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if err := presentation.NewFormatter(out, format).FormatHistory(entries); err != nil {
			return err
		}
		if format == presentation.FormatTable && len(entries) > 0 {
			s := history.Summarize(entries)
			fmt.Fprintf(out, "%d runs, %d failed, average %dms\n", s.Runs, s.Failures, s.AvgDuration.Milliseconds())
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().StringVarP(&historyQuery, "query", "q", "", "only show this query id")
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", sqlite.DefaultRecentLimit, "number of entries")
	historyCmd.Flags().StringVarP(&historyFormat, "format", "o", "table", "output format: table, json or csv")
	rootCmd.AddCommand(historyCmd)
}
