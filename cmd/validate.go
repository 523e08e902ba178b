package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate <jql>",
	Short: "Check JQL without running it",
	Long: `Check a JQL string. Destructive keywords are always rejected. With Jira
credentials the query is sent with a result limit of 1; without them only
offline checks run and the result is reported with reduced confidence.

Examples:
  jqlboard validate 'project = BAU AND status = "In Progress"'
  jqlboard validate assignee = currentUser() ORDER BY updated DESC`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cfg)
		if err != nil {
			return err
		}
		defer func() { _ = a.close() }()

		res, err := a.session.Executor().Validate(cmd.Context(), joinArgs(args))
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s (%s confidence)\n", res.Message, res.Confidence)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
