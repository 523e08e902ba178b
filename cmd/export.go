package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zjrosen/jqlboard/internal/presentation"
	"github.com/zjrosen/jqlboard/internal/query"
)

var (
	exportOutput string
	exportFormat string
	exportTarget int
)

var exportCmd = &cobra.Command{
	Use:   "export <query-id>",
	Short: "Batch load a query and write the issues to a file",
	Long: `Load up to --target issues of a catalog query and write them with the
fixed export columns: Key, Summary, Status, Priority, Assignee, Created,
Updated. The format follows --format or the output file extension.

Examples:
  jqlboard export expedientes_all -O expedientes.csv
  jqlboard export pending -O pending.json --target 200`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := exportFormat
		if name == "" {
			name = strings.TrimPrefix(filepath.Ext(exportOutput), ".")
		}
		format, err := presentation.ParseFormat(name)
		if err != nil {
			return err
		}
		if format == presentation.FormatTable {
			format = presentation.FormatCSV
		}

		a, err := newApp(cfg)
		if err != nil {
			return err
		}
		defer func() { _ = a.close() }()

		ctx := cmd.Context()
		if _, err := a.session.RunByID(ctx, args[0], false); err != nil {
			return err
		}
		target := exportTarget
		if target < 1 {
			target = cfg.Pagination.BatchTarget
		}
		res, err := a.session.LoadAll(ctx, target, func(p query.Progress) {
			fmt.Fprintf(cmd.ErrOrStderr(), "loaded %d/%d issues\n", p.Loaded, p.Target)
		})
		if err != nil && (res == nil || len(res.Issues) == 0) {
			return err
		}
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: exporting partial results: %v\n", err)
		}

		out := cmd.OutOrStdout()
		var file *os.File
		if exportOutput != "" && exportOutput != "-" {
			file, err = os.Create(exportOutput) //nolint:gosec // G304: output path comes from the user
			if err != nil {
				return fmt.Errorf("creating export file: %w", err)
			}
			defer func() { _ = file.Close() }()
			out = file
		}

		if err := presentation.NewFormatter(out, format).FormatIssues(res.Issues); err != nil {
			return fmt.Errorf("writing export: %w", err)
		}
		if file != nil {
			if err := file.Close(); err != nil {
				return fmt.Errorf("closing export file: %w", err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "exported %d issues to %s\n", len(res.Issues), exportOutput)
		}
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportOutput, "output", "O", "-", "output file, - for stdout")
	exportCmd.Flags().StringVarP(&exportFormat, "format", "o", "", "csv or json (default: from the file extension, else csv)")
	exportCmd.Flags().IntVar(&exportTarget, "target", 0, "issues to load (default: pagination.batch_target)")
	rootCmd.AddCommand(exportCmd)
}
