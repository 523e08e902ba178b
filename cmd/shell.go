package cmd

import (
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/zjrosen/jqlboard/internal/config"
	"github.com/zjrosen/jqlboard/internal/log"
	"github.com/zjrosen/jqlboard/internal/query"
	"github.com/zjrosen/jqlboard/internal/repl"
	"github.com/zjrosen/jqlboard/internal/watcher"
)

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Start the interactive shell (default)",
	Long: `Start an interactive shell for running, paging and exporting queries.
Edits to the config file's custom queries are picked up while it runs.`,
	Args: cobra.NoArgs,
	RunE: runShell,
}

func init() {
	rootCmd.AddCommand(shellCmd)
}

func runShell(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = a.close() }()

	shellCfg := &repl.Config{
		Session:     a.session,
		History:     a.history,
		ConfigPath:  configPath,
		SaveQueries: saveCustom,
		Reload:      reloadCustom,
		PageSize:    cfg.Pagination.PageSize,
		BatchTarget: cfg.Pagination.BatchTarget,
		Out:         cmd.OutOrStdout(),
	}
	if a.client != nil {
		shellCfg.Directory = a.client
	}
	if dir := config.DefaultConfigDir(); dir != "" {
		shellCfg.HistoryFile = filepath.Join(dir, "shell_history")
	}

	if w := startWatcher(configPath); w != nil {
		defer func() { _ = w.Stop() }()
		shellCfg.Changes = w
	}

	shell, err := repl.New(shellCfg)
	if err != nil {
		return err
	}
	return shell.Run(ctx)
}

// startWatcher watches path for edits. It returns nil when the file cannot
// be watched; the shell then runs without live reload.
func startWatcher(path string) *watcher.Watcher {
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	w, err := watcher.New(watcher.DefaultConfig(path))
	if err != nil {
		log.ErrorErr(log.CatWatcher, "creating config watcher", err, "path", path)
		return nil
	}
	if err := w.Start(); err != nil {
		log.ErrorErr(log.CatWatcher, "starting config watcher", err, "path", path)
		_ = w.Stop()
		return nil
	}
	return w
}

func reloadCustom() ([]query.Definition, error) {
	c, err := config.LoadFile(configPath)
	if err != nil {
		return nil, err
	}
	return c.Definitions(), nil
}
