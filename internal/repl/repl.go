// Package repl implements the interactive jqlboard shell.
package repl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/chzyer/readline"
	"github.com/fatih/color"

	"github.com/zjrosen/jqlboard/internal/cachemanager"
	"github.com/zjrosen/jqlboard/internal/history"
	"github.com/zjrosen/jqlboard/internal/jira"
	"github.com/zjrosen/jqlboard/internal/log"
	"github.com/zjrosen/jqlboard/internal/presentation"
	"github.com/zjrosen/jqlboard/internal/pubsub"
	"github.com/zjrosen/jqlboard/internal/query"
	"github.com/zjrosen/jqlboard/internal/watcher"
)

const (
	defaultPageSize    = 100
	defaultBatchTarget = 1000
	defaultProjectsTTL = 10 * time.Minute
	projectsCacheKey   = "projects"
)

// errExit is returned by the exit command to stop the loop.
var errExit = errors.New("exit")

// Directory is the part of Jira the shell talks to outside of JQL search.
type Directory interface {
	Myself(ctx context.Context) (*jira.User, error)
	Projects(ctx context.Context) ([]jira.Project, error)
}

// CommandHandler handles a specific command
type CommandHandler func(ctx context.Context, args []string) error

type command struct {
	usage   string
	summary string
	handler CommandHandler
}

// Config holds REPL configuration
type Config struct {
	Session *query.Session

	// Directory backs whoami and projects. Optional.
	Directory Directory
	// History backs the history command. Optional.
	History history.Repository

	// ConfigPath receives custom queries after add and remove. Empty keeps
	// changes in memory only.
	ConfigPath string
	// SaveQueries persists custom queries to ConfigPath.
	SaveQueries func(path string, defs []query.Definition) error

	// Changes delivers config file changes; Reload reads the custom
	// queries back. Both are optional.
	Changes pubsub.Subscriber[watcher.Change]
	Reload  func() ([]query.Definition, error)

	PageSize    int
	BatchTarget int
	ProjectsTTL time.Duration

	// HistoryFile stores readline history. Empty keeps it in memory.
	HistoryFile string
	Out         io.Writer
}

// REPL represents the interactive shell
type REPL struct {
	session     *query.Session
	directory   Directory
	history     history.Repository
	configPath  string
	saveQueries func(string, []query.Definition) error
	changes     pubsub.Subscriber[watcher.Change]
	reload      func() ([]query.Definition, error)
	listener    *pubsub.Listener[watcher.Change]
	projects    *cachemanager.ReadThroughCache[string, []jira.Project, struct{}]
	projectsTTL time.Duration
	pageSize    int
	batchTarget int
	historyFile string

	out      io.Writer
	rl       *readline.Instance
	commands map[string]*command
	aliases  map[string]string
}

// New creates a new REPL instance
func New(cfg *Config) (*REPL, error) {
	if cfg.Session == nil {
		return nil, fmt.Errorf("session is required")
	}

	r := &REPL{
		session:     cfg.Session,
		directory:   cfg.Directory,
		history:     cfg.History,
		configPath:  cfg.ConfigPath,
		saveQueries: cfg.SaveQueries,
		changes:     cfg.Changes,
		reload:      cfg.Reload,
		projectsTTL: cfg.ProjectsTTL,
		pageSize:    cfg.PageSize,
		batchTarget: cfg.BatchTarget,
		historyFile: cfg.HistoryFile,
		out:         cfg.Out,
		commands:    make(map[string]*command),
		aliases:     make(map[string]string),
	}
	if r.out == nil {
		r.out = os.Stdout
	}
	if r.pageSize < 1 {
		r.pageSize = defaultPageSize
	}
	if r.batchTarget < 1 {
		r.batchTarget = defaultBatchTarget
	}
	if r.projectsTTL <= 0 {
		r.projectsTTL = defaultProjectsTTL
	}
	if r.directory != nil {
		store := cachemanager.NewInMemoryCacheManager[string, []jira.Project]("projects", r.projectsTTL, 0)
		r.projects = cachemanager.NewReadThroughCache[string, []jira.Project, struct{}](store, func(ctx context.Context, _ struct{}) ([]jira.Project, error) {
			return r.directory.Projects(ctx)
		}, false)
	}

	r.registerCommands()
	return r, nil
}

// Run starts the REPL loop. It returns nil on exit, Ctrl+D or when ctx is
// cancelled.
func (r *REPL) Run(ctx context.Context) error {
	r.Listen(ctx)

	cyan := color.New(color.FgCyan).SprintFunc()
	rl, err := readline.NewEx(&readline.Config{
		Prompt:            cyan("jql> "),
		HistoryFile:       r.historyFile,
		AutoComplete:      r.completer(),
		InterruptPrompt:   "^C",
		EOFPrompt:         "exit",
		HistorySearchFold: true,
		Stdout:            r.out,
	})
	if err != nil {
		return fmt.Errorf("failed to create readline: %w", err)
	}
	defer func() { _ = rl.Close() }()
	r.rl = rl

	r.printWelcome()

	for {
		if ctx.Err() != nil {
			return nil
		}

		line, err := rl.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) {
				continue
			} else if errors.Is(err, io.EOF) {
				_, _ = fmt.Fprintln(r.out, "\nGoodbye!")
				return nil
			}
			return err
		}

		if err := r.Execute(ctx, line); err != nil {
			if errors.Is(err, errExit) {
				return nil
			}
			r.printError(err)
		}
	}
}

// Listen subscribes to config changes until ctx is cancelled. It is a
// no-op without a change source or when already listening.
func (r *REPL) Listen(ctx context.Context) {
	if r.changes == nil || r.listener != nil {
		return
	}
	r.listener = pubsub.NewListener(ctx, r.changes)
}

// Execute runs one line of input. Pending config changes are applied
// first. Unknown commands are reported, not returned as errors.
func (r *REPL) Execute(ctx context.Context, line string) error {
	r.applyConfigChanges()

	parts := strings.Fields(line)
	if len(parts) == 0 {
		return nil
	}

	name := strings.ToLower(parts[0])
	if target, ok := r.aliases[name]; ok {
		name = target
	}
	cmd, ok := r.commands[name]
	if !ok {
		yellow := color.New(color.FgYellow).SprintFunc()
		r.printf("%s unknown command %q. Use 'help' for available commands.\n", yellow("Note:"), parts[0])
		return nil
	}

	log.Debug(log.CatShell, "command", "name", name, "args", len(parts)-1)
	return cmd.handler(ctx, parts[1:])
}

func (r *REPL) register(name, usage, summary string, h CommandHandler, aliases ...string) {
	r.commands[name] = &command{usage: usage, summary: summary, handler: h}
	for _, a := range aliases {
		r.aliases[a] = name
	}
}

// registerCommands registers all built-in commands
func (r *REPL) registerCommands() {
	r.register("list", "list [category]", "List catalog queries", r.cmdList, "ls")
	r.register("search", "search <term>", "Search queries by name, description or tag", r.cmdSearch)
	r.register("run", "run <id> [-f]", "Run a catalog query (-f bypasses the cache)", r.cmdRun)
	r.register("jql", "jql <query>", "Run ad-hoc JQL", r.cmdJQL)
	r.register("next", "next", "Fetch the next page", r.cmdNext, "n")
	r.register("prev", "prev", "Fetch the previous page", r.cmdPrev, "p")
	r.register("page", "page <n> [size]", "Jump to page n, optionally resizing pages", r.cmdPage)
	r.register("all", "all [target]", "Load results in batches up to target", r.cmdAll)
	r.register("reset", "reset", "Leave batch mode and return to page 1", r.cmdReset)
	r.register("summary", "summary", "Count loaded issues by status, priority and project", r.cmdSummary)
	r.register("stats", "stats [id]", "Show execution statistics", r.cmdStats)
	r.register("cache", "cache", "Show cache occupancy", r.cmdCache)
	r.register("clear", "clear", "Empty the query cache", r.cmdClear)
	r.register("validate", "validate <query>", "Check JQL without running it", r.cmdValidate)
	r.register("add", "add <name> | <jql> [| tag,tag]", "Add a custom query", r.cmdAdd)
	r.register("remove", "remove <id>", "Remove a custom query", r.cmdRemove, "rm")
	r.register("export", "export <file> [csv|json]", "Write loaded issues to a file", r.cmdExport)
	r.register("history", "history [id]", "Show recent executions", r.cmdHistory)
	r.register("whoami", "whoami", "Show the authenticated Jira user", r.cmdWhoami)
	r.register("projects", "projects", "List visible Jira projects", r.cmdProjects)
	r.register("help", "help", "Show this help message", r.cmdHelp, "?")
	r.register("exit", "exit", "Exit the shell", r.cmdExit, "quit")
}

func (r *REPL) completer() *readline.PrefixCompleter {
	names := make([]string, 0, len(r.commands))
	for name := range r.commands {
		names = append(names, name)
	}
	sort.Strings(names)

	items := make([]readline.PrefixCompleterInterface, 0, len(names))
	for _, name := range names {
		if name == "run" {
			items = append(items, readline.PcItem(name, readline.PcItemDynamic(r.queryIDs)))
			continue
		}
		items = append(items, readline.PcItem(name))
	}
	return readline.NewPrefixCompleter(items...)
}

func (r *REPL) queryIDs(string) []string {
	defs := r.session.Catalog().All()
	ids := make([]string, len(defs))
	for i, d := range defs {
		ids[i] = d.ID
	}
	return ids
}

// applyConfigChanges reloads custom queries when the config file changed
// since the last command.
func (r *REPL) applyConfigChanges() {
	if r.listener == nil {
		return
	}
	events, _ := r.listener.Drain()

	changed := false
	for _, ev := range events {
		switch ev.Type {
		case pubsub.ChangedEvent:
			changed = true
		case pubsub.FailedEvent:
			log.ErrorErr(log.CatWatcher, "config watch failed", ev.Payload.Err)
		}
	}
	if !changed || r.reload == nil {
		return
	}

	defs, err := r.reload()
	if err == nil {
		err = r.session.Catalog().LoadCustom(defs)
	}
	if err != nil {
		r.printError(fmt.Errorf("reloading custom queries: %w", err))
		return
	}
	gray := color.New(color.FgHiBlack).SprintFunc()
	r.printf("%s\n", gray(fmt.Sprintf("Config changed, %d custom queries loaded", len(defs))))
}

// printWelcome prints the welcome message
func (r *REPL) printWelcome() {
	cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
	r.printf("\n%s\n", cyan("jqlboard"))
	r.printf("%d queries in the catalog\n\n", r.session.Catalog().Len())
	if !r.session.Executor().HasSource() {
		yellow := color.New(color.FgYellow).SprintFunc()
		r.printf("%s Jira credentials are not configured; queries can be browsed and validated offline.\n\n", yellow("Note:"))
	}
	r.printf("Type 'help' for available commands, 'exit' to quit\n\n")
}

func (r *REPL) printError(err error) {
	red := color.New(color.FgRed).SprintFunc()
	var qerr *query.Error
	if errors.As(err, &qerr) {
		r.printf("%s %s: %v\n", red("Error:"), qerr.Kind, qerr.Err)
		return
	}
	r.printf("%s %v\n", red("Error:"), err)
}

func (r *REPL) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(r.out, format, args...)
}

func (r *REPL) formatter() *presentation.Formatter {
	return presentation.NewFormatter(r.out, presentation.FormatTable)
}

// cmdHelp shows help information
func (r *REPL) cmdHelp(context.Context, []string) error {
	cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
	green := color.New(color.FgGreen).SprintFunc()
	r.printf("\n%s\n\n", cyan("Available Commands:"))

	names := make([]string, 0, len(r.commands))
	width := 0
	for name, cmd := range r.commands {
		names = append(names, name)
		width = max(width, len(cmd.usage))
	}
	sort.Strings(names)

	for _, name := range names {
		cmd := r.commands[name]
		r.printf("  %s  %s\n", green(fmt.Sprintf("%-*s", width, cmd.usage)), cmd.summary)
	}
	r.printf("\n")
	return nil
}

// cmdExit exits the REPL
func (r *REPL) cmdExit(context.Context, []string) error {
	green := color.New(color.FgGreen).SprintFunc()
	r.printf("\n%s Goodbye!\n", green("✓"))
	return errExit
}
