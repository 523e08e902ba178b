package repl

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/zjrosen/jqlboard/internal/jira"
	"github.com/zjrosen/jqlboard/internal/mocks"
	"github.com/zjrosen/jqlboard/internal/pubsub"
	"github.com/zjrosen/jqlboard/internal/query"
	"github.com/zjrosen/jqlboard/internal/watcher"
)

// pages serves total issues, honoring StartAt and MaxResults.
func pages(total int) func(context.Context, jira.SearchRequest) (*jira.SearchResult, error) {
	return func(_ context.Context, req jira.SearchRequest) (*jira.SearchResult, error) {
		n := max(min(req.MaxResults, total-req.StartAt), 0)
		issues := make([]jira.Issue, n)
		for i := range issues {
			num := req.StartAt + i + 1
			issues[i] = jira.Issue{
				Key: fmt.Sprintf("BAU-%d", num),
				Fields: jira.Fields{
					Summary: fmt.Sprintf("Issue %d", num),
					Status:  &jira.NamedField{Name: []string{"Open", "Done"}[num%2]},
				},
			}
		}
		return &jira.SearchResult{Issues: issues, Total: total, StartAt: req.StartAt, MaxResults: req.MaxResults}, nil
	}
}

type harness struct {
	repl   *REPL
	out    *bytes.Buffer
	source *mocks.MockSource
}

func newHarness(t *testing.T, total int, mutate func(*Config)) *harness {
	t.Helper()

	source := mocks.NewMockSource(t)
	source.EXPECT().Search(mock.Anything, mock.Anything).RunAndReturn(pages(total)).Maybe()

	session := query.NewSession(
		query.NewCatalog(),
		query.NewExecutor(source, nil),
		query.NewPaginator(source),
		query.NewBatchLoader(source, 100),
	)

	out := &bytes.Buffer{}
	cfg := &Config{Session: session, Out: out, PageSize: 100, BatchTarget: 1000}
	if mutate != nil {
		mutate(cfg)
	}
	r, err := New(cfg)
	require.NoError(t, err)
	return &harness{repl: r, out: out, source: source}
}

func (h *harness) exec(t *testing.T, line string) string {
	t.Helper()
	h.out.Reset()
	require.NoError(t, h.repl.Execute(context.Background(), line))
	return h.out.String()
}

func TestNew_RequiresSession(t *testing.T) {
	_, err := New(&Config{})
	require.ErrorContains(t, err, "session is required")
}

func TestExecute_UnknownCommand(t *testing.T) {
	h := newHarness(t, 0, nil)
	out := h.exec(t, "frobnicate now")
	require.Contains(t, out, `unknown command "frobnicate"`)
}

func TestExecute_BlankLine(t *testing.T) {
	h := newHarness(t, 0, nil)
	require.Empty(t, h.exec(t, "   "))
}

func TestExit(t *testing.T) {
	h := newHarness(t, 0, nil)
	err := h.repl.Execute(context.Background(), "quit")
	require.ErrorIs(t, err, errExit)
}

func TestHelp_ListsCommands(t *testing.T) {
	h := newHarness(t, 0, nil)
	out := h.exec(t, "help")
	for _, name := range []string{"list", "run <id>", "jql <query>", "all [target]", "export <file>", "projects"} {
		require.Contains(t, out, name)
	}
}

func TestList(t *testing.T) {
	h := newHarness(t, 0, nil)

	out := h.exec(t, "list university")
	require.Contains(t, out, "expedientes_pending")
	require.Contains(t, out, "expedientes_in_progress")
	require.NotRegexp(t, `\bin_progress\b`, out)

	err := h.repl.Execute(context.Background(), "list nonsense")
	require.ErrorContains(t, err, `unknown category "nonsense"`)
}

func TestSearch(t *testing.T) {
	h := newHarness(t, 0, nil)
	require.Contains(t, h.exec(t, "search pending"), "pending")
	require.Contains(t, h.exec(t, "search zzz-nothing"), "No queries match")
}

func TestRun_ThenPage(t *testing.T) {
	h := newHarness(t, 250, nil)

	out := h.exec(t, "run pending")
	require.Contains(t, out, "100 of 250 issues")
	require.Contains(t, out, "BAU-1")
	require.Contains(t, out, "Showing 1-100 of 250 (page 1/3)")

	out = h.exec(t, "next")
	require.Contains(t, out, "BAU-101")
	require.Contains(t, out, "page 2/3")

	out = h.exec(t, "page 3 50")
	require.Contains(t, out, "Showing 101-150 of 250 (page 3/5)")

	out = h.exec(t, "prev")
	require.Contains(t, out, "page 2/5")
}

func TestRun_CachedSecondTime(t *testing.T) {
	h := newHarness(t, 5, nil)
	h.exec(t, "run pending")
	require.Contains(t, h.exec(t, "run pending"), "cached")
	require.Contains(t, h.exec(t, "run pending -f"), "fetched in")
}

func TestRun_UnknownID(t *testing.T) {
	h := newHarness(t, 5, nil)
	err := h.repl.Execute(context.Background(), "run nope")
	require.True(t, query.IsRejected(err))
}

func TestNext_BeforeRun(t *testing.T) {
	h := newHarness(t, 5, nil)
	err := h.repl.Execute(context.Background(), "next")
	require.ErrorIs(t, err, query.ErrNoPagination)
}

func TestJQL(t *testing.T) {
	h := newHarness(t, 3, nil)
	out := h.exec(t, "jql project = BAU ORDER BY created DESC")
	require.Contains(t, out, "Ad-hoc query")
	require.Contains(t, out, "3 of 3 issues")

	err := h.repl.Execute(context.Background(), "jql")
	require.ErrorIs(t, err, query.ErrEmptyQuery)
}

func TestAll_LoadsInBatchesThenResets(t *testing.T) {
	h := newHarness(t, 250, nil)
	h.exec(t, "run pending")

	out := h.exec(t, "all")
	require.Contains(t, out, "page 1: 100/250 issues")
	require.Contains(t, out, "page 3: 250/250 issues")
	require.Contains(t, out, "[batch]")

	out = h.exec(t, "reset")
	require.Contains(t, out, "Showing 1-100 of 250 (page 1/3)")
	require.NotContains(t, out, "[batch]")
}

func TestAll_InvalidTarget(t *testing.T) {
	h := newHarness(t, 10, nil)
	h.exec(t, "run pending")
	require.ErrorContains(t, h.repl.Execute(context.Background(), "all zero"), "invalid target")
}

func TestValidate(t *testing.T) {
	h := newHarness(t, 1, nil)
	require.Contains(t, h.exec(t, "validate project = BAU"), "full confidence")

	err := h.repl.Execute(context.Background(), "validate DROP TABLE issues")
	require.ErrorIs(t, err, query.ErrForbiddenKeyword)
}

func TestAddAndRemove_PersistCustomQueries(t *testing.T) {
	var saved [][]query.Definition
	h := newHarness(t, 1, func(c *Config) {
		c.ConfigPath = "/tmp/jqlboard.yaml"
		c.SaveQueries = func(path string, defs []query.Definition) error {
			require.Equal(t, "/tmp/jqlboard.yaml", path)
			saved = append(saved, defs)
			return nil
		}
	})

	out := h.exec(t, "add My bugs | type = Bug AND assignee = currentUser() | bugs, mine")
	require.Contains(t, out, "Added custom_")
	require.Len(t, saved, 1)
	require.Len(t, saved[0], 1)
	def := saved[0][0]
	require.Equal(t, "My bugs", def.Name)
	require.Equal(t, "type = Bug AND assignee = currentUser()", def.JQL)
	require.Equal(t, []string{"bugs", "mine"}, def.Tags)

	out = h.exec(t, "remove "+def.ID)
	require.Contains(t, out, "Removed "+def.ID)
	require.Len(t, saved, 2)
	require.Empty(t, saved[1])
}

func TestAdd_RejectsBadJQL(t *testing.T) {
	h := newHarness(t, 1, nil)
	err := h.repl.Execute(context.Background(), "add Wipe | DELETE everything")
	require.ErrorIs(t, err, query.ErrForbiddenKeyword)
	require.Empty(t, h.repl.session.Catalog().Custom())
}

func TestAdd_WithoutConfigPathStaysInMemory(t *testing.T) {
	h := newHarness(t, 1, nil)
	out := h.exec(t, "add Mine | assignee = currentUser()")
	require.Contains(t, out, "this session only")
	require.Len(t, h.repl.session.Catalog().Custom(), 1)
}

func TestRemove_PredefinedRefused(t *testing.T) {
	h := newHarness(t, 1, nil)
	err := h.repl.Execute(context.Background(), "remove pending")
	require.ErrorContains(t, err, "no custom query")
}

func TestStatsAndCache(t *testing.T) {
	h := newHarness(t, 7, nil)
	require.Contains(t, h.exec(t, "stats"), "No executions yet")

	h.exec(t, "run pending")
	out := h.exec(t, "stats")
	require.Contains(t, out, "pending")
	require.Contains(t, out, "100%")

	require.Contains(t, h.exec(t, "stats in_progress"), "No executions recorded")

	require.Contains(t, h.exec(t, "cache"), "7")
	require.Contains(t, h.exec(t, "clear"), "Cache cleared")
	require.Equal(t, 0, h.repl.session.Executor().CacheInfo(context.Background()).EntryCount)
}

func TestSummary(t *testing.T) {
	h := newHarness(t, 4, nil)
	require.ErrorContains(t, h.repl.Execute(context.Background(), "summary"), "no issues loaded")

	h.exec(t, "run pending")
	out := h.exec(t, "summary")
	require.Contains(t, out, "Open")
	require.Contains(t, out, "Done")
}

func TestExport_CSVByExtension(t *testing.T) {
	h := newHarness(t, 3, nil)
	h.exec(t, "run pending")

	path := filepath.Join(t.TempDir(), "issues.csv")
	require.Contains(t, h.exec(t, "export "+path), "Exported 3 issues")

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 4)
	require.Equal(t, "BAU-1", records[1][0])
}

func TestExport_JSONOverride(t *testing.T) {
	h := newHarness(t, 2, nil)
	h.exec(t, "run pending")

	path := filepath.Join(t.TempDir(), "issues.out")
	h.exec(t, "export "+path+" json")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), `"key": "BAU-2"`)
}

func TestExport_NothingLoaded(t *testing.T) {
	h := newHarness(t, 2, nil)
	err := h.repl.Execute(context.Background(), "export "+filepath.Join(t.TempDir(), "x.csv"))
	require.ErrorContains(t, err, "no issues loaded")
}

func TestWhoamiAndProjects(t *testing.T) {
	dir := mocks.NewMockDirectory(t)
	dir.EXPECT().Myself(mock.Anything).Return(&jira.User{DisplayName: "Ana Ruiz", EmailAddress: "ana@example.com"}, nil).Once()
	dir.EXPECT().Projects(mock.Anything).Return([]jira.Project{{Key: "BAU", Name: "Business as usual"}}, nil).Once()

	h := newHarness(t, 0, func(c *Config) { c.Directory = dir })

	require.Contains(t, h.exec(t, "whoami"), "Connected as Ana Ruiz <ana@example.com>")

	out := h.exec(t, "projects")
	require.Contains(t, out, "BAU")
	require.Contains(t, out, "Business as usual")

	// Served from the read-through cache; the mock allows a single call.
	require.Contains(t, h.exec(t, "projects"), "BAU")
}

func TestProjects_ErrorNotCached(t *testing.T) {
	dir := mocks.NewMockDirectory(t)
	dir.EXPECT().Projects(mock.Anything).Return(nil, errors.New("HTTP 401")).Once()
	dir.EXPECT().Projects(mock.Anything).Return([]jira.Project{{Key: "OPS", Name: "Operations"}}, nil).Once()

	h := newHarness(t, 0, func(c *Config) { c.Directory = dir })

	require.ErrorContains(t, h.repl.Execute(context.Background(), "projects"), "HTTP 401")
	require.Contains(t, h.exec(t, "projects"), "OPS")
}

func TestWhoami_WithoutJira(t *testing.T) {
	h := newHarness(t, 0, nil)
	require.ErrorIs(t, h.repl.Execute(context.Background(), "whoami"), errNoJira)
	require.ErrorIs(t, h.repl.Execute(context.Background(), "projects"), errNoJira)
}

func TestHistory_Disabled(t *testing.T) {
	h := newHarness(t, 0, nil)
	require.ErrorContains(t, h.repl.Execute(context.Background(), "history"), "disabled")
}

func TestConfigChange_ReloadsCustomQueries(t *testing.T) {
	broker := pubsub.NewBroker[watcher.Change]()
	t.Cleanup(broker.Close)

	reloaded := []query.Definition{{ID: "team_bugs", Name: "Team bugs", JQL: "type = Bug"}}
	h := newHarness(t, 0, func(c *Config) {
		c.Changes = broker
		c.Reload = func() ([]query.Definition, error) { return reloaded, nil }
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h.repl.Listen(ctx)

	broker.Publish(pubsub.ChangedEvent, watcher.Change{Path: "config.yaml"})
	out := h.exec(t, "list custom")

	require.Contains(t, out, "1 custom queries loaded")
	require.Contains(t, out, "team_bugs")
}

func TestConfigChange_ReloadErrorKeepsCatalog(t *testing.T) {
	broker := pubsub.NewBroker[watcher.Change]()
	t.Cleanup(broker.Close)

	h := newHarness(t, 0, func(c *Config) {
		c.Changes = broker
		c.Reload = func() ([]query.Definition, error) { return nil, errors.New("yaml: line 3: bad indent") }
	})
	before := h.repl.session.Catalog().Len()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h.repl.Listen(ctx)

	broker.Publish(pubsub.ChangedEvent, watcher.Change{Path: "config.yaml"})
	out := h.exec(t, "help")

	require.Contains(t, out, "reloading custom queries")
	require.Equal(t, before, h.repl.session.Catalog().Len())
}
