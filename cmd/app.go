package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/zjrosen/jqlboard/internal/config"
	"github.com/zjrosen/jqlboard/internal/history"
	"github.com/zjrosen/jqlboard/internal/infrastructure/sqlite"
	"github.com/zjrosen/jqlboard/internal/jira"
	"github.com/zjrosen/jqlboard/internal/log"
	"github.com/zjrosen/jqlboard/internal/query"
	"github.com/zjrosen/jqlboard/internal/tracing"
)

// app holds the services shared by every command.
type app struct {
	client  *jira.Client
	db      *sqlite.DB
	history history.Repository
	tracing *tracing.Provider
	session *query.Session
}

// newApp wires the Jira client, history store, tracing and a query session
// from c. Missing credentials leave the executor without a source; a
// history store that cannot be opened is logged and skipped.
func newApp(c config.Config) (*app, error) {
	provider, err := tracing.NewProvider(c.Tracing.ProviderConfig())
	if err != nil {
		return nil, fmt.Errorf("initializing tracing: %w", err)
	}
	a := &app{tracing: provider}

	var source query.Source
	if c.Jira.HasCredentials() {
		client, err := jira.NewClient(c.Jira.ClientConfig())
		if err != nil {
			_ = a.close()
			return nil, fmt.Errorf("creating jira client: %w", err)
		}
		a.client = client
		source = client
	} else {
		log.Warn(log.CatJira, "jira credentials not configured, running offline")
	}

	opts := []query.ExecutorOption{query.WithTracer(provider.Tracer())}
	if c.History.Enabled && c.History.Path != "" {
		db, err := sqlite.NewDB(c.History.Path)
		if err != nil {
			log.ErrorErr(log.CatDB, "history store unavailable", err, "path", c.History.Path)
		} else {
			a.db = db
			a.history = db.HistoryRepository()
			opts = append(opts, query.WithRecorder(a.history))
		}
	}

	catalog := query.NewCatalog()
	if err := catalog.LoadCustom(c.Definitions()); err != nil {
		_ = a.close()
		return nil, fmt.Errorf("loading custom queries: %w", err)
	}

	executor := query.NewExecutor(source, query.NewMemoryCache(c.Cache.TTL, nil), opts...)
	a.session = query.NewSession(
		catalog,
		executor,
		query.NewPaginator(source),
		query.NewBatchLoader(source, c.Pagination.BatchPageSize),
	)
	return a, nil
}

func (a *app) close() error {
	var errs []error
	if a.db != nil {
		errs = append(errs, a.db.Close())
	}
	if a.tracing != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		errs = append(errs, a.tracing.Shutdown(ctx))
	}
	return errors.Join(errs...)
}

// saveCustom writes the catalog's custom queries to the config file.
func saveCustom(path string, defs []query.Definition) error {
	return config.SaveQueries(path, config.QueriesFromDefinitions(defs))
}
