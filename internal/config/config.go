// Package config provides configuration types and defaults for jqlboard.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/zjrosen/jqlboard/internal/jira"
	"github.com/zjrosen/jqlboard/internal/log"
	"github.com/zjrosen/jqlboard/internal/query"
	"github.com/zjrosen/jqlboard/internal/tracing"
)

// Config holds all configuration options for jqlboard.
type Config struct {
	Jira       JiraConfig       `mapstructure:"jira"`
	Cache      CacheConfig      `mapstructure:"cache"`
	Pagination PaginationConfig `mapstructure:"pagination"`
	History    HistoryConfig    `mapstructure:"history"`
	Tracing    TracingConfig    `mapstructure:"tracing"`
	Queries    []QueryConfig    `mapstructure:"queries"`
}

// JiraConfig holds the Jira connection settings. Credentials are usually
// supplied through JIRA_BASE_URL, JIRA_EMAIL and JIRA_TOKEN.
type JiraConfig struct {
	BaseURL           string        `mapstructure:"base_url"`
	Email             string        `mapstructure:"email"`
	Token             string        `mapstructure:"token"`
	APIVersion        string        `mapstructure:"api_version"`         // "3" (default) or "2"
	Timeout           time.Duration `mapstructure:"timeout"`             // per request, default 30s
	RequestsPerSecond float64       `mapstructure:"requests_per_second"` // 0 disables throttling
	MaxResultsDefault int           `mapstructure:"max_results_default"`
}

// HasCredentials reports whether enough is configured to reach Jira.
func (j JiraConfig) HasCredentials() bool {
	return j.BaseURL != "" && j.Email != "" && j.Token != ""
}

// ClientConfig converts to the Jira client configuration.
func (j JiraConfig) ClientConfig() jira.Config {
	return jira.Config{
		BaseURL:           j.BaseURL,
		Email:             j.Email,
		Token:             j.Token,
		APIVersion:        j.APIVersion,
		Timeout:           j.Timeout,
		RequestsPerSecond: j.RequestsPerSecond,
	}
}

// CacheConfig holds result cache settings.
type CacheConfig struct {
	TTL time.Duration `mapstructure:"ttl"`
}

// PaginationConfig holds paging and batch loading settings.
type PaginationConfig struct {
	PageSize      int `mapstructure:"page_size"`
	BatchPageSize int `mapstructure:"batch_page_size"`
	BatchTarget   int `mapstructure:"batch_target"`
}

// HistoryConfig holds the execution history store settings.
type HistoryConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"` // default: ~/.config/jqlboard/history.db
}

// TracingConfig holds distributed tracing configuration.
type TracingConfig struct {
	// Enabled controls whether tracing is active.
	// Default: false
	Enabled bool `mapstructure:"enabled"`

	// Exporter selects the trace export backend.
	// Options: "none", "file", "stdout", "otlp"
	// Default: "file"
	Exporter string `mapstructure:"exporter"`

	// FilePath is the output file for "file" exporter.
	// Default: ~/.config/jqlboard/traces/traces.jsonl
	FilePath string `mapstructure:"file_path"`

	// OTLPEndpoint is the collector endpoint for "otlp" exporter.
	// Default: "localhost:4317"
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`

	// SampleRate controls trace sampling (0.0 to 1.0).
	// Default: 1.0
	SampleRate float64 `mapstructure:"sample_rate"`
}

// ProviderConfig converts to the tracing provider configuration.
func (t TracingConfig) ProviderConfig() tracing.Config {
	cfg := tracing.DefaultConfig()
	cfg.Enabled = t.Enabled
	if t.Exporter != "" {
		cfg.Exporter = t.Exporter
	}
	cfg.FilePath = t.FilePath
	if cfg.FilePath == "" {
		cfg.FilePath = DefaultTracesFilePath()
	}
	if t.OTLPEndpoint != "" {
		cfg.OTLPEndpoint = t.OTLPEndpoint
	}
	cfg.SampleRate = t.SampleRate
	return cfg
}

// QueryConfig is a custom catalog entry persisted in the config file.
type QueryConfig struct {
	ID          string   `mapstructure:"id" yaml:"id"`
	Name        string   `mapstructure:"name" yaml:"name"`
	Description string   `mapstructure:"description" yaml:"description,omitempty"`
	JQL         string   `mapstructure:"jql" yaml:"jql"`
	MaxResults  int      `mapstructure:"max_results" yaml:"max_results,omitempty"`
	Tags        []string `mapstructure:"tags" yaml:"tags,omitempty"`
}

// Definition converts q into a custom catalog definition.
func (q QueryConfig) Definition() query.Definition {
	return query.Definition{
		ID:          q.ID,
		Name:        q.Name,
		Description: q.Description,
		JQL:         q.JQL,
		MaxResults:  q.MaxResults,
		Category:    query.CategoryCustom,
		Tags:        q.Tags,
	}
}

// Definitions converts every configured query.
func (c Config) Definitions() []query.Definition {
	defs := make([]query.Definition, 0, len(c.Queries))
	for _, q := range c.Queries {
		defs = append(defs, q.Definition())
	}
	return defs
}

// QueriesFromDefinitions converts custom catalog entries for saving.
func QueriesFromDefinitions(defs []query.Definition) []QueryConfig {
	out := make([]QueryConfig, 0, len(defs))
	for _, d := range defs {
		out = append(out, QueryConfig{
			ID:          d.ID,
			Name:        d.Name,
			Description: d.Description,
			JQL:         d.JQL,
			MaxResults:  d.MaxResults,
			Tags:        d.Tags,
		})
	}
	return out
}

// DefaultConfigDir returns ~/.config/jqlboard, or "" if the home directory
// is unavailable.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "jqlboard")
}

// DefaultTracesFilePath returns the default path for trace file export.
func DefaultTracesFilePath() string {
	dir := DefaultConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "traces", "traces.jsonl")
}

// DefaultHistoryPath returns the default execution history database path.
func DefaultHistoryPath() string {
	dir := DefaultConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "history.db")
}

// Defaults returns a Config with sensible default values.
func Defaults() Config {
	return Config{
		Jira: JiraConfig{
			APIVersion:        "3",
			Timeout:           30 * time.Second,
			RequestsPerSecond: 5,
			MaxResultsDefault: query.DefaultMaxResults,
		},
		Cache: CacheConfig{
			TTL: query.DefaultCacheTTL,
		},
		Pagination: PaginationConfig{
			PageSize:      query.DefaultMaxResults,
			BatchPageSize: query.DefaultBatchPageSize,
			BatchTarget:   1000,
		},
		History: HistoryConfig{
			Enabled: true,
			Path:    "", // Derived from config dir at runtime
		},
		Tracing: TracingConfig{
			Enabled:      false,
			Exporter:     tracing.ExporterFile,
			FilePath:     "", // Derived from config dir at runtime
			OTLPEndpoint: "localhost:4317",
			SampleRate:   1.0,
		},
	}
}

// Validate checks the whole configuration.
func Validate(c Config) error {
	return errors.Join(
		ValidateJira(c.Jira),
		ValidateCache(c.Cache),
		ValidatePagination(c.Pagination),
		ValidateTracing(c.Tracing),
		ValidateQueries(c.Queries),
	)
}

// ValidateJira checks Jira settings. Missing credentials are not an error;
// the executor then runs without a source.
func ValidateJira(j JiraConfig) error {
	if j.BaseURL != "" {
		u, err := url.Parse(j.BaseURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("jira.base_url must be an http(s) URL, got %q", j.BaseURL)
		}
	}
	switch j.APIVersion {
	case "", "2", "3":
	default:
		return fmt.Errorf("jira.api_version must be \"2\" or \"3\", got %q", j.APIVersion)
	}
	if j.Timeout < 0 {
		return fmt.Errorf("jira.timeout must not be negative, got %s", j.Timeout)
	}
	if j.RequestsPerSecond < 0 {
		return fmt.Errorf("jira.requests_per_second must not be negative, got %v", j.RequestsPerSecond)
	}
	if j.MaxResultsDefault < 0 {
		return fmt.Errorf("jira.max_results_default must not be negative, got %d", j.MaxResultsDefault)
	}
	return nil
}

// ValidateCache checks cache settings. Zero selects the default TTL.
func ValidateCache(c CacheConfig) error {
	if c.TTL < 0 {
		return fmt.Errorf("cache.ttl must not be negative, got %s", c.TTL)
	}
	return nil
}

// ValidatePagination checks paging settings. Zero values select defaults.
func ValidatePagination(p PaginationConfig) error {
	if p.PageSize < 0 {
		return fmt.Errorf("pagination.page_size must not be negative, got %d", p.PageSize)
	}
	if p.BatchPageSize < 0 {
		return fmt.Errorf("pagination.batch_page_size must not be negative, got %d", p.BatchPageSize)
	}
	if p.BatchTarget < 0 {
		return fmt.Errorf("pagination.batch_target must not be negative, got %d", p.BatchTarget)
	}
	return nil
}

// ValidateTracing checks tracing configuration for errors.
// Returns nil if the configuration is valid (empty values use defaults).
func ValidateTracing(t TracingConfig) error {
	if t.SampleRate < 0.0 || t.SampleRate > 1.0 {
		return fmt.Errorf("tracing.sample_rate must be between 0.0 and 1.0, got %v", t.SampleRate)
	}

	if t.Exporter != "" {
		switch t.Exporter {
		case tracing.ExporterNone, tracing.ExporterFile, tracing.ExporterStdout, tracing.ExporterOTLP:
		default:
			return fmt.Errorf("tracing.exporter must be \"none\", \"file\", \"stdout\", or \"otlp\", got %q", t.Exporter)
		}
	}

	if t.Enabled && t.Exporter == tracing.ExporterOTLP && t.OTLPEndpoint == "" {
		return fmt.Errorf("tracing.otlp_endpoint is required when exporter is \"otlp\"")
	}
	return nil
}

// ValidateQueries checks custom query entries.
func ValidateQueries(queries []QueryConfig) error {
	seen := make(map[string]bool, len(queries))
	for i, q := range queries {
		if strings.TrimSpace(q.ID) == "" {
			return fmt.Errorf("query %d: id is required", i)
		}
		if seen[q.ID] {
			return fmt.Errorf("query %d (%s): duplicate id", i, q.ID)
		}
		seen[q.ID] = true
		if strings.TrimSpace(q.Name) == "" {
			return fmt.Errorf("query %d (%s): name is required", i, q.ID)
		}
		if strings.TrimSpace(q.JQL) == "" {
			return fmt.Errorf("query %d (%s): jql is required", i, q.ID)
		}
		if q.MaxResults < 0 {
			return fmt.Errorf("query %d (%s): max_results must not be negative", i, q.ID)
		}
	}
	return nil
}

// DefaultConfigTemplate returns the default config as a YAML string with comments.
func DefaultConfigTemplate() string {
	return `# jqlboard configuration

# Jira connection. Credentials can also come from JIRA_BASE_URL, JIRA_EMAIL
# and JIRA_TOKEN, which take precedence over this file.
jira:
  # base_url: https://your-org.atlassian.net
  # email: you@example.com
  # token: your-api-token
  api_version: "3"          # REST API version: "3" (default) or "2"
  timeout: 30s              # Per-request timeout
  requests_per_second: 5    # Client-side throttle, 0 disables
  max_results_default: 100  # Result limit for ad-hoc JQL

# Query result cache
cache:
  ttl: 5m                   # Cached results older than this are refetched

# Paging and batch loading
pagination:
  page_size: 100            # Default page size
  batch_page_size: 100      # Page size used by "all"
  batch_target: 1000        # Default number of issues "all" loads

# Execution history (SQLite)
history:
  enabled: true
  # path: ~/.config/jqlboard/history.db

# Distributed tracing
# tracing:
#   enabled: false                 # Enable/disable tracing (default: false)
#   exporter: file                 # Export backend: none, file, stdout, otlp (default: file)
#   file_path: ~/.config/jqlboard/traces/traces.jsonl
#   otlp_endpoint: localhost:4317  # OTLP collector endpoint (for otlp exporter)
#   sample_rate: 1.0               # Trace sampling rate 0.0-1.0 (default: 1.0)

# Custom queries, managed with "jqlboard queries add|remove" or the shell.
# Edits are picked up live by a running shell.
# queries:
#   - id: custom_team_bugs
#     name: Team bugs
#     jql: project = BAU AND type = Bug AND statusCategory != Done
#     max_results: 50
#     tags: [bugs, team]
`
}

// WriteDefaultConfig creates a config file at the given path with default settings and comments.
// Creates the parent directory if it doesn't exist.
func WriteDefaultConfig(configPath string) error {
	log.Debug(log.CatConfig, "Writing default config", "path", configPath)

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to create config directory", err, "dir", dir)
		return fmt.Errorf("creating config directory: %w", err)
	}

	if err := os.WriteFile(configPath, []byte(DefaultConfigTemplate()), 0o600); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to write config file", err, "path", configPath)
		return fmt.Errorf("writing config file: %w", err)
	}

	log.Info(log.CatConfig, "Created default config", "path", configPath)
	return nil
}
