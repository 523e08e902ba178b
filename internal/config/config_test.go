package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"

	"github.com/zjrosen/jqlboard/internal/query"
	"github.com/zjrosen/jqlboard/internal/tracing"
)

func TestDefaults(t *testing.T) {
	d := Defaults()

	require.Equal(t, "3", d.Jira.APIVersion)
	require.Equal(t, 30*time.Second, d.Jira.Timeout)
	require.Equal(t, query.DefaultMaxResults, d.Jira.MaxResultsDefault)
	require.Equal(t, 5*time.Minute, d.Cache.TTL)
	require.Equal(t, 100, d.Pagination.BatchPageSize)
	require.True(t, d.History.Enabled)
	require.False(t, d.Tracing.Enabled)
	require.NoError(t, Validate(d))
	require.False(t, d.Jira.HasCredentials())
}

func TestValidateJira(t *testing.T) {
	require.NoError(t, ValidateJira(JiraConfig{}))
	require.NoError(t, ValidateJira(JiraConfig{BaseURL: "https://acme.atlassian.net", APIVersion: "2"}))

	require.ErrorContains(t, ValidateJira(JiraConfig{BaseURL: "acme.atlassian.net"}), "jira.base_url")
	require.ErrorContains(t, ValidateJira(JiraConfig{BaseURL: "ftp://acme"}), "jira.base_url")
	require.ErrorContains(t, ValidateJira(JiraConfig{APIVersion: "4"}), "jira.api_version")
	require.ErrorContains(t, ValidateJira(JiraConfig{Timeout: -time.Second}), "jira.timeout")
	require.ErrorContains(t, ValidateJira(JiraConfig{RequestsPerSecond: -1}), "requests_per_second")
	require.ErrorContains(t, ValidateJira(JiraConfig{MaxResultsDefault: -1}), "max_results_default")
}

func TestValidateCacheAndPagination(t *testing.T) {
	require.NoError(t, ValidateCache(CacheConfig{}))
	require.ErrorContains(t, ValidateCache(CacheConfig{TTL: -time.Minute}), "cache.ttl")

	require.NoError(t, ValidatePagination(PaginationConfig{}))
	require.ErrorContains(t, ValidatePagination(PaginationConfig{PageSize: -1}), "page_size")
	require.ErrorContains(t, ValidatePagination(PaginationConfig{BatchPageSize: -1}), "batch_page_size")
	require.ErrorContains(t, ValidatePagination(PaginationConfig{BatchTarget: -1}), "batch_target")
}

func TestValidateTracing(t *testing.T) {
	tests := []struct {
		name    string
		cfg     TracingConfig
		wantErr string
	}{
		{name: "empty", cfg: TracingConfig{}},
		{name: "defaults", cfg: Defaults().Tracing},
		{name: "sample rate too high", cfg: TracingConfig{SampleRate: 1.5}, wantErr: "sample_rate"},
		{name: "sample rate negative", cfg: TracingConfig{SampleRate: -0.1}, wantErr: "sample_rate"},
		{name: "bad exporter", cfg: TracingConfig{Exporter: "jaeger"}, wantErr: "tracing.exporter"},
		{name: "otlp without endpoint", cfg: TracingConfig{Enabled: true, Exporter: "otlp"}, wantErr: "otlp_endpoint"},
		{name: "otlp disabled without endpoint", cfg: TracingConfig{Exporter: "otlp"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTracing(tt.cfg)
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestValidateQueries(t *testing.T) {
	ok := QueryConfig{ID: "custom_a", Name: "A", JQL: "project = A"}
	require.NoError(t, ValidateQueries(nil))
	require.NoError(t, ValidateQueries([]QueryConfig{ok}))

	require.ErrorContains(t, ValidateQueries([]QueryConfig{{Name: "x", JQL: "y"}}), "id is required")
	require.ErrorContains(t, ValidateQueries([]QueryConfig{ok, ok}), "duplicate id")
	require.ErrorContains(t, ValidateQueries([]QueryConfig{{ID: "a", JQL: "y"}}), "name is required")
	require.ErrorContains(t, ValidateQueries([]QueryConfig{{ID: "a", Name: "x"}}), "jql is required")
	require.ErrorContains(t, ValidateQueries([]QueryConfig{{ID: "a", Name: "x", JQL: "y", MaxResults: -1}}), "max_results")
}

func TestValidate_JoinsErrors(t *testing.T) {
	cfg := Defaults()
	cfg.Cache.TTL = -1
	cfg.Tracing.SampleRate = 2

	err := Validate(cfg)
	require.ErrorContains(t, err, "cache.ttl")
	require.ErrorContains(t, err, "sample_rate")
}

func TestQueryConfig_Definitions(t *testing.T) {
	cfg := Config{Queries: []QueryConfig{
		{ID: "custom_a", Name: "A", JQL: "project = A", MaxResults: 20, Tags: []string{"team"}},
	}}

	defs := cfg.Definitions()
	require.Len(t, defs, 1)
	require.Equal(t, query.CategoryCustom, defs[0].Category)
	require.Equal(t, 20, defs[0].MaxResults)

	back := QueriesFromDefinitions(defs)
	require.Equal(t, cfg.Queries, back)
}

func TestTracingConfig_ProviderConfig(t *testing.T) {
	pc := TracingConfig{Enabled: true, Exporter: "stdout", SampleRate: 0.5}.ProviderConfig()
	require.True(t, pc.Enabled)
	require.Equal(t, tracing.ExporterStdout, pc.Exporter)
	require.Equal(t, tracing.DefaultOTLPEndpoint, pc.OTLPEndpoint)
	require.Equal(t, tracing.DefaultServiceName, pc.ServiceName)
	require.InDelta(t, 0.5, pc.SampleRate, 0.0001)
}

func TestJiraConfig_ClientConfig(t *testing.T) {
	j := JiraConfig{BaseURL: "https://acme.atlassian.net", Email: "a@b.c", Token: "t", Timeout: time.Second}
	require.True(t, j.HasCredentials())

	cc := j.ClientConfig()
	require.Equal(t, j.BaseURL, cc.BaseURL)
	require.Equal(t, time.Second, cc.Timeout)
}

func TestLoad_FileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
jira:
  base_url: https://file.atlassian.net
  timeout: 10s
cache:
  ttl: 2m
queries:
  - id: custom_bugs
    name: Bugs
    jql: type = Bug
    tags: [bugs]
`), 0o600))

	t.Setenv("JIRA_BASE_URL", "https://env.atlassian.net")
	t.Setenv("JIRA_EMAIL", "me@example.com")
	t.Setenv("JIRA_TOKEN", "secret")
	t.Setenv("JIRA_MAX_RESULTS_DEFAULT", "25")

	v := viper.New()
	SetDefaults(v)
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())

	cfg, err := Load(v)
	require.NoError(t, err)
	require.Equal(t, "https://env.atlassian.net", cfg.Jira.BaseURL)
	require.Equal(t, "me@example.com", cfg.Jira.Email)
	require.Equal(t, 25, cfg.Jira.MaxResultsDefault)
	require.Equal(t, 10*time.Second, cfg.Jira.Timeout)
	require.Equal(t, "3", cfg.Jira.APIVersion)
	require.Equal(t, 2*time.Minute, cfg.Cache.TTL)
	require.Equal(t, 100, cfg.Pagination.PageSize)
	require.Len(t, cfg.Queries, 1)
	require.Equal(t, []string{"bugs"}, cfg.Queries[0].Tags)
}

func TestLoad_Invalid(t *testing.T) {
	v := viper.New()
	SetDefaults(v)
	v.Set("tracing.exporter", "carrier-pigeon")

	_, err := Load(v)
	require.ErrorContains(t, err, "invalid configuration")
}

func TestWriteDefaultConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	require.NoError(t, WriteDefaultConfig(path))

	v := viper.New()
	SetDefaults(v)
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())

	cfg, err := Load(v)
	require.NoError(t, err)
	require.Equal(t, 1000, cfg.Pagination.BatchTarget)
	require.Empty(t, cfg.Queries)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(string(data), "# jqlboard configuration"))
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("queries:\n  - id: custom_ops\n    name: Ops\n    jql: project = OPS\n"), 0o600))

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	require.Len(t, cfg.Definitions(), 1)
	require.Equal(t, query.CategoryCustom, cfg.Definitions()[0].Category)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.ErrorContains(t, err, "reading config")
}
