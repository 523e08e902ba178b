package config

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/zjrosen/jqlboard/internal/log"
)

// envBindings maps config keys to the environment variables that override
// them.
var envBindings = map[string]string{
	"jira.base_url":            "JIRA_BASE_URL",
	"jira.email":               "JIRA_EMAIL",
	"jira.token":               "JIRA_TOKEN",
	"jira.max_results_default": "JIRA_MAX_RESULTS_DEFAULT",
}

// SetDefaults registers Defaults() and the environment bindings on v.
func SetDefaults(v *viper.Viper) {
	d := Defaults()
	v.SetDefault("jira.api_version", d.Jira.APIVersion)
	v.SetDefault("jira.timeout", d.Jira.Timeout)
	v.SetDefault("jira.requests_per_second", d.Jira.RequestsPerSecond)
	v.SetDefault("jira.max_results_default", d.Jira.MaxResultsDefault)
	v.SetDefault("cache.ttl", d.Cache.TTL)
	v.SetDefault("pagination.page_size", d.Pagination.PageSize)
	v.SetDefault("pagination.batch_page_size", d.Pagination.BatchPageSize)
	v.SetDefault("pagination.batch_target", d.Pagination.BatchTarget)
	v.SetDefault("history.enabled", d.History.Enabled)
	v.SetDefault("tracing.enabled", d.Tracing.Enabled)
	v.SetDefault("tracing.exporter", d.Tracing.Exporter)
	v.SetDefault("tracing.otlp_endpoint", d.Tracing.OTLPEndpoint)
	v.SetDefault("tracing.sample_rate", d.Tracing.SampleRate)

	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}
}

// Load decodes v into a Config and validates it.
func Load(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decoding config: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	if cfg.History.Path == "" {
		cfg.History.Path = DefaultHistoryPath()
	}

	log.Debug(log.CatConfig, "config loaded", "file", v.ConfigFileUsed(), "queries", len(cfg.Queries), "jira", cfg.Jira.HasCredentials())
	return cfg, nil
}

// LoadFile reads and validates the config file at path, with defaults and
// environment overrides applied. Used to pick up edits while running.
func LoadFile(path string) (Config, error) {
	v := viper.New()
	SetDefaults(v)
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("reading config: %w", err)
	}
	return Load(v)
}
