// Package config loads runtime configuration from an optional YAML file and
// the environment. Environment variables always win over file values.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/spf13/viper"
)

// Config is the full runtime configuration tree.
type Config struct {
	Serper   SerperConfig   `mapstructure:"serper"`
	OpenAI   OpenAIConfig   `mapstructure:"openai"`
	HTTP     HTTPConfig     `mapstructure:"http"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Fetch    FetchConfig    `mapstructure:"fetch"`
	Pipeline PipelineConfig `mapstructure:"pipeline"`
	Filter   FilterConfig   `mapstructure:"filter"`
	Storage  StorageConfig  `mapstructure:"storage"`
}

// SerperConfig configures the Serper search API client. An empty key
// disables search.
type SerperConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
}

// OpenAIConfig configures AI summaries. An empty key selects the extractive
// fallback.
type OpenAIConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
	Model   string `mapstructure:"model"`
}

// HTTPConfig configures the web UI server.
type HTTPConfig struct {
	Addr string `mapstructure:"addr"`
}

// MetricsConfig configures the standalone metrics server. An empty address
// leaves it off.
type MetricsConfig struct {
	Addr string `mapstructure:"addr"`
}

// FetchConfig configures page fetching.
type FetchConfig struct {
	Timeout           time.Duration `mapstructure:"timeout"`
	Retries           int           `mapstructure:"retries"`
	RespectRobots     bool          `mapstructure:"respect_robots"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
	// Fingerprint selects the TLS handshake shape: chrome, firefox, safari,
	// go or random.
	Fingerprint string `mapstructure:"fingerprint"`
	// UserAgents overrides the built-in User-Agent rotation.
	UserAgents []string `mapstructure:"user_agents"`
	// Proxies lists proxy URLs to rotate outbound fetches through.
	Proxies []string `mapstructure:"proxies"`
	// ProxyFile points at a file with one proxy URL per line, additive with
	// Proxies. Empty and '#' lines are skipped.
	ProxyFile string `mapstructure:"proxy_file"`
}

// PipelineConfig configures lead generation.
type PipelineConfig struct {
	Concurrency int `mapstructure:"concurrency"`
}

// FilterConfig extends the built-in marketplace and listicle filters.
type FilterConfig struct {
	ExtraDomains []string `mapstructure:"extra_domains"`
	ExtraWords   []string `mapstructure:"extra_words"`
}

// StorageConfig selects and configures the record store.
type StorageConfig struct {
	// Backend is one of sqlite, postgres, csv, json, xlsx.
	Backend string `mapstructure:"backend"`
	// DSN is the postgres connection string, or the output path for the
	// file-based backends.
	DSN string `mapstructure:"dsn"`
}

// envBindings maps config keys to the environment variables that override
// them. API keys are env-first so they stay out of config files.
var envBindings = map[string]string{
	"serper.api_key":  "SERPER_API_KEY",
	"serper.base_url": "SERPER_BASE_URL",
	"openai.api_key":  "OPENAI_API_KEY",
	"openai.base_url": "OPENAI_BASE_URL",
	"openai.model":    "OPENAI_MODEL",
	"http.addr":       "PROSPECT_ADDR",
	"metrics.addr":    "PROSPECT_METRICS_ADDR",
}

// Load reads configuration from path (or ./prospect.yaml when path is empty)
// and the environment. A missing file is not an error.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("serper.base_url", "https://google.serper.dev")
	v.SetDefault("openai.base_url", "https://api.openai.com/v1")
	v.SetDefault("openai.model", "gpt-4o-mini-2024-07-18")
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("fetch.timeout", 20*time.Second)
	v.SetDefault("fetch.retries", 3)
	v.SetDefault("fetch.respect_robots", false)
	v.SetDefault("fetch.fingerprint", "chrome")
	v.SetDefault("pipeline.concurrency", 4)
	v.SetDefault("storage.backend", "sqlite")
	v.SetDefault("storage.dsn", "prospect.db")
	v.RegisterAlias("storage.path", "storage.dsn")

	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("prospect")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return &cfg, nil
}

// Status reports which external integrations are configured.
type Status struct {
	Search    bool `json:"search"`
	Summaries bool `json:"summaries"`
}

// Status reports integration availability for the UI sidebar and the status
// endpoint. Key material itself is never exposed.
func (c *Config) Status() Status {
	return Status{
		Search:    c.Serper.APIKey != "",
		Summaries: c.OpenAI.APIKey != "",
	}
}
