package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

// Known source names, in default invocation order.
const (
	SourceJSearch   = "jsearch"
	SourceArbeitnow = "arbeitnow"
	SourceRemotive  = "remotive"
)

var knownSources = map[string]bool{
	SourceJSearch:   true,
	SourceArbeitnow: true,
	SourceRemotive:  true,
}

// Config is the root configuration for jobpulse.
type Config struct {
	Profile      string // "public" or "internal"
	HTTPTimeout  time.Duration
	Aggregator   AggregatorConfig
	Sources      []SourceConfig // invocation order
	Server       ServerConfig
	Enricher     EnricherConfig
	Watch        WatchConfig
	Notification NotificationConfig
}

// AggregatorConfig overrides the selected profile. Zero values keep the
// profile's own settings.
type AggregatorConfig struct {
	PageCap        int
	AllowedSources []string // nil keeps the profile list, empty disables it
	AdapterTimeout time.Duration
	SourceMatch    string // "substring" or "normalized", empty keeps the profile matcher
}

// SourceConfig describes one upstream job source.
type SourceConfig struct {
	Name       string
	Enabled    bool
	APIKey     string
	BaseURL    string
	TokenQuery bool    // jsearch only
	RateLimit  float64 // requests per second, 0 means unlimited
	Retries    int
	RetryDelay time.Duration
}

// ServerConfig controls the HTTP API.
type ServerConfig struct {
	Addr        string
	CORSOrigins []string
}

// EnricherConfig controls image backfill.
type EnricherConfig struct {
	Enabled     bool
	Concurrency int
	Timeout     time.Duration
	PreviewURL  string
	LogoURL     string
	CacheTTL    time.Duration
}

// WatchConfig lists saved searches re-run on a schedule.
type WatchConfig struct {
	Schedule  string // cron spec, e.g. "@every 10m"
	StorePath string
	Retention time.Duration // seen keys older than this are purged
	Searches  []SearchConfig
}

// SearchConfig is one saved search.
type SearchConfig struct {
	Name    string        `yaml:"name"`
	Query   string        `yaml:"query"`
	Filters FiltersConfig `yaml:"filters"`
}

// FiltersConfig mirrors the structured search filters.
type FiltersConfig struct {
	Source     string `yaml:"source"`
	Location   string `yaml:"location"`
	Company    string `yaml:"company"`
	Remote     bool   `yaml:"remote"`
	Type       string `yaml:"type"`
	DatePosted string `yaml:"date_posted"`
	Keywords   string `yaml:"keywords"`
	SalaryMin  int    `yaml:"salary_min"`
}

// NotificationConfig controls which notifier is used and its settings.
type NotificationConfig struct {
	Type       string `yaml:"type"`        // "log" or "slack"
	WebhookURL string `yaml:"webhook_url"` // required if type is "slack"
}

// rawConfig is used for YAML unmarshaling (snake_case fields and duration as string).
type rawConfig struct {
	Profile      string              `yaml:"profile"`
	HTTPTimeout  string              `yaml:"http_timeout"`
	Aggregator   rawAggregatorConfig `yaml:"aggregator"`
	Sources      []rawSourceConfig   `yaml:"sources"`
	Server       rawServerConfig     `yaml:"server"`
	Enricher     rawEnricherConfig   `yaml:"enricher"`
	Watch        rawWatchConfig      `yaml:"watch"`
	Notification NotificationConfig  `yaml:"notification"`
}

type rawAggregatorConfig struct {
	PageCap        int       `yaml:"page_cap"`
	AllowedSources *[]string `yaml:"allowed_sources"`
	AdapterTimeout string    `yaml:"adapter_timeout"`
	SourceMatch    string    `yaml:"source_match"`
}

type rawSourceConfig struct {
	Name       string  `yaml:"name"`
	Enabled    *bool   `yaml:"enabled"`
	APIKey     string  `yaml:"api_key"`
	BaseURL    string  `yaml:"base_url"`
	TokenQuery bool    `yaml:"token_query"`
	RateLimit  float64 `yaml:"rate_limit"`
	Retries    int     `yaml:"retries"`
	RetryDelay string  `yaml:"retry_delay"`
}

type rawServerConfig struct {
	Addr        string   `yaml:"addr"`
	CORSOrigins []string `yaml:"cors_origins"`
}

type rawEnricherConfig struct {
	Enabled     *bool  `yaml:"enabled"`
	Concurrency int    `yaml:"concurrency"`
	Timeout     string `yaml:"timeout"`
	PreviewURL  string `yaml:"preview_url"`
	LogoURL     string `yaml:"logo_url"`
	CacheTTL    string `yaml:"cache_ttl"`
}

type rawWatchConfig struct {
	Schedule  string         `yaml:"schedule"`
	StorePath string         `yaml:"store_path"`
	Retention string         `yaml:"retention"`
	Searches  []SearchConfig `yaml:"searches"`
}

// Load reads and parses the YAML config file at path, validates it, and returns Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse expands environment variables in data and builds a validated Config.
func Parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	var raw rawConfig
	if err := yaml.Unmarshal([]byte(expanded), &raw); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	httpTimeout, err := parseDuration("http_timeout", raw.HTTPTimeout, 15*time.Second)
	if err != nil {
		return nil, err
	}
	adapterTimeout, err := parseDuration("aggregator.adapter_timeout", raw.Aggregator.AdapterTimeout, 0)
	if err != nil {
		return nil, err
	}
	enricherTimeout, err := parseDuration("enricher.timeout", raw.Enricher.Timeout, 5*time.Second)
	if err != nil {
		return nil, err
	}
	cacheTTL, err := parseDuration("enricher.cache_ttl", raw.Enricher.CacheTTL, time.Hour)
	if err != nil {
		return nil, err
	}
	retention, err := parseDuration("watch.retention", raw.Watch.Retention, 30*24*time.Hour)
	if err != nil {
		return nil, err
	}

	sources, err := buildSources(raw.Sources)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Profile:     orDefault(raw.Profile, "public"),
		HTTPTimeout: httpTimeout,
		Aggregator: AggregatorConfig{
			PageCap:        raw.Aggregator.PageCap,
			AdapterTimeout: adapterTimeout,
			SourceMatch:    raw.Aggregator.SourceMatch,
		},
		Sources: sources,
		Server: ServerConfig{
			Addr:        orDefault(raw.Server.Addr, ":5175"),
			CORSOrigins: raw.Server.CORSOrigins,
		},
		Enricher: EnricherConfig{
			Enabled:     raw.Enricher.Enabled == nil || *raw.Enricher.Enabled,
			Concurrency: raw.Enricher.Concurrency,
			Timeout:     enricherTimeout,
			PreviewURL:  raw.Enricher.PreviewURL,
			LogoURL:     raw.Enricher.LogoURL,
			CacheTTL:    cacheTTL,
		},
		Watch: WatchConfig{
			Schedule:  orDefault(raw.Watch.Schedule, "@every 10m"),
			StorePath: orDefault(raw.Watch.StorePath, "jobpulse.db"),
			Retention: retention,
			Searches:  raw.Watch.Searches,
		},
		Notification: raw.Notification,
	}
	if raw.Aggregator.AllowedSources != nil {
		cfg.Aggregator.AllowedSources = append([]string{}, (*raw.Aggregator.AllowedSources)...)
	}
	if cfg.Enricher.Concurrency == 0 {
		cfg.Enricher.Concurrency = 8
	}
	if cfg.Notification.Type == "" {
		cfg.Notification.Type = "log"
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// buildSources applies defaults. An empty list selects every known source in
// default order with the JSearch key taken from RAPIDAPI_KEY.
func buildSources(raws []rawSourceConfig) ([]SourceConfig, error) {
	if len(raws) == 0 {
		return []SourceConfig{
			{Name: SourceJSearch, Enabled: true, APIKey: os.Getenv("RAPIDAPI_KEY")},
			{Name: SourceArbeitnow, Enabled: true},
			{Name: SourceRemotive, Enabled: true},
		}, nil
	}

	out := make([]SourceConfig, 0, len(raws))
	for i, r := range raws {
		delay, err := parseDuration(fmt.Sprintf("sources[%d].retry_delay", i), r.RetryDelay, 2*time.Second)
		if err != nil {
			return nil, err
		}
		out = append(out, SourceConfig{
			Name:       strings.ToLower(strings.TrimSpace(r.Name)),
			Enabled:    r.Enabled == nil || *r.Enabled,
			APIKey:     r.APIKey,
			BaseURL:    r.BaseURL,
			TokenQuery: r.TokenQuery,
			RateLimit:  r.RateLimit,
			Retries:    r.Retries,
			RetryDelay: delay,
		})
	}
	return out, nil
}

// EnabledSources returns enabled sources in invocation order.
func (c *Config) EnabledSources() []SourceConfig {
	var out []SourceConfig
	for _, s := range c.Sources {
		if s.Enabled {
			out = append(out, s)
		}
	}
	return out
}

func validate(cfg *Config) error {
	if cfg.Profile != "public" && cfg.Profile != "internal" {
		return fmt.Errorf("profile must be \"public\" or \"internal\", got %q", cfg.Profile)
	}
	if cfg.HTTPTimeout <= 0 {
		return fmt.Errorf("http_timeout must be positive, got %v", cfg.HTTPTimeout)
	}
	if cfg.Aggregator.PageCap < 0 {
		return fmt.Errorf("aggregator.page_cap must not be negative, got %d", cfg.Aggregator.PageCap)
	}
	switch cfg.Aggregator.SourceMatch {
	case "", "substring", "normalized":
	default:
		return fmt.Errorf("aggregator.source_match must be \"substring\" or \"normalized\", got %q", cfg.Aggregator.SourceMatch)
	}

	seen := make(map[string]bool)
	enabled := 0
	for _, s := range cfg.Sources {
		if !knownSources[s.Name] {
			return fmt.Errorf("unknown source %q", s.Name)
		}
		if seen[s.Name] {
			return fmt.Errorf("source %q listed twice", s.Name)
		}
		seen[s.Name] = true
		if s.RateLimit < 0 || s.Retries < 0 {
			return fmt.Errorf("source %q: rate_limit and retries must not be negative", s.Name)
		}
		if s.Enabled {
			enabled++
		}
	}
	if enabled == 0 {
		return fmt.Errorf("at least one source must be enabled")
	}

	if cfg.Enricher.Concurrency < 1 || cfg.Enricher.Concurrency > 32 {
		return fmt.Errorf("enricher.concurrency must be between 1 and 32, got %d", cfg.Enricher.Concurrency)
	}

	if _, err := cron.ParseStandard(cfg.Watch.Schedule); err != nil {
		return fmt.Errorf("watch.schedule %q: %w", cfg.Watch.Schedule, err)
	}
	names := make(map[string]bool)
	for i, s := range cfg.Watch.Searches {
		if s.Name == "" {
			return fmt.Errorf("watch.searches[%d].name is required", i)
		}
		if names[s.Name] {
			return fmt.Errorf("watch search %q listed twice", s.Name)
		}
		names[s.Name] = true
	}

	switch cfg.Notification.Type {
	case "log":
	case "slack":
		if cfg.Notification.WebhookURL == "" {
			return fmt.Errorf("notification.webhook_url is required when type is \"slack\"")
		}
		if !strings.HasPrefix(cfg.Notification.WebhookURL, "https://hooks.slack.com/") {
			return fmt.Errorf("notification.webhook_url must start with https://hooks.slack.com/")
		}
	default:
		return fmt.Errorf("notification.type must be \"log\" or \"slack\", got %q", cfg.Notification.Type)
	}

	return nil
}

func parseDuration(field, value string, fallback time.Duration) (time.Duration, error) {
	if value == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("parse %s %q: %w", field, value, err)
	}
	return d, nil
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
