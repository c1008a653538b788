package main

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/amishk599/jobpulse/internal/adapter"
	"github.com/amishk599/jobpulse/internal/aggregator"
	"github.com/amishk599/jobpulse/internal/classifier"
	"github.com/amishk599/jobpulse/internal/config"
	"github.com/amishk599/jobpulse/internal/enricher"
	"github.com/amishk599/jobpulse/internal/filter"
	"github.com/amishk599/jobpulse/internal/metrics"
	"github.com/amishk599/jobpulse/internal/model"
	"github.com/amishk599/jobpulse/internal/notifier"
	"github.com/amishk599/jobpulse/internal/ratelimit"
	"github.com/amishk599/jobpulse/internal/retry"
	"github.com/amishk599/jobpulse/internal/watch"
)

const maxRetryDelay = 30 * time.Second

var (
	cfgPath string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:   "jobpulse",
	Short: "Multi-source job search aggregator",
	Long:  "jobpulse searches several job boards at once, keeps the digital roles, removes duplicates and serves them over HTTP.",
	// Loaded before every command so RAPIDAPI_KEY can live in a local .env.
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		_ = godotenv.Load()
	},
	SilenceUsage: true,
	// `jobpulse` with no subcommand serves the API.
	RunE: runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "path to config file (default: JOBPULSE_CONFIG env var or ./config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
}

// loadConfig resolves the config path and parses it.
// Priority: explicit path arg > JOBPULSE_CONFIG env var > "./config.yaml"
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		if env := os.Getenv("JOBPULSE_CONFIG"); env != "" {
			path = env
		} else {
			path = "config.yaml"
		}
	}
	return config.Load(path)
}

func setupLogger(dbg bool) *slog.Logger {
	logLevel := slog.LevelInfo
	if dbg {
		logLevel = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
}

// discardLogger is used by the TUI; any output before the alt-screen starts
// corrupts the display.
func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func setupNotifier(cfg *config.Config, httpClient *http.Client, logger *slog.Logger) model.Notifier {
	switch cfg.Notification.Type {
	case "slack":
		logger.Info("using slack notifier")
		return notifier.NewSlackNotifier(cfg.Notification.WebhookURL, httpClient, logger)
	default:
		return notifier.NewLogNotifier(logger)
	}
}

// buildProfile starts from the named profile and applies config overrides.
func buildProfile(cfg *config.Config) (aggregator.Profile, error) {
	p, err := aggregator.ProfileByName(cfg.Profile)
	if err != nil {
		return aggregator.Profile{}, err
	}
	if cfg.Aggregator.PageCap > 0 {
		p.PageCap = cfg.Aggregator.PageCap
	}
	if cfg.Aggregator.AllowedSources != nil {
		p.AllowList = make([]string, 0, len(cfg.Aggregator.AllowedSources))
		for _, s := range cfg.Aggregator.AllowedSources {
			if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
				p.AllowList = append(p.AllowList, s)
			}
		}
	}
	if cfg.Aggregator.AdapterTimeout > 0 {
		p.AdapterTimeout = cfg.Aggregator.AdapterTimeout
	}
	if cfg.Aggregator.SourceMatch != "" {
		p.SourceMatch = filter.SourceMatcherByName(cfg.Aggregator.SourceMatch)
	}
	return p, nil
}

func createFetcher(src config.SourceConfig, profile aggregator.Profile, httpClient *http.Client, logger *slog.Logger) (model.JobFetcher, bool) {
	switch src.Name {
	case config.SourceJSearch:
		return adapter.NewJSearchAdapter(adapter.JSearchOptions{
			APIKey:     src.APIKey,
			BaseURL:    src.BaseURL,
			TokenQuery: src.TokenQuery || profile.Name == aggregator.ProfilePublic,
		}, httpClient, logger), true
	case config.SourceArbeitnow:
		return adapter.NewArbeitnowAdapter(src.BaseURL, httpClient, logger), true
	case config.SourceRemotive:
		return adapter.NewRemotiveAdapter(src.BaseURL, httpClient, logger), true
	default:
		logger.Warn("unsupported source, skipping", "source", src.Name)
		return nil, false
	}
}

// buildSources creates one decorated fetcher per enabled source, in config
// order: adapter → retry (only when retries > 0) → rate limit.
func buildSources(cfg *config.Config, profile aggregator.Profile, httpClient *http.Client, logger *slog.Logger) []aggregator.Source {
	limiter := ratelimit.NewSourceLimiter()

	var sources []aggregator.Source
	for _, src := range cfg.EnabledSources() {
		fetcher, ok := createFetcher(src, profile, httpClient, logger)
		if !ok {
			continue
		}
		if src.Retries > 0 {
			fetcher = retry.NewRetryFetcher(fetcher, src.Name, retry.Policy{
				MaxRetries: src.Retries,
				BaseDelay:  src.RetryDelay,
				MaxDelay:   maxRetryDelay,
			}, logger)
		}
		limiter.Set(src.Name, src.RateLimit)
		fetcher = ratelimit.NewRateLimitedFetcher(fetcher, limiter, src.Name)

		sources = append(sources, aggregator.Source{Name: src.Name, Fetcher: fetcher})
		logger.Debug("registered source", "source", src.Name, "rate_limit", src.RateLimit, "retries", src.Retries)
	}
	return sources
}

func buildAggregator(cfg *config.Config, httpClient *http.Client, m *metrics.Metrics, logger *slog.Logger) (*aggregator.Aggregator, error) {
	profile, err := buildProfile(cfg)
	if err != nil {
		return nil, err
	}
	sources := buildSources(cfg, profile, httpClient, logger)
	if len(sources) == 0 {
		return nil, fmt.Errorf("no sources to query")
	}
	return aggregator.New(sources, profile, classifier.New(classifier.DefaultTaxonomy()), m, logger), nil
}

// buildEnricher returns nil when enrichment is disabled.
func buildEnricher(cfg *config.Config, m *metrics.Metrics, logger *slog.Logger) *enricher.Enricher {
	if !cfg.Enricher.Enabled {
		return nil
	}
	// Lookups carry their own per-call deadline.
	return enricher.New(&http.Client{}, enricher.Options{
		PreviewURL:  cfg.Enricher.PreviewURL,
		LogoURL:     cfg.Enricher.LogoURL,
		Concurrency: cfg.Enricher.Concurrency,
		Timeout:     cfg.Enricher.Timeout,
		CacheTTL:    cfg.Enricher.CacheTTL,
	}, m, logger)
}

// imageEnricher avoids handing a typed nil to interface consumers.
func imageEnricher(e *enricher.Enricher) model.ImageEnricher {
	if e == nil {
		return nil
	}
	return e
}

func toFilters(f config.FiltersConfig) model.Filters {
	return model.Filters{
		Source:     f.Source,
		Location:   f.Location,
		Company:    f.Company,
		Remote:     f.Remote,
		Type:       f.Type,
		DatePosted: f.DatePosted,
		Keywords:   f.Keywords,
		SalaryMin:  f.SalaryMin,
	}
}

func buildWatchers(cfg *config.Config, searcher watch.Searcher, jobStore model.JobStore, n model.Notifier, m *metrics.Metrics, logger *slog.Logger) []*watch.Watcher {
	watchers := make([]*watch.Watcher, 0, len(cfg.Watch.Searches))
	for _, s := range cfg.Watch.Searches {
		w := watch.NewWatcher(watch.Search{
			Name:    s.Name,
			Text:    s.Query,
			Filters: toFilters(s.Filters),
		}, searcher, jobStore, n, m, logger)
		watchers = append(watchers, w)
		logger.Info("registered watch", "watch", s.Name, "query", s.Query)
	}
	return watchers
}
