package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/amishk599/jobpulse/internal/metrics"
	"github.com/amishk599/jobpulse/internal/scheduler"
	"github.com/amishk599/jobpulse/internal/store"
	"github.com/amishk599/jobpulse/internal/watch"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Run saved searches on a schedule and notify new postings",
	Long:  "Start the watch daemon; blocks until SIGINT/SIGTERM. The first run of each saved search only records current postings.",
	RunE:  runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if len(cfg.Watch.Searches) == 0 {
		logger.Error("no saved searches configured under watch.searches")
		os.Exit(1)
	}

	logger.Info("config loaded",
		"profile", cfg.Profile,
		"schedule", cfg.Watch.Schedule,
		"searches", len(cfg.Watch.Searches),
		"retention", cfg.Watch.Retention.String(),
	)

	sqlStore, err := store.NewSQLiteStore(cfg.Watch.StorePath)
	if err != nil {
		logger.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer sqlStore.Close()

	m := metrics.New()
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	agg, err := buildAggregator(cfg, httpClient, m, logger)
	if err != nil {
		logger.Error("failed to build aggregator", "error", err)
		os.Exit(1)
	}
	n := setupNotifier(cfg, httpClient, logger)
	watchers := buildWatchers(cfg, agg, sqlStore, n, m, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sched, err := scheduler.NewScheduler(asPollers(watchers), cfg.Watch.Schedule, sqlStore, cfg.Watch.Retention, logger)
	if err != nil {
		logger.Error("failed to create scheduler", "error", err)
		os.Exit(1)
	}
	if err := sched.Run(ctx); err != nil {
		logger.Error("scheduler error", "error", err)
		os.Exit(1)
	}

	logger.Info("goodbye")
	return nil
}

func asPollers(watchers []*watch.Watcher) []scheduler.Poller {
	pollers := make([]scheduler.Poller, len(watchers))
	for i, w := range watchers {
		pollers[i] = w
	}
	return pollers
}
