package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/amishk599/jobpulse/internal/store"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Run every saved search once and notify all matches",
	Long:  "One-shot run of each saved search: every current match is sent to the notifier. Does not write to the store.",
	RunE:  runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
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

	logger.Info("check mode: no jobs will be marked as seen")

	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	agg, err := buildAggregator(cfg, httpClient, nil, logger)
	if err != nil {
		logger.Error("failed to build aggregator", "error", err)
		os.Exit(1)
	}
	n := setupNotifier(cfg, httpClient, logger)
	watchers := buildWatchers(cfg, agg, store.NewNopStore(), n, nil, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	failed := 0
	for _, w := range watchers {
		if err := w.Poll(ctx); err != nil {
			logger.Error("watch failed", "watch", w.Name(), "error", err)
			failed++
		}
	}

	logger.Info("check complete", "watches", len(watchers), "failed", failed)
	return nil
}
