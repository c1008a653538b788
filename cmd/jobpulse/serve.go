package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/amishk599/jobpulse/internal/httpapi"
	"github.com/amishk599/jobpulse/internal/metrics"
	"github.com/amishk599/jobpulse/internal/scheduler"
	"github.com/amishk599/jobpulse/internal/store"
)

const shutdownTimeout = 10 * time.Second

var (
	serveAddr    string
	serveWatches bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the job search HTTP API",
	Long:  "Serves GET /api/jobs, POST /api/jobs/enrich, /health and /metrics; blocks until SIGINT/SIGTERM.",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides server.addr)")
	serveCmd.Flags().BoolVar(&serveWatches, "watch", false, "also run saved-search watches in this process")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if serveAddr != "" {
		cfg.Server.Addr = serveAddr
	}

	m := metrics.New()
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	agg, err := buildAggregator(cfg, httpClient, m, logger)
	if err != nil {
		logger.Error("failed to build aggregator", "error", err)
		os.Exit(1)
	}
	enr := imageEnricher(buildEnricher(cfg, m, logger))

	if !debug {
		gin.SetMode(gin.ReleaseMode)
	}
	router := httpapi.NewRouter(agg, enr, m, httpapi.Options{
		CORSOrigins:   cfg.Server.CORSOrigins,
		MaxEnrichJobs: agg.Profile().PageCap,
	}, logger)
	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("jobs API listening",
			"addr", cfg.Server.Addr,
			"profile", agg.Profile().Name,
			"sources", len(agg.Sources()),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if serveWatches && len(cfg.Watch.Searches) > 0 {
		sqlStore, err := store.NewSQLiteStore(cfg.Watch.StorePath)
		if err != nil {
			logger.Error("failed to open store", "error", err)
			os.Exit(1)
		}
		defer sqlStore.Close()

		n := setupNotifier(cfg, httpClient, logger)
		watchers := buildWatchers(cfg, agg, sqlStore, n, m, logger)
		sched, err := scheduler.NewScheduler(asPollers(watchers), cfg.Watch.Schedule, sqlStore, cfg.Watch.Retention, logger)
		if err != nil {
			logger.Error("failed to create scheduler", "error", err)
			os.Exit(1)
		}
		g.Go(func() error { return sched.Run(gctx) })
	}

	if err := g.Wait(); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
	logger.Info("goodbye")
	return nil
}
