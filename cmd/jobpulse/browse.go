package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/amishk599/jobpulse/internal/aggregator"
	"github.com/amishk599/jobpulse/internal/browse"
	"github.com/amishk599/jobpulse/internal/model"
)

// browseTimeout bounds one aggregation run, all sources included.
const browseTimeout = 45 * time.Second

var browseFlags queryFlags

var browseCmd = &cobra.Command{
	Use:   "browse [query]",
	Short: "Browse search results interactively (TUI)",
	Long:  "Without a query, shows the saved-search picker first. Results open in a split-pane view.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runBrowseCmd,
}

func init() {
	browseFlags.register(browseCmd)
	rootCmd.AddCommand(browseCmd)
}

func runBrowseCmd(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Any log output before the alt-screen starts corrupts the display.
	silent := discardLogger()
	agg, err := buildAggregator(cfg, &http.Client{Timeout: cfg.HTTPTimeout}, nil, silent)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build aggregator: %v\n", err)
		os.Exit(1)
	}
	enr := imageEnricher(buildEnricher(cfg, nil, silent))

	if len(args) > 0 || len(cfg.Watch.Searches) == 0 {
		text := ""
		if len(args) > 0 {
			text = args[0]
		}
		q, err := browseFlags.query(text)
		if err != nil {
			return err
		}
		return browseOnce(agg, enr, label(text), q)
	}

	items := make([]browse.SearchItem, len(cfg.Watch.Searches))
	for i, s := range cfg.Watch.Searches {
		items[i] = browse.SearchItem{Name: s.Name, Query: s.Query}
	}
	for {
		choice, err := browse.RunSearchPicker(items)
		if err != nil {
			fmt.Printf("Picker error: %v\n", err)
			return nil
		}
		if choice < 0 {
			return nil
		}
		s := cfg.Watch.Searches[choice]
		q := model.Query{Text: s.Query, Filters: toFilters(s.Filters)}
		if err := browseOnce(agg, enr, s.Name, q); err != nil {
			fmt.Printf("Error: %v\n", err)
		}
	}
}

func browseOnce(agg *aggregator.Aggregator, enr model.ImageEnricher, title string, q model.Query) error {
	res, err := browse.RunLoader(title, browseTimeout, func(ctx context.Context) (*aggregator.Result, error) {
		return agg.Run(ctx, q)
	})
	if err != nil {
		return fmt.Errorf("searching: %w", err)
	}
	return browse.RunBrowseTUI(title, res, enr)
}

func label(text string) string {
	if text == "" {
		return "all jobs"
	}
	return fmt.Sprintf("%q", text)
}
