package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/amishk599/jobpulse/internal/aggregator"
	"github.com/amishk599/jobpulse/internal/filter"
	"github.com/amishk599/jobpulse/internal/model"
)

// queryFlags holds the filter flags shared by search and browse.
type queryFlags struct {
	source     string
	location   string
	company    string
	remote     bool
	jobType    string
	datePosted string
	keywords   string
	salaryMin  int
	sort       string
	page       int
	pageSize   int
}

func (f *queryFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVar(&f.source, "source", "", "keep jobs whose source matches")
	fl.StringVar(&f.location, "location", "", "location substring")
	fl.StringVar(&f.company, "company", "", "company substring")
	fl.BoolVar(&f.remote, "remote", false, "remote jobs only")
	fl.StringVar(&f.jobType, "type", "", "contract type (CDI, CDD, Stage...)")
	fl.StringVar(&f.datePosted, "date-posted", "", "24h, 7d, 14d or 30d")
	fl.StringVar(&f.keywords, "keywords", "", "title substring")
	fl.IntVar(&f.salaryMin, "salary-min", 0, "minimum salary in k€")
	fl.StringVar(&f.sort, "sort", "", "recent, salary or company")
	fl.IntVar(&f.page, "page", 0, "1-based page number")
	fl.IntVar(&f.pageSize, "page-size", 0, "results per page (default: page cap)")
}

func (f *queryFlags) query(text string) (model.Query, error) {
	sort := strings.ToLower(strings.TrimSpace(f.sort))
	if !filter.ValidSort(sort) {
		return model.Query{}, fmt.Errorf("invalid --sort %q: want recent, salary or company", f.sort)
	}
	return model.Query{
		Text: text,
		Filters: model.Filters{
			Source:     f.source,
			Location:   f.location,
			Company:    f.company,
			Remote:     f.remote,
			Type:       f.jobType,
			DatePosted: f.datePosted,
			Keywords:   f.keywords,
			SalaryMin:  f.salaryMin,
		},
		Sort:     sort,
		Page:     f.page,
		PageSize: f.pageSize,
	}, nil
}

var (
	searchFlags queryFlags
	searchJSON  bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Run one search and print the results",
	Long:  "Queries every configured source once and prints the filtered, deduplicated results.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runSearch,
}

func init() {
	searchFlags.register(searchCmd)
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "print results as JSON")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)
	if searchJSON {
		logger = discardLogger()
	}

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	text := ""
	if len(args) > 0 {
		text = args[0]
	}
	q, err := searchFlags.query(text)
	if err != nil {
		return err
	}

	agg, err := buildAggregator(cfg, &http.Client{Timeout: cfg.HTTPTimeout}, nil, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build aggregator: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	res, err := agg.Run(ctx, q)
	if err != nil {
		return err
	}

	if searchJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			Jobs []model.Job `json:"jobs"`
		}{Jobs: res.Jobs})
	}
	printResults(res)
	return nil
}

func printResults(res *aggregator.Result) {
	fmt.Printf("%-30s %-22s %-20s %-10s %-8s %s\n", "Title", "Company", "Location", "Salary", "Type", "Source")
	fmt.Println(strings.Repeat("─", 110))
	for _, j := range res.Jobs {
		loc := j.Location
		if j.Remote {
			loc = strings.TrimSpace(loc + " (remote)")
		}
		fmt.Printf("%-30s %-22s %-20s %-10s %-8s %s\n",
			truncate(j.Title, 30), truncate(j.Company, 22), truncate(loc, 20),
			truncate(j.Salary, 10), truncate(j.Type, 8), j.Source)
	}

	fmt.Printf("\nShowing %d of %d jobs (%d fetched)\n", len(res.Jobs), res.Total, len(res.Fetched))
	for _, s := range res.Sources {
		line := fmt.Sprintf("  %-12s %-8s %3d jobs  %s", s.Name, s.Outcome, s.Jobs, s.Elapsed.Round(time.Millisecond))
		if s.Err != nil {
			line += "  " + s.Err.Error()
		}
		fmt.Println(line)
	}
}

// truncate shortens s to n runes, marking the cut with an ellipsis.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}
