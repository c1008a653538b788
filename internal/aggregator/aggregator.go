// Package aggregator fans a query out to every configured source and turns
// the merged postings into a filtered, classified, deduplicated page.
package aggregator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"

	"github.com/amishk599/jobpulse/internal/classifier"
	"github.com/amishk599/jobpulse/internal/dedupe"
	"github.com/amishk599/jobpulse/internal/filter"
	"github.com/amishk599/jobpulse/internal/metrics"
	"github.com/amishk599/jobpulse/internal/model"
)

// ErrInternal marks an unexpected fault inside the pipeline itself. Source
// failures never produce it.
var ErrInternal = errors.New("internal aggregation fault")

var errSourcePanic = errors.New("source panicked")

// Source is one named upstream in invocation order.
type Source struct {
	Name    string
	Fetcher model.JobFetcher
}

// SourceStat describes one source call within an aggregation.
type SourceStat struct {
	Name    string
	Outcome string
	Jobs    int
	Elapsed time.Duration
	Err     error
}

// Result is the outcome of one aggregation.
type Result struct {
	Fetched []model.Job  // merged source output before any policy is applied
	Jobs    []model.Job  // the requested page
	Total   int          // jobs available across pages, never above the cap
	Sources []SourceStat // in source invocation order
}

// Aggregator runs the search pipeline for one deployment profile.
type Aggregator struct {
	sources    []Source
	profile    Profile
	classifier *classifier.Classifier
	metrics    *metrics.Metrics
	logger     *slog.Logger
	now        func() time.Time
}

// New creates an aggregator. m may be nil.
func New(sources []Source, profile Profile, cls *classifier.Classifier, m *metrics.Metrics, logger *slog.Logger) *Aggregator {
	if profile.SourceMatch == nil {
		profile.SourceMatch = filter.SubstringSourceMatch
	}
	return &Aggregator{
		sources:    sources,
		profile:    profile,
		classifier: cls,
		metrics:    m,
		logger:     logger,
		now:        time.Now,
	}
}

// Profile returns the active deployment profile.
func (a *Aggregator) Profile() Profile {
	return a.profile
}

// Sources returns the configured sources in invocation order.
func (a *Aggregator) Sources() []Source {
	return a.sources
}

// Search runs the pipeline for free text and filters and returns the first
// page, capped by the profile.
func (a *Aggregator) Search(ctx context.Context, text string, filters model.Filters) ([]model.Job, error) {
	res, err := a.Run(ctx, model.Query{Text: text, Filters: filters})
	if err != nil {
		return nil, err
	}
	return res.Jobs, nil
}

// Run executes the full pipeline: fan-out, allow-list, filters, classify,
// dedupe, cap, sort, paginate. Source failures only shrink the result. Any
// panic in the pipeline is returned wrapped in ErrInternal.
func (a *Aggregator) Run(ctx context.Context, q model.Query) (res *Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			a.logger.Error("aggregation fault", "panic", r)
			res, err = nil, fmt.Errorf("%w: %v", ErrInternal, r)
		}
		outcome := metrics.OutcomeOK
		if err != nil {
			outcome = metrics.OutcomeError
		}
		a.metrics.ObserveSearch(outcome)
	}()

	if a.profile.Strategy == PreferSource && q.Filters.Source == "" {
		q.Filters.Source = a.profile.DefaultSource
	}

	var fetched []model.Job
	var stats []SourceStat
	skipSource := false
	switch a.profile.Strategy {
	case PreferSource:
		fetched, stats = a.collectPreferred(ctx, q)
		skipSource = true
	default:
		fetched, stats = a.collect(ctx, a.sources, q)
	}

	jobs := a.applyAllowList(fetched)
	jobs = filter.New(q.Filters, filter.Options{
		MatchSource: a.profile.SourceMatch,
		SkipSource:  skipSource,
		Now:         a.now,
	}).Apply(jobs)
	jobs = a.classifier.Classify(jobs)
	jobs = dedupe.Dedupe(jobs)
	if a.profile.PageCap > 0 && len(jobs) > a.profile.PageCap {
		jobs = jobs[:a.profile.PageCap]
	}
	jobs = filter.SortJobs(jobs, q.Sort)
	total := len(jobs)
	jobs = filter.Paginate(jobs, q.Page, q.PageSize)

	a.logger.Info("aggregation complete",
		"query", q.Text,
		"profile", a.profile.Name,
		"fetched", len(fetched),
		"total", total,
		"returned", len(jobs),
	)
	return &Result{Fetched: fetched, Jobs: jobs, Total: total, Sources: stats}, nil
}

// collect queries sources concurrently and concatenates their output in
// source order. It returns once every source has settled.
func (a *Aggregator) collect(ctx context.Context, sources []Source, q model.Query) ([]model.Job, []SourceStat) {
	results := make([][]model.Job, len(sources))
	stats := make([]SourceStat, len(sources))

	var g errgroup.Group
	for i, src := range sources {
		g.Go(func() error {
			results[i], stats[i] = a.fetchOne(ctx, src, q)
			return nil
		})
	}
	_ = g.Wait()

	merged := make([]model.Job, 0, lo.SumBy(results, func(r []model.Job) int { return len(r) }))
	for _, r := range results {
		merged = append(merged, r...)
	}
	return merged, stats
}

// collectPreferred asks the first source alone and keeps its records from the
// requested publisher. When none match, the remaining sources are queried and
// everything is merged.
func (a *Aggregator) collectPreferred(ctx context.Context, q model.Query) ([]model.Job, []SourceStat) {
	if len(a.sources) == 0 {
		return nil, nil
	}
	first, stat := a.fetchOne(ctx, a.sources[0], q)
	want := q.Filters.Source
	if want != "" {
		preferred := lo.Filter(first, func(j model.Job, _ int) bool {
			return a.profile.SourceMatch(j.Source, want)
		})
		if len(preferred) > 0 {
			return preferred, []SourceStat{stat}
		}
	}

	a.logger.Debug("preferred source empty, querying every source", "source", want)
	rest, stats := a.collect(ctx, a.sources[1:], q)
	return append(first, rest...), append([]SourceStat{stat}, stats...)
}

type fetchResult struct {
	jobs []model.Job
	err  error
}

// fetchOne calls a single source under the profile deadline. Errors, panics
// and deadline expiry all become an empty contribution.
func (a *Aggregator) fetchOne(ctx context.Context, src Source, q model.Query) ([]model.Job, SourceStat) {
	start := time.Now()
	if a.profile.AdapterTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.profile.AdapterTimeout)
		defer cancel()
	}

	ch := make(chan fetchResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- fetchResult{err: fmt.Errorf("%w: %v", errSourcePanic, r)}
			}
		}()
		jobs, err := src.Fetcher.FetchJobs(ctx, q)
		ch <- fetchResult{jobs: jobs, err: err}
	}()

	var r fetchResult
	select {
	case r = <-ch:
	case <-ctx.Done():
		r = fetchResult{err: ctx.Err()}
	}

	stat := SourceStat{Name: src.Name, Elapsed: time.Since(start)}
	if r.err != nil {
		stat.Err = r.err
		stat.Outcome = outcomeOf(r.err)
		a.logger.Warn("source failed, skipping", "source", src.Name, "outcome", stat.Outcome, "error", r.err)
		a.metrics.ObserveSource(src.Name, stat.Outcome, 0, stat.Elapsed)
		return nil, stat
	}

	jobs := lo.Map(r.jobs, func(j model.Job, _ int) model.Job {
		j.Applied, j.Saved = false, false
		return j
	})
	stat.Outcome = metrics.OutcomeOK
	stat.Jobs = len(jobs)
	a.logger.Debug("source fetched", "source", src.Name, "jobs", len(jobs), "elapsed", stat.Elapsed)
	a.metrics.ObserveSource(src.Name, stat.Outcome, len(jobs), stat.Elapsed)
	return jobs, stat
}

func outcomeOf(err error) string {
	switch {
	case errors.Is(err, errSourcePanic):
		return metrics.OutcomePanic
	case errors.Is(err, context.DeadlineExceeded):
		return metrics.OutcomeTimeout
	}
	return metrics.OutcomeError
}

func (a *Aggregator) applyAllowList(jobs []model.Job) []model.Job {
	if len(a.profile.AllowList) == 0 {
		return jobs
	}
	return lo.Filter(jobs, func(j model.Job, _ int) bool {
		src := strings.ToLower(j.Source)
		return lo.SomeBy(a.profile.AllowList, func(k string) bool {
			return strings.Contains(src, strings.ToLower(k))
		})
	})
}
