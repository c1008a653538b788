// Package watch re-runs saved searches and reports postings not seen before.
package watch

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/amishk599/jobpulse/internal/dedupe"
	"github.com/amishk599/jobpulse/internal/metrics"
	"github.com/amishk599/jobpulse/internal/model"
)

// Searcher runs one aggregated search. *aggregator.Aggregator satisfies it.
type Searcher interface {
	Search(ctx context.Context, text string, filters model.Filters) ([]model.Job, error)
}

// Search is a named saved query.
type Search struct {
	Name    string
	Text    string
	Filters model.Filters
}

// Watcher owns the pipeline for a single saved search:
// search → key → dedup against store → notify → mark seen.
type Watcher struct {
	search   Search
	searcher Searcher
	store    model.JobStore
	notifier model.Notifier
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

// NewWatcher creates a watcher wired with all its dependencies. m may be nil.
func NewWatcher(
	search Search,
	searcher Searcher,
	store model.JobStore,
	notifier model.Notifier,
	m *metrics.Metrics,
	logger *slog.Logger,
) *Watcher {
	return &Watcher{
		search:   search,
		searcher: searcher,
		store:    store,
		notifier: notifier,
		metrics:  m,
		logger:   logger,
	}
}

// Name returns the saved search name.
func (w *Watcher) Name() string {
	return w.search.Name
}

// Poll runs one cycle. The first cycle of a watch only records what is
// currently listed so that existing postings are not reported as new.
func (w *Watcher) Poll(ctx context.Context) error {
	name := w.search.Name

	jobs, err := w.searcher.Search(ctx, w.search.Text, w.search.Filters)
	if err != nil {
		return fmt.Errorf("watch %s: %w", name, err)
	}

	firstRun, err := w.store.IsEmpty(name)
	if err != nil {
		return fmt.Errorf("watch %s: checking store: %w", name, err)
	}

	var newJobs []model.Job
	keys := make([]string, 0, len(jobs))
	for _, job := range jobs {
		key := dedupe.Key(job)
		if key == "" {
			continue
		}
		seen, err := w.store.HasSeen(name, key)
		if err != nil {
			return fmt.Errorf("watch %s: checking seen status: %w", name, err)
		}
		if !seen {
			newJobs = append(newJobs, job)
			keys = append(keys, key)
		}
	}

	if firstRun {
		if err := w.markSeen(keys); err != nil {
			return err
		}
		w.logger.Info("seeded watch", "watch", name, "jobs", len(keys))
		return nil
	}

	if len(newJobs) > 0 {
		if err := w.notifier.Notify(newJobs); err != nil {
			return fmt.Errorf("watch %s: notifying: %w", name, err)
		}
	}
	if err := w.markSeen(keys); err != nil {
		return err
	}
	w.metrics.ObserveWatch(name, len(newJobs))

	w.logger.Info("polled watch",
		"watch", name,
		"query", w.search.Text,
		"results", len(jobs),
		"new", len(newJobs),
	)
	return nil
}

func (w *Watcher) markSeen(keys []string) error {
	for _, key := range keys {
		if err := w.store.MarkSeen(w.search.Name, key); err != nil {
			return fmt.Errorf("watch %s: marking seen: %w", w.search.Name, err)
		}
	}
	return nil
}
