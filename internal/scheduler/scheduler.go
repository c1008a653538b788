package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/amishk599/jobpulse/internal/model"
	"github.com/amishk599/jobpulse/internal/watch"
)

// Poller is one unit of scheduled work. *watch.Watcher satisfies it.
type Poller interface {
	Name() string
	Poll(ctx context.Context) error
}

var _ Poller = (*watch.Watcher)(nil)

// Scheduler runs every poller sequentially on a cron schedule and prunes the
// seen-postings store once per cycle.
type Scheduler struct {
	pollers   []Poller
	schedule  cron.Schedule
	spec      string
	store     model.JobStore
	retention time.Duration
	logger    *slog.Logger
}

// NewScheduler parses spec (standard five-field cron or a descriptor such as
// "@every 10m"). A zero retention disables cleanup.
func NewScheduler(pollers []Poller, spec string, store model.JobStore, retention time.Duration, logger *slog.Logger) (*Scheduler, error) {
	schedule, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, fmt.Errorf("parsing schedule %q: %w", spec, err)
	}
	return &Scheduler{
		pollers:   pollers,
		schedule:  schedule,
		spec:      spec,
		store:     store,
		retention: retention,
		logger:    logger,
	}, nil
}

// Run runs one immediate cycle, then follows the schedule. A cycle still in
// progress when the next one is due is not overlapped. It returns nil when ctx
// is cancelled (graceful shutdown) after the running cycle has stopped.
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Info("starting scheduler",
		"schedule", s.spec,
		"watches", len(s.pollers),
	)

	s.cycle(ctx)

	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cronLogger{s.logger})))
	c.Schedule(s.schedule, cron.FuncJob(func() { s.cycle(ctx) }))
	c.Start()

	<-ctx.Done()
	s.logger.Info("shutting down scheduler")
	<-c.Stop().Done()
	return nil
}

func (s *Scheduler) cycle(ctx context.Context) {
	if s.store != nil && s.retention > 0 {
		if err := s.store.Cleanup(s.retention); err != nil {
			s.logger.Error("store cleanup failed", "error", err)
		}
	}
	s.pollAll(ctx)
}

// pollAll runs Poll on each poller sequentially. One failing watch does not
// stop the others.
func (s *Scheduler) pollAll(ctx context.Context) {
	for _, p := range s.pollers {
		if ctx.Err() != nil {
			return
		}
		if err := p.Poll(ctx); err != nil {
			s.logger.Error("poll failed",
				"watch", p.Name(),
				"error", err,
			)
		}
	}
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
