package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// --- Mock implementations ---

type CountingPoller struct {
	name  string
	calls atomic.Int32
	err   error
}

func (p *CountingPoller) Name() string { return p.name }

func (p *CountingPoller) Poll(_ context.Context) error {
	p.calls.Add(1)
	return p.err
}

// OrderRecordingPoller appends its name to recorder.order on each Poll call.
type OrderRecordingPoller struct {
	name     string
	recorder *orderRecorder
}

type orderRecorder struct {
	mu    sync.Mutex
	order []string
}

func (p *OrderRecordingPoller) Name() string { return p.name }

func (p *OrderRecordingPoller) Poll(_ context.Context) error {
	p.recorder.mu.Lock()
	p.recorder.order = append(p.recorder.order, p.name)
	p.recorder.mu.Unlock()
	return nil
}

type CleanupCountingStore struct {
	cleanups atomic.Int32
	lastAge  atomic.Int64
}

func (s *CleanupCountingStore) HasSeen(_, _ string) (bool, error) { return false, nil }
func (s *CleanupCountingStore) MarkSeen(_, _ string) error        { return nil }
func (s *CleanupCountingStore) IsEmpty(_ string) (bool, error)    { return false, nil }

func (s *CleanupCountingStore) Cleanup(olderThan time.Duration) error {
	s.cleanups.Add(1)
	s.lastAge.Store(int64(olderThan))
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func runFor(t *testing.T, s *Scheduler, d time.Duration) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- s.Run(ctx)
	}()

	time.Sleep(d)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("expected nil error on cancel, got: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not return within 2s after cancel")
	}
}

// --- Tests ---

func TestNewScheduler_InvalidSchedule(t *testing.T) {
	if _, err := NewScheduler(nil, "whenever", nil, 0, discardLogger()); err == nil {
		t.Fatal("expected error for invalid schedule")
	}
}

func TestRun_CancelReturnsPromptly(t *testing.T) {
	p := &CountingPoller{name: "paris-go"}
	s, err := NewScheduler([]Poller{p}, "@every 1h", nil, 0, discardLogger())
	if err != nil {
		t.Fatal(err)
	}

	runFor(t, s, 100*time.Millisecond)

	if got := p.calls.Load(); got != 1 {
		t.Errorf("poll calls = %d, want exactly 1 immediate cycle", got)
	}
}

func TestRun_FollowsSchedule(t *testing.T) {
	p := &CountingPoller{name: "paris-go"}
	s, err := NewScheduler([]Poller{p}, "@every 1s", nil, 0, discardLogger())
	if err != nil {
		t.Fatal(err)
	}

	// Immediate cycle plus at least one scheduled tick.
	runFor(t, s, 1500*time.Millisecond)

	if got := p.calls.Load(); got < 2 {
		t.Errorf("poll calls = %d, want >= 2", got)
	}
}

func TestRun_OneWatchErrorOthersStillRun(t *testing.T) {
	failing := &CountingPoller{name: "failing", err: errors.New("search failed")}
	healthy := &CountingPoller{name: "healthy"}

	s, err := NewScheduler([]Poller{failing, healthy}, "@every 1h", nil, 0, discardLogger())
	if err != nil {
		t.Fatal(err)
	}
	runFor(t, s, 100*time.Millisecond)

	if got := failing.calls.Load(); got < 1 {
		t.Errorf("failing poller calls = %d, want >= 1", got)
	}
	if got := healthy.calls.Load(); got < 1 {
		t.Errorf("healthy poller calls = %d, want >= 1", got)
	}
}

func TestRun_PollsInConfiguredOrder(t *testing.T) {
	rec := &orderRecorder{}
	pollers := []Poller{
		&OrderRecordingPoller{name: "a", recorder: rec},
		&OrderRecordingPoller{name: "b", recorder: rec},
		&OrderRecordingPoller{name: "c", recorder: rec},
	}
	s, err := NewScheduler(pollers, "@every 1h", nil, 0, discardLogger())
	if err != nil {
		t.Fatal(err)
	}
	runFor(t, s, 100*time.Millisecond)

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if len(rec.order) != 3 || rec.order[0] != "a" || rec.order[1] != "b" || rec.order[2] != "c" {
		t.Errorf("poll order = %v, want [a b c]", rec.order)
	}
}

func TestRun_CleansUpStoreEachCycle(t *testing.T) {
	store := &CleanupCountingStore{}
	retention := 30 * 24 * time.Hour
	s, err := NewScheduler(nil, "@every 1h", store, retention, discardLogger())
	if err != nil {
		t.Fatal(err)
	}
	runFor(t, s, 100*time.Millisecond)

	if got := store.cleanups.Load(); got != 1 {
		t.Errorf("cleanups = %d, want 1", got)
	}
	if got := time.Duration(store.lastAge.Load()); got != retention {
		t.Errorf("cleanup retention = %v, want %v", got, retention)
	}
}

func TestRun_ZeroRetentionSkipsCleanup(t *testing.T) {
	store := &CleanupCountingStore{}
	s, err := NewScheduler(nil, "@every 1h", store, 0, discardLogger())
	if err != nil {
		t.Fatal(err)
	}
	runFor(t, s, 50*time.Millisecond)

	if got := store.cleanups.Load(); got != 0 {
		t.Errorf("cleanups = %d, want 0", got)
	}
}
