package jobs

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/example/campus-portal/internal/application"
)

type purgerStub struct {
	mu         sync.Mutex
	calls      int
	principals []application.Principal
	result     application.PurgeResult
	err        error
	block      chan struct{}
}

func (p *purgerStub) PurgePastEvents(ctx context.Context, principal application.Principal) (application.PurgeResult, error) {
	p.mu.Lock()
	p.calls++
	p.principals = append(p.principals, principal)
	block := p.block
	p.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return p.result, ctx.Err()
		}
	}
	return p.result, p.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewPurgeJob(t *testing.T) {
	t.Run("empty schedule disables the job", func(t *testing.T) {
		job, err := NewPurgeJob(&purgerStub{}, "  ", time.UTC, discardLogger())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if job != nil {
			t.Fatal("expected nil job for empty schedule")
		}
		job.Start()
		job.Stop(context.Background())
	})

	t.Run("invalid schedule", func(t *testing.T) {
		if _, err := NewPurgeJob(&purgerStub{}, "every day", time.UTC, discardLogger()); err == nil {
			t.Fatal("expected error for invalid schedule")
		}
	})

	t.Run("missing purger", func(t *testing.T) {
		if _, err := NewPurgeJob(nil, "0 3 * * *", time.UTC, discardLogger()); err == nil {
			t.Fatal("expected error for missing purger")
		}
	})

	t.Run("schedules in the given location", func(t *testing.T) {
		tokyo := time.FixedZone("JST", 9*60*60)
		job, err := NewPurgeJob(&purgerStub{}, "0 3 * * *", tokyo, discardLogger())
		if err != nil {
			t.Fatalf("NewPurgeJob failed: %v", err)
		}
		if job.cron.Location() != tokyo {
			t.Fatalf("cron location = %v, want %v", job.cron.Location(), tokyo)
		}
		if entries := job.cron.Entries(); len(entries) != 1 {
			t.Fatalf("expected one cron entry, got %d", len(entries))
		}
	})
}

func TestPurgeJobRun(t *testing.T) {
	cutoff := time.Date(2024, time.May, 10, 0, 0, 0, 0, time.UTC)

	t.Run("acts as the system administrator", func(t *testing.T) {
		purger := &purgerStub{result: application.PurgeResult{Matched: 3, Cutoff: cutoff}}
		job, err := NewPurgeJob(purger, "@daily", time.UTC, discardLogger())
		if err != nil {
			t.Fatalf("NewPurgeJob failed: %v", err)
		}

		result, err := job.Run(context.Background())
		if err != nil {
			t.Fatalf("Run returned error: %v", err)
		}
		if result.Matched != 3 || !result.Cutoff.Equal(cutoff) {
			t.Fatalf("unexpected result %+v", result)
		}
		if len(purger.principals) != 1 || !purger.principals[0].IsAdmin || purger.principals[0].UserID != SystemPrincipal.UserID {
			t.Fatalf("unexpected principal %+v", purger.principals)
		}
	})

	t.Run("returns failures without retrying", func(t *testing.T) {
		sentinel := errors.New("delete failed")
		purger := &purgerStub{err: sentinel}
		job, err := NewPurgeJob(purger, "@daily", time.UTC, discardLogger())
		if err != nil {
			t.Fatalf("NewPurgeJob failed: %v", err)
		}

		if _, err := job.Run(context.Background()); !errors.Is(err, sentinel) {
			t.Fatalf("expected sentinel error, got %v", err)
		}
		if purger.calls != 1 {
			t.Fatalf("expected exactly one attempt, got %d", purger.calls)
		}
	})

	t.Run("skips overlapping runs", func(t *testing.T) {
		purger := &purgerStub{block: make(chan struct{})}
		job, err := NewPurgeJob(purger, "@daily", time.UTC, discardLogger())
		if err != nil {
			t.Fatalf("NewPurgeJob failed: %v", err)
		}

		done := make(chan struct{})
		go func() {
			defer close(done)
			_, _ = job.Run(context.Background())
		}()

		deadline := time.Now().Add(2 * time.Second)
		for {
			purger.mu.Lock()
			calls := purger.calls
			purger.mu.Unlock()
			if calls == 1 {
				break
			}
			if time.Now().After(deadline) {
				t.Fatal("first run never started")
			}
			time.Sleep(time.Millisecond)
		}

		if _, err := job.Run(context.Background()); err != nil {
			t.Fatalf("overlapping run returned error: %v", err)
		}
		close(purger.block)
		<-done

		if purger.calls != 1 {
			t.Fatalf("expected the overlapping run to be skipped, got %d calls", purger.calls)
		}
	})
}

func TestPurgeJobStartStop(t *testing.T) {
	job, err := NewPurgeJob(&purgerStub{}, "0 3 * * *", time.UTC, discardLogger())
	if err != nil {
		t.Fatalf("NewPurgeJob failed: %v", err)
	}
	job.Start()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	job.Stop(ctx)
}

func TestPurgeJobStopCancelsRunningPurge(t *testing.T) {
	purger := &purgerStub{block: make(chan struct{})}
	job, err := NewPurgeJob(purger, "0 3 * * *", time.UTC, discardLogger())
	if err != nil {
		t.Fatalf("NewPurgeJob failed: %v", err)
	}

	finished := make(chan error, 1)
	go func() {
		_, err := job.Run(job.runCtx)
		finished <- err
	}()
	waitForCalls(t, purger, 1)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	job.Stop(ctx)

	select {
	case err := <-finished:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected the running purge to be cancelled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("running purge was not cancelled by Stop")
	}
}

func waitForCalls(t *testing.T, p *purgerStub, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		p.mu.Lock()
		calls := p.calls
		p.mu.Unlock()
		if calls >= n {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("purger was not called %d times", n)
}
