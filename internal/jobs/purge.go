// Package jobs runs periodic maintenance against the application services.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/example/campus-portal/internal/application"
)

// SystemPrincipal is the identity scheduled jobs act as.
var SystemPrincipal = application.Principal{
	UserID:      "system",
	DisplayName: "Scheduled maintenance",
	IsAdmin:     true,
}

// DefaultRunTimeout bounds a single scheduled purge.
const DefaultRunTimeout = 5 * time.Minute

// EventPurger removes events dated before today.
type EventPurger interface {
	PurgePastEvents(ctx context.Context, principal application.Principal) (application.PurgeResult, error)
}

// PurgeJob runs EventPurger on a cron schedule. A failed run is logged and
// left for the next tick.
type PurgeJob struct {
	purger   EventPurger
	schedule string
	timeout  time.Duration
	logger   *slog.Logger

	// runCtx parents scheduled runs; Stop cancels it.
	runCtx    context.Context
	cancelRun context.CancelFunc

	mu      sync.Mutex
	cron    *cron.Cron
	running bool
}

// NewPurgeJob validates schedule and prepares a job in loc. An empty schedule
// yields a nil job, meaning the purge is disabled.
func NewPurgeJob(purger EventPurger, schedule string, loc *time.Location, logger *slog.Logger) (*PurgeJob, error) {
	schedule = strings.TrimSpace(schedule)
	if schedule == "" {
		return nil, nil
	}
	if purger == nil {
		return nil, errors.New("jobs: purger is required")
	}
	if _, err := cron.ParseStandard(schedule); err != nil {
		return nil, fmt.Errorf("jobs: invalid purge schedule %q: %w", schedule, err)
	}
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = slog.Default()
	}

	runCtx, cancelRun := context.WithCancel(context.Background())
	job := &PurgeJob{
		purger:    purger,
		schedule:  schedule,
		timeout:   DefaultRunTimeout,
		logger:    logger.With("job", "purge_past_events"),
		runCtx:    runCtx,
		cancelRun: cancelRun,
		cron:      cron.New(cron.WithLocation(loc)),
	}
	if _, err := job.cron.AddFunc(schedule, job.runScheduled); err != nil {
		cancelRun()
		return nil, fmt.Errorf("jobs: schedule purge: %w", err)
	}
	return job, nil
}

func (j *PurgeJob) runScheduled() {
	_, _ = j.Run(j.runCtx)
}

// Run executes one purge. Overlapping runs are skipped.
func (j *PurgeJob) Run(ctx context.Context) (application.PurgeResult, error) {
	j.mu.Lock()
	if j.running {
		j.mu.Unlock()
		j.logger.WarnContext(ctx, "previous purge still running, skipping")
		return application.PurgeResult{}, nil
	}
	j.running = true
	j.mu.Unlock()
	defer func() {
		j.mu.Lock()
		j.running = false
		j.mu.Unlock()
	}()

	ctx, cancel := context.WithTimeout(ctx, j.timeout)
	defer cancel()

	started := time.Now()
	result, err := j.purger.PurgePastEvents(ctx, SystemPrincipal)
	if err != nil {
		j.logger.ErrorContext(ctx, "scheduled purge failed",
			"error", err,
			"error_kind", application.ErrorKind(err),
			"duration", time.Since(started),
		)
		return result, err
	}
	j.logger.InfoContext(ctx, "scheduled purge completed",
		"matched", result.Matched,
		"cutoff", result.Cutoff,
		"duration", time.Since(started),
	)
	return result, nil
}

// Start begins firing the schedule in the background.
func (j *PurgeJob) Start() {
	if j == nil {
		return
	}
	j.cron.Start()
	for _, entry := range j.cron.Entries() {
		j.logger.Info("purge scheduled", "schedule", j.schedule, "next_run", entry.Next)
	}
}

// Stop halts the schedule and waits for an in-flight run until ctx ends,
// then cancels whatever is still running.
func (j *PurgeJob) Stop(ctx context.Context) {
	if j == nil {
		return
	}
	done := j.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		j.logger.Warn("purge still running at shutdown, cancelling", "error", ctx.Err())
	}
	j.cancelRun()
}
