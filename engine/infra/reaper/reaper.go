// Package reaper enforces reading retention: a cron-scheduled sweep
// deleting rows past their expires_at.
package reaper

import (
	"context"
	"fmt"
	"time"

	"github.com/auralab/aura/pkg/logger"
	"github.com/robfig/cron/v3"
)

// DefaultSchedule sweeps at the top of every hour.
const DefaultSchedule = "0 * * * *"

// Purger is the persistence slice the reaper drives.
type Purger interface {
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
}

// Reaper owns the cron loop. Start/Stop bracket the service lifetime.
type Reaper struct {
	purger   Purger
	schedule string
	cron     *cron.Cron
	now      func() time.Time
}

func New(purger Purger, schedule string) *Reaper {
	if schedule == "" {
		schedule = DefaultSchedule
	}
	return &Reaper{purger: purger, schedule: schedule, now: time.Now}
}

// Start validates the schedule and begins sweeping. The passed context
// scopes the logger and each sweep.
func (r *Reaper) Start(ctx context.Context) error {
	log := logger.FromContext(ctx).With("component", "retention_reaper")
	c := cron.New()
	_, err := c.AddFunc(r.schedule, func() {
		r.sweep(logger.ContextWithLogger(ctx, log))
	})
	if err != nil {
		return fmt.Errorf("reaper: invalid schedule %q: %w", r.schedule, err)
	}
	c.Start()
	r.cron = c
	log.Info("Retention reaper started", "schedule", r.schedule)
	return nil
}

// Stop halts the cron loop and waits for a running sweep to finish.
func (r *Reaper) Stop() {
	if r.cron != nil {
		<-r.cron.Stop().Done()
	}
}

// RunOnce performs a single sweep immediately. Used at startup and by
// admin tooling.
func (r *Reaper) RunOnce(ctx context.Context) (int64, error) {
	return r.purger.PurgeExpired(ctx, r.now().UTC())
}

func (r *Reaper) sweep(ctx context.Context) {
	log := logger.FromContext(ctx)
	started := r.now()
	removed, err := r.purger.PurgeExpired(ctx, started.UTC())
	if err != nil {
		log.Error("Retention sweep failed", "error", err)
		return
	}
	if removed > 0 {
		log.Info("Retention sweep complete", "rows_removed", removed, "elapsed", time.Since(started))
		return
	}
	log.Debug("Retention sweep complete, nothing expired")
}
