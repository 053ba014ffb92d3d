// Package jobs runs periodic housekeeping next to the API server.
package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Sweeper persists the expired status of links past their expiry.
type Sweeper interface {
	SweepExpired(ctx context.Context) (int64, error)
}

// Scheduler wraps a cron runner for the link sweep.
type Scheduler struct {
	cron *cron.Cron
	log  *slog.Logger
}

// NewLinkSweep schedules s on spec (standard five-field syntax or
// descriptors such as "@every 5m").  Overlapping runs are skipped.
func NewLinkSweep(spec string, s Sweeper, logger *slog.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = slog.Default()
	}
	c := cron.New(cron.WithChain(cron.Recover(cron.DefaultLogger), cron.SkipIfStillRunning(cron.DefaultLogger)))
	sch := &Scheduler{cron: c, log: logger}
	if _, err := c.AddFunc(spec, func() { sch.runOnce(s) }); err != nil {
		return nil, fmt.Errorf("schedule link sweep %q: %w", spec, err)
	}
	return sch, nil
}

func (s *Scheduler) runOnce(sw Sweeper) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	n, err := sw.SweepExpired(ctx)
	if err != nil {
		s.log.ErrorContext(ctx, "links.sweep_failed", slog.Any("error", err))
		return
	}
	if n > 0 {
		s.log.InfoContext(ctx, "links.swept", slog.Int64("expired", n))
	}
}

// Start runs the schedule in its own goroutine.
func (s *Scheduler) Start() { s.cron.Start() }

// Stop halts the schedule and waits for a running sweep to finish or
// ctx to end.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
	}
}

// Entries reports how many jobs are scheduled.
func (s *Scheduler) Entries() int { return len(s.cron.Entries()) }
