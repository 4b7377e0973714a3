package retention

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"backend-gpstracker/internal/history"
	"backend-gpstracker/internal/lock"

	"github.com/robfig/cron/v3"
)

// DefaultSchedule runs the sweep every day at 02:00 local time.
const DefaultSchedule = "0 2 * * *"

const lockKey = "retention"

type Deleter interface {
	DeleteHistoryOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// Sweeper deletes history samples older than the retention window.
type Sweeper struct {
	store    Deleter
	locker   lock.Locker
	months   int
	schedule string
	now      func() time.Time
}

func NewSweeper(store Deleter, locker lock.Locker, months int, schedule string) *Sweeper {
	if months <= 0 {
		months = history.DefaultRetentionMonths
	}
	if schedule == "" {
		schedule = DefaultSchedule
	}
	if locker == nil {
		locker = lock.NopLocker{}
	}
	return &Sweeper{
		store:    store,
		locker:   locker,
		months:   months,
		schedule: schedule,
		now:      time.Now,
	}
}

// Sweep removes every sample recorded before now minus the retention months
// in a single statement and returns how many went.
func (s *Sweeper) Sweep(ctx context.Context) (int64, error) {
	unlock, ok, err := s.locker.TryLock(ctx, lockKey, time.Hour)
	if err != nil {
		slog.Warn("retention lock unavailable, sweeping unguarded", "error", err)
	} else if !ok {
		slog.Info("retention sweep held by another instance")
		return 0, nil
	} else {
		defer func() {
			if err := unlock(ctx); err != nil {
				slog.Warn("retention lock release failed", "error", err)
			}
		}()
	}

	cutoff := history.RetentionCutoff(s.now(), s.months)
	deleted, err := s.store.DeleteHistoryOlderThan(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("retention sweep: %w", err)
	}
	slog.Info("retention sweep completed", "cutoff", cutoff.Format(time.RFC3339), "deleted", deleted)
	return deleted, nil
}

// Start runs Sweep on the cron schedule until ctx is done. A failed sweep is
// logged and tried again at the next occurrence.
func (s *Sweeper) Start(ctx context.Context) error {
	c := cron.New(cron.WithChain(cron.Recover(cron.DefaultLogger)))
	_, err := c.AddFunc(s.schedule, func() {
		if _, err := s.Sweep(context.WithoutCancel(ctx)); err != nil {
			slog.Error("retention sweep failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("retention schedule %q: %w", s.schedule, err)
	}

	c.Start()
	slog.Info("retention sweeper started", "schedule", s.schedule, "months", s.months)
	<-ctx.Done()
	<-c.Stop().Done()
	slog.Info("retention sweeper stopped")
	return nil
}
