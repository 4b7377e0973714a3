package refresh

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"backend-gpstracker/internal/history"
	"backend-gpstracker/internal/lock"
	"backend-gpstracker/internal/shared/geo"
	"backend-gpstracker/internal/vehicle"

	"golang.org/x/sync/errgroup"
)

const (
	DefaultInterval       = 30 * time.Second
	DefaultVehicleTimeout = 10 * time.Second

	lockKey = "refresh"
)

type VehicleStore interface {
	ListTrackedVehicles(ctx context.Context) ([]vehicle.Vehicle, error)
	SaveVehicleState(ctx context.Context, v vehicle.Vehicle) error
}

type HistoryAppender interface {
	AppendHistorySample(ctx context.Context, sample history.Sample) error
}

// Result summarises one refresh run. Pending counts vehicles whose update
// had not finished when the run stopped waiting; Busy counts vehicles left
// out because an update from an earlier run was still in flight.
type Result struct {
	Vehicles int
	Updated  int
	Appended int
	Failed   int
	Pending  int
	Busy     int
	Duration time.Duration
}

// Scheduler periodically moves every tracked vehicle to its next simulated
// reading and records the new position in history. Runs never overlap and
// every vehicle is updated in its own goroutine, so a stuck vehicle only
// delays itself.
type Scheduler struct {
	vehicles       VehicleStore
	history        HistoryAppender
	sim            vehicle.Simulator
	locker         lock.Locker
	vehicleTimeout time.Duration

	interval atomic.Int64
	running  atomic.Bool
	inFlight sync.Map
	reset    chan time.Duration
}

// NewScheduler builds a scheduler ticking every interval. vehicleTimeout
// bounds both the context of each vehicle update and how long a run waits
// for its updates.
func NewScheduler(vehicles VehicleStore, history HistoryAppender, sim vehicle.Simulator, locker lock.Locker, interval, vehicleTimeout time.Duration) *Scheduler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if vehicleTimeout <= 0 {
		vehicleTimeout = DefaultVehicleTimeout
	}
	if locker == nil {
		locker = lock.NopLocker{}
	}
	s := &Scheduler{
		vehicles:       vehicles,
		history:        history,
		sim:            sim,
		locker:         locker,
		vehicleTimeout: vehicleTimeout,
		reset:          make(chan time.Duration, 1),
	}
	s.interval.Store(int64(interval))
	return s
}

func (s *Scheduler) Interval() time.Duration {
	return time.Duration(s.interval.Load())
}

// SetInterval changes the cadence of a running Start loop from the next tick.
func (s *Scheduler) SetInterval(d time.Duration) {
	if d <= 0 || d == s.Interval() {
		return
	}
	s.interval.Store(int64(d))
	for {
		select {
		case s.reset <- d:
			return
		default:
			select {
			case <-s.reset:
			default:
			}
		}
	}
}

// Start runs the refresh once and then on every tick until ctx is done. Each
// run happens in its own goroutine, so a run outliving its tick makes the next
// tick a no-op. Start waits for in-flight runs before returning.
func (s *Scheduler) Start(ctx context.Context) {
	ticker := time.NewTicker(s.Interval())
	defer ticker.Stop()

	var wg sync.WaitGroup
	launch := func() {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.RunOnce(context.WithoutCancel(ctx))
		}()
	}

	slog.Info("refresh scheduler started", "interval", s.Interval().String(), "vehicle_timeout", s.vehicleTimeout.String())
	launch()
	for {
		select {
		case <-ctx.Done():
			wg.Wait()
			slog.Info("refresh scheduler stopped")
			return
		case d := <-s.reset:
			ticker.Reset(d)
			slog.Info("refresh interval changed", "interval", d.String())
		case <-ticker.C:
			launch()
		}
	}
}

// lockTTL outlives the longest a run can take: the listing and the wait for
// vehicle updates are each bounded by vehicleTimeout.
func (s *Scheduler) lockTTL() time.Duration {
	ttl := 3 * s.Interval()
	if floor := 3 * s.vehicleTimeout; ttl < floor {
		ttl = floor
	}
	return ttl
}

// RunOnce refreshes every tracked vehicle. ran is false when another run,
// local or in another process, was still active and nothing was done.
func (s *Scheduler) RunOnce(ctx context.Context) (Result, bool) {
	if !s.running.CompareAndSwap(false, true) {
		slog.Warn("refresh skipped, previous run still active")
		return Result{}, false
	}
	defer s.running.Store(false)

	unlock, ok, err := s.locker.TryLock(ctx, lockKey, s.lockTTL())
	switch {
	case err != nil:
		slog.Warn("refresh lock unavailable, running unguarded", "error", err)
	case !ok:
		slog.Info("refresh skipped, held by another instance")
		return Result{}, false
	default:
		defer func() {
			if err := unlock(ctx); err != nil {
				slog.Warn("refresh lock release failed", "error", err)
			}
		}()
	}

	start := time.Now()
	listCtx, cancelList := context.WithTimeout(ctx, s.vehicleTimeout)
	vehicles, err := s.vehicles.ListTrackedVehicles(listCtx)
	cancelList()
	if err != nil {
		slog.Error("refresh could not list vehicles", "error", err)
		return Result{Duration: time.Since(start)}, true
	}

	var updated, appended, failed, finished atomic.Int64
	busy := 0
	g := new(errgroup.Group)
	for _, v := range vehicles {
		if _, taken := s.inFlight.LoadOrStore(v.ID, struct{}{}); taken {
			busy++
			slog.Warn("refresh vehicle still busy from an earlier run", "vehicle_id", v.ID)
			continue
		}
		g.Go(func() error {
			defer s.inFlight.Delete(v.ID)
			vctx, cancel := context.WithTimeout(ctx, s.vehicleTimeout)
			defer cancel()

			saved, recorded, err := s.refreshVehicle(vctx, v)
			if saved {
				updated.Add(1)
			}
			if recorded {
				appended.Add(1)
			}
			if err != nil {
				failed.Add(1)
				slog.Error("refresh vehicle failed", "vehicle_id", v.ID, "name", v.Name, "error", err)
			}
			finished.Add(1)
			return nil
		})
	}

	done := make(chan struct{})
	go func() {
		_ = g.Wait()
		close(done)
	}()
	timer := time.NewTimer(s.vehicleTimeout)
	select {
	case <-done:
	case <-timer.C:
		slog.Warn("refresh stopped waiting for stuck vehicles", "timeout", s.vehicleTimeout.String())
	}
	timer.Stop()

	launched := len(vehicles) - busy
	res := Result{
		Vehicles: len(vehicles),
		Updated:  int(updated.Load()),
		Appended: int(appended.Load()),
		Failed:   int(failed.Load()),
		Pending:  launched - int(finished.Load()),
		Busy:     busy,
		Duration: time.Since(start),
	}
	slog.Info("refresh completed",
		"vehicles", res.Vehicles,
		"updated", res.Updated,
		"appended", res.Appended,
		"failed", res.Failed,
		"pending", res.Pending,
		"busy", res.Busy,
		"duration", res.Duration.String(),
	)
	return res, true
}

// refreshVehicle saves the next reading and then, for a valid position,
// appends it to history.
func (s *Scheduler) refreshVehicle(ctx context.Context, v vehicle.Vehicle) (saved, recorded bool, err error) {
	next, err := s.sim.Next(v)
	if err != nil {
		return false, false, err
	}
	if err := s.vehicles.SaveVehicleState(ctx, next); err != nil {
		return false, false, err
	}
	if !geo.IsValidCoordinate(next.Latitude, next.Longitude) {
		slog.Warn("refresh produced invalid position, history not written", "vehicle_id", v.ID)
		return true, false, nil
	}
	if err := s.history.AppendHistorySample(ctx, vehicle.SampleOf(next)); err != nil {
		return true, false, err
	}
	return true, true, nil
}
