package history

import (
	"context"
	"fmt"
	"time"

	"backend-gpstracker/internal/shared/apperr"
	"backend-gpstracker/internal/shared/geo"
	"backend-gpstracker/internal/shared/paging"
)

const (
	DefaultRetentionMonths = 5
	StatsWindowDays        = 30
	DefaultRecentDays      = 7
	MaxRecentDays          = 30
)

// Reader is the read side of the history store.
type Reader interface {
	QueryHistory(ctx context.Context, vehicleID string, r TimeRange, order Order, page *paging.Spec) ([]Sample, error)
	CountHistory(ctx context.Context, vehicleID string, r TimeRange) (int64, error)
	QueryOwnerHistory(ctx context.Context, ownerID string, since time.Time) ([]Sample, error)
}

// Owners answers whether a vehicle belongs to an owner.
type Owners interface {
	Owned(ctx context.Context, vehicleID, ownerID string) (bool, error)
}

// Service computes history views, statistics and routes for one owner's
// vehicles. Every window is clamped to the retention floor.
type Service struct {
	store           Reader
	owners          Owners
	retentionMonths int
	now             func() time.Time
}

func NewService(store Reader, owners Owners, retentionMonths int) *Service {
	if retentionMonths <= 0 {
		retentionMonths = DefaultRetentionMonths
	}
	return &Service{
		store:           store,
		owners:          owners,
		retentionMonths: retentionMonths,
		now:             time.Now,
	}
}

// RetentionCutoff is the oldest instant history is kept for.
func RetentionCutoff(now time.Time, months int) time.Time {
	return now.AddDate(0, -months, 0)
}

func (s *Service) floor() time.Time {
	return RetentionCutoff(s.now(), s.retentionMonths)
}

func (s *Service) clamp(start time.Time) time.Time {
	if floor := s.floor(); start.Before(floor) {
		return floor
	}
	return start
}

func (s *Service) authorize(ctx context.Context, vehicleID, ownerID string) error {
	ok, err := s.owners.Owned(ctx, vehicleID, ownerID)
	if err != nil {
		return fmt.Errorf("check vehicle owner: %w", err)
	}
	if !ok {
		return apperr.ErrNotFound
	}
	return nil
}

// ComputeStats aggregates the trailing windowDays of history.
func (s *Service) ComputeStats(ctx context.Context, ownerID, vehicleID string, windowDays int) (Stats, error) {
	if err := s.authorize(ctx, vehicleID, ownerID); err != nil {
		return Stats{}, err
	}
	if windowDays <= 0 {
		windowDays = StatsWindowDays
	}

	now := s.now()
	r := TimeRange{From: s.clamp(now.AddDate(0, 0, -windowDays)), To: now}
	samples, err := s.store.QueryHistory(ctx, vehicleID, r, Ascending, nil)
	if err != nil {
		return Stats{}, err
	}
	return Aggregate(samples), nil
}

// Aggregate walks samples in timestamp order once. A sample without speed or
// altitude adds zero to that sum but still counts in the denominator.
func Aggregate(samples []Sample) Stats {
	if len(samples) == 0 {
		return Stats{}
	}

	var stats Stats
	var speedSum, altitudeSum float64
	for i := range samples {
		cur := &samples[i]
		if i > 0 {
			prev := &samples[i-1]
			stats.TotalDistanceKm += geo.DistanceKm(&prev.Latitude, &prev.Longitude, &cur.Latitude, &cur.Longitude)
		}
		if cur.Speed != nil {
			if *cur.Speed > stats.MaxSpeed {
				stats.MaxSpeed = *cur.Speed
			}
			speedSum += *cur.Speed
		}
		if cur.Altitude != nil {
			altitudeSum += *cur.Altitude
		}
	}

	stats.SampleCount = len(samples)
	stats.AvgSpeed = speedSum / float64(stats.SampleCount)
	stats.AvgAltitude = altitudeSum / float64(stats.SampleCount)
	return stats
}

// ComputeRoute projects the samples between start and end into route points,
// oldest first.
func (s *Service) ComputeRoute(ctx context.Context, ownerID, vehicleID string, start, end time.Time) ([]RoutePoint, error) {
	if err := s.authorize(ctx, vehicleID, ownerID); err != nil {
		return nil, err
	}

	points := []RoutePoint{}
	start = s.clamp(start)
	if end.Before(start) {
		return points, nil
	}

	samples, err := s.store.QueryHistory(ctx, vehicleID, TimeRange{From: start, To: end}, Ascending, nil)
	if err != nil {
		return nil, err
	}
	for _, h := range samples {
		points = append(points, RoutePoint{
			Latitude:  h.Latitude,
			Longitude: h.Longitude,
			Timestamp: h.Timestamp,
			Speed:     h.Speed,
		})
	}
	return points, nil
}

// VehicleHistory pages through the retained history, newest first.
func (s *Service) VehicleHistory(ctx context.Context, ownerID, vehicleID string, page, size int) (paging.Page[Sample], error) {
	if err := s.authorize(ctx, vehicleID, ownerID); err != nil {
		return paging.Page[Sample]{}, err
	}

	spec := paging.Normalize(page, size)
	r := TimeRange{From: s.floor(), To: s.now()}
	total, err := s.store.CountHistory(ctx, vehicleID, r)
	if err != nil {
		return paging.Page[Sample]{}, err
	}
	samples, err := s.store.QueryHistory(ctx, vehicleID, r, Descending, &spec)
	if err != nil {
		return paging.Page[Sample]{}, err
	}
	return paging.New(samples, spec, total), nil
}

// HistoryRange returns the samples between start and end, newest first.
func (s *Service) HistoryRange(ctx context.Context, ownerID, vehicleID string, start, end time.Time) ([]Sample, error) {
	if err := s.authorize(ctx, vehicleID, ownerID); err != nil {
		return nil, err
	}

	start = s.clamp(start)
	if end.Before(start) {
		return []Sample{}, nil
	}
	return s.store.QueryHistory(ctx, vehicleID, TimeRange{From: start, To: end}, Descending, nil)
}

// LastWeek returns the trailing seven days of one vehicle, newest first.
func (s *Service) LastWeek(ctx context.Context, ownerID, vehicleID string) ([]Sample, error) {
	now := s.now()
	return s.HistoryRange(ctx, ownerID, vehicleID, now.AddDate(0, 0, -7), now)
}

// LastMonth returns the trailing calendar month of one vehicle, newest first.
func (s *Service) LastMonth(ctx context.Context, ownerID, vehicleID string) ([]Sample, error) {
	now := s.now()
	return s.HistoryRange(ctx, ownerID, vehicleID, now.AddDate(0, -1, 0), now)
}

// RecentForOwner returns the last days of history across every vehicle the
// owner has. days outside 1..MaxRecentDays falls back to DefaultRecentDays.
func (s *Service) RecentForOwner(ctx context.Context, ownerID string, days int) ([]Sample, error) {
	days = RecentDays(days)
	return s.store.QueryOwnerHistory(ctx, ownerID, s.now().AddDate(0, 0, -days))
}

func RecentDays(days int) int {
	if days <= 0 || days > MaxRecentDays {
		return DefaultRecentDays
	}
	return days
}
