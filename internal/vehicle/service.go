package vehicle

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"backend-gpstracker/internal/db"
	"backend-gpstracker/internal/history"
	"backend-gpstracker/internal/shared/apperr"
	"backend-gpstracker/internal/shared/geo"
	"backend-gpstracker/internal/shared/paging"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// Simulator produces the next telemetry reading of a vehicle.
type Simulator interface {
	Next(v Vehicle) (Vehicle, error)
}

// HistoryAppender records position samples.
type HistoryAppender interface {
	AppendHistorySample(ctx context.Context, sample history.Sample) error
}

// Service runs owner-scoped vehicle operations. A vehicle write and the
// history sample it produces commit or roll back together.
type Service struct {
	db       db.Querier
	store    *Store
	sim      Simulator
	validate *validator.Validate
	now      func() time.Time
}

func NewService(q db.Querier, sim Simulator) *Service {
	return &Service{
		db:       q,
		store:    NewStore(q),
		sim:      sim,
		validate: validator.New(),
		now:      time.Now,
	}
}

// Create registers a vehicle for ownerID. When a position is supplied the
// simulator seeds the rest of the telemetry and an initial history sample is
// written.
func (s *Service) Create(ctx context.Context, ownerID string, req Request) (Vehicle, error) {
	if err := s.check(req); err != nil {
		return Vehicle{}, err
	}
	if (req.Latitude == nil) != (req.Longitude == nil) {
		return Vehicle{}, fmt.Errorf("%w: latitude and longitude must be given together", apperr.ErrValidation)
	}

	v := Vehicle{
		ID:          uuid.NewString(),
		OwnerID:     ownerID,
		Name:        req.Name,
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
		Speed:       req.Speed,
		Altitude:    req.Altitude,
		Weight:      req.Weight,
		LastUpdated: s.now(),
	}
	if v.HasPosition() {
		next, err := s.sim.Next(v)
		if err != nil {
			return Vehicle{}, err
		}
		v = next
	}

	var created Vehicle
	err := db.WithTx(ctx, s.db, func(tx db.Querier) error {
		var err error
		if created, err = NewStore(tx).Insert(ctx, v); err != nil {
			return err
		}
		return record(ctx, history.NewStore(tx), created)
	})
	if err != nil {
		return Vehicle{}, err
	}
	slog.Info("vehicle created", "vehicle_id", created.ID, "owner_id", ownerID)
	return created, nil
}

// Update patches the non-nil fields of req onto the owner's vehicle and
// records a history sample for the resulting position.
func (s *Service) Update(ctx context.Context, ownerID, id string, req Request) (Vehicle, error) {
	if err := s.check(req); err != nil {
		return Vehicle{}, err
	}
	v, err := s.store.GetOwned(ctx, id, ownerID)
	if err != nil {
		return Vehicle{}, err
	}

	v.Name = req.Name
	if req.Latitude != nil {
		v.Latitude = req.Latitude
	}
	if req.Longitude != nil {
		v.Longitude = req.Longitude
	}
	if req.Speed != nil {
		v.Speed = req.Speed
	}
	if req.Altitude != nil {
		v.Altitude = req.Altitude
	}
	if req.Weight != nil {
		v.Weight = req.Weight
	}
	if (v.Latitude == nil) != (v.Longitude == nil) {
		return Vehicle{}, fmt.Errorf("%w: latitude and longitude must be given together", apperr.ErrValidation)
	}
	v.LastUpdated = s.now()

	err = db.WithTx(ctx, s.db, func(tx db.Querier) error {
		if err := NewStore(tx).Update(ctx, v); err != nil {
			return err
		}
		return record(ctx, history.NewStore(tx), v)
	})
	if err != nil {
		return Vehicle{}, err
	}
	slog.Info("vehicle updated", "vehicle_id", v.ID, "owner_id", ownerID)
	return v, nil
}

func (s *Service) Get(ctx context.Context, ownerID, id string) (Vehicle, error) {
	return s.store.GetOwned(ctx, id, ownerID)
}

func (s *Service) Delete(ctx context.Context, ownerID, id string) error {
	if err := s.store.DeleteOwned(ctx, id, ownerID); err != nil {
		return err
	}
	slog.Info("vehicle deleted", "vehicle_id", id, "owner_id", ownerID)
	return nil
}

func (s *Service) List(ctx context.Context, ownerID string, page, size int) (paging.Page[Vehicle], error) {
	spec := paging.Normalize(page, size)
	total, err := s.store.CountByOwner(ctx, ownerID)
	if err != nil {
		return paging.Page[Vehicle]{}, err
	}
	vehicles, err := s.store.ListByOwner(ctx, ownerID, spec)
	if err != nil {
		return paging.Page[Vehicle]{}, err
	}
	return paging.New(vehicles, spec, total), nil
}

func (s *Service) Search(ctx context.Context, ownerID, name string) ([]Vehicle, error) {
	return s.store.SearchByName(ctx, ownerID, name)
}

func (s *Service) Count(ctx context.Context, ownerID string) (int64, error) {
	return s.store.CountByOwner(ctx, ownerID)
}

func (s *Service) check(req Request) error {
	if err := s.validate.Struct(req); err != nil {
		return fmt.Errorf("%w: %s", apperr.ErrValidation, err.Error())
	}
	return nil
}

func record(ctx context.Context, h HistoryAppender, v Vehicle) error {
	if !geo.IsValidCoordinate(v.Latitude, v.Longitude) {
		return nil
	}
	return h.AppendHistorySample(ctx, SampleOf(v))
}

// SampleOf converts the live state of a positioned vehicle into a history
// sample stamped with its last update time.
func SampleOf(v Vehicle) history.Sample {
	return history.Sample{
		VehicleID: v.ID,
		Latitude:  *v.Latitude,
		Longitude: *v.Longitude,
		Speed:     v.Speed,
		Altitude:  v.Altitude,
		Weight:    v.Weight,
		Timestamp: v.LastUpdated,
	}
}
