package vehicle

import (
	"context"
	"errors"
	"fmt"

	"backend-gpstracker/internal/db"
	"backend-gpstracker/internal/shared/apperr"
	"backend-gpstracker/internal/shared/paging"

	"github.com/jackc/pgx/v5"
)

const vehicleColumns = `id, owner_id, name, latitude, longitude, speed, altitude, weight, last_updated, created_at`

// Store persists the live state of vehicles.
type Store struct {
	db db.Querier
}

func NewStore(db db.Querier) *Store {
	return &Store{db: db}
}

// ListTrackedVehicles returns every vehicle regardless of owner.
func (s *Store) ListTrackedVehicles(ctx context.Context) ([]Vehicle, error) {
	rows, err := s.db.Query(ctx, `SELECT `+vehicleColumns+` FROM vehicles ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list tracked vehicles: %w", err)
	}
	return collectVehicles(rows)
}

// SaveVehicleState overwrites the telemetry columns of one vehicle.
func (s *Store) SaveVehicleState(ctx context.Context, v Vehicle) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE vehicles
		SET latitude=$2, longitude=$3, speed=$4, altitude=$5, weight=$6, last_updated=$7
		WHERE id=$1
	`, v.ID, v.Latitude, v.Longitude, v.Speed, v.Altitude, v.Weight, v.LastUpdated)
	if err != nil {
		return fmt.Errorf("save vehicle %s: %w", v.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

func (s *Store) Insert(ctx context.Context, v Vehicle) (Vehicle, error) {
	row := s.db.QueryRow(ctx, `
		INSERT INTO vehicles (id, owner_id, name, latitude, longitude, speed, altitude, weight, last_updated)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		RETURNING created_at
	`, v.ID, v.OwnerID, v.Name, v.Latitude, v.Longitude, v.Speed, v.Altitude, v.Weight, v.LastUpdated)
	if err := row.Scan(&v.CreatedAt); err != nil {
		return Vehicle{}, fmt.Errorf("insert vehicle: %w", err)
	}
	return v, nil
}

// Update writes name and telemetry of a vehicle the owner holds.
func (s *Store) Update(ctx context.Context, v Vehicle) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE vehicles
		SET name=$3, latitude=$4, longitude=$5, speed=$6, altitude=$7, weight=$8, last_updated=$9
		WHERE id=$1 AND owner_id=$2
	`, v.ID, v.OwnerID, v.Name, v.Latitude, v.Longitude, v.Speed, v.Altitude, v.Weight, v.LastUpdated)
	if err != nil {
		return fmt.Errorf("update vehicle %s: %w", v.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

func (s *Store) GetOwned(ctx context.Context, id, ownerID string) (Vehicle, error) {
	row := s.db.QueryRow(ctx, `
		SELECT `+vehicleColumns+`
		FROM vehicles WHERE id=$1 AND owner_id=$2
	`, id, ownerID)
	v, err := scanVehicle(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Vehicle{}, apperr.ErrNotFound
	}
	if err != nil {
		return Vehicle{}, fmt.Errorf("get vehicle %s: %w", id, err)
	}
	return v, nil
}

// Owned reports whether vehicleID exists and belongs to ownerID.
func (s *Store) Owned(ctx context.Context, vehicleID, ownerID string) (bool, error) {
	var owned bool
	err := s.db.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM vehicles WHERE id=$1 AND owner_id=$2)
	`, vehicleID, ownerID).Scan(&owned)
	if err != nil {
		return false, fmt.Errorf("check vehicle owner: %w", err)
	}
	return owned, nil
}

// ListByOwner returns one page of an owner's vehicles, newest first.
func (s *Store) ListByOwner(ctx context.Context, ownerID string, page paging.Spec) ([]Vehicle, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+vehicleColumns+`
		FROM vehicles WHERE owner_id=$1
		ORDER BY created_at DESC, id
		LIMIT $2 OFFSET $3
	`, ownerID, page.Size, page.Offset())
	if err != nil {
		return nil, fmt.Errorf("list vehicles: %w", err)
	}
	return collectVehicles(rows)
}

func (s *Store) CountByOwner(ctx context.Context, ownerID string) (int64, error) {
	var count int64
	if err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM vehicles WHERE owner_id=$1`, ownerID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count vehicles: %w", err)
	}
	return count, nil
}

// SearchByName matches a case-insensitive substring of the vehicle name.
func (s *Store) SearchByName(ctx context.Context, ownerID, name string) ([]Vehicle, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+vehicleColumns+`
		FROM vehicles WHERE owner_id=$1 AND name ILIKE '%' || $2 || '%'
		ORDER BY name
	`, ownerID, name)
	if err != nil {
		return nil, fmt.Errorf("search vehicles: %w", err)
	}
	return collectVehicles(rows)
}

// DeleteOwned removes a vehicle; its history goes with it through the
// foreign key cascade.
func (s *Store) DeleteOwned(ctx context.Context, id, ownerID string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM vehicles WHERE id=$1 AND owner_id=$2`, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete vehicle %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

func scanVehicle(row pgx.Row) (Vehicle, error) {
	var v Vehicle
	err := row.Scan(&v.ID, &v.OwnerID, &v.Name, &v.Latitude, &v.Longitude, &v.Speed, &v.Altitude, &v.Weight, &v.LastUpdated, &v.CreatedAt)
	return v, err
}

func collectVehicles(rows pgx.Rows) ([]Vehicle, error) {
	defer rows.Close()

	vehicles := []Vehicle{}
	for rows.Next() {
		v, err := scanVehicle(rows)
		if err != nil {
			return nil, err
		}
		vehicles = append(vehicles, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return vehicles, nil
}
