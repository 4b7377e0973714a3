package history

import (
	"context"
	"fmt"
	"time"

	"backend-gpstracker/internal/db"
	"backend-gpstracker/internal/shared/paging"

	"github.com/jackc/pgx/v5"
)

const sampleColumns = `h.id, h.vehicle_id, h.latitude, h.longitude, h.speed, h.altitude, h.weight, h.recorded_at`

type Store struct {
	db db.Querier
}

func NewStore(db db.Querier) *Store {
	return &Store{db: db}
}

func (s *Store) AppendHistorySample(ctx context.Context, sample Sample) error {
	if sample.Timestamp.IsZero() {
		sample.Timestamp = time.Now()
	}
	_, err := s.db.Exec(ctx, `
		INSERT INTO vehicle_history (vehicle_id, latitude, longitude, speed, altitude, weight, recorded_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
	`, sample.VehicleID, sample.Latitude, sample.Longitude, sample.Speed, sample.Altitude, sample.Weight, sample.Timestamp)
	if err != nil {
		return fmt.Errorf("append history sample for %s: %w", sample.VehicleID, err)
	}
	return nil
}

// QueryHistory returns the samples of one vehicle inside r. A nil page
// returns the whole window.
func (s *Store) QueryHistory(ctx context.Context, vehicleID string, r TimeRange, order Order, page *paging.Spec) ([]Sample, error) {
	query := `
		SELECT ` + sampleColumns + `
		FROM vehicle_history h
		WHERE h.vehicle_id=$1 AND h.recorded_at >= $2 AND h.recorded_at <= $3
		ORDER BY h.recorded_at ` + order.sql() + `, h.id ` + order.sql()
	args := []any{vehicleID, r.From, r.To}
	if page != nil {
		query += ` LIMIT $4 OFFSET $5`
		args = append(args, page.Size, page.Offset())
	}

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query history for %s: %w", vehicleID, err)
	}
	return collectSamples(rows)
}

func (s *Store) CountHistory(ctx context.Context, vehicleID string, r TimeRange) (int64, error) {
	var count int64
	err := s.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM vehicle_history
		WHERE vehicle_id=$1 AND recorded_at >= $2 AND recorded_at <= $3
	`, vehicleID, r.From, r.To).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count history for %s: %w", vehicleID, err)
	}
	return count, nil
}

// QueryOwnerHistory returns every sample since the given time across all
// vehicles of one owner, newest first.
func (s *Store) QueryOwnerHistory(ctx context.Context, ownerID string, since time.Time) ([]Sample, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+sampleColumns+`
		FROM vehicle_history h
		JOIN vehicles v ON v.id = h.vehicle_id
		WHERE v.owner_id=$1 AND h.recorded_at >= $2
		ORDER BY h.recorded_at DESC, h.id DESC
	`, ownerID, since)
	if err != nil {
		return nil, fmt.Errorf("query owner history: %w", err)
	}
	return collectSamples(rows)
}

func (s *Store) DeleteHistoryOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := s.db.Exec(ctx, `DELETE FROM vehicle_history WHERE recorded_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete history older than %s: %w", cutoff.Format(time.RFC3339), err)
	}
	return tag.RowsAffected(), nil
}

func collectSamples(rows pgx.Rows) ([]Sample, error) {
	defer rows.Close()

	samples := []Sample{}
	for rows.Next() {
		var h Sample
		if err := rows.Scan(&h.ID, &h.VehicleID, &h.Latitude, &h.Longitude, &h.Speed, &h.Altitude, &h.Weight, &h.Timestamp); err != nil {
			return nil, err
		}
		samples = append(samples, h)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return samples, nil
}
