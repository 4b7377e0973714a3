package history

import "time"

// Sample is an immutable point-in-time copy of a vehicle's live state.
type Sample struct {
	ID        int64     `json:"id"`
	VehicleID string    `json:"vehicle_id"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Speed     *float64  `json:"speed"`
	Altitude  *float64  `json:"altitude"`
	Weight    *float64  `json:"weight"`
	Timestamp time.Time `json:"timestamp"`
}

// Stats is recomputed from samples on every request.
type Stats struct {
	TotalDistanceKm float64 `json:"total_distance"`
	MaxSpeed        float64 `json:"max_speed"`
	AvgSpeed        float64 `json:"avg_speed"`
	AvgAltitude     float64 `json:"avg_altitude"`
	SampleCount     int     `json:"total_entries"`
}

type RoutePoint struct {
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Timestamp time.Time `json:"timestamp"`
	Speed     *float64  `json:"speed"`
}

// TimeRange is inclusive on both ends.
type TimeRange struct {
	From time.Time
	To   time.Time
}

type Order int

const (
	Ascending Order = iota
	Descending
)

func (o Order) sql() string {
	if o == Descending {
		return "DESC"
	}
	return "ASC"
}
