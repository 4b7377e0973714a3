package vehicle

import "time"

// Vehicle is the live state of a tracked vehicle. Latitude and Longitude are
// nil until the first fix and are always set together.
type Vehicle struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"owner_id"`
	Name        string    `json:"name"`
	Latitude    *float64  `json:"current_latitude"`
	Longitude   *float64  `json:"current_longitude"`
	Speed       *float64  `json:"speed"`
	Altitude    *float64  `json:"altitude"`
	Weight      *float64  `json:"weight"`
	LastUpdated time.Time `json:"last_updated"`
	CreatedAt   time.Time `json:"created_at"`
}

// HasPosition reports whether both coordinates are known.
func (v Vehicle) HasPosition() bool {
	return v.Latitude != nil && v.Longitude != nil
}

// Request is the owner-supplied payload for create and update.
type Request struct {
	Name      string   `json:"name" validate:"required,max=100"`
	Latitude  *float64 `json:"current_latitude" validate:"omitempty,gte=-90,lte=90"`
	Longitude *float64 `json:"current_longitude" validate:"omitempty,gte=-180,lte=180"`
	Speed     *float64 `json:"speed" validate:"omitempty,gte=0"`
	Altitude  *float64 `json:"altitude"`
	Weight    *float64 `json:"weight" validate:"omitempty,gte=0"`
}
