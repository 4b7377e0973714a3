package telemetry

import (
	"errors"
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"backend-gpstracker/internal/vehicle"
)

// Reference point a vehicle without a fix is placed around (Paris).
const (
	OriginLatitude  = 48.8566
	OriginLongitude = 2.3522

	originJitterDeg = 0.01
	stepJitterDeg   = 0.005

	meanSpeedKmh   = 20.0
	speedStdDev    = 15.0
	meanAltitudeM  = 100.0
	altitudeStdDev = 50.0
	meanWeightKg   = 1500.0
	weightStdDev   = 500.0
)

var ErrNonFiniteSample = errors.New("simulator produced a non-finite value")

// Simulator generates plausible telemetry for a vehicle as a gaussian random
// walk. It is safe for concurrent use.
type Simulator struct {
	mu  sync.Mutex
	rng *rand.Rand
	now func() time.Time
}

// NewSimulator seeds a PCG source with seed, or with the clock when seed is 0.
func NewSimulator(seed uint64) *Simulator {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return NewSimulatorFromSource(rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)), time.Now)
}

func NewSimulatorFromSource(rng *rand.Rand, now func() time.Time) *Simulator {
	if now == nil {
		now = time.Now
	}
	return &Simulator{rng: rng, now: now}
}

// Next returns a copy of v carrying the next reading. v itself is left as is.
func (s *Simulator) Next(v vehicle.Vehicle) (vehicle.Vehicle, error) {
	s.mu.Lock()
	var lat, lng float64
	if v.HasPosition() {
		lat = *v.Latitude + s.gauss(stepJitterDeg)
		lng = *v.Longitude + s.gauss(stepJitterDeg)
	} else {
		lat = OriginLatitude + s.gauss(originJitterDeg)
		lng = OriginLongitude + s.gauss(originJitterDeg)
	}
	speed := math.Max(0, meanSpeedKmh+s.gauss(speedStdDev))
	altitude := math.Max(0, meanAltitudeM+s.gauss(altitudeStdDev))
	var weight float64
	if v.Weight != nil {
		weight = *v.Weight
	} else {
		weight = meanWeightKg + s.gauss(weightStdDev)
	}
	s.mu.Unlock()

	for _, f := range []float64{lat, lng, speed, altitude, weight} {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return vehicle.Vehicle{}, ErrNonFiniteSample
		}
	}

	next := v
	next.Latitude = &lat
	next.Longitude = &lng
	next.Speed = &speed
	next.Altitude = &altitude
	next.Weight = &weight
	next.LastUpdated = s.now()
	return next, nil
}

func (s *Simulator) gauss(stddev float64) float64 {
	return s.rng.NormFloat64() * stddev
}
