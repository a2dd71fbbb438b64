// Package sensors turns the car's view of the track into the agent's state vector.
package sensors

import (
	"racetrack/vehicle"

	"gonum.org/v1/gonum/spatial/r2"
)

// Observation is what the agent sees after a tick.
type Observation struct {
	// Features are the ray distances divided by the ray length, followed by the
	// speed divided by the velocity cap. Every entry is within [0,1].
	Features []float64
	// Distances are the raw ray distances.
	Distances []float64
	// Terminal is set when any raw distance is within the wall threshold.
	Terminal bool
}

// Width is the number of features produced for a car with the passed config.
func Width(cfg vehicle.Config) int {
	return len(cfg.RayAngles) + 1
}

// Observe senses the passed walls from the car's current pose.
func Observe(car *vehicle.Vehicle, walls ...[]r2.Vec) Observation {
	cfg := car.Config()
	dists := car.DetectBoundaries(walls...)

	obs := Observation{
		Features:  make([]float64, 0, len(dists)+1),
		Distances: dists,
	}
	for _, d := range dists {
		if d <= cfg.WallThreshold {
			obs.Terminal = true
		}
		obs.Features = append(obs.Features, d/cfg.RayLength)
	}
	obs.Features = append(obs.Features, car.Speed()/cfg.VelocityCap)
	return obs
}
