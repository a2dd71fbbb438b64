package simulation

import (
	"racetrack/geometry"
	"racetrack/sensors"
	"racetrack/vehicle"

	"gonum.org/v1/gonum/spatial/r2"
)

// Snapshot is a copy of what the renderer draws for one tick. It shares no memory
// with the simulation state.
type Snapshot struct {
	Left  []r2.Vec
	Right []r2.Vec
	// Checkpoints holds only the checkpoints that can still be scored.
	Checkpoints []geometry.Segment
	Car         vehicle.Corners
	Position    r2.Vec
	Heading     float64
	// Rays are clipped at their nearest wall; empty unless rays are shown.
	Rays []geometry.Segment

	Speed         float64
	Epsilon       float64
	Loss          float64
	Episode       int
	Ticks         int
	EpisodeReward float64
	Crossed       int
}

// Snapshot copies the state for rendering.
func (d *Driver) Snapshot(state *SimulationState, showRays bool) Snapshot {
	tr := state.Track
	snap := Snapshot{
		Left:          append([]r2.Vec(nil), tr.Left...),
		Right:         append([]r2.Vec(nil), tr.Right...),
		Car:           vehicle.GetCorners(state.Car.Shape),
		Position:      state.Car.Position,
		Heading:       state.Car.Heading,
		Speed:         state.Car.Speed(),
		Loss:          state.LastLoss,
		Episode:       state.Episode,
		Ticks:         state.Ticks,
		EpisodeReward: state.EpisodeReward,
		Crossed:       state.Checkpoints,
	}
	snap.Checkpoints = make([]geometry.Segment, 0, tr.Live())
	for _, cp := range tr.Checkpoints {
		if !cp.Spent {
			snap.Checkpoints = append(snap.Checkpoints, cp.Segment)
		}
	}
	if d.learner != nil {
		snap.Epsilon = d.learner.Epsilon()
	}

	if showRays {
		obs := sensors.Observe(state.Car, tr.Walls()...)
		for i, ray := range state.Car.Rays() {
			snap.Rays = append(snap.Rays, geometry.Clip(ray, obs.Distances[i]))
		}
	}
	return snap
}
