// Package vehicle models the car: a rigid rectangle with velocity that is pushed
// around by drag, throttle, steering and brake forces, and that senses the track
// walls with rays fired from its front edge.
package vehicle

import (
	"fmt"
	"math"

	"racetrack/geometry"

	"gonum.org/v1/gonum/spatial/r2"
)

// Config holds the car's physical and sensor constants. Angles are in degrees.
type Config struct {
	Width         float64   `yaml:"width"`
	Height        float64   `yaml:"height"`
	Mass          float64   `yaml:"mass"`
	VelocityCap   float64   `yaml:"velocitycap"`
	RayLength     float64   `yaml:"raylength"`
	WallThreshold float64   `yaml:"wallthreshold"`
	RayAngles     []float64 `yaml:"rayangles"`
	// Speeds below DragSnap are zeroed after drag is applied.
	DragSnap    float64 `yaml:"dragsnap"`
	BrakeFactor float64 `yaml:"brakefactor"`
}

// DefaultConfig returns the sketch's car.
func DefaultConfig() Config {
	return Config{
		Width:         35,
		Height:        20,
		Mass:          150,
		VelocityCap:   100,
		RayLength:     200,
		WallThreshold: 10,
		RayAngles:     []float64{-90, -45, 0, 45, 90},
		DragSnap:      0.3,
		BrakeFactor:   0.2,
	}
}

// Validate reports the first invalid field.
func (cfg Config) Validate() error {
	switch {
	case cfg.Width <= 0 || cfg.Height <= 0:
		return fmt.Errorf("vehicle dimensions must be positive: %vx%v", cfg.Width, cfg.Height)
	case cfg.Mass <= 0:
		return fmt.Errorf("vehicle mass must be positive: %v", cfg.Mass)
	case cfg.VelocityCap <= 0:
		return fmt.Errorf("vehicle velocity cap must be positive: %v", cfg.VelocityCap)
	case cfg.RayLength <= 0:
		return fmt.Errorf("vehicle ray length must be positive: %v", cfg.RayLength)
	case len(cfg.RayAngles) == 0:
		return fmt.Errorf("vehicle needs at least one ray")
	}
	return nil
}

// Controls are the inputs applied during one physics step.
type Controls struct {
	Accelerate bool
	SteerLeft  bool
	SteerRight bool
	Brake      bool
}

// Number of discrete actions an agent chooses from.
const NumActions = 4

// ControlsForAction maps an agent's action index to controls:
// 0 accelerates, 1 and 2 accelerate while steering left and right, and anything
// else, including 3, does nothing. Braking is never chosen by the agent.
func ControlsForAction(action int) Controls {
	switch action {
	case 0:
		return Controls{Accelerate: true}
	case 1:
		return Controls{Accelerate: true, SteerLeft: true}
	case 2:
		return Controls{Accelerate: true, SteerRight: true}
	default:
		return Controls{}
	}
}

// Crosser scores a body line against checkpoints.
type Crosser interface {
	Cross(body geometry.Segment) bool
}

// Vehicle is a Shape with velocity.
type Vehicle struct {
	Shape
	Velocity r2.Vec
	cfg      Config
}

// New places a stationary car at the passed pose.
func New(cfg Config, position r2.Vec, heading float64) *Vehicle {
	return &Vehicle{
		Shape: Shape{
			Width:    cfg.Width,
			Height:   cfg.Height,
			Position: position,
			Heading:  heading,
		},
		cfg: cfg,
	}
}

// Config returns the car's constants.
func (v *Vehicle) Config() Config {
	return v.cfg
}

// Speed is the velocity magnitude.
func (v *Vehicle) Speed() float64 {
	return r2.Norm(v.Velocity)
}

// ApplyForce adds f to the velocity, caps the speed, and turns the car to face
// along the velocity while it moves.
func (v *Vehicle) ApplyForce(f r2.Vec) {
	v.Velocity = geometry.Limit(r2.Add(v.Velocity, f), v.cfg.VelocityCap)
	if v.Speed() > 0 {
		v.Heading = geometry.Heading(v.Velocity)
	}
}

// Drag opposes the velocity with a force of speed²/mass, then stops the car
// outright once it is slower than the snap threshold.
func (v *Vehicle) Drag() {
	speed := v.Speed()
	f := geometry.SetMag(r2.Scale(-1, v.Velocity), speed*speed/v.cfg.Mass)
	v.ApplyForce(f)
	if v.Speed() < v.cfg.DragSnap {
		v.Velocity = r2.Vec{}
	}
}

// Accelerate pushes the car forward with a unit force.
func (v *Vehicle) Accelerate() {
	v.ApplyForce(geometry.FromAngle(v.Heading))
}

// Brake opposes the velocity, never by more than the current speed.
func (v *Vehicle) Brake() {
	back := geometry.Limit(r2.Scale(-v.cfg.BrakeFactor, v.Velocity), v.Speed())
	v.ApplyForce(back)
}

// Steer applies a lateral force of speed²/mass, rotated 90° from the direction of
// travel. dir is -1 for left and +1 for right.
func (v *Vehicle) Steer(dir float64) {
	speed := v.Speed()
	angle := geometry.Heading(v.Velocity) + math.Pi/2*dir
	v.ApplyForce(r2.Scale(speed*speed/v.cfg.Mass, geometry.FromAngle(angle)))
}

// Move applies drag and integrates the position.
func (v *Vehicle) Move() {
	v.Drag()
	v.integrate()
}

// Step runs one physics tick: drag, then the control forces, then integration.
func (v *Vehicle) Step(c Controls) {
	v.Drag()
	if c.Accelerate {
		v.Accelerate()
	}
	if c.SteerLeft {
		v.Steer(-1)
	}
	if c.SteerRight {
		v.Steer(1)
	}
	if c.Brake {
		v.Brake()
	}
	v.integrate()
}

func (v *Vehicle) integrate() {
	v.Position = r2.Add(v.Position, v.Velocity)
}

// Rays returns one full-length sensor ray per configured angle. Rays angled left
// of the heading start at the front-left corner, rays angled right start at the
// front-right corner, and a straight-ahead ray starts at the front center.
func (v *Vehicle) Rays() []geometry.Segment {
	corners := GetCorners(v.Shape)
	rays := make([]geometry.Segment, len(v.cfg.RayAngles))
	for i, deg := range v.cfg.RayAngles {
		var origin r2.Vec
		switch {
		case deg < 0:
			origin = corners.FrontLeft
		case deg > 0:
			origin = corners.FrontRight
		default:
			origin = FrontCenter(v.Shape)
		}
		dir := geometry.FromAngle(v.Heading + geometry.Radians(deg))
		rays[i] = geometry.Segment{A: origin, B: r2.Add(origin, r2.Scale(v.cfg.RayLength, dir))}
	}
	return rays
}

// DetectBoundaries traces every ray against the passed walls, returning the raw
// distance to the nearest wall per ray, capped at the ray length.
func (v *Vehicle) DetectBoundaries(walls ...[]r2.Vec) []float64 {
	rays := v.Rays()
	dists := make([]float64, len(rays))
	for i, ray := range rays {
		dists[i] = geometry.RayTrace(ray, v.cfg.RayLength, walls...)
	}
	return dists
}

// CheckCheckpoint reports whether the car's body line crosses a live checkpoint.
func (v *Vehicle) CheckCheckpoint(tr Crosser) bool {
	return tr.Cross(BodyLine(v.Shape))
}
