// Package track generates the procedural road the car drives on: tile by tile,
// each tile turning by an angle drawn from smooth 1-D noise, with parallel left and
// right wall polylines and a checkpoint spanning the road at every tile junction.
package track

import (
	"fmt"
	"math"

	"racetrack/geometry"

	"gonum.org/v1/gonum/spatial/r2"
)

// Mode selects whether the track is precomputed once or extended as the car advances.
type Mode string

const (
	// Finite tracks are generated once; crossed checkpoints are spent in place.
	Finite Mode = "finite"
	// Infinite tracks discard the oldest tile and append a new one whenever the car
	// crosses the middle checkpoint of the materialized tiles.
	Infinite Mode = "infinite"
)

// Config describes the shape of generated tracks. Angles are in degrees.
type Config struct {
	Mode       Mode    `yaml:"mode"`
	RoadLength float64 `yaml:"roadlength"`
	RoadHeight float64 `yaml:"roadheight"`
	Tiles      int     `yaml:"tiles"`
	MaxTurn    float64 `yaml:"maxturn"`
	// NoiseStep is how far the noise input advances per tile; larger is more erratic.
	NoiseStep float64 `yaml:"noisestep"`
	Seed      int64   `yaml:"seed"`
}

// DefaultConfig returns the classic sketch dimensions.
func DefaultConfig() Config {
	return Config{
		Mode:       Infinite,
		RoadLength: 60,
		RoadHeight: 100,
		Tiles:      20,
		MaxTurn:    90,
		NoiseStep:  0.1,
		Seed:       1,
	}
}

// Validate reports the first invalid field.
func (cfg Config) Validate() error {
	switch {
	case cfg.Mode != Finite && cfg.Mode != Infinite:
		return fmt.Errorf("track mode %q: must be %q or %q", cfg.Mode, Finite, Infinite)
	case cfg.RoadLength <= 0 || cfg.RoadHeight <= 0:
		return fmt.Errorf("track road dimensions must be positive: %vx%v", cfg.RoadLength, cfg.RoadHeight)
	case cfg.Tiles < 1:
		return fmt.Errorf("track tiles must be positive: %d", cfg.Tiles)
	case cfg.MaxTurn < 0 || cfg.MaxTurn > 90:
		return fmt.Errorf("track max turn must be within [0,90] degrees: %v", cfg.MaxTurn)
	}
	return nil
}

// Checkpoint spans the road from the left wall to the right wall at a tile junction.
// Spent checkpoints have already been crossed and never score again.
type Checkpoint struct {
	geometry.Segment
	Spent bool
}

// Tile is the result of generating one piece of road.
type Tile struct {
	Center r2.Vec
	Angle  float64
}

// Spawn is the pose at which a car starts on a new track.
type Spawn struct {
	Position r2.Vec
	Heading  float64
}

// Track holds the wall polylines and checkpoints. Left and Right are parallel:
// index i of each is the same tile junction, and Checkpoints[i] joins Left[i+1]
// to Right[i+1].
type Track struct {
	Left        []r2.Vec
	Right       []r2.Vec
	Checkpoints []Checkpoint
	Spawn       Spawn

	mode       Mode
	roadLength float64
	roadHeight float64
	maxTurn    float64
	gen        *Generator
}

// Walls returns the boundaries a car can hit: both wall polylines, left first,
// then the segment closing the road behind the oldest junction.
func (t *Track) Walls() [][]r2.Vec {
	return [][]r2.Vec{t.Left, t.Right, {t.Left[0], t.Right[0]}}
}

// Finish returns the line across the last junction of a finite track. Infinite
// tracks have no finish and return false.
func (t *Track) Finish() (geometry.Segment, bool) {
	if t.mode != Finite {
		return geometry.Segment{}, false
	}
	last := len(t.Left) - 1
	return geometry.Segment{A: t.Left[last], B: t.Right[last]}, true
}

// GenerateTile appends one tile: a new center at roadLength from the last junction's
// midpoint along a noise-derived angle, and wall points offset by half the road height
// perpendicular to it.
func (t *Track) GenerateTile() Tile {
	angle := t.gen.NextAngle(t.maxTurn)
	last := len(t.Left) - 1
	center := r2.Scale(0.5, r2.Add(t.Left[last], t.Right[last]))
	newCenter := r2.Add(center, r2.Scale(t.roadLength, geometry.FromAngle(angle)))

	half := t.roadHeight / 2
	offset := r2.Vec{
		X: half * math.Cos(math.Pi/2-angle),
		Y: -half * math.Sin(math.Pi/2-angle),
	}
	left := r2.Add(newCenter, offset)
	right := r2.Sub(newCenter, offset)

	t.Left = append(t.Left, left)
	t.Right = append(t.Right, right)
	t.Checkpoints = append(t.Checkpoints, Checkpoint{
		Segment: geometry.Segment{A: left, B: right},
	})
	return Tile{Center: newCenter, Angle: angle}
}

// GenerateTrack appends n tiles and places the spawn point halfway along tile
// floor((n-1)/2), facing along it.
func (t *Track) GenerateTrack(n int) {
	last := len(t.Left) - 1
	prev := r2.Scale(0.5, r2.Add(t.Left[last], t.Right[last]))
	spawnAt := (n - 1) / 2
	for i := 0; i < n; i++ {
		tile := t.GenerateTile()
		if i == spawnAt {
			t.Spawn = Spawn{
				Position: r2.Scale(0.5, r2.Add(prev, tile.Center)),
				Heading:  tile.Angle,
			}
		}
		prev = tile.Center
	}
}

// Cross tests the passed body line against every live checkpoint. The first one
// crossed is spent and true is returned. In infinite mode, crossing the middle
// checkpoint also drops the oldest tile and generates a new one.
func (t *Track) Cross(body geometry.Segment) bool {
	middle := (len(t.Checkpoints) - 1) / 2
	for i := range t.Checkpoints {
		cp := &t.Checkpoints[i]
		if cp.Spent {
			continue
		}
		if hit, _ := geometry.Intersect(cp.Segment, body); !hit {
			continue
		}

		cp.Spent = true
		if t.mode == Infinite && i == middle {
			t.advance()
		}
		return true
	}
	return false
}

// Live returns the number of checkpoints that can still be scored.
func (t *Track) Live() (n int) {
	for _, cp := range t.Checkpoints {
		if !cp.Spent {
			n++
		}
	}
	return
}

func (t *Track) advance() {
	t.Left = t.Left[1:]
	t.Right = t.Right[1:]
	t.Checkpoints = t.Checkpoints[1:]
	t.GenerateTile()
}
