package track

import (
	"math"

	"racetrack/geometry"

	"github.com/aquilax/go-perlin"
	"gonum.org/v1/gonum/spatial/r2"
)

// NoiseSource is coherent 1-D noise in roughly [-1,1].
type NoiseSource interface {
	Noise1D(x float64) float64
}

const (
	perlinAlpha   = 2.
	perlinBeta    = 2.
	perlinOctaves = 3
)

// Generator builds tracks. It owns the noise input, which keeps advancing across
// tracks so that each regenerated track differs from the last.
type Generator struct {
	cfg    Config
	noise  NoiseSource
	offset float64
}

// NewGenerator returns a generator driven by seeded perlin noise.
func NewGenerator(cfg Config) *Generator {
	return NewGeneratorWithNoise(cfg, perlin.NewPerlin(perlinAlpha, perlinBeta, perlinOctaves, cfg.Seed))
}

// NewGeneratorWithNoise returns a generator using the passed noise source.
func NewGeneratorWithNoise(cfg Config, noise NoiseSource) *Generator {
	return &Generator{
		cfg:   cfg,
		noise: noise,
	}
}

// NextAngle samples the noise at the current input, advances it by the configured
// step, and maps the sample onto [-maxTurn, maxTurn] degrees, returned in radians.
func (g *Generator) NextAngle(maxTurn float64) float64 {
	sample := g.noise.Noise1D(g.offset)
	g.offset += g.cfg.NoiseStep
	sample = math.Max(-1, math.Min(1, sample))
	return sample * geometry.Radians(maxTurn)
}

// NewTrack starts a track whose first junction straddles the origin, and generates
// the configured number of tiles.
func (g *Generator) NewTrack() *Track {
	half := g.cfg.RoadHeight / 2
	t := &Track{
		Left:       []r2.Vec{{X: 0, Y: -half}},
		Right:      []r2.Vec{{X: 0, Y: half}},
		mode:       g.cfg.Mode,
		roadLength: g.cfg.RoadLength,
		roadHeight: g.cfg.RoadHeight,
		maxTurn:    g.cfg.MaxTurn,
		gen:        g,
	}
	t.GenerateTrack(g.cfg.Tiles)
	return t
}
