package sensors

import (
	"math"
	"testing"

	"racetrack/track"
	"racetrack/vehicle"

	. "github.com/smartystreets/goconvey/convey"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/spatial/r2"
)

type flatNoise struct{}

func (flatNoise) Noise1D(float64) float64 { return 0 }

func TestObserve(t *testing.T) {
	cfg := vehicle.DefaultConfig()

	Convey("Given a car centred on a straight road", t, func() {
		left := []r2.Vec{{X: -1000, Y: -50}, {X: 1000, Y: -50}}
		right := []r2.Vec{{X: -1000, Y: 50}, {X: 1000, Y: 50}}
		car := vehicle.New(cfg, r2.Vec{}, 0)
		car.Velocity = r2.Vec{X: 25}

		obs := Observe(car, left, right)

		Convey("Features are normalized ray distances plus normalized speed", func() {
			So(len(obs.Features), ShouldEqual, Width(cfg))
			So(obs.Features[0], ShouldAlmostEqual, 40/cfg.RayLength)
			So(obs.Features[2], ShouldEqual, 1)
			So(obs.Features[5], ShouldAlmostEqual, 0.25)
			for _, f := range obs.Features {
				So(f, ShouldBeBetweenOrEqual, 0, 1)
			}
		})

		Convey("It is not terminal", func() {
			So(obs.Terminal, ShouldBeFalse)
			So(floats.Min(obs.Distances), ShouldAlmostEqual, 40)
		})
	})

	Convey("Given a car hugging a wall", t, func() {
		left := []r2.Vec{{X: -1000, Y: -19}, {X: 1000, Y: -19}}
		car := vehicle.New(cfg, r2.Vec{}, 0)

		Convey("It is terminal once a raw distance is within the threshold", func() {
			obs := Observe(car, left)
			So(obs.Distances[0], ShouldAlmostEqual, 9)
			So(obs.Terminal, ShouldBeTrue)
		})
	})

	Convey("Given a straight generated track and a car angled toward the left wall", t, func() {
		tcfg := track.DefaultConfig()
		tcfg.RoadLength, tcfg.RoadHeight, tcfg.Tiles = 60, 100, 10
		tr := track.NewGeneratorWithNoise(tcfg, flatNoise{}).NewTrack()
		heading := -math.Pi / 6
		car := vehicle.New(cfg, tr.Spawn.Position, heading)
		step := r2.Scale(5, r2.Vec{X: math.Cos(heading), Y: math.Sin(heading)})

		Convey("Driving straight at a fixed speed, distances shrink until terminal", func() {
			last := math.Inf(1)
			terminal := false
			for tick := 0; tick < 40 && !terminal; tick++ {
				obs := Observe(car, tr.Walls()...)
				So(floats.Min(obs.Distances), ShouldBeLessThan, last)
				So(obs.Terminal, ShouldEqual, floats.Min(obs.Distances) <= cfg.WallThreshold)
				last = floats.Min(obs.Distances)
				terminal = obs.Terminal
				car.Position = r2.Add(car.Position, step)
			}
			So(terminal, ShouldBeTrue)
		})
	})
}
