package network

import (
	"math"
	"math/rand"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"gonum.org/v1/gonum/mat"
)

func smallConfig(out Activation) Config {
	return Config{
		Inputs:           3,
		Outputs:          2,
		Hidden:           []int{5, 4},
		OutputActivation: out,
		LearningRate:     0.01,
		FitBatchSize:     8,
	}
}

func randomMatrix(rng *rand.Rand, rows, cols int) *mat.Dense {
	data := make([]float64, rows*cols)
	for i := range data {
		data[i] = rng.Float64()
	}
	return mat.NewDense(rows, cols, data)
}

func TestPredict(t *testing.T) {
	Convey("Given the default network", t, func() {
		net, err := New(DefaultConfig(), rand.New(rand.NewSource(1)))
		So(err, ShouldBeNil)

		Convey("It maps six features to four action values", func() {
			out := net.PredictOne([]float64{0.1, 0.2, 1, 0.2, 0.1, 0.3})
			So(len(out), ShouldEqual, 4)
		})

		Convey("Batches produce one row per input row", func() {
			rows, cols := net.Predict(mat.NewDense(7, 6, nil)).Dims()
			So(rows, ShouldEqual, 7)
			So(cols, ShouldEqual, 4)
		})
	})

	Convey("Given a softmax output", t, func() {
		rng := rand.New(rand.NewSource(2))
		net, err := New(smallConfig(Softmax), rng)
		So(err, ShouldBeNil)

		Convey("Every output row is a distribution", func() {
			out := net.Predict(randomMatrix(rng, 5, 3))
			for r := 0; r < 5; r++ {
				sum := 0.0
				for _, v := range out.RawRowView(r) {
					So(v, ShouldBeBetween, 0, 1)
					sum += v
				}
				So(sum, ShouldAlmostEqual, 1, 1e-9)
			}
		})
	})

	Convey("Given invalid configs", t, func() {
		rng := rand.New(rand.NewSource(3))
		cfg := smallConfig(Linear)
		cfg.OutputActivation = "tanh"
		_, err := New(cfg, rng)
		So(err, ShouldNotBeNil)

		cfg = smallConfig(Linear)
		cfg.Hidden = []int{4, 0}
		_, err = New(cfg, rng)
		So(err, ShouldNotBeNil)
	})
}

func TestBackprop(t *testing.T) {
	for _, act := range []Activation{Linear, Softmax} {
		act := act
		Convey("Given a "+string(act)+" network, analytic gradients match finite differences", t, func() {
			rng := rand.New(rand.NewSource(4))
			net, err := New(smallConfig(act), rng)
			So(err, ShouldBeNil)
			x, targets := randomMatrix(rng, 6, 3), randomMatrix(rng, 6, 2)

			_, grads := net.backprop(x, targets)
			const eps = 1e-6
			for k, p := range net.params() {
				rows, cols := p.Dims()
				for r := 0; r < rows; r++ {
					for c := 0; c < cols; c++ {
						orig := p.At(r, c)
						p.Set(r, c, orig+eps)
						up := net.Loss(x, targets)
						p.Set(r, c, orig-eps)
						down := net.Loss(x, targets)
						p.Set(r, c, orig)

						numeric := (up - down) / (2 * eps)
						So(math.Abs(numeric-grads[k].At(r, c)), ShouldBeLessThan, 1e-6)
					}
				}
			}
		})
	}
}

func TestFit(t *testing.T) {
	Convey("Given a regression problem", t, func() {
		rng := rand.New(rand.NewSource(5))
		net, err := New(smallConfig(Linear), rng)
		So(err, ShouldBeNil)

		x := randomMatrix(rng, 64, 3)
		targets := mat.NewDense(64, 2, nil)
		for r := 0; r < 64; r++ {
			targets.Set(r, 0, x.At(r, 0)+x.At(r, 1))
			targets.Set(r, 1, 2*x.At(r, 2)-0.5)
		}

		Convey("Repeated epochs reduce the loss", func() {
			before := net.Loss(x, targets)
			var last float64
			for epoch := 0; epoch < 300; epoch++ {
				last = net.Fit(x, targets)
			}
			So(last, ShouldBeGreaterThanOrEqualTo, 0)
			So(net.Loss(x, targets), ShouldBeLessThan, before/4)
		})
	})
}
