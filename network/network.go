// Package network is a small dense feed-forward network on gonum matrices:
// ReLU hidden layers, a linear or softmax output, mean-squared-error loss, and
// Adam updates. It is the Q-function approximator behind the DQN agent.
package network

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

// Activation names a layer's nonlinearity.
type Activation string

const (
	ReLU    Activation = "relu"
	Linear  Activation = "linear"
	Softmax Activation = "softmax"
)

// Config describes the network's shape and training parameters.
type Config struct {
	Inputs           int        `yaml:"-"`
	Outputs          int        `yaml:"-"`
	Hidden           []int      `yaml:"hidden"`
	OutputActivation Activation `yaml:"outputactivation"`
	LearningRate     float64    `yaml:"-"`
	// FitBatchSize is the minibatch size used within one epoch of Fit.
	FitBatchSize int `yaml:"-"`
}

// DefaultConfig is the 6-32-64-4 network of the original agent, with a linear output.
func DefaultConfig() Config {
	return Config{
		Inputs:           6,
		Outputs:          4,
		Hidden:           []int{32, 64},
		OutputActivation: Linear,
		LearningRate:     0.001,
		FitBatchSize:     32,
	}
}

// Validate reports the first invalid field.
func (cfg Config) Validate() error {
	if cfg.Inputs < 1 || cfg.Outputs < 1 {
		return fmt.Errorf("network needs inputs and outputs: %d -> %d", cfg.Inputs, cfg.Outputs)
	}
	for _, h := range cfg.Hidden {
		if h < 1 {
			return fmt.Errorf("network hidden layer widths must be positive: %v", cfg.Hidden)
		}
	}
	if cfg.OutputActivation != Linear && cfg.OutputActivation != Softmax {
		return fmt.Errorf("network output activation %q: must be %q or %q", cfg.OutputActivation, Linear, Softmax)
	}
	if cfg.LearningRate <= 0 {
		return fmt.Errorf("network learning rate must be positive: %v", cfg.LearningRate)
	}
	return nil
}

type layer struct {
	w   *mat.Dense // inputs x outputs
	b   *mat.Dense // 1 x outputs
	act Activation
}

// trace holds the per-layer values of a forward pass needed by backprop.
// acts[0] is the input; zs[l] and acts[l+1] are layer l's pre- and post-activations.
type trace struct {
	zs   []*mat.Dense
	acts []*mat.Dense
}

// Network is a stack of dense layers. It is not safe for concurrent use.
type Network struct {
	cfg    Config
	layers []*layer
	opt    *adam
	rng    *rand.Rand
}

// New builds a network with Glorot-uniform weights and zero biases.
func New(cfg Config, rng *rand.Rand) (*Network, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.FitBatchSize < 1 {
		cfg.FitBatchSize = 32
	}

	sizes := append([]int{cfg.Inputs}, cfg.Hidden...)
	sizes = append(sizes, cfg.Outputs)

	net := &Network{cfg: cfg, rng: rng}
	for i := 1; i < len(sizes); i++ {
		in, out := sizes[i-1], sizes[i]
		limit := math.Sqrt(6 / float64(in+out))
		weights := make([]float64, in*out)
		for j := range weights {
			weights[j] = rng.Float64()*2*limit - limit
		}
		act := ReLU
		if i == len(sizes)-1 {
			act = cfg.OutputActivation
		}
		net.layers = append(net.layers, &layer{
			w:   mat.NewDense(in, out, weights),
			b:   mat.NewDense(1, out, nil),
			act: act,
		})
	}
	net.opt = newAdam(cfg.LearningRate, net.params())
	return net, nil
}

// Predict returns one row of outputs per row of x.
func (net *Network) Predict(x mat.Matrix) *mat.Dense {
	tr := net.forward(mat.DenseCopyOf(x))
	return tr.acts[len(tr.acts)-1]
}

// PredictOne is Predict for a single input vector.
func (net *Network) PredictOne(x []float64) []float64 {
	out := net.Predict(mat.NewDense(1, len(x), x))
	return mat.Row(nil, 0, out)
}

// Fit runs one shuffled epoch of minibatch regression from x to targets, and returns
// the epoch's mean loss.
func (net *Network) Fit(x, targets *mat.Dense) float64 {
	rows, _ := x.Dims()
	if rows == 0 {
		return 0
	}

	perm := net.rng.Perm(rows)
	total := 0.0
	for start := 0; start < rows; start += net.cfg.FitBatchSize {
		end := start + net.cfg.FitBatchSize
		if end > rows {
			end = rows
		}
		bx, bt := gather(x, perm[start:end]), gather(targets, perm[start:end])
		loss, grads := net.backprop(bx, bt)
		net.opt.step(net.params(), grads)
		total += loss * float64(end-start)
	}
	return total / float64(rows)
}

// Loss is the mean squared error of the network's predictions against targets.
func (net *Network) Loss(x, targets *mat.Dense) float64 {
	return meanSquaredError(net.Predict(x), targets)
}

func (net *Network) forward(x *mat.Dense) trace {
	tr := trace{acts: []*mat.Dense{x}}
	in := x
	for _, l := range net.layers {
		rows, _ := in.Dims()
		_, outs := l.w.Dims()
		z := mat.NewDense(rows, outs, nil)
		z.Mul(in, l.w)
		bias := l.b.RawRowView(0)
		z.Apply(func(_, j int, v float64) float64 { return v + bias[j] }, z)

		a := activate(l.act, z)
		tr.zs = append(tr.zs, z)
		tr.acts = append(tr.acts, a)
		in = a
	}
	return tr
}

// backprop returns the loss and the gradient of every parameter, in params() order.
func (net *Network) backprop(x, targets *mat.Dense) (float64, []*mat.Dense) {
	tr := net.forward(x)
	out := tr.acts[len(tr.acts)-1]
	loss := meanSquaredError(out, targets)

	rows, cols := out.Dims()
	delta := mat.NewDense(rows, cols, nil)
	delta.Sub(out, targets)
	delta.Scale(2/float64(rows*cols), delta)

	grads := make([]*mat.Dense, 2*len(net.layers))
	for i := len(net.layers) - 1; i >= 0; i-- {
		l := net.layers[i]
		dz := derivative(l.act, tr.zs[i], tr.acts[i+1], delta)

		dw := &mat.Dense{}
		dw.Mul(tr.acts[i].T(), dz)
		_, outs := dz.Dims()
		db := mat.NewDense(1, outs, nil)
		for r := 0; r < rows; r++ {
			for j, v := range dz.RawRowView(r) {
				db.Set(0, j, db.At(0, j)+v)
			}
		}
		grads[2*i], grads[2*i+1] = dw, db

		if i > 0 {
			delta = &mat.Dense{}
			delta.Mul(dz, l.w.T())
		}
	}
	return loss, grads
}

func (net *Network) params() []*mat.Dense {
	params := make([]*mat.Dense, 0, 2*len(net.layers))
	for _, l := range net.layers {
		params = append(params, l.w, l.b)
	}
	return params
}

func activate(act Activation, z *mat.Dense) *mat.Dense {
	a := mat.DenseCopyOf(z)
	switch act {
	case ReLU:
		a.Apply(func(_, _ int, v float64) float64 { return math.Max(0, v) }, a)
	case Softmax:
		rows, _ := a.Dims()
		for r := 0; r < rows; r++ {
			softmax(a.RawRowView(r))
		}
	}
	return a
}

// derivative maps dL/da to dL/dz for one layer.
func derivative(act Activation, z, a, da *mat.Dense) *mat.Dense {
	dz := mat.DenseCopyOf(da)
	switch act {
	case ReLU:
		dz.Apply(func(i, j int, v float64) float64 {
			if z.At(i, j) > 0 {
				return v
			}
			return 0
		}, dz)
	case Softmax:
		rows, _ := dz.Dims()
		for r := 0; r < rows; r++ {
			y, g := a.RawRowView(r), dz.RawRowView(r)
			dot := 0.0
			for j := range y {
				dot += g[j] * y[j]
			}
			for j := range y {
				g[j] = y[j] * (g[j] - dot)
			}
		}
	}
	return dz
}

func softmax(row []float64) {
	peak := math.Inf(-1)
	for _, v := range row {
		peak = math.Max(peak, v)
	}
	sum := 0.0
	for j, v := range row {
		row[j] = math.Exp(v - peak)
		sum += row[j]
	}
	for j := range row {
		row[j] /= sum
	}
}

func meanSquaredError(out, targets *mat.Dense) float64 {
	rows, cols := out.Dims()
	if rows*cols == 0 {
		return 0
	}
	sum := 0.0
	for r := 0; r < rows; r++ {
		o, t := out.RawRowView(r), targets.RawRowView(r)
		for j := range o {
			d := o[j] - t[j]
			sum += d * d
		}
	}
	return sum / float64(rows*cols)
}

// gather copies the passed rows of m into a new matrix.
func gather(m *mat.Dense, rows []int) *mat.Dense {
	_, cols := m.Dims()
	out := mat.NewDense(len(rows), cols, nil)
	for i, r := range rows {
		out.SetRow(i, m.RawRowView(r))
	}
	return out
}
