package network

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

const (
	adamBeta1   = 0.9
	adamBeta2   = 0.999
	adamEpsilon = 1e-7
)

// adam keeps first and second moment estimates for every parameter matrix.
type adam struct {
	lr   float64
	t    int
	m, v []*mat.Dense
}

func newAdam(lr float64, params []*mat.Dense) *adam {
	opt := &adam{lr: lr}
	for _, p := range params {
		rows, cols := p.Dims()
		opt.m = append(opt.m, mat.NewDense(rows, cols, nil))
		opt.v = append(opt.v, mat.NewDense(rows, cols, nil))
	}
	return opt
}

// step applies one bias-corrected update of grads to params, in place.
func (opt *adam) step(params, grads []*mat.Dense) {
	opt.t++
	c1 := 1 - math.Pow(adamBeta1, float64(opt.t))
	c2 := 1 - math.Pow(adamBeta2, float64(opt.t))

	for k, p := range params {
		rows, _ := p.Dims()
		for r := 0; r < rows; r++ {
			pr, gr := p.RawRowView(r), grads[k].RawRowView(r)
			mr, vr := opt.m[k].RawRowView(r), opt.v[k].RawRowView(r)
			for j, g := range gr {
				mr[j] = adamBeta1*mr[j] + (1-adamBeta1)*g
				vr[j] = adamBeta2*vr[j] + (1-adamBeta2)*g*g
				pr[j] -= opt.lr * (mr[j] / c1) / (math.Sqrt(vr[j]/c2) + adamEpsilon)
			}
		}
	}
}
