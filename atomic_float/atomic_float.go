package atomic_float

import (
	"math"
	"sync/atomic"
)

// AtomicFloat64 is a float64 gauge safe for concurrent use without locks.
// The value is stored as its IEEE-754 bits in an atomic.Uint64.
// The zero value holds 0.
type AtomicFloat64 struct {
	bits atomic.Uint64
}

// NewAtomicFloat64 returns a gauge holding val.
func NewAtomicFloat64(val float64) *AtomicFloat64 {
	af := &AtomicFloat64{}
	af.Store(val)
	return af
}

// Load atomically reads the value.
func (af *AtomicFloat64) Load() float64 {
	return math.Float64frombits(af.bits.Load())
}

// Store atomically sets the value.
func (af *AtomicFloat64) Store(val float64) {
	af.bits.Store(math.Float64bits(val))
}

// Update atomically replaces the value with fn(old) and returns the new value.
// fn may run more than once under contention, so it must be pure.
func (af *AtomicFloat64) Update(fn func(old float64) float64) float64 {
	for {
		oldBits := af.bits.Load()
		newVal := fn(math.Float64frombits(oldBits))
		if af.bits.CompareAndSwap(oldBits, math.Float64bits(newVal)) {
			return newVal
		}
	}
}
