package nn

import "math/rand"

// Dropout zeroes elements with probability Rate and rescales survivors by
// 1/(1-Rate). It is the identity in eval mode or when Rate is zero.
type Dropout struct {
	Rate float32
	mode *Mode
	rng  *rand.Rand
}

func NewDropout(rate float32, mode *Mode, rng *rand.Rand) *Dropout {
	return &Dropout{Rate: rate, mode: mode, rng: rng}
}

// Apply modifies x in place.
func (d *Dropout) Apply(x []float32) {
	if d == nil || d.Rate <= 0 || !d.mode.Training() {
		return
	}
	if d.Rate >= 1 {
		clear(x)
		return
	}
	keep := 1 - d.Rate
	scale := 1 / keep
	for i := range x {
		if d.rng.Float32() < d.Rate {
			x[i] = 0
		} else {
			x[i] *= scale
		}
	}
}
