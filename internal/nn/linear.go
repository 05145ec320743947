package nn

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/samcharles93/transl8/internal/tensor"
)

// Linear computes y = x W^T + b. Weight is stored [Out x In], one row per
// output feature.
type Linear struct {
	In, Out int
	Weight  tensor.Mat
	Bias    []float32
}

// NewLinear initialises weight and bias from U(-1/sqrt(in), 1/sqrt(in)).
func NewLinear(in, out int, rng *rand.Rand) *Linear {
	l := &Linear{
		In:     in,
		Out:    out,
		Weight: tensor.NewMat(out, in),
		Bias:   make([]float32, out),
	}
	bound := 1 / math.Sqrt(float64(max(in, 1)))
	tensor.FillUniform(&l.Weight, rng, bound)
	for i := range l.Bias {
		l.Bias[i] = float32((rng.Float64()*2 - 1) * bound)
	}
	return l
}

// Forward maps every row of x and returns a new [x.R x Out] matrix.
func (l *Linear) Forward(x *tensor.Mat) (tensor.Mat, error) {
	if x.C != l.In {
		return tensor.Mat{}, fmt.Errorf("linear %d->%d on %d features: %w", l.In, l.Out, x.C, tensor.ErrShapeMismatch)
	}
	out := tensor.NewMat(x.R, l.Out)
	tensor.MatMulTransB(&out, x, &l.Weight, l.Bias, 0)
	return out, nil
}

// ForwardSeq applies the layer to the last axis of a sequence tensor.
func (l *Linear) ForwardSeq(x *tensor.Seq) (tensor.Seq, error) {
	in := x.Mat()
	out, err := l.Forward(&in)
	if err != nil {
		return tensor.Seq{}, err
	}
	return tensor.Seq{Len: x.Len, Batch: x.Batch, Dim: l.Out, Data: out.Data}, nil
}
