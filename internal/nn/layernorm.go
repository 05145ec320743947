package nn

import "github.com/samcharles93/transl8/internal/tensor"

const defaultLayerNormEps = 1e-5

// LayerNorm normalises the last axis with a learned affine transform.
type LayerNorm struct {
	Weight []float32
	Bias   []float32
	Eps    float32
}

func NewLayerNorm(dim int) *LayerNorm {
	ln := &LayerNorm{
		Weight: make([]float32, dim),
		Bias:   make([]float32, dim),
		Eps:    defaultLayerNormEps,
	}
	for i := range ln.Weight {
		ln.Weight[i] = 1
	}
	return ln
}

// ForwardInPlace normalises every row of m.
func (ln *LayerNorm) ForwardInPlace(m *tensor.Mat) {
	for i := 0; i < m.R; i++ {
		row := m.Row(i)
		tensor.LayerNorm(row, row, ln.Weight, ln.Bias, ln.Eps)
	}
}
