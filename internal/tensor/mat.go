package tensor

import (
	"fmt"
	"math"
	"math/rand"
)

// Mat represents a dense row‑major matrix of float32 values.
//
// R and C represent the number of rows and columns respectively.  Stride is the
// number of elements between the starts of two consecutive rows (for row‑major
// matrices this is equal to C).  Data holds the flattened matrix values.
//
// Mat does not perform any memory safety beyond the checks performed by Go's
// slice types; out‑of‑range indices will panic.
type Mat struct {
	R, C   int
	Stride int
	Data   []float32
}

// NewMat allocates a new matrix with the given number of rows and columns.
// The underlying slice is zero initialised.  The stride is set to the
// number of columns.
func NewMat(r, c int) Mat {
	if r < 0 || c < 0 {
		panic("negative dimension for matrix")
	}
	return Mat{
		R:      r,
		C:      c,
		Stride: c,
		Data:   make([]float32, r*c),
	}
}

// NewMatFromData creates a matrix from existing data.
// It returns ErrShapeMismatch when the data length does not match r*c.
func NewMatFromData(r, c int, data []float32) (Mat, error) {
	if r < 0 || c < 0 {
		return Mat{}, fmt.Errorf("matrix %dx%d: %w", r, c, ErrShapeMismatch)
	}
	if r*c != len(data) {
		return Mat{}, fmt.Errorf("matrix %dx%d from %d values: %w", r, c, len(data), ErrShapeMismatch)
	}
	return Mat{
		R:      r,
		C:      c,
		Stride: c,
		Data:   data,
	}, nil
}

// Row returns a view of the i‑th row of the matrix as a slice.  The slice
// has length equal to the number of columns.  Modifications to the returned
// slice update the underlying matrix values.
func (m *Mat) Row(i int) []float32 {
	if i < 0 || i >= m.R {
		panic("row index out of range")
	}
	start := i * m.Stride
	return m.Data[start : start+m.C]
}

// At returns the element at row i, column j.
func (m *Mat) At(i, j int) float32 {
	return m.Data[i*m.Stride+j]
}

// Set stores v at row i, column j.
func (m *Mat) Set(i, j int, v float32) {
	m.Data[i*m.Stride+j] = v
}

// Shape returns the dimensions as a slice, mostly for logging and errors.
func (m *Mat) Shape() []int {
	return []int{m.R, m.C}
}

// FillNormal fills m with samples from N(0, std^2).
func FillNormal(m *Mat, rng *rand.Rand, std float64) {
	for i := range m.Data {
		m.Data[i] = float32(rng.NormFloat64() * std)
	}
}

// FillUniform fills m with samples from U(-bound, bound).
func FillUniform(m *Mat, rng *rand.Rand, bound float64) {
	for i := range m.Data {
		m.Data[i] = float32((rng.Float64()*2 - 1) * bound)
	}
}

// FillXavier applies Glorot/Xavier uniform initialisation treating R as
// fan-out and C as fan-in.
func FillXavier(m *Mat, rng *rand.Rand) {
	if m.R+m.C == 0 {
		return
	}
	FillUniform(m, rng, math.Sqrt(6.0/float64(m.R+m.C)))
}
