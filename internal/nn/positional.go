package nn

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/samcharles93/transl8/internal/tensor"
)

// DefaultMaxLen is the number of positions precomputed by default.
const DefaultMaxLen = 5000

// PositionalEncoding adds a fixed sinusoidal signal to an embedding sequence
// and applies dropout:
//
//	PE(pos, 2i)   = sin(pos / 10000^(2i/dim))
//	PE(pos, 2i+1) = cos(pos / 10000^(2i/dim))
//
// The table is computed once and never modified.
type PositionalEncoding struct {
	MaxLen  int
	Dim     int
	Table   tensor.Mat // [MaxLen x Dim]
	Dropout *Dropout
}

func NewPositionalEncoding(dim, maxLen int, dropout float32, mode *Mode, rng *rand.Rand) *PositionalEncoding {
	if maxLen <= 0 {
		maxLen = DefaultMaxLen
	}
	pe := &PositionalEncoding{
		MaxLen:  maxLen,
		Dim:     dim,
		Table:   tensor.NewMat(maxLen, dim),
		Dropout: NewDropout(dropout, mode, rng),
	}
	for pos := 0; pos < maxLen; pos++ {
		row := pe.Table.Row(pos)
		for i := 0; i < dim; i += 2 {
			angle := float64(pos) * math.Exp(-float64(i)*math.Log(10000)/float64(dim))
			row[i] = float32(math.Sin(angle))
			if i+1 < dim {
				row[i+1] = float32(math.Cos(angle))
			}
		}
	}
	return pe
}

// Forward adds PE[pos] to every batch element at position pos, in place.
// Sequences longer than MaxLen are rejected.
func (pe *PositionalEncoding) Forward(x *tensor.Seq) error {
	if x.Dim != pe.Dim {
		return fmt.Errorf("positional encoding dim %d on input dim %d: %w", pe.Dim, x.Dim, tensor.ErrShapeMismatch)
	}
	if x.Len > pe.MaxLen {
		return fmt.Errorf("length %d > %d: %w", x.Len, pe.MaxLen, tensor.ErrSequenceTooLong)
	}
	for t := 0; t < x.Len; t++ {
		signal := pe.Table.Row(t)
		for b := 0; b < x.Batch; b++ {
			tensor.Add(x.Vec(t, b), signal)
		}
	}
	pe.Dropout.Apply(x.Data)
	return nil
}
