package nn

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/samcharles93/transl8/internal/tensor"
)

// MultiHeadAttention is scaled dot-product attention over Heads subspaces of
// a Dim-wide model. The query, key and value projections are packed into a
// single [3*Dim x Dim] in-projection.
type MultiHeadAttention struct {
	Dim     int
	Heads   int
	HeadDim int

	InProj  *Linear
	OutProj *Linear
	Dropout *Dropout
}

func NewMultiHeadAttention(dim, heads int, dropout float32, mode *Mode, rng *rand.Rand) (*MultiHeadAttention, error) {
	if heads <= 0 || dim <= 0 || dim%heads != 0 {
		return nil, fmt.Errorf("model dim %d not divisible by %d heads: %w", dim, heads, ErrInvalidConfig)
	}
	a := &MultiHeadAttention{
		Dim:     dim,
		Heads:   heads,
		HeadDim: dim / heads,
		InProj:  NewLinear(dim, 3*dim, rng),
		OutProj: NewLinear(dim, dim, rng),
		Dropout: NewDropout(dropout, mode, rng),
	}
	tensor.FillXavier(&a.InProj.Weight, rng)
	tensor.FillXavier(&a.OutProj.Weight, rng)
	clear(a.InProj.Bias)
	clear(a.OutProj.Bias)
	return a, nil
}

// projection returns a view of the i-th packed projection (0=q, 1=k, 2=v).
func (a *MultiHeadAttention) projection(i int) (tensor.Mat, []float32) {
	d := a.Dim
	w := tensor.Mat{R: d, C: d, Stride: d, Data: a.InProj.Weight.Data[i*d*d : (i+1)*d*d]}
	return w, a.InProj.Bias[i*d : (i+1)*d]
}

func (a *MultiHeadAttention) project(i int, x *tensor.Seq) tensor.Seq {
	w, bias := a.projection(i)
	in := x.Mat()
	out := tensor.NewSeq(x.Len, x.Batch, a.Dim)
	dst := out.Mat()
	tensor.MatMulTransB(&dst, &in, &w, bias, 0)
	return out
}

// Forward attends from query (L, B, Dim) over key/value (S, B, Dim).
// attnMask is an optional additive (L, S) mask; keyPadding optionally marks
// (B, S) key positions to ignore. A query whose keys are all masked produces
// a zero context vector.
func (a *MultiHeadAttention) Forward(query, key, value *tensor.Seq, attnMask *tensor.Mat, keyPadding *tensor.PaddingMask) (tensor.Seq, error) {
	if err := a.checkShapes(query, key, value, attnMask, keyPadding); err != nil {
		return tensor.Seq{}, err
	}
	q := a.project(0, query)
	k := a.project(1, key)
	v := a.project(2, value)

	L, S, B := query.Len, key.Len, query.Batch
	hd := a.HeadDim
	scale := float32(1.0 / math.Sqrt(float64(hd)))
	ctx := tensor.NewSeq(L, B, a.Dim)
	scores := make([]float32, S)

	for b := 0; b < B; b++ {
		for h := 0; h < a.Heads; h++ {
			lo, hi := h*hd, (h+1)*hd
			for i := 0; i < L; i++ {
				qh := q.Vec(i, b)[lo:hi]
				for j := 0; j < S; j++ {
					if keyPadding != nil && keyPadding.IsPad(b, j) {
						scores[j] = tensor.NegInf
						continue
					}
					s := tensor.Dot(qh, k.Vec(j, b)[lo:hi]) * scale
					if attnMask != nil {
						s += attnMask.At(i, j)
					}
					scores[j] = s
				}
				tensor.Softmax(scores)
				a.Dropout.Apply(scores)

				out := ctx.Vec(i, b)[lo:hi]
				for j := 0; j < S; j++ {
					w := scores[j]
					if w == 0 {
						continue
					}
					vh := v.Vec(j, b)[lo:hi]
					for d := range out {
						out[d] += w * vh[d]
					}
				}
			}
		}
	}
	return a.OutProj.ForwardSeq(&ctx)
}

func (a *MultiHeadAttention) checkShapes(query, key, value *tensor.Seq, attnMask *tensor.Mat, keyPadding *tensor.PaddingMask) error {
	if query.Dim != a.Dim || key.Dim != a.Dim || value.Dim != a.Dim {
		return fmt.Errorf("attention dim %d on q/k/v dims %d/%d/%d: %w", a.Dim, query.Dim, key.Dim, value.Dim, tensor.ErrShapeMismatch)
	}
	if key.Len != value.Len {
		return fmt.Errorf("key length %d != value length %d: %w", key.Len, value.Len, tensor.ErrShapeMismatch)
	}
	if query.Batch != key.Batch || key.Batch != value.Batch {
		return fmt.Errorf("batch sizes q/k/v %d/%d/%d: %w", query.Batch, key.Batch, value.Batch, tensor.ErrShapeMismatch)
	}
	if attnMask != nil {
		if err := tensor.CheckAttnMask(attnMask, query.Len, key.Len); err != nil {
			return err
		}
	}
	if keyPadding != nil {
		if err := keyPadding.Check(key.Batch, key.Len); err != nil {
			return err
		}
	}
	return nil
}
