package nn

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/samcharles93/transl8/internal/tensor"
)

// TokenEmbedding maps token ids to table rows scaled by sqrt(Dim).
type TokenEmbedding struct {
	Vocab int
	Dim   int
	Table tensor.Mat // [Vocab x Dim]
	scale float32
}

// NewTokenEmbedding initialises the table from N(0, 1).
func NewTokenEmbedding(vocab, dim int, rng *rand.Rand) *TokenEmbedding {
	e := &TokenEmbedding{
		Vocab: vocab,
		Dim:   dim,
		Table: tensor.NewMat(vocab, dim),
		scale: float32(math.Sqrt(float64(dim))),
	}
	tensor.FillNormal(&e.Table, rng, 1)
	return e
}

// Forward returns a (Len, Batch, Dim) tensor for a (Len, Batch) token matrix.
func (e *TokenEmbedding) Forward(tokens tensor.Tokens) (tensor.Seq, error) {
	if len(tokens.IDs) != tokens.Len*tokens.Batch {
		return tensor.Seq{}, fmt.Errorf("tokens (%d,%d) hold %d ids: %w", tokens.Len, tokens.Batch, len(tokens.IDs), tensor.ErrShapeMismatch)
	}
	out := tensor.NewSeq(tokens.Len, tokens.Batch, e.Dim)
	for t := 0; t < tokens.Len; t++ {
		for b := 0; b < tokens.Batch; b++ {
			id := tokens.At(t, b)
			if id < 0 || id >= e.Vocab {
				return tensor.Seq{}, fmt.Errorf("id %d at position %d batch %d (vocab %d): %w", id, t, b, e.Vocab, tensor.ErrTokenOutOfRange)
			}
			dst := out.Vec(t, b)
			copy(dst, e.Table.Row(id))
			tensor.Scale(dst, e.scale)
		}
	}
	return out, nil
}
