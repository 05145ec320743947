package nn

import (
	"math/rand"

	"github.com/samcharles93/transl8/internal/tensor"
)

// FeedForward is the position-wise block linear2(dropout(relu(linear1(x)))).
type FeedForward struct {
	Linear1 *Linear
	Linear2 *Linear
	Dropout *Dropout
}

func NewFeedForward(dim, hidden int, dropout float32, mode *Mode, rng *rand.Rand) *FeedForward {
	f := &FeedForward{
		Linear1: NewLinear(dim, hidden, rng),
		Linear2: NewLinear(hidden, dim, rng),
		Dropout: NewDropout(dropout, mode, rng),
	}
	tensor.FillXavier(&f.Linear1.Weight, rng)
	tensor.FillXavier(&f.Linear2.Weight, rng)
	return f
}

func (f *FeedForward) Forward(x *tensor.Seq) (tensor.Seq, error) {
	h, err := f.Linear1.ForwardSeq(x)
	if err != nil {
		return tensor.Seq{}, err
	}
	tensor.Relu(h.Data)
	f.Dropout.Apply(h.Data)
	return f.Linear2.ForwardSeq(&h)
}
