package transformer

import (
	"math/rand"

	"github.com/samcharles93/transl8/internal/nn"
	"github.com/samcharles93/transl8/internal/tensor"
)

// EncoderLayer is a post-norm self-attention + feed-forward block.
type EncoderLayer struct {
	SelfAttn *nn.MultiHeadAttention
	FFN      *nn.FeedForward
	Norm1    *nn.LayerNorm
	Norm2    *nn.LayerNorm
	Dropout1 *nn.Dropout
	Dropout2 *nn.Dropout
}

func newEncoderLayer(cfg Config, mode *nn.Mode, rng *rand.Rand) (*EncoderLayer, error) {
	attn, err := nn.NewMultiHeadAttention(cfg.Dim, cfg.Heads, cfg.Dropout, mode, rng)
	if err != nil {
		return nil, err
	}
	return &EncoderLayer{
		SelfAttn: attn,
		FFN:      nn.NewFeedForward(cfg.Dim, cfg.FeedForward, cfg.Dropout, mode, rng),
		Norm1:    nn.NewLayerNorm(cfg.Dim),
		Norm2:    nn.NewLayerNorm(cfg.Dim),
		Dropout1: nn.NewDropout(cfg.Dropout, mode, rng),
		Dropout2: nn.NewDropout(cfg.Dropout, mode, rng),
	}, nil
}

// Forward updates x in place.
func (l *EncoderLayer) Forward(x *tensor.Seq, mask *tensor.Mat, keyPadding *tensor.PaddingMask) error {
	attn, err := l.SelfAttn.Forward(x, x, x, mask, keyPadding)
	if err != nil {
		return err
	}
	residual(x, &attn, l.Dropout1, l.Norm1)

	ff, err := l.FFN.Forward(x)
	if err != nil {
		return err
	}
	residual(x, &ff, l.Dropout2, l.Norm2)
	return nil
}

// DecoderLayer is a post-norm block of masked self-attention, cross-attention
// over the encoder memory, and feed-forward.
type DecoderLayer struct {
	SelfAttn  *nn.MultiHeadAttention
	CrossAttn *nn.MultiHeadAttention
	FFN       *nn.FeedForward
	Norm1     *nn.LayerNorm
	Norm2     *nn.LayerNorm
	Norm3     *nn.LayerNorm
	Dropout1  *nn.Dropout
	Dropout2  *nn.Dropout
	Dropout3  *nn.Dropout
}

func newDecoderLayer(cfg Config, mode *nn.Mode, rng *rand.Rand) (*DecoderLayer, error) {
	self, err := nn.NewMultiHeadAttention(cfg.Dim, cfg.Heads, cfg.Dropout, mode, rng)
	if err != nil {
		return nil, err
	}
	cross, err := nn.NewMultiHeadAttention(cfg.Dim, cfg.Heads, cfg.Dropout, mode, rng)
	if err != nil {
		return nil, err
	}
	return &DecoderLayer{
		SelfAttn:  self,
		CrossAttn: cross,
		FFN:       nn.NewFeedForward(cfg.Dim, cfg.FeedForward, cfg.Dropout, mode, rng),
		Norm1:     nn.NewLayerNorm(cfg.Dim),
		Norm2:     nn.NewLayerNorm(cfg.Dim),
		Norm3:     nn.NewLayerNorm(cfg.Dim),
		Dropout1:  nn.NewDropout(cfg.Dropout, mode, rng),
		Dropout2:  nn.NewDropout(cfg.Dropout, mode, rng),
		Dropout3:  nn.NewDropout(cfg.Dropout, mode, rng),
	}, nil
}

// Forward updates x in place.
func (l *DecoderLayer) Forward(x, memory *tensor.Seq, tgtMask *tensor.Mat, masks DecodeMasks) error {
	self, err := l.SelfAttn.Forward(x, x, x, tgtMask, masks.TgtKeyPadding)
	if err != nil {
		return err
	}
	residual(x, &self, l.Dropout1, l.Norm1)

	cross, err := l.CrossAttn.Forward(x, memory, memory, masks.Memory, masks.MemoryKeyPadding)
	if err != nil {
		return err
	}
	residual(x, &cross, l.Dropout2, l.Norm2)

	ff, err := l.FFN.Forward(x)
	if err != nil {
		return err
	}
	residual(x, &ff, l.Dropout3, l.Norm3)
	return nil
}

// residual computes x = norm(x + dropout(sub)).
func residual(x, sub *tensor.Seq, drop *nn.Dropout, norm *nn.LayerNorm) {
	drop.Apply(sub.Data)
	tensor.Add(x.Data, sub.Data)
	m := x.Mat()
	norm.ForwardInPlace(&m)
}
