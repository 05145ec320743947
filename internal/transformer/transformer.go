// Package transformer implements a post-norm encoder-decoder attention stack
// on the CPU. It is the default backend behind model.SequenceTransformer.
package transformer

import (
	"fmt"
	"math/rand"

	"github.com/samcharles93/transl8/internal/nn"
	"github.com/samcharles93/transl8/internal/tensor"
)

// Transformer owns the encoder and decoder stacks, each closed by a final
// layer norm.
type Transformer struct {
	cfg Config

	EncoderLayers []*EncoderLayer
	EncoderNorm   *nn.LayerNorm
	DecoderLayers []*DecoderLayer
	DecoderNorm   *nn.LayerNorm
}

// New builds the stack. mode may be nil for a permanently eval-mode stack.
func New(cfg Config, mode *nn.Mode, rng *rand.Rand) (*Transformer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	t := &Transformer{
		cfg:           cfg,
		EncoderLayers: make([]*EncoderLayer, cfg.EncoderLayers),
		EncoderNorm:   nn.NewLayerNorm(cfg.Dim),
		DecoderLayers: make([]*DecoderLayer, cfg.DecoderLayers),
		DecoderNorm:   nn.NewLayerNorm(cfg.Dim),
	}
	for i := range t.EncoderLayers {
		l, err := newEncoderLayer(cfg, mode, rng)
		if err != nil {
			return nil, fmt.Errorf("encoder layer %d: %w", i, err)
		}
		t.EncoderLayers[i] = l
	}
	for i := range t.DecoderLayers {
		l, err := newDecoderLayer(cfg, mode, rng)
		if err != nil {
			return nil, fmt.Errorf("decoder layer %d: %w", i, err)
		}
		t.DecoderLayers[i] = l
	}
	return t, nil
}

func (t *Transformer) Config() Config { return t.cfg }

// Dim returns the model width.
func (t *Transformer) Dim() int { return t.cfg.Dim }

// CausalMask returns the (n, n) mask that stops position i attending to j > i.
func (t *Transformer) CausalMask(n int) tensor.Mat {
	return tensor.CausalMask(n)
}

// Forward runs the encoder over src and the decoder over tgt against the
// resulting memory. It returns decoder states shaped like tgt.
func (t *Transformer) Forward(src, tgt tensor.Seq, masks Masks) (tensor.Seq, error) {
	if src.Batch != tgt.Batch {
		return tensor.Seq{}, fmt.Errorf("src batch %d != tgt batch %d: %w", src.Batch, tgt.Batch, tensor.ErrShapeMismatch)
	}
	memory, err := t.Encode(src, masks.Src, masks.SrcKeyPadding)
	if err != nil {
		return tensor.Seq{}, err
	}
	return t.Decode(tgt, memory, masks.Tgt, masks.decode())
}

// Encode returns the encoder memory for src. The input is not modified.
func (t *Transformer) Encode(src tensor.Seq, mask *tensor.Mat, keyPadding *tensor.PaddingMask) (tensor.Seq, error) {
	if src.Dim != t.cfg.Dim {
		return tensor.Seq{}, fmt.Errorf("encoder input dim %d, want %d: %w", src.Dim, t.cfg.Dim, tensor.ErrShapeMismatch)
	}
	x := src.Clone()
	for i, l := range t.EncoderLayers {
		if err := l.Forward(&x, mask, keyPadding); err != nil {
			return tensor.Seq{}, fmt.Errorf("encoder layer %d: %w", i, err)
		}
	}
	m := x.Mat()
	t.EncoderNorm.ForwardInPlace(&m)
	return x, nil
}

// Decode returns decoder states for tgt conditioned on memory. tgtMask is
// usually CausalMask(tgt.Len). The inputs are not modified.
func (t *Transformer) Decode(tgt, memory tensor.Seq, tgtMask *tensor.Mat, masks DecodeMasks) (tensor.Seq, error) {
	if tgt.Dim != t.cfg.Dim || memory.Dim != t.cfg.Dim {
		return tensor.Seq{}, fmt.Errorf("decoder dims tgt %d memory %d, want %d: %w", tgt.Dim, memory.Dim, t.cfg.Dim, tensor.ErrShapeMismatch)
	}
	if tgt.Batch != memory.Batch {
		return tensor.Seq{}, fmt.Errorf("tgt batch %d != memory batch %d: %w", tgt.Batch, memory.Batch, tensor.ErrShapeMismatch)
	}
	x := tgt.Clone()
	for i, l := range t.DecoderLayers {
		if err := l.Forward(&x, &memory, tgtMask, masks); err != nil {
			return tensor.Seq{}, fmt.Errorf("decoder layer %d: %w", i, err)
		}
	}
	m := x.Mat()
	t.DecoderNorm.ForwardInPlace(&m)
	return x, nil
}

// ParameterCount returns the number of scalar parameters in the stack.
func (t *Transformer) ParameterCount() int {
	n := len(t.EncoderNorm.Weight) + len(t.EncoderNorm.Bias) + len(t.DecoderNorm.Weight) + len(t.DecoderNorm.Bias)
	for _, l := range t.EncoderLayers {
		n += attnParams(l.SelfAttn) + ffnParams(l.FFN) + normParams(l.Norm1, l.Norm2)
	}
	for _, l := range t.DecoderLayers {
		n += attnParams(l.SelfAttn) + attnParams(l.CrossAttn) + ffnParams(l.FFN) + normParams(l.Norm1, l.Norm2, l.Norm3)
	}
	return n
}

func linearParams(l *nn.Linear) int { return len(l.Weight.Data) + len(l.Bias) }

func attnParams(a *nn.MultiHeadAttention) int {
	return linearParams(a.InProj) + linearParams(a.OutProj)
}

func ffnParams(f *nn.FeedForward) int {
	return linearParams(f.Linear1) + linearParams(f.Linear2)
}

func normParams(norms ...*nn.LayerNorm) int {
	n := 0
	for _, ln := range norms {
		n += len(ln.Weight) + len(ln.Bias)
	}
	return n
}
