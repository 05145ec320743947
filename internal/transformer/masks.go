package transformer

import "github.com/samcharles93/transl8/internal/tensor"

// Masks bundles the optional masks of a full encoder-decoder pass.
// Attention masks are additive (0 allows, -Inf forbids). Padding masks mark
// positions to ignore with true.
type Masks struct {
	Src    *tensor.Mat // (S, S) encoder self-attention
	Tgt    *tensor.Mat // (T, T) decoder self-attention
	Memory *tensor.Mat // (T, S) decoder cross-attention

	SrcKeyPadding    *tensor.PaddingMask // (B, S)
	TgtKeyPadding    *tensor.PaddingMask // (B, T)
	MemoryKeyPadding *tensor.PaddingMask // (B, S)
}

// DecodeMasks holds the decoder-side masks other than the target attention
// mask, which Decode takes positionally.
type DecodeMasks struct {
	Memory           *tensor.Mat
	TgtKeyPadding    *tensor.PaddingMask
	MemoryKeyPadding *tensor.PaddingMask
}

func (m Masks) decode() DecodeMasks {
	return DecodeMasks{
		Memory:           m.Memory,
		TgtKeyPadding:    m.TgtKeyPadding,
		MemoryKeyPadding: m.MemoryKeyPadding,
	}
}
