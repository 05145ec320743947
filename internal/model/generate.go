package model

import (
	"context"
	"fmt"

	"github.com/samcharles93/transl8/internal/logits"
	"github.com/samcharles93/transl8/internal/tensor"
)

// DecodeOptions configures Generate.
type DecodeOptions struct {
	BOS    int // token that starts every target sequence
	EOS    int // token that ends a target sequence
	MaxLen int // maximum generated tokens; <= 0 means src.Len + 10, capped by the positional table

	// Sampling selects the next token; the zero value picks the arg-max.
	Sampling logits.SamplerConfig
}

// Greedy is Generate with arg-max token selection.
func (m *TranslationModel) Greedy(ctx context.Context, src tensor.Tokens, srcKeyPadding *tensor.PaddingMask, opts DecodeOptions) ([][]int, error) {
	opts.Sampling = logits.SamplerConfig{}
	return m.Generate(ctx, src, srcKeyPadding, opts)
}

// Generate translates src by encoding it once and then repeatedly decoding
// the growing target prefix against the cached memory, choosing a token from
// the logits at the last position. Each returned row excludes BOS and ends
// with EOS unless MaxLen was reached first.
func (m *TranslationModel) Generate(ctx context.Context, src tensor.Tokens, srcKeyPadding *tensor.PaddingMask, opts DecodeOptions) ([][]int, error) {
	vocab := m.cfg.TgtVocabSize
	if opts.BOS < 0 || opts.BOS >= vocab || opts.EOS < 0 || opts.EOS >= vocab {
		return nil, fmt.Errorf("bos %d / eos %d outside target vocab %d: %w", opts.BOS, opts.EOS, vocab, tensor.ErrTokenOutOfRange)
	}
	maxLen := opts.MaxLen
	if maxLen <= 0 {
		maxLen = src.Len + 10
	}
	// Step s decodes a prefix of s+1 tokens, which must fit the positional table.
	if limit := m.Positional.MaxLen; maxLen > limit {
		m.log.Debug("decode length capped", "requested", maxLen, "max_len", limit)
		maxLen = limit
	}

	memory, err := m.EncoderMasked(src, srcKeyPadding)
	if err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}

	batch := src.Batch
	ys := tensor.NewTokens(1, batch)
	for b := 0; b < batch; b++ {
		ys.Set(0, b, opts.BOS)
	}
	out := make([][]int, batch)
	done := make([]bool, batch)
	remaining := batch
	next := make([]int, batch)
	sampler := logits.NewSampler(opts.Sampling)

	for step := 0; step < maxLen && remaining > 0; step++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		mask := m.GenerateSquareSubsequentMask(ys.Len)
		states, err := m.DecoderMasked(ys, memory, &mask, srcKeyPadding)
		if err != nil {
			return nil, fmt.Errorf("decode step %d: %w", step, err)
		}
		last, err := states.Slice(ys.Len-1, ys.Len)
		if err != nil {
			return nil, err
		}
		scores, err := m.Project(last)
		if err != nil {
			return nil, err
		}
		for b := 0; b < batch; b++ {
			if done[b] {
				next[b] = opts.EOS
				continue
			}
			tok := sampler.Sample(scores.Vec(0, b), out[b])
			next[b] = tok
			out[b] = append(out[b], tok)
			if tok == opts.EOS {
				done[b] = true
				remaining--
			}
		}
		ys = ys.Append(next)
	}
	m.log.Debug("decode finished", "batch", batch, "steps", ys.Len-1, "unfinished", remaining, "greedy", opts.Sampling.Greedy())
	return out, nil
}
