package model

import (
	"errors"
	"fmt"
	"slices"

	"github.com/samcharles93/transl8/internal/nn"
	"github.com/samcharles93/transl8/internal/safetensors"
	"github.com/samcharles93/transl8/internal/transformer"
)

// ErrMissingWeight is returned by LoadSafetensors when a checkpoint lacks a
// parameter the model needs.
var ErrMissingWeight = errors.New("missing weight")

// param is a named view of a parameter's backing storage.
type param struct {
	name  string
	shape []int
	data  []float32
}

func linearParams(prefix string, l *nn.Linear) []param {
	return []param{
		{prefix + ".weight", []int{l.Out, l.In}, l.Weight.Data},
		{prefix + ".bias", []int{l.Out}, l.Bias},
	}
}

func normParams(prefix string, n *nn.LayerNorm) []param {
	return []param{
		{prefix + ".weight", []int{len(n.Weight)}, n.Weight},
		{prefix + ".bias", []int{len(n.Bias)}, n.Bias},
	}
}

func attnParams(prefix string, a *nn.MultiHeadAttention) []param {
	ps := []param{
		{prefix + ".in_proj_weight", []int{a.InProj.Out, a.InProj.In}, a.InProj.Weight.Data},
		{prefix + ".in_proj_bias", []int{a.InProj.Out}, a.InProj.Bias},
	}
	return append(ps, linearParams(prefix+".out_proj", a.OutProj)...)
}

func transformerParams(prefix string, t *transformer.Transformer) []param {
	var ps []param
	for i, l := range t.EncoderLayers {
		p := fmt.Sprintf("%s.encoder.layers.%d", prefix, i)
		ps = append(ps, attnParams(p+".self_attn", l.SelfAttn)...)
		ps = append(ps, linearParams(p+".linear1", l.FFN.Linear1)...)
		ps = append(ps, linearParams(p+".linear2", l.FFN.Linear2)...)
		ps = append(ps, normParams(p+".norm1", l.Norm1)...)
		ps = append(ps, normParams(p+".norm2", l.Norm2)...)
	}
	ps = append(ps, normParams(prefix+".encoder.norm", t.EncoderNorm)...)
	for i, l := range t.DecoderLayers {
		p := fmt.Sprintf("%s.decoder.layers.%d", prefix, i)
		ps = append(ps, attnParams(p+".self_attn", l.SelfAttn)...)
		ps = append(ps, attnParams(p+".multihead_attn", l.CrossAttn)...)
		ps = append(ps, linearParams(p+".linear1", l.FFN.Linear1)...)
		ps = append(ps, linearParams(p+".linear2", l.FFN.Linear2)...)
		ps = append(ps, normParams(p+".norm1", l.Norm1)...)
		ps = append(ps, normParams(p+".norm2", l.Norm2)...)
		ps = append(ps, normParams(p+".norm3", l.Norm3)...)
	}
	return append(ps, normParams(prefix+".decoder.norm", t.DecoderNorm)...)
}

// params lists every trainable tensor under the naming convention used by
// exported encoder-decoder checkpoints. The positional table is a buffer and
// is not included.
func (m *TranslationModel) params() []param {
	var ps []param
	if t, ok := m.Transformer.(*transformer.Transformer); ok {
		ps = transformerParams("my_transformer", t)
	}
	ps = append(ps,
		param{"src_token_embedding.embedding.weight", []int{m.SrcEmbedding.Vocab, m.SrcEmbedding.Dim}, m.SrcEmbedding.Table.Data},
		param{"tgt_token_embedding.embedding.weight", []int{m.TgtEmbedding.Vocab, m.TgtEmbedding.Dim}, m.TgtEmbedding.Table.Data},
	)
	return append(ps, linearParams("classification", m.Classification)...)
}

// StateDict returns the model parameters as named tensors. The returned data
// slices alias the live parameters.
func (m *TranslationModel) StateDict() []safetensors.Tensor {
	ps := m.params()
	out := make([]safetensors.Tensor, len(ps))
	for i, p := range ps {
		out[i] = safetensors.Tensor{Name: p.name, Shape: p.shape, Data: p.data}
	}
	return out
}

// SaveSafetensors writes the state dict and the model config as metadata.
func (m *TranslationModel) SaveSafetensors(path string) error {
	meta := map[string]string{
		"format":         "transl8",
		"src_vocab_size": fmt.Sprint(m.cfg.SrcVocabSize),
		"tgt_vocab_size": fmt.Sprint(m.cfg.TgtVocabSize),
		"d_model":        fmt.Sprint(m.cfg.DModel),
	}
	if err := safetensors.WriteFile(path, m.StateDict(), meta); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	m.log.Info("weights saved", "path", path, "tensors", len(m.params()))
	return nil
}

// LoadSafetensors copies matching tensors from path into the model. Every
// parameter must be present with the expected shape; tensors the model does
// not know about are ignored.
func (m *TranslationModel) LoadSafetensors(path string) error {
	f, err := safetensors.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	ps := m.params()
	known := make(map[string]struct{}, len(ps))
	for _, p := range ps {
		known[p.name] = struct{}{}
		info, ok := f.Tensor(p.name)
		if !ok {
			return fmt.Errorf("%s: %w", p.name, ErrMissingWeight)
		}
		if !slices.Equal(info.Shape, p.shape) {
			return fmt.Errorf("%s: shape %v, want %v: %w", p.name, info.Shape, p.shape, nn.ErrInvalidConfig)
		}
	}
	// Decode everything before touching the model so a bad tensor leaves it
	// unchanged.
	decoded := make([][]float32, len(ps))
	for i, p := range ps {
		data, _, err := f.ReadTensorF32(p.name)
		if err != nil {
			return err
		}
		decoded[i] = data
	}
	for i, p := range ps {
		copy(p.data, decoded[i])
	}
	ignored := 0
	for _, name := range f.Names() {
		if _, ok := known[name]; !ok {
			ignored++
			m.log.Debug("ignoring unknown tensor", "name", name)
		}
	}
	m.log.Info("weights loaded", "path", path, "tensors", len(ps), "ignored", ignored)
	return nil
}
