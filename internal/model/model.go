// Package model assembles the translation model: source and target token
// embeddings, a shared positional encoding, an encoder-decoder transformer
// and a projection to target-vocabulary logits.
package model

import (
	"fmt"
	"math/rand"

	"github.com/samcharles93/transl8/internal/logger"
	"github.com/samcharles93/transl8/internal/nn"
	"github.com/samcharles93/transl8/internal/tensor"
	"github.com/samcharles93/transl8/internal/transformer"
)

// SequenceTransformer is the encoder-decoder backend consumed by
// TranslationModel. Forward must equal Decode over the result of Encode.
type SequenceTransformer interface {
	Forward(src, tgt tensor.Seq, masks transformer.Masks) (tensor.Seq, error)
	Encode(src tensor.Seq, srcMask *tensor.Mat, srcKeyPadding *tensor.PaddingMask) (tensor.Seq, error)
	Decode(tgt, memory tensor.Seq, tgtMask *tensor.Mat, masks transformer.DecodeMasks) (tensor.Seq, error)
	CausalMask(n int) tensor.Mat
	Dim() int
}

// TranslationModel maps (src, tgt) token matrices to target-vocabulary logits.
// Parameters are created once in New and never modified by inference calls.
type TranslationModel struct {
	cfg  Config
	log  logger.Logger
	mode *nn.Mode

	Transformer    SequenceTransformer
	Positional     *nn.PositionalEncoding
	SrcEmbedding   *nn.TokenEmbedding
	TgtEmbedding   *nn.TokenEmbedding
	Classification *nn.Linear
}

type options struct {
	transformer SequenceTransformer
	mode        *nn.Mode
	log         logger.Logger
}

// Option customises New.
type Option func(*options)

// WithTransformer substitutes the encoder-decoder backend. Its Dim must
// match Config.DModel.
func WithTransformer(t SequenceTransformer) Option {
	return func(o *options) { o.transformer = t }
}

// WithMode shares a training/eval switch with the model. The default is a
// private Mode in eval state.
func WithMode(mode *nn.Mode) Option {
	return func(o *options) { o.mode = mode }
}

func WithLogger(log logger.Logger) Option {
	return func(o *options) { o.log = log }
}

// New allocates every sub-module with consistent dimensions. Parameter
// initialisation is reproducible for a given Config.Seed.
func New(cfg Config, opts ...Option) (*TranslationModel, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.mode == nil {
		o.mode = nn.NewMode()
	}
	if o.log == nil {
		o.log = logger.Default()
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	t := o.transformer
	if t == nil {
		tr, err := transformer.New(cfg.transformerConfig(), o.mode, rng)
		if err != nil {
			return nil, fmt.Errorf("build transformer: %w", err)
		}
		t = tr
	} else if t.Dim() != cfg.DModel {
		return nil, fmt.Errorf("transformer dim %d, config d_model %d: %w", t.Dim(), cfg.DModel, nn.ErrInvalidConfig)
	}

	m := &TranslationModel{
		cfg:            cfg,
		log:            o.log,
		mode:           o.mode,
		Transformer:    t,
		Positional:     nn.NewPositionalEncoding(cfg.DModel, cfg.MaxLen, float32(cfg.Dropout), o.mode, rng),
		SrcEmbedding:   nn.NewTokenEmbedding(cfg.SrcVocabSize, cfg.DModel, rng),
		TgtEmbedding:   nn.NewTokenEmbedding(cfg.TgtVocabSize, cfg.DModel, rng),
		Classification: nn.NewLinear(cfg.DModel, cfg.TgtVocabSize, rng),
	}
	m.log.Debug("translation model constructed",
		"src_vocab", cfg.SrcVocabSize,
		"tgt_vocab", cfg.TgtVocabSize,
		"d_model", cfg.DModel,
		"heads", cfg.NHead,
		"encoder_layers", cfg.NumEncoderLayers,
		"decoder_layers", cfg.NumDecoderLayers,
		"parameters", m.ParameterCount(),
	)
	return m, nil
}

func (m *TranslationModel) Config() Config { return m.cfg }

// Mode returns the training/eval switch shared by the sub-modules.
func (m *TranslationModel) Mode() *nn.Mode { return m.mode }

// Forward returns logits of shape (tgt.Len, batch, TgtVocabSize).
func (m *TranslationModel) Forward(src, tgt tensor.Tokens, masks transformer.Masks) (tensor.Seq, error) {
	if src.Batch != tgt.Batch {
		return tensor.Seq{}, fmt.Errorf("src batch %d != tgt batch %d: %w", src.Batch, tgt.Batch, tensor.ErrShapeMismatch)
	}
	srcEmbed, err := m.embed(m.SrcEmbedding, src)
	if err != nil {
		return tensor.Seq{}, fmt.Errorf("embed src: %w", err)
	}
	tgtEmbed, err := m.embed(m.TgtEmbedding, tgt)
	if err != nil {
		return tensor.Seq{}, fmt.Errorf("embed tgt: %w", err)
	}
	outs, err := m.Transformer.Forward(srcEmbed, tgtEmbed, masks)
	if err != nil {
		return tensor.Seq{}, err
	}
	return m.Project(outs)
}

// Encoder returns the encoder memory for src.
func (m *TranslationModel) Encoder(src tensor.Tokens) (tensor.Seq, error) {
	return m.EncoderMasked(src, nil)
}

// EncoderMasked is Encoder with an optional source padding mask.
func (m *TranslationModel) EncoderMasked(src tensor.Tokens, srcKeyPadding *tensor.PaddingMask) (tensor.Seq, error) {
	srcEmbed, err := m.embed(m.SrcEmbedding, src)
	if err != nil {
		return tensor.Seq{}, fmt.Errorf("embed src: %w", err)
	}
	return m.Transformer.Encode(srcEmbed, nil, srcKeyPadding)
}

// Decoder returns decoder states (not logits) for tgt against a memory
// computed by Encoder. tgtMask should be GenerateSquareSubsequentMask(tgt.Len).
func (m *TranslationModel) Decoder(tgt tensor.Tokens, memory tensor.Seq, tgtMask *tensor.Mat) (tensor.Seq, error) {
	return m.DecoderMasked(tgt, memory, tgtMask, nil)
}

// DecoderMasked is Decoder with an optional memory padding mask, normally the
// source padding mask given to EncoderMasked.
func (m *TranslationModel) DecoderMasked(tgt tensor.Tokens, memory tensor.Seq, tgtMask *tensor.Mat, memoryKeyPadding *tensor.PaddingMask) (tensor.Seq, error) {
	tgtEmbed, err := m.embed(m.TgtEmbedding, tgt)
	if err != nil {
		return tensor.Seq{}, fmt.Errorf("embed tgt: %w", err)
	}
	return m.Transformer.Decode(tgtEmbed, memory, tgtMask, transformer.DecodeMasks{MemoryKeyPadding: memoryKeyPadding})
}

// Project maps decoder states to target-vocabulary logits.
func (m *TranslationModel) Project(states tensor.Seq) (tensor.Seq, error) {
	return m.Classification.ForwardSeq(&states)
}

// GenerateSquareSubsequentMask returns the causal mask for n target positions.
func (m *TranslationModel) GenerateSquareSubsequentMask(n int) tensor.Mat {
	return m.Transformer.CausalMask(n)
}

func (m *TranslationModel) embed(e *nn.TokenEmbedding, tokens tensor.Tokens) (tensor.Seq, error) {
	x, err := e.Forward(tokens)
	if err != nil {
		return tensor.Seq{}, err
	}
	if err := m.Positional.Forward(&x); err != nil {
		return tensor.Seq{}, err
	}
	return x, nil
}

// ParameterCount returns the number of trainable scalars. The positional
// table is a fixed buffer and is not counted.
func (m *TranslationModel) ParameterCount() int {
	n := len(m.SrcEmbedding.Table.Data) + len(m.TgtEmbedding.Table.Data) +
		len(m.Classification.Weight.Data) + len(m.Classification.Bias)
	if c, ok := m.Transformer.(interface{ ParameterCount() int }); ok {
		n += c.ParameterCount()
	}
	return n
}
