package model

import (
	"fmt"

	"github.com/samcharles93/transl8/internal/nn"
	"github.com/samcharles93/transl8/internal/transformer"
)

// Config holds the hyperparameters of a TranslationModel. Field names follow
// the usual encoder-decoder vocabulary so configs can be shared with exported
// checkpoints.
type Config struct {
	SrcVocabSize     int     `yaml:"src_vocab_size" json:"src_vocab_size"`
	TgtVocabSize     int     `yaml:"tgt_vocab_size" json:"tgt_vocab_size"`
	DModel           int     `yaml:"d_model" json:"d_model"`
	NHead            int     `yaml:"nhead" json:"nhead"`
	NumEncoderLayers int     `yaml:"num_encoder_layers" json:"num_encoder_layers"`
	NumDecoderLayers int     `yaml:"num_decoder_layers" json:"num_decoder_layers"`
	DimFeedforward   int     `yaml:"dim_feedforward" json:"dim_feedforward"`
	Dropout          float64 `yaml:"dropout" json:"dropout"`
	MaxLen           int     `yaml:"max_len" json:"max_len"`
	Seed             int64   `yaml:"seed" json:"seed"`
}

// DefaultConfig returns the base-size hyperparameters for the given vocabularies.
func DefaultConfig(srcVocab, tgtVocab int) Config {
	return Config{
		SrcVocabSize:     srcVocab,
		TgtVocabSize:     tgtVocab,
		DModel:           512,
		NHead:            8,
		NumEncoderLayers: 6,
		NumDecoderLayers: 6,
		DimFeedforward:   2048,
		Dropout:          0.1,
		MaxLen:           nn.DefaultMaxLen,
	}
}

// Validate checks the vocabulary sizes and the transformer hyperparameters.
func (c Config) Validate() error {
	if c.SrcVocabSize <= 0 || c.TgtVocabSize <= 0 {
		return fmt.Errorf("vocab sizes must be positive, got src=%d tgt=%d: %w", c.SrcVocabSize, c.TgtVocabSize, nn.ErrInvalidConfig)
	}
	if c.MaxLen < 0 {
		return fmt.Errorf("max_len must be non-negative, got %d: %w", c.MaxLen, nn.ErrInvalidConfig)
	}
	return c.transformerConfig().Validate()
}

func (c Config) transformerConfig() transformer.Config {
	return transformer.Config{
		Dim:           c.DModel,
		Heads:         c.NHead,
		EncoderLayers: c.NumEncoderLayers,
		DecoderLayers: c.NumDecoderLayers,
		FeedForward:   c.DimFeedforward,
		Dropout:       float32(c.Dropout),
	}
}
