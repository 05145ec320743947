package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

// Config represents the transl8 configuration file
// (~/.config/transl8/config.yaml). Pointer fields distinguish "not set" from
// zero values.
type Config struct {
	SrcVocabSize     *int64   `yaml:"src_vocab_size"`
	TgtVocabSize     *int64   `yaml:"tgt_vocab_size"`
	DModel           *int64   `yaml:"d_model"`
	NHead            *int64   `yaml:"nhead"`
	NumEncoderLayers *int64   `yaml:"num_encoder_layers"`
	NumDecoderLayers *int64   `yaml:"num_decoder_layers"`
	DimFeedforward   *int64   `yaml:"dim_feedforward"`
	Dropout          *float64 `yaml:"dropout"`
	MaxLen           *int64   `yaml:"max_len"`
	Seed             *int64   `yaml:"seed"`
	Weights          string   `yaml:"weights"`

	Temperature   *float64 `yaml:"temperature"`
	TopK          *int64   `yaml:"top_k"`
	TopP          *float64 `yaml:"top_p"`
	MinP          *float64 `yaml:"min_p"`
	RepeatPenalty *float64 `yaml:"repeat_penalty"`
	SampleSeed    *int64   `yaml:"sample_seed"`

	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	ServerAddress string `yaml:"server_address"`
}

func configPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "transl8", "config.yaml")
}

// LoadConfig reads path, or the default location when path is empty. A
// missing default file yields a zero Config; a missing explicit file or bad
// YAML is an error.
func LoadConfig(path string) (Config, error) {
	explicit := path != ""
	if !explicit {
		path = configPath()
		if path == "" {
			return Config{}, nil
		}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return Config{}, nil
		}
		return Config{}, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

func applyLoggingConfig(c *cli.Command, cfg Config) {
	if cfg.LogLevel != "" && !c.IsSet("log-level") {
		logLevel = cfg.LogLevel
	}
	if cfg.LogFormat != "" && !c.IsSet("log-format") {
		logFormat = cfg.LogFormat
	}
}

// applyModelConfig applies config file defaults to the model flags that were
// not set on the command line.
func applyModelConfig(c *cli.Command, cfg Config) {
	setInt := func(flag string, dst *int64, v *int64) {
		if v != nil && !c.IsSet(flag) {
			*dst = *v
		}
	}
	setInt("src-vocab", &srcVocab, cfg.SrcVocabSize)
	setInt("tgt-vocab", &tgtVocab, cfg.TgtVocabSize)
	setInt("d-model", &dModel, cfg.DModel)
	setInt("nhead", &nHead, cfg.NHead)
	setInt("encoder-layers", &encoderLayers, cfg.NumEncoderLayers)
	setInt("decoder-layers", &decoderLayers, cfg.NumDecoderLayers)
	setInt("dim-feedforward", &dimFF, cfg.DimFeedforward)
	setInt("max-len", &maxLen, cfg.MaxLen)
	setInt("seed", &seed, cfg.Seed)
	if cfg.Dropout != nil && !c.IsSet("dropout") {
		dropout = *cfg.Dropout
	}
	if cfg.Weights != "" && !c.IsSet("weights") {
		weightsPath = cfg.Weights
	}
}

func applyServeConfig(c *cli.Command, cfg Config, addr *string) {
	applyModelConfig(c, cfg)
	if cfg.ServerAddress != "" && !c.IsSet("addr") {
		*addr = cfg.ServerAddress
	}
}

func applySamplingConfig(c *cli.Command, cfg Config,
	temp *float64, topK *int64, topP, minP, repeatPenalty *float64, sampleSeed *int64,
) {
	if cfg.Temperature != nil && !c.IsSet("temp") && !c.IsSet("temperature") && !c.IsSet("t") {
		*temp = *cfg.Temperature
	}
	if cfg.TopK != nil && !c.IsSet("top-k") {
		*topK = *cfg.TopK
	}
	if cfg.TopP != nil && !c.IsSet("top-p") {
		*topP = *cfg.TopP
	}
	if cfg.MinP != nil && !c.IsSet("min-p") {
		*minP = *cfg.MinP
	}
	if cfg.RepeatPenalty != nil && !c.IsSet("repeat-penalty") {
		*repeatPenalty = *cfg.RepeatPenalty
	}
	if cfg.SampleSeed != nil && !c.IsSet("sample-seed") {
		*sampleSeed = *cfg.SampleSeed
	}
}
