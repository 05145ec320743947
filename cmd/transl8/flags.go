package main

import (
	"github.com/samcharles93/transl8/internal/nn"
	"github.com/urfave/cli/v3"
)

var (
	configFile string
	fileConfig Config

	srcVocab      int64
	tgtVocab      int64
	dModel        int64
	nHead         int64
	encoderLayers int64
	decoderLayers int64
	dimFF         int64
	dropout       float64
	maxLen        int64
	seed          int64
	weightsPath   string

	logLevel  string
	logFormat string
	debug     bool
)

func modelFlags() []cli.Flag {
	return []cli.Flag{
		&cli.Int64Flag{
			Name:        "src-vocab",
			Usage:       "source vocabulary size",
			Value:       10,
			Destination: &srcVocab,
		},
		&cli.Int64Flag{
			Name:        "tgt-vocab",
			Usage:       "target vocabulary size",
			Value:       15,
			Destination: &tgtVocab,
		},
		&cli.Int64Flag{
			Name:        "d-model",
			Usage:       "model width",
			Value:       32,
			Destination: &dModel,
		},
		&cli.Int64Flag{
			Name:        "nhead",
			Aliases:     []string{"heads"},
			Usage:       "attention heads (must divide d-model)",
			Value:       4,
			Destination: &nHead,
		},
		&cli.Int64Flag{
			Name:        "encoder-layers",
			Value:       6,
			Destination: &encoderLayers,
		},
		&cli.Int64Flag{
			Name:        "decoder-layers",
			Value:       6,
			Destination: &decoderLayers,
		},
		&cli.Int64Flag{
			Name:        "dim-feedforward",
			Aliases:     []string{"ff"},
			Usage:       "hidden width of the feed-forward blocks",
			Value:       30,
			Destination: &dimFF,
		},
		&cli.Float64Flag{
			Name:        "dropout",
			Value:       0.1,
			Destination: &dropout,
		},
		&cli.Int64Flag{
			Name:        "max-len",
			Usage:       "positions in the positional encoding table",
			Value:       nn.DefaultMaxLen,
			Destination: &maxLen,
		},
		&cli.Int64Flag{
			Name:        "seed",
			Usage:       "parameter initialisation seed",
			Value:       1,
			Destination: &seed,
		},
		&cli.StringFlag{
			Name:        "weights",
			Aliases:     []string{"w"},
			Usage:       "safetensors checkpoint to load",
			Destination: &weightsPath,
		},
	}
}

func loggingFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "log level (debug, info, warn, error)",
			Value:       "info",
			Destination: &logLevel,
		},
		&cli.StringFlag{
			Name:        "log-format",
			Usage:       "log format (pretty, json, text)",
			Value:       "pretty",
			Destination: &logFormat,
		},
		&cli.BoolFlag{
			Name:        "debug",
			Usage:       "enable debug logging (shorthand for --log-level=debug)",
			Destination: &debug,
		},
	}
}
