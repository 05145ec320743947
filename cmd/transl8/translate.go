package main

import (
	"context"
	"fmt"

	"github.com/samcharles93/transl8/internal/logger"
	"github.com/samcharles93/transl8/internal/logits"
	"github.com/samcharles93/transl8/internal/model"
	"github.com/samcharles93/transl8/internal/tensor"
	"github.com/urfave/cli/v3"
)

func translateCmd() *cli.Command {
	var (
		srcLines      []string
		bos           int64
		eos           int64
		padID         int64
		genLen        int64
		temp          float64
		topK          int64
		topP          float64
		minP          float64
		repeatPenalty float64
		sampleSeed    int64
	)
	return &cli.Command{
		Name:  "translate",
		Usage: "Decode source token sequences (greedy unless --temperature is set)",
		Flags: append(modelFlags(),
			&cli.StringSliceFlag{
				Name:        "src",
				Aliases:     []string{"s"},
				Usage:       `source ids, e.g. "4 3 2 6" (repeat for a batch)`,
				Required:    true,
				Destination: &srcLines,
			},
			&cli.Int64Flag{
				Name:        "bos",
				Value:       1,
				Destination: &bos,
			},
			&cli.Int64Flag{
				Name:        "eos",
				Value:       2,
				Destination: &eos,
			},
			&cli.Int64Flag{
				Name:        "pad-id",
				Usage:       "id used to right-pad shorter sequences",
				Value:       0,
				Destination: &padID,
			},
			&cli.Int64Flag{
				Name:        "gen-len",
				Usage:       "maximum generated tokens (0: source length + 10)",
				Destination: &genLen,
			},
			&cli.Float64Flag{
				Name:        "temp",
				Aliases:     []string{"temperature", "t"},
				Usage:       "sampling temperature (0: greedy)",
				Destination: &temp,
			},
			&cli.Int64Flag{
				Name:        "top-k",
				Usage:       "sample from the k most likely tokens (0: all)",
				Destination: &topK,
			},
			&cli.Float64Flag{
				Name:        "top-p",
				Usage:       "nucleus sampling threshold",
				Value:       1,
				Destination: &topP,
			},
			&cli.Float64Flag{
				Name:        "min-p",
				Usage:       "drop tokens below this fraction of the top probability",
				Destination: &minP,
			},
			&cli.Float64Flag{
				Name:        "repeat-penalty",
				Usage:       "penalty for tokens already generated (1: off)",
				Value:       1,
				Destination: &repeatPenalty,
			},
			&cli.Int64Flag{
				Name:        "sample-seed",
				Usage:       "sampling seed",
				Destination: &sampleSeed,
			},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log := logger.FromContext(ctx)
			applyModelConfig(cmd, fileConfig)
			applySamplingConfig(cmd, fileConfig, &temp, &topK, &topP, &minP, &repeatPenalty, &sampleSeed)

			rows, pad, err := parseTokenRows(srcLines, int(padID))
			if err != nil {
				return err
			}
			src, err := tensor.TokensFromRows(rows)
			if err != nil {
				return err
			}
			mask, err := tensor.NewPaddingMask(pad)
			if err != nil {
				return err
			}
			m, err := buildModel(ctx)
			if err != nil {
				return err
			}
			if weightsPath == "" {
				log.Warn("no --weights given; translating with randomly initialised parameters")
			}
			sampling := logits.SamplerConfig{
				Seed:          sampleSeed,
				Temperature:   float32(temp),
				TopK:          int(topK),
				TopP:          float32(topP),
				MinP:          float32(minP),
				RepeatPenalty: float32(repeatPenalty),
			}
			out, err := m.Generate(ctx, src, &mask, model.DecodeOptions{
				BOS:      int(bos),
				EOS:      int(eos),
				MaxLen:   int(genLen),
				Sampling: sampling,
			})
			if err != nil {
				return err
			}
			for _, ids := range out {
				fmt.Println(formatIDs(ids))
			}
			return nil
		},
	}
}
