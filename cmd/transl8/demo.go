package main

import (
	"context"
	"fmt"

	"github.com/samcharles93/transl8/internal/logger"
	"github.com/samcharles93/transl8/internal/model"
	"github.com/samcharles93/transl8/internal/tensor"
	"github.com/samcharles93/transl8/internal/transformer"
	"github.com/urfave/cli/v3"
)

// demoConfig is the toy setup: vocabularies of 10 and 15, width 32, 4 heads,
// 6+6 layers and a 30-wide feed-forward block.
func demoConfig(seed int64) model.Config {
	return model.Config{
		SrcVocabSize:     10,
		TgtVocabSize:     15,
		DModel:           32,
		NHead:            4,
		NumEncoderLayers: 6,
		NumDecoderLayers: 6,
		DimFeedforward:   30,
		Dropout:          0.1,
		Seed:             seed,
	}
}

// runDemo pushes a padded batch of two sentences through the model and
// returns the logits shape.
func runDemo(ctx context.Context, seed int64) ([]int, error) {
	m, err := model.New(demoConfig(seed), model.WithLogger(logger.FromContext(ctx)))
	if err != nil {
		return nil, err
	}
	src, err := tensor.TokensFromRows([][]int{
		{4, 3, 2, 6, 0, 0, 0},
		{5, 7, 8, 2, 4, 0, 0},
	})
	if err != nil {
		return nil, err
	}
	tgt, err := tensor.TokensFromRows([][]int{
		{1, 3, 3, 5, 4, 3, 0, 0},
		{1, 6, 8, 2, 9, 1, 0, 0},
	})
	if err != nil {
		return nil, err
	}
	srcPad := tensor.PaddingFromTokens(src, 0)
	tgtPad := tensor.PaddingFromTokens(tgt, 0)
	tgtMask := m.GenerateSquareSubsequentMask(tgt.Len)

	logits, err := m.Forward(src, tgt, transformer.Masks{
		Tgt:              &tgtMask,
		SrcKeyPadding:    &srcPad,
		TgtKeyPadding:    &tgtPad,
		MemoryKeyPadding: &srcPad,
	})
	if err != nil {
		return nil, err
	}
	return logits.Shape(), nil
}

func demoCmd() *cli.Command {
	var demoSeed int64
	return &cli.Command{
		Name:  "demo",
		Usage: "Run the toy forward pass and print the logits shape",
		Flags: []cli.Flag{
			&cli.Int64Flag{
				Name:        "seed",
				Value:       1,
				Destination: &demoSeed,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			shape, err := runDemo(ctx, demoSeed)
			if err != nil {
				return err
			}
			fmt.Println(shape)
			return nil
		},
	}
}
