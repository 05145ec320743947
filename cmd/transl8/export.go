package main

import (
	"context"

	"github.com/samcharles93/transl8/internal/logger"
	"github.com/urfave/cli/v3"
)

func exportCmd() *cli.Command {
	var out string
	return &cli.Command{
		Name:  "export",
		Usage: "Write the model parameters (freshly initialised or --weights) to a safetensors file",
		Flags: append(modelFlags(),
			&cli.StringFlag{
				Name:        "out",
				Aliases:     []string{"o"},
				Usage:       "output .safetensors path",
				Required:    true,
				Destination: &out,
			},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			applyModelConfig(cmd, fileConfig)
			m, err := buildModel(ctx)
			if err != nil {
				return err
			}
			if err := m.SaveSafetensors(out); err != nil {
				return err
			}
			logger.FromContext(ctx).Info("exported", "path", out, "parameters", m.ParameterCount())
			return nil
		},
	}
}
