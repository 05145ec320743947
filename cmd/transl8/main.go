package main

import (
	"context"
	"fmt"
	"os"

	"github.com/samcharles93/transl8/internal/logger"
	"github.com/urfave/cli/v3"
)

func main() {
	app := &cli.Command{
		Name:  "transl8",
		Usage: "Encoder-decoder translation model CLI",
		Flags: append(loggingFlags(), &cli.StringFlag{
			Name:        "config",
			Usage:       "path to config.yaml (default: user config dir)",
			Destination: &configFile,
		}),
		Before: setup,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return cli.ShowAppHelp(cmd)
		},
		Commands: []*cli.Command{
			demoCmd(),
			translateCmd(),
			serveCmd(),
			exportCmd(),
			inspectCmd(),
			versionCmd(),
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// setup loads the config file and installs the logger on the context.
func setup(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	cfg, err := LoadConfig(configFile)
	if err != nil {
		return ctx, err
	}
	fileConfig = cfg
	applyLoggingConfig(cmd, cfg)

	if debug {
		logLevel = "debug"
	}
	level, err := logger.ParseLevel(logLevel)
	if err != nil {
		return ctx, err
	}
	log, err := logger.NewForFormat(logFormat, os.Stderr, level)
	if err != nil {
		return ctx, err
	}
	return logger.WithContext(ctx, log), nil
}
