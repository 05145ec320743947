package main

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"
	"github.com/samcharles93/transl8/internal/api"
	"github.com/samcharles93/transl8/internal/logger"
	"github.com/urfave/cli/v3"
)

func serveCmd() *cli.Command {
	var (
		addr        string
		readTimeout time.Duration
		maxBatch    int64
		maxTokens   int64
		storeSize   int64
	)

	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the translation REST API",
		Flags: append(modelFlags(),
			&cli.StringFlag{
				Name:        "addr",
				Usage:       "listen address",
				Value:       "127.0.0.1:8080",
				Destination: &addr,
			},
			&cli.DurationFlag{
				Name:        "read-timeout",
				Usage:       "read header timeout",
				Value:       30 * time.Second,
				Destination: &readTimeout,
			},
			&cli.Int64Flag{
				Name:        "max-batch",
				Usage:       "largest batch accepted per request",
				Value:       64,
				Destination: &maxBatch,
			},
			&cli.Int64Flag{
				Name:        "max-tokens",
				Usage:       "longest sequence accepted or generated per request",
				Value:       512,
				Destination: &maxTokens,
			},
			&cli.Int64Flag{
				Name:        "store-size",
				Usage:       "number of recent translations kept for GET /v1/translations/:id",
				Value:       256,
				Destination: &storeSize,
			},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log := logger.FromContext(ctx)
			applyServeConfig(cmd, fileConfig, &addr)

			m, err := buildModel(ctx)
			if err != nil {
				return err
			}
			service := api.NewTranslationService(m, api.Limits{
				MaxBatch:  int(maxBatch),
				MaxTokens: int(maxTokens),
			})
			server := api.NewServer(service, api.NewTranslationStore(int(storeSize)), log.With("component", "api"))
			e := echo.New()
			e.Use(middleware.RequestLogger())
			e.Use(middleware.Recover())
			server.Register(e)
			log.Info("starting server", "address", addr, "parameters", m.ParameterCount())
			sc := echo.StartConfig{
				Address: addr,
				BeforeServeFunc: func(srv *http.Server) error {
					srv.ReadHeaderTimeout = readTimeout
					return nil
				},
			}
			return sc.Start(ctx, e)
		},
	}
}
