package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/spf13/viper"

	"github.com/kirillkom/haiku-studio/internal/adapters/cli"
	"github.com/kirillkom/haiku-studio/internal/bootstrap"
	"github.com/kirillkom/haiku-studio/internal/config"
	"github.com/kirillkom/haiku-studio/internal/core/ports"
	"github.com/kirillkom/haiku-studio/internal/observability/logging"
)

func main() {
	v := viper.New()
	rootCmd := cli.CreateRootCommand(&cli.Flags{}, v, newDeps)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newDeps(ctx context.Context, v *viper.Viper, needQueue bool) (*cli.Deps, func(), error) {
	cfg := config.Load().Overlay(v)
	slog.SetDefault(logging.NewJSONLoggerTo(os.Stderr, "cli", cfg.LogLevel))

	app, err := bootstrap.New(ctx, cfg, bootstrap.Options{Queue: needQueue})
	if err != nil {
		return nil, nil, err
	}
	return &cli.Deps{
		NewPipeline: func() ports.Pipeline { return app.NewPipeline() },
		Gateway:     app.Gateway,
		Batch:       app.Batch,
		Blobs:       app.Blobs,
	}, app.Close, nil
}
