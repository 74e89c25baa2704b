package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	mcpadapter "github.com/kirillkom/haiku-studio/internal/adapters/mcp"
	"github.com/kirillkom/haiku-studio/internal/bootstrap"
	"github.com/kirillkom/haiku-studio/internal/config"
	"github.com/kirillkom/haiku-studio/internal/core/ports"
	"github.com/kirillkom/haiku-studio/internal/observability/logging"
)

func main() {
	cfg := config.Load()
	// stdout carries the MCP protocol.
	slog.SetDefault(logging.NewJSONLoggerTo(os.Stderr, "mcp", cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, bootstrap.Options{})
	if err != nil {
		slog.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	srv := mcpadapter.New(func() ports.Pipeline { return app.NewPipeline() }, app.Gateway, app.Blobs)
	if err := srv.Serve(); err != nil {
		slog.Error("mcp_server_error", "error", err)
	}
}
