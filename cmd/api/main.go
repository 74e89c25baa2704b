package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpadapter "github.com/kirillkom/haiku-studio/internal/adapters/http"
	"github.com/kirillkom/haiku-studio/internal/bootstrap"
	"github.com/kirillkom/haiku-studio/internal/config"
	"github.com/kirillkom/haiku-studio/internal/observability/logging"
	"github.com/kirillkom/haiku-studio/internal/observability/metrics"
)

const sessionSweepInterval = time.Minute

func main() {
	cfg := config.Load()
	slog.SetDefault(logging.NewJSONLogger("api", cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	httpMetrics := metrics.NewHTTPServerMetrics("api")
	app, err := bootstrap.New(ctx, cfg, bootstrap.Options{
		Database: true,
		Queue:    true,
		Observer: httpMetrics,
	})
	if err != nil {
		slog.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	go app.Sessions.Run(ctx, sessionSweepInterval)

	router := httpadapter.NewRouter(cfg, httpadapter.Dependencies{
		Sessions: app.Sessions,
		Store:    app.Store,
		Batch:    app.Batch,
		Blobs:    app.Blobs,
		Metrics:  httpMetrics,
	}).Handler()
	server := &http.Server{
		Addr:    ":" + cfg.APIPort,
		Handler: router,
		// Submit runs three stages back to back.
		ReadTimeout:  30 * time.Second,
		WriteTimeout: cfg.WriteTimeout(),
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("api_listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("api_server_error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("api_shutdown_error", "error", err)
	}
}
