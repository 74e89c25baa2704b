package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kirillkom/haiku-studio/internal/bootstrap"
	"github.com/kirillkom/haiku-studio/internal/config"
	"github.com/kirillkom/haiku-studio/internal/observability/logging"
	"github.com/kirillkom/haiku-studio/internal/observability/metrics"
)

func main() {
	cfg := config.Load()
	slog.SetDefault(logging.NewJSONLogger("worker", cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	workerMetrics := metrics.NewWorkerMetrics("worker")
	app, err := bootstrap.New(ctx, cfg, bootstrap.Options{Queue: true, Observer: workerMetrics})
	if err != nil {
		slog.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	metricsServer := &http.Server{Addr: ":" + cfg.WorkerMetricsPort, Handler: workerMetrics.Handler()}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("worker_metrics_server_error", "error", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	runTimeout := cfg.RunTimeout()
	slog.Info("worker_subscribed", "subject", cfg.NATSSubject, "run_timeout", runTimeout)
	err = app.Queue.SubscribeGenerationRequests(ctx, func(handlerCtx context.Context, word string) error {
		runCtx, cancel := handlerCtx, context.CancelFunc(func() {})
		if runTimeout > 0 {
			runCtx, cancel = context.WithTimeout(handlerCtx, runTimeout)
		}
		defer cancel()

		workerMetrics.StartRun()
		started := time.Now()
		err := app.Batch.Process(runCtx, word)
		workerMetrics.FinishRun(time.Since(started), err)
		if err != nil {
			slog.Warn("worker_run_failed", "word", word, "error", err)
			return err
		}
		slog.Info("worker_run_saved", "word", word, "duration_ms", time.Since(started).Milliseconds())
		return nil
	})
	if err != nil {
		slog.Error("worker_subscribe_error", "error", err)
	}
}
