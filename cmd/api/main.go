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

	httpadapter "github.com/kirillkom/ai-closet/internal/adapters/http"
	"github.com/kirillkom/ai-closet/internal/bootstrap"
	"github.com/kirillkom/ai-closet/internal/config"
	"github.com/kirillkom/ai-closet/internal/observability/logging"
	"github.com/kirillkom/ai-closet/internal/observability/metrics"
)

func main() {
	if err := config.LoadDotEnv(".env"); err != nil {
		slog.Warn("dotenv_load_failed", "error", err)
	}
	cfg := config.Load()
	slog.SetDefault(logging.NewJSONLogger("api", cfg.AppEnv, cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, bootstrap.RoleAPI)
	if err != nil {
		slog.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	httpMetrics := metrics.NewHTTPServerMetrics("api")

	workersDone := make(chan struct{})
	if cfg.QueueDriver == "local" {
		httpMetrics.Include(app.WorkerMetrics.Registry())
		go func() {
			defer close(workersDone)
			if err := app.Queue.SubscribeItemCreated(ctx, app.ProcessItem); err != nil {
				slog.Error("local_workers_failed", "error", err)
			}
		}()
	} else {
		close(workersDone)
	}

	router := httpadapter.NewRouter(httpadapter.Services{
		Ingest:   app.IngestUC,
		Clothing: app.ClothingUC,
		Outfits:  app.OutfitUC,
		Images:   app.ImagesUC,
		Health:   app.ClothingRepo,
	}, cfg, app.UploadsDir, httpMetrics).Handler()

	server := &http.Server{
		Addr:              ":" + cfg.APIPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		slog.Info("api_listening",
			"port", cfg.APIPort,
			"env", cfg.AppEnv,
			"store", cfg.StoreDriver,
			"storage", cfg.StorageDriver,
			"queue", cfg.QueueDriver,
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("api_server_failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("api_shutdown_failed", "error", err)
	}

	// In-process workers stop with ctx; let running items finish.
	select {
	case <-workersDone:
	case <-shutdownCtx.Done():
		slog.Warn("local_workers_shutdown_timeout")
	}
}
