// cmd/api/main.go
package main

import (
	"budget-tracker/internal/config"
	"budget-tracker/internal/logging"
	"budget-tracker/internal/server"
	"budget-tracker/internal/storage"
	"budget-tracker/internal/storage/memory"
	"budget-tracker/internal/storage/postgres"
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"
)

func main() {
	cfg := config.MustLoad()
	log := logging.Setup(cfg.Env)

	if err := run(cfg, log); err != nil {
		log.Error("api stopped with error", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openStorage(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()

	srv := server.New(cfg, store, log)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("🚀 server started", "addr", srv.Addr(), "env", cfg.Env, "storage", cfg.StorageDriver)
		return srv.Start()
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		log.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Info("server stopped")
	return nil
}

func openStorage(ctx context.Context, cfg config.Config, log *slog.Logger) (storage.Storage, func(), error) {
	if cfg.StorageDriver == config.DriverMemory {
		log.Warn("using in-memory storage; data is lost on restart")
		return memory.New(), func() {}, nil
	}

	if cfg.MigrateOnStart {
		if err := postgres.Migrate(ctx, cfg.DBConn, "up"); err != nil {
			return nil, nil, err
		}
		log.Info("migrations applied")
	}

	pool, err := postgres.Connect(ctx, cfg.DBConn, cfg.DBRetries)
	if err != nil {
		return nil, nil, err
	}
	return postgres.NewStorage(pool), pool.Close, nil
}
