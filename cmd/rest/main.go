package main

import (
	"context"
	"errors"
	"log"
	"os/signal"
	"syscall"
	"time"

	"lucide-core/internal/bootstrap"
	"lucide-core/internal/config"
	"lucide-core/internal/server"
	"lucide-core/internal/tracer"
	"lucide-core/pkg/database"

	"golang.org/x/sync/errgroup"
)

func main() {
	cfg := config.Load()

	gormDB, err := database.NewGormDBFromDSN(cfg.Database.Connection)
	if err != nil {
		log.Panicf("Unable to connect to GORM DB: %v", err)
	}

	container, err := bootstrap.NewContainer(gormDB, cfg)
	if err != nil {
		log.Fatalf("Unable to bootstrap: %v", err)
	}
	defer container.Close()
	sysLogger := container.Logger

	shutdownTracer := tracer.InitTracer(sysLogger)
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracer(ctx)
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := server.New(cfg, container)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		container.WebSocketHub.Run(gctx)
		return nil
	})

	g.Go(func() error {
		sysLogger.Info("MAIN", "Starting document index consumer", nil)
		return container.ConsumerService.Consume(gctx)
	})

	if container.SyncService != nil {
		if err := container.SyncService.Start(); err != nil {
			// Other windows just miss live refreshes.
			sysLogger.Warn("MAIN", "Sync events disabled", map[string]interface{}{"error": err.Error()})
		}
	}

	g.Go(srv.Run)

	g.Go(func() error {
		<-gctx.Done()
		sysLogger.Info("MAIN", "Shutting down", nil)
		return srv.Shutdown()
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		sysLogger.Error("MAIN", "Server stopped with error", map[string]interface{}{"error": err.Error()})
	}
}
