package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"dataset-explorer-be/internal/bootstrap"
	"dataset-explorer-be/internal/config"
	"dataset-explorer-be/internal/server"
	"dataset-explorer-be/internal/tracer"
)

func main() {
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	container := bootstrap.NewContainer(ctx, cfg)
	defer container.Close()
	log := container.Logger

	shutdownTracer := tracer.InitTracer(log)
	defer func() { _ = shutdownTracer(context.Background()) }()

	go container.WebSocketHub.Run(ctx)
	go func() {
		log.Info("Main", "Starting consumer service", nil)
		if err := container.ConsumerService.Consume(ctx); err != nil {
			log.Error("Main", "Consumer service stopped", map[string]interface{}{"error": err.Error()})
		}
	}()

	srv := server.New(cfg, container)
	go func() {
		<-ctx.Done()
		log.Info("Main", "Shutting down", nil)
		_ = srv.Shutdown()
	}()

	if err := srv.Run(); err != nil {
		log.Error("Main", "Server stopped", map[string]interface{}{"error": err.Error()})
	}
}
