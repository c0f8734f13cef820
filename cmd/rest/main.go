package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"cv-evaluator-be/internal/bootstrap"
	"cv-evaluator-be/internal/config"
	"cv-evaluator-be/internal/constant"
	"cv-evaluator-be/internal/server"
	"cv-evaluator-be/internal/tracer"
)

func main() {
	// 1. Load Configuration
	cfg := config.Load()

	// 2. Bootstrap Dependencies (Container)
	container, err := bootstrap.NewContainer(cfg, nil)
	if err != nil {
		log.Fatalf("[FATAL] Failed to bootstrap: %v", err)
	}
	defer container.Close()

	// 3. Tracing
	shutdownTracer := tracer.InitTracer(cfg.App.OtelEnabled, constant.ServiceName, constant.ServiceVersion, container.Logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 4. Start Background Services
	if err := container.EventRelayService.Consume(ctx); err != nil {
		container.Logger.Error("MAIN", "Event relay failed to start", map[string]interface{}{
			"error": err.Error(),
		})
	}
	go container.SweeperService.Run(ctx)

	// 5. Initialize Server
	srv := server.New(cfg, container)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Run()
	}()

	select {
	case err := <-errCh:
		if err != nil {
			container.Logger.Error("MAIN", "Server stopped", map[string]interface{}{
				"error": err.Error(),
			})
		}
	case <-ctx.Done():
		container.Logger.Info("MAIN", "Shutting down", nil)
		if err := srv.Shutdown(10 * time.Second); err != nil {
			container.Logger.Error("MAIN", "Graceful shutdown failed", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}

	flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := shutdownTracer(flushCtx); err != nil {
		log.Printf("[WARN] Tracer shutdown: %v", err)
	}
}
