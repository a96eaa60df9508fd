package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/allisson/users/internal/app"
)

// RunWorker starts the outbox relay and, when enabled, the metrics server.
// Blocks until SIGINT/SIGTERM or until one of them fails.
func RunWorker(ctx context.Context, version string) error {
	cfg, err := LoadConfig()
	if err != nil {
		return err
	}

	container := app.NewContainer(cfg)

	logger := container.Logger()
	logger.Info("starting outbox worker",
		slog.String("version", version),
		slog.String("publisher", cfg.OutboxPublisher),
	)

	defer closeContainer(container, logger)

	outboxUseCase, err := container.OutboxUseCase()
	if err != nil {
		return fmt.Errorf("failed to initialize outbox use case: %w", err)
	}

	metricsServer, err := container.MetricsServer()
	if err != nil {
		return fmt.Errorf("failed to initialize metrics server: %w", err)
	}

	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := outboxUseCase.Start(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("outbox relay error: %w", err)
		}
		return nil
	})

	if metricsServer != nil {
		g.Go(func() error {
			if err := metricsServer.Start(gctx); err != nil {
				return fmt.Errorf("metrics server error: %w", err)
			}
			return nil
		})

		g.Go(func() error {
			<-gctx.Done()
			return shutdownAll(cfg.DBConnMaxLifetime, namedServer{name: "metrics server", server: metricsServer})
		})
	}

	err = g.Wait()
	logger.Info("outbox worker stopped")
	return err
}
