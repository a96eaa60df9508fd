package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/allisson/users/internal/app"
)

// stoppable is a server that can be stopped gracefully.
type stoppable interface {
	Shutdown(ctx context.Context) error
}

// namedServer pairs a server with the label used in errors.
type namedServer struct {
	name   string
	server stoppable
}

// shutdownAll stops every server within timeout and joins their errors.
func shutdownAll(timeout time.Duration, servers ...namedServer) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	var errs []error
	for _, s := range servers {
		if err := s.server.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("%s shutdown: %w", s.name, err))
		}
	}
	return errors.Join(errs...)
}

// RunServer serves the users API, plus the metrics server when enabled, until SIGINT/SIGTERM.
// When either server fails the other is stopped too. Shutdown is bounded by DB_CONN_MAX_LIFETIME.
func RunServer(ctx context.Context, version string) error {
	cfg, err := LoadConfig()
	if err != nil {
		return err
	}
	gin.SetMode(cfg.GetGinMode())

	container := app.NewContainer(cfg)
	logger := container.Logger()
	logger.Info("starting server", slog.String("version", version))
	defer closeContainer(container, logger)

	server, err := container.HTTPServer()
	if err != nil {
		return fmt.Errorf("failed to initialize HTTP server: %w", err)
	}

	metricsServer, err := container.MetricsServer()
	if err != nil {
		return fmt.Errorf("failed to initialize metrics server: %w", err)
	}

	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	servers := []namedServer{{name: "api server", server: server}}
	serverErr := make(chan error, 2)
	go func() {
		if err := server.Start(ctx); err != nil {
			serverErr <- fmt.Errorf("api server error: %w", err)
		}
	}()

	if metricsServer != nil {
		servers = append(servers, namedServer{name: "metrics server", server: metricsServer})
		go func() {
			if err := metricsServer.Start(ctx); err != nil {
				serverErr <- fmt.Errorf("metrics server error: %w", err)
			}
		}()
	}

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
		return shutdownAll(cfg.DBConnMaxLifetime, servers...)
	case err := <-serverErr:
		logger.Error("server error, initiating shutdown", slog.Any("error", err))
		return errors.Join(err, shutdownAll(cfg.DBConnMaxLifetime, servers...))
	}
}
