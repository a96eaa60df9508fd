// Package app assembles the users service from its configuration. Every component is built
// on first use and shared afterwards, so the server, the worker and the CLI only pay for
// what they touch.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"sync"

	"github.com/allisson/users/internal/config"
	"github.com/allisson/users/internal/database"
	"github.com/allisson/users/internal/http"
	"github.com/allisson/users/internal/metrics"
	"github.com/allisson/users/internal/outbox/publisher"
	outboxRepository "github.com/allisson/users/internal/outbox/repository"
	outboxUsecase "github.com/allisson/users/internal/outbox/usecase"
	userHTTP "github.com/allisson/users/internal/user/http"
	userRepository "github.com/allisson/users/internal/user/repository"
	userUsecase "github.com/allisson/users/internal/user/usecase"
)

// lazy builds a value once. Later calls get the same value, or the same error.
type lazy[T any] struct {
	once sync.Once
	val  T
	err  error
}

func (l *lazy[T]) get(build func() (T, error)) (T, error) {
	l.once.Do(func() { l.val, l.err = build() })
	return l.val, l.err
}

// closer releases one resource during Shutdown.
type closer struct {
	name  string
	close func(ctx context.Context) error
}

// Container builds and owns the application components.
type Container struct {
	config *config.Config

	// ctx bounds background goroutines (rate limiter cleanup, DB ping) and is
	// cancelled by Shutdown.
	ctx    context.Context
	cancel context.CancelFunc

	logger          lazy[*slog.Logger]
	db              lazy[*sql.DB]
	metricsProvider lazy[*metrics.Provider]
	businessMetrics lazy[metrics.BusinessMetrics]
	txManager       lazy[database.TxManager]
	userRepo        lazy[userUsecase.UserRepository]
	outboxRepo      lazy[outboxUsecase.OutboxEventRepository]
	userUseCase     lazy[userUsecase.UseCase]
	eventProcessor  lazy[outboxUsecase.EventProcessor]
	outboxUseCase   lazy[outboxUsecase.UseCase]
	userHandler     lazy[*userHTTP.UserHandler]
	httpServer      lazy[*http.Server]
	metricsServer   lazy[*http.MetricsServer]

	mu      sync.Mutex
	closers []closer
}

// NewContainer creates an empty container for cfg. Nothing is connected until asked for.
func NewContainer(cfg *config.Config) *Container {
	ctx, cancel := context.WithCancel(context.Background())
	return &Container{config: cfg, ctx: ctx, cancel: cancel}
}

// Config returns the application configuration.
func (c *Container) Config() *config.Config {
	return c.config
}

// onShutdown registers a resource to release. Shutdown runs them newest first, so servers
// stop before the pools they depend on close.
func (c *Container) onShutdown(name string, fn func(ctx context.Context) error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closers = append(c.closers, closer{name: name, close: fn})
}

// Shutdown cancels background work and releases every resource built so far.
func (c *Container) Shutdown(ctx context.Context) error {
	c.cancel()

	c.mu.Lock()
	closers := slices.Clone(c.closers)
	c.closers = nil
	c.mu.Unlock()

	var errs []error
	for _, cl := range slices.Backward(closers) {
		if err := cl.close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", cl.name, err))
		}
	}
	return errors.Join(errs...)
}

// Logger returns the JSON logger writing to stdout at the configured level.
func (c *Container) Logger() *slog.Logger {
	logger, _ := c.logger.get(func() (*slog.Logger, error) {
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: c.config.SlogLevel(),
		})), nil
	})
	return logger
}

// DB returns the connection pool, connecting and pinging on first use.
func (c *Container) DB() (*sql.DB, error) {
	return c.db.get(func() (*sql.DB, error) {
		db, err := database.Connect(c.ctx, database.Config{
			Driver:             c.config.DBDriver,
			ConnectionString:   c.config.DBConnectionString,
			MaxOpenConnections: c.config.DBMaxOpenConnections,
			MaxIdleConnections: c.config.DBMaxIdleConnections,
			ConnMaxLifetime:    c.config.DBConnMaxLifetime,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		c.onShutdown("database close", func(context.Context) error { return db.Close() })
		return db, nil
	})
}

// MetricsProvider returns the Prometheus-backed meter provider, or nil when metrics are disabled.
func (c *Container) MetricsProvider() (*metrics.Provider, error) {
	return c.metricsProvider.get(func() (*metrics.Provider, error) {
		if !c.config.MetricsEnabled {
			return nil, nil
		}

		provider, err := metrics.NewProvider(c.config.MetricsNamespace)
		if err != nil {
			return nil, fmt.Errorf("failed to create metrics provider: %w", err)
		}
		c.onShutdown("metrics provider shutdown", provider.Shutdown)
		return provider, nil
	})
}

// BusinessMetrics returns the use case metrics recorder. It is a no-op when metrics are disabled.
func (c *Container) BusinessMetrics() (metrics.BusinessMetrics, error) {
	return c.businessMetrics.get(func() (metrics.BusinessMetrics, error) {
		provider, err := c.MetricsProvider()
		if err != nil {
			return nil, fmt.Errorf("failed to get metrics provider for business metrics: %w", err)
		}
		if provider == nil {
			return metrics.NewNoOpBusinessMetrics(), nil
		}
		return metrics.NewBusinessMetrics(provider.MeterProvider(), c.config.MetricsNamespace)
	})
}

// TxManager returns the transaction manager over DB.
func (c *Container) TxManager() (database.TxManager, error) {
	return c.txManager.get(func() (database.TxManager, error) {
		db, err := c.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get database for tx manager: %w", err)
		}
		return database.NewTxManager(db), nil
	})
}

// UserRepository returns the user store for DB_DRIVER.
func (c *Container) UserRepository() (userUsecase.UserRepository, error) {
	return c.userRepo.get(func() (userUsecase.UserRepository, error) {
		db, err := c.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get database for user repository: %w", err)
		}
		if c.config.DBDriver == database.DriverMySQL {
			return userRepository.NewMySQLUserRepository(db), nil
		}
		return userRepository.NewPostgreSQLUserRepository(db), nil
	})
}

// OutboxRepository returns the outbox store for DB_DRIVER.
func (c *Container) OutboxRepository() (outboxUsecase.OutboxEventRepository, error) {
	return c.outboxRepo.get(func() (outboxUsecase.OutboxEventRepository, error) {
		db, err := c.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get database for outbox repository: %w", err)
		}
		if c.config.DBDriver == database.DriverMySQL {
			return outboxRepository.NewMySQLOutboxEventRepository(db), nil
		}
		return outboxRepository.NewPostgreSQLOutboxEventRepository(db), nil
	})
}

// UserUseCase returns the registration use case, instrumented when metrics are enabled.
func (c *Container) UserUseCase() (userUsecase.UseCase, error) {
	return c.userUseCase.get(func() (userUsecase.UseCase, error) {
		txManager, err := c.TxManager()
		if err != nil {
			return nil, fmt.Errorf("failed to get tx manager for user use case: %w", err)
		}
		users, err := c.UserRepository()
		if err != nil {
			return nil, fmt.Errorf("failed to get user repository for user use case: %w", err)
		}
		outbox, err := c.OutboxRepository()
		if err != nil {
			return nil, fmt.Errorf("failed to get outbox repository for user use case: %w", err)
		}

		useCase := userUsecase.NewUserUseCase(txManager, users, outbox, nil)
		if !c.config.MetricsEnabled {
			return useCase, nil
		}

		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			return nil, fmt.Errorf("failed to get business metrics for user use case: %w", err)
		}
		return userUsecase.NewUserUseCaseWithMetrics(useCase, businessMetrics), nil
	})
}

// EventProcessor returns the sink selected by OUTBOX_PUBLISHER.
func (c *Container) EventProcessor() (outboxUsecase.EventProcessor, error) {
	return c.eventProcessor.get(func() (outboxUsecase.EventProcessor, error) {
		switch c.config.OutboxPublisher {
		case config.OutboxPublisherLog, "":
			return outboxUsecase.NewLogEventProcessor(c.Logger()), nil
		case config.OutboxPublisherAMQP:
			amqp, err := publisher.NewAMQPPublisher(c.config.AMQPURL, c.config.AMQPExchange, c.Logger())
			if err != nil {
				return nil, fmt.Errorf("failed to create amqp publisher: %w", err)
			}
			c.onShutdown("amqp publisher close", func(context.Context) error { return amqp.Close() })
			return amqp, nil
		default:
			return nil, fmt.Errorf("unsupported outbox publisher: %s", c.config.OutboxPublisher)
		}
	})
}

// OutboxUseCase returns the outbox poller.
func (c *Container) OutboxUseCase() (outboxUsecase.UseCase, error) {
	return c.outboxUseCase.get(func() (outboxUsecase.UseCase, error) {
		txManager, err := c.TxManager()
		if err != nil {
			return nil, fmt.Errorf("failed to get tx manager for outbox use case: %w", err)
		}
		outbox, err := c.OutboxRepository()
		if err != nil {
			return nil, fmt.Errorf("failed to get outbox repository for outbox use case: %w", err)
		}
		processor, err := c.EventProcessor()
		if err != nil {
			return nil, fmt.Errorf("failed to get event processor for outbox use case: %w", err)
		}
		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			return nil, fmt.Errorf("failed to get business metrics for outbox use case: %w", err)
		}

		return outboxUsecase.NewOutboxUseCase(
			outboxUsecase.Config{
				Interval:   c.config.OutboxInterval,
				BatchSize:  c.config.OutboxBatchSize,
				MaxRetries: c.config.OutboxMaxRetries,
			},
			txManager,
			outbox,
			processor,
			businessMetrics,
			c.Logger(),
		), nil
	})
}

// UserHandler returns the HTTP handler for /v1/users.
func (c *Container) UserHandler() (*userHTTP.UserHandler, error) {
	return c.userHandler.get(func() (*userHTTP.UserHandler, error) {
		useCase, err := c.UserUseCase()
		if err != nil {
			return nil, fmt.Errorf("failed to get user use case for user handler: %w", err)
		}
		return userHTTP.NewUserHandler(useCase, c.Logger()), nil
	})
}

// HTTPServer returns the API server with its routes installed.
func (c *Container) HTTPServer() (*http.Server, error) {
	return c.httpServer.get(func() (*http.Server, error) {
		db, err := c.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get database for http server: %w", err)
		}
		handler, err := c.UserHandler()
		if err != nil {
			return nil, fmt.Errorf("failed to get user handler for http server: %w", err)
		}
		provider, err := c.MetricsProvider()
		if err != nil {
			return nil, fmt.Errorf("failed to get metrics provider for http server: %w", err)
		}

		server := http.NewServer(db, c.config.ServerHost, c.config.ServerPort, c.Logger())
		server.SetupRouter(c.ctx, http.RouterConfig{
			RateLimitEnabled:        c.config.RateLimitEnabled,
			RateLimitRequestsPerSec: c.config.RateLimitRequestsPerSec,
			RateLimitBurst:          c.config.RateLimitBurst,
			CORSEnabled:             c.config.CORSEnabled,
			CORSAllowOrigins:        c.config.CORSAllowOrigins,
			MetricsNamespace:        c.config.MetricsNamespace,
		}, handler, provider)

		c.onShutdown("http server shutdown", server.Shutdown)
		return server, nil
	})
}

// MetricsServer returns the /metrics server, or nil when metrics are disabled.
func (c *Container) MetricsServer() (*http.MetricsServer, error) {
	return c.metricsServer.get(func() (*http.MetricsServer, error) {
		provider, err := c.MetricsProvider()
		if err != nil {
			return nil, fmt.Errorf("failed to get metrics provider for metrics server: %w", err)
		}
		if provider == nil {
			return nil, nil
		}

		server := http.NewMetricsServer(c.config.ServerHost, c.config.MetricsPort, c.Logger(), provider)
		c.onShutdown("metrics server shutdown", server.Shutdown)
		return server, nil
	})
}
