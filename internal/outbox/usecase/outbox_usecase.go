package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/allisson/users/internal/database"
	"github.com/allisson/users/internal/metrics"
	"github.com/allisson/users/internal/outbox/domain"
)

const metricsDomain = "outbox"

// Config controls how often the outbox is polled and how hard each event is retried.
type Config struct {
	Interval   time.Duration
	BatchSize  int
	MaxRetries int
}

// OutboxUseCase drains pending outbox events through an EventProcessor.
type OutboxUseCase struct {
	config    Config
	txManager database.TxManager
	repo      OutboxEventRepository
	processor EventProcessor
	metrics   metrics.BusinessMetrics
	logger    *slog.Logger
	clock     func() time.Time
}

// NewOutboxUseCase wires the poller. Nil metrics or logger are replaced by no-op versions.
func NewOutboxUseCase(
	config Config,
	txManager database.TxManager,
	outboxRepo OutboxEventRepository,
	eventProcessor EventProcessor,
	businessMetrics metrics.BusinessMetrics,
	logger *slog.Logger,
) *OutboxUseCase {
	if businessMetrics == nil {
		businessMetrics = metrics.NewNoOpBusinessMetrics()
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &OutboxUseCase{
		config:    config,
		txManager: txManager,
		repo:      outboxRepo,
		processor: eventProcessor,
		metrics:   businessMetrics,
		logger:    logger.With(slog.String("component", "outbox")),
		clock:     time.Now,
	}
}

// Start polls every Interval until ctx is cancelled and returns ctx.Err().
// A failed batch is logged and retried on the next tick.
func (uc *OutboxUseCase) Start(ctx context.Context) error {
	uc.logger.Info("starting outbox event processor",
		slog.Duration("interval", uc.config.Interval),
		slog.Int("batch_size", uc.config.BatchSize),
		slog.Int("max_retries", uc.config.MaxRetries),
	)

	ticker := time.NewTicker(uc.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			uc.logger.Info("stopping outbox event processor")
			return ctx.Err()
		case <-ticker.C:
			if err := uc.ProcessEvents(ctx); err != nil {
				uc.logger.Error("outbox batch failed", slog.Any("error", err))
			}
		}
	}
}

// ProcessEvents claims up to BatchSize pending events in one transaction and publishes them
// in order. A publish failure only marks its event; a repository failure rolls back the batch.
func (uc *OutboxUseCase) ProcessEvents(ctx context.Context) error {
	return uc.txManager.WithTx(ctx, func(ctx context.Context) error {
		batch, err := uc.repo.GetPendingEvents(ctx, uc.config.BatchSize)
		if err != nil || len(batch) == 0 {
			return err
		}

		uc.logger.Debug("processing outbox batch", slog.Int("count", len(batch)))

		for _, event := range batch {
			uc.publish(ctx, event)
			if err := uc.repo.Update(ctx, event); err != nil {
				return err
			}
		}
		return nil
	})
}

// publish hands one event to the processor and moves it to its next state.
func (uc *OutboxUseCase) publish(ctx context.Context, event *domain.OutboxEvent) {
	started := uc.clock()
	err := uc.processor.Process(ctx, event)
	metrics.ObserveDuration(ctx, uc.metrics, metricsDomain, "event_publish", uc.clock().Sub(started), err)

	if err == nil {
		event.MarkProcessed(uc.clock())
		return
	}

	event.MarkFailed(err, uc.config.MaxRetries)
	uc.logger.Warn("event publish failed",
		slog.String("event_id", event.ID.String()),
		slog.String("event_type", event.EventType),
		slog.Int("retries", event.Retries),
		slog.String("status", string(event.Status)),
		slog.Any("error", err),
	)
}
