package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/allisson/users/internal/outbox/domain"
)

// ErrInvalidPayload is returned when an event payload is not valid JSON.
var ErrInvalidPayload = errors.New("invalid event payload")

// LogEventProcessor writes events to the structured log. It is used when no broker is configured.
type LogEventProcessor struct {
	logger *slog.Logger
}

// NewLogEventProcessor creates a new LogEventProcessor
func NewLogEventProcessor(logger *slog.Logger) *LogEventProcessor {
	return &LogEventProcessor{
		logger: logger,
	}
}

// Process logs the event payload.
func (p *LogEventProcessor) Process(ctx context.Context, event *domain.OutboxEvent) error {
	if !json.Valid([]byte(event.Payload)) {
		return ErrInvalidPayload
	}

	if p.logger != nil {
		p.logger.InfoContext(ctx, "event published",
			slog.String("event_id", event.ID.String()),
			slog.String("event_type", event.EventType),
			slog.Any("payload", json.RawMessage(event.Payload)),
		)
	}
	return nil
}
