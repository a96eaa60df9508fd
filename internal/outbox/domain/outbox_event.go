// Package domain defines the core outbox domain entities and types.
package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// OutboxEventStatus represents the status of an outbox event
type OutboxEventStatus string

const (
	OutboxEventStatusPending   OutboxEventStatus = "pending"
	OutboxEventStatusProcessed OutboxEventStatus = "processed"
	OutboxEventStatusFailed    OutboxEventStatus = "failed"
)

// OutboxEvent is a domain event stored in the same transaction as the change that produced it
// and published later by the outbox worker.
type OutboxEvent struct {
	ID          uuid.UUID
	EventType   string
	Payload     string
	Status      OutboxEventStatus
	Retries     int
	LastError   *string
	ProcessedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewOutboxEvent creates a pending event with payload encoded as JSON.
func NewOutboxEvent(eventType string, payload any, now time.Time) (*OutboxEvent, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return &OutboxEvent{
		ID:        uuid.Must(uuid.NewV7()),
		EventType: eventType,
		Payload:   string(body),
		Status:    OutboxEventStatusPending,
		CreatedAt: now.UTC(),
		UpdatedAt: now.UTC(),
	}, nil
}

// MarkProcessed records a successful publication.
func (e *OutboxEvent) MarkProcessed(now time.Time) {
	processedAt := now.UTC()
	e.Status = OutboxEventStatusProcessed
	e.ProcessedAt = &processedAt
	e.LastError = nil
}

// MarkFailed records a failed attempt. Once maxRetries attempts have failed the event is
// parked as failed and no longer picked up.
func (e *OutboxEvent) MarkFailed(cause error, maxRetries int) {
	e.Retries++
	msg := cause.Error()
	e.LastError = &msg

	if e.Retries >= maxRetries {
		e.Status = OutboxEventStatusFailed
	}
}
