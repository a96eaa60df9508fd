package repository

import (
	"context"
	"database/sql"

	"github.com/allisson/users/internal/database"
	apperrors "github.com/allisson/users/internal/errors"
	"github.com/allisson/users/internal/outbox/domain"
)

const (
	mysqlInsertEvent = `INSERT INTO outbox_events (` + eventColumnList + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	// SKIP LOCKED needs MySQL 8.0 or newer.
	mysqlSelectPending = `SELECT ` + eventColumnList + `
		FROM outbox_events
		WHERE status = ?
		ORDER BY created_at ASC
		LIMIT ?
		FOR UPDATE SKIP LOCKED`

	mysqlUpdateEvent = `UPDATE outbox_events
		SET status = ?, retries = ?, last_error = ?, processed_at = ?, updated_at = NOW()
		WHERE id = ?`
)

// MySQLOutboxEventRepository stores outbox events in MySQL, with ids as BINARY(16).
type MySQLOutboxEventRepository struct {
	db *sql.DB
}

// NewMySQLOutboxEventRepository creates a new MySQLOutboxEventRepository.
func NewMySQLOutboxEventRepository(db *sql.DB) *MySQLOutboxEventRepository {
	return &MySQLOutboxEventRepository{db: db}
}

// Create inserts event, joining the transaction in ctx when there is one.
func (r *MySQLOutboxEventRepository) Create(ctx context.Context, event *domain.OutboxEvent) error {
	id, err := event.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal UUID")
	}

	_, err = database.GetTx(ctx, r.db).ExecContext(ctx, mysqlInsertEvent,
		id, event.EventType, event.Payload, event.Status, event.Retries,
		event.LastError, event.ProcessedAt, event.CreatedAt, event.UpdatedAt)
	return apperrors.Wrap(err, "failed to create outbox event")
}

// GetPendingEvents locks up to limit pending events, oldest first, skipping rows another
// worker already holds.
func (r *MySQLOutboxEventRepository) GetPendingEvents(
	ctx context.Context,
	limit int,
) ([]*domain.OutboxEvent, error) {
	rows, err := database.GetTx(ctx, r.db).QueryContext(ctx, mysqlSelectPending, domain.OutboxEventStatusPending, limit)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to get pending outbox events")
	}
	return scanEvents(rows, binaryID)
}

// Update saves the delivery state of event.
func (r *MySQLOutboxEventRepository) Update(ctx context.Context, event *domain.OutboxEvent) error {
	id, err := event.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal UUID")
	}

	_, err = database.GetTx(ctx, r.db).ExecContext(ctx, mysqlUpdateEvent,
		event.Status, event.Retries, event.LastError, event.ProcessedAt, id)
	return apperrors.Wrap(err, "failed to update outbox event")
}
