package repository

import (
	"context"
	"database/sql"

	"github.com/allisson/users/internal/database"
	apperrors "github.com/allisson/users/internal/errors"
	"github.com/allisson/users/internal/outbox/domain"
)

const (
	pgInsertEvent = `INSERT INTO outbox_events (` + eventColumnList + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	pgSelectPending = `SELECT ` + eventColumnList + `
		FROM outbox_events
		WHERE status = $1
		ORDER BY created_at ASC
		LIMIT $2
		FOR UPDATE SKIP LOCKED`

	pgUpdateEvent = `UPDATE outbox_events
		SET status = $1, retries = $2, last_error = $3, processed_at = $4, updated_at = NOW()
		WHERE id = $5`
)

// PostgreSQLOutboxEventRepository stores outbox events in PostgreSQL.
type PostgreSQLOutboxEventRepository struct {
	db *sql.DB
}

// NewPostgreSQLOutboxEventRepository creates a new PostgreSQLOutboxEventRepository.
func NewPostgreSQLOutboxEventRepository(db *sql.DB) *PostgreSQLOutboxEventRepository {
	return &PostgreSQLOutboxEventRepository{db: db}
}

// Create inserts event, joining the transaction in ctx when there is one.
func (r *PostgreSQLOutboxEventRepository) Create(ctx context.Context, event *domain.OutboxEvent) error {
	_, err := database.GetTx(ctx, r.db).ExecContext(ctx, pgInsertEvent,
		event.ID, event.EventType, event.Payload, event.Status, event.Retries,
		event.LastError, event.ProcessedAt, event.CreatedAt, event.UpdatedAt)
	return apperrors.Wrap(err, "failed to create outbox event")
}

// GetPendingEvents locks up to limit pending events, oldest first, skipping rows another
// worker already holds.
func (r *PostgreSQLOutboxEventRepository) GetPendingEvents(
	ctx context.Context,
	limit int,
) ([]*domain.OutboxEvent, error) {
	rows, err := database.GetTx(ctx, r.db).QueryContext(ctx, pgSelectPending, domain.OutboxEventStatusPending, limit)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to get pending outbox events")
	}
	return scanEvents(rows, nativeID)
}

// Update saves the delivery state of event.
func (r *PostgreSQLOutboxEventRepository) Update(ctx context.Context, event *domain.OutboxEvent) error {
	_, err := database.GetTx(ctx, r.db).ExecContext(ctx, pgUpdateEvent,
		event.Status, event.Retries, event.LastError, event.ProcessedAt, event.ID)
	return apperrors.Wrap(err, "failed to update outbox event")
}
