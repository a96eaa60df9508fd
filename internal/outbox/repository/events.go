// Package repository stores outbox events in PostgreSQL or MySQL.
package repository

import (
	"database/sql"

	"github.com/google/uuid"

	apperrors "github.com/allisson/users/internal/errors"
	"github.com/allisson/users/internal/outbox/domain"
)

const eventColumnList = `id, event_type, payload, status, retries, last_error, processed_at, created_at, updated_at`

// idScanner decodes the id column into a uuid.UUID. PostgreSQL hands back a native UUID,
// MySQL stores BINARY(16).
type idScanner func(dest *uuid.UUID) (target any, decode func() error)

func nativeID(dest *uuid.UUID) (any, func() error) {
	return dest, func() error { return nil }
}

func binaryID(dest *uuid.UUID) (any, func() error) {
	var raw []byte
	return &raw, func() error {
		if err := dest.UnmarshalBinary(raw); err != nil {
			return apperrors.Wrap(err, "failed to unmarshal UUID")
		}
		return nil
	}
}

// scanEvents drains rows selected with eventColumnList and closes them.
func scanEvents(rows *sql.Rows, scanID idScanner) ([]*domain.OutboxEvent, error) {
	defer rows.Close() //nolint:errcheck

	var events []*domain.OutboxEvent
	for rows.Next() {
		event := &domain.OutboxEvent{}
		id, decode := scanID(&event.ID)

		if err := rows.Scan(id, &event.EventType, &event.Payload, &event.Status, &event.Retries,
			&event.LastError, &event.ProcessedAt, &event.CreatedAt, &event.UpdatedAt); err != nil {
			return nil, apperrors.Wrap(err, "failed to scan outbox event")
		}
		if err := decode(); err != nil {
			return nil, err
		}

		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate outbox events")
	}
	return events, nil
}
