// Package usecase implements the user business logic and orchestrates user domain operations.
package usecase

import (
	"context"

	"github.com/google/uuid"

	outboxDomain "github.com/allisson/users/internal/outbox/domain"
	"github.com/allisson/users/internal/user/domain"
)

// UserRepository defines the persistence port for users.
type UserRepository interface {
	// ExistsByEmail reports whether a user with the given email exists, ignoring case.
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	ExistsByTaxID(ctx context.Context, taxID string) (bool, error)
	// Save inserts the user. A uniqueness violation is returned as *domain.ConflictError.
	Save(ctx context.Context, user *domain.User) (*domain.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
}

// OutboxEventRepository defines the outbox operations needed to publish user events.
type OutboxEventRepository interface {
	Create(ctx context.Context, event *outboxDomain.OutboxEvent) error
}

// CreateUserInput contains the raw data used to register a user.
type CreateUserInput struct {
	Name       string
	Email      string
	CPF        string
	Profession string
}

// UserOutput is the representation of a user returned to callers.
// CreatedAt is an ISO-8601 timestamp in UTC.
type UserOutput struct {
	ID         uuid.UUID
	Name       string
	Email      string
	CPF        string
	Profession string
	CreatedAt  string
}

// UseCase defines the interface for user business logic operations.
type UseCase interface {
	// Create validates the input, enforces email and CPF uniqueness and persists the user
	// together with a user.created outbox event in a single transaction.
	Create(ctx context.Context, input CreateUserInput) (*UserOutput, error)
	GetByID(ctx context.Context, id uuid.UUID) (*UserOutput, error)
	GetByEmail(ctx context.Context, email string) (*UserOutput, error)
}
