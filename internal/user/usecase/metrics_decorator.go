package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/users/internal/metrics"
)

const metricsDomain = "users"

// userUseCaseWithMetrics decorates UseCase with metrics instrumentation.
type userUseCaseWithMetrics struct {
	next    UseCase
	metrics metrics.BusinessMetrics
}

// NewUserUseCaseWithMetrics wraps a UseCase with metrics recording.
func NewUserUseCaseWithMetrics(useCase UseCase, m metrics.BusinessMetrics) UseCase {
	return &userUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

// Create records metrics for user creation operations.
func (u *userUseCaseWithMetrics) Create(ctx context.Context, input CreateUserInput) (*UserOutput, error) {
	start := time.Now()
	output, err := u.next.Create(ctx, input)
	u.record(ctx, "user_create", start, err)
	return output, err
}

// GetByID records metrics for user lookups by id.
func (u *userUseCaseWithMetrics) GetByID(ctx context.Context, id uuid.UUID) (*UserOutput, error) {
	start := time.Now()
	output, err := u.next.GetByID(ctx, id)
	u.record(ctx, "user_get", start, err)
	return output, err
}

// GetByEmail records metrics for user lookups by email.
func (u *userUseCaseWithMetrics) GetByEmail(ctx context.Context, email string) (*UserOutput, error) {
	start := time.Now()
	output, err := u.next.GetByEmail(ctx, email)
	u.record(ctx, "user_get_by_email", start, err)
	return output, err
}

func (u *userUseCaseWithMetrics) record(ctx context.Context, operation string, start time.Time, err error) {
	metrics.Observe(ctx, u.metrics, metricsDomain, operation, start, err)
}
