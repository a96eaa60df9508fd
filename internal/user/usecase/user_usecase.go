package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/users/internal/database"
	apperrors "github.com/allisson/users/internal/errors"
	outboxDomain "github.com/allisson/users/internal/outbox/domain"
	"github.com/allisson/users/internal/user/domain"
)

// UserCreatedEventType is the outbox event type emitted after a user is registered.
const UserCreatedEventType = "user.created"

type userCreatedPayload struct {
	UserID     uuid.UUID `json:"user_id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	CPF        string    `json:"cpf"`
	Profession string    `json:"profession"`
	CreatedAt  string    `json:"created_at"`
}

// UserUseCase handles user-related business logic
type UserUseCase struct {
	txManager  database.TxManager
	userRepo   UserRepository
	outboxRepo OutboxEventRepository
	clock      func() time.Time
}

// NewUserUseCase creates a new UserUseCase. A nil clock defaults to time.Now.
func NewUserUseCase(
	txManager database.TxManager,
	userRepo UserRepository,
	outboxRepo OutboxEventRepository,
	clock func() time.Time,
) UseCase {
	if clock == nil {
		clock = time.Now
	}

	return &UserUseCase{
		txManager:  txManager,
		userRepo:   userRepo,
		outboxRepo: outboxRepo,
		clock:      clock,
	}
}

// Create registers a new user and creates a user.created event
func (uc *UserUseCase) Create(ctx context.Context, input CreateUserInput) (*UserOutput, error) {
	user, err := domain.NewUser(input.Name, input.Email, input.CPF, input.Profession, uc.clock())
	if err != nil {
		return nil, err
	}

	var saved *domain.User
	err = uc.txManager.WithTx(ctx, func(ctx context.Context) error {
		emailUsed, err := uc.userRepo.ExistsByEmail(ctx, user.Email.String())
		if err != nil {
			return apperrors.Wrap(err, "failed to check email uniqueness")
		}
		if emailUsed {
			return &domain.EmailAlreadyUsedError{Email: user.Email.String()}
		}

		taxIDUsed, err := uc.userRepo.ExistsByTaxID(ctx, user.TaxID.String())
		if err != nil {
			return apperrors.Wrap(err, "failed to check cpf uniqueness")
		}
		if taxIDUsed {
			return &domain.TaxIDAlreadyUsedError{TaxID: user.TaxID.String()}
		}

		saved, err = uc.userRepo.Save(ctx, user)
		if err != nil {
			return err
		}

		output := toOutput(saved)
		outboxEvent, err := outboxDomain.NewOutboxEvent(UserCreatedEventType, userCreatedPayload{
			UserID:     output.ID,
			Name:       output.Name,
			Email:      output.Email,
			CPF:        output.CPF,
			Profession: output.Profession,
			CreatedAt:  output.CreatedAt,
		}, uc.clock())
		if err != nil {
			return apperrors.Wrap(err, "failed to build outbox event")
		}
		if err := uc.outboxRepo.Create(ctx, outboxEvent); err != nil {
			return apperrors.Wrap(err, "failed to create outbox event")
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return toOutput(saved), nil
}

// GetByID retrieves a user by ID
func (uc *UserUseCase) GetByID(ctx context.Context, id uuid.UUID) (*UserOutput, error) {
	user, err := uc.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return toOutput(user), nil
}

// GetByEmail retrieves a user by email, ignoring case and surrounding whitespace.
func (uc *UserUseCase) GetByEmail(ctx context.Context, email string) (*UserOutput, error) {
	user, err := uc.userRepo.FindByEmail(ctx, domain.NormalizeEmail(email))
	if err != nil {
		return nil, err
	}
	return toOutput(user), nil
}

func toOutput(user *domain.User) *UserOutput {
	return &UserOutput{
		ID:         user.ID,
		Name:       user.Name,
		Email:      user.Email.String(),
		CPF:        user.TaxID.String(),
		Profession: user.Profession,
		CreatedAt:  user.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}
