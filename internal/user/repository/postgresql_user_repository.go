// Package repository provides data persistence implementations for user entities.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/allisson/users/internal/database"
	apperrors "github.com/allisson/users/internal/errors"
	"github.com/allisson/users/internal/user/domain"
)

// pgUniqueViolation is the SQLSTATE PostgreSQL reports for unique constraint violations.
const pgUniqueViolation = "23505"

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// PostgreSQLUserRepository handles user persistence for PostgreSQL
type PostgreSQLUserRepository struct {
	db *sql.DB
}

// NewPostgreSQLUserRepository creates a new PostgreSQLUserRepository
func NewPostgreSQLUserRepository(db *sql.DB) *PostgreSQLUserRepository {
	return &PostgreSQLUserRepository{
		db: db,
	}
}

// ExistsByEmail reports whether a user with the given email exists, ignoring case.
func (r *PostgreSQLUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT EXISTS(SELECT 1 FROM users WHERE LOWER(email) = LOWER($1))`

	var exists bool
	if err := querier.QueryRowContext(ctx, query, email).Scan(&exists); err != nil {
		return false, apperrors.Wrap(err, "failed to check user email")
	}
	return exists, nil
}

// ExistsByTaxID reports whether a user with the given CPF exists.
func (r *PostgreSQLUserRepository) ExistsByTaxID(ctx context.Context, taxID string) (bool, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT EXISTS(SELECT 1 FROM users WHERE cpf = $1)`

	var exists bool
	if err := querier.QueryRowContext(ctx, query, taxID).Scan(&exists); err != nil {
		return false, apperrors.Wrap(err, "failed to check user cpf")
	}
	return exists, nil
}

// Save inserts a new user
func (r *PostgreSQLUserRepository) Save(ctx context.Context, user *domain.User) (*domain.User, error) {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO users (id, name, email, cpf, profession, created_at) 
			  VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := querier.ExecContext(ctx, query, user.ID, user.Name, user.Email.String(),
		user.TaxID.String(), user.Profession, user.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == pgUniqueViolation {
			return nil, &domain.ConflictError{Constraint: pqErr.Constraint, Err: err}
		}
		return nil, apperrors.Wrap(err, "failed to create user")
	}
	return user, nil
}

// FindByID retrieves a user by ID
func (r *PostgreSQLUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, name, email, cpf, profession, created_at 
			  FROM users WHERE id = $1`

	user, err := scanPostgreSQLUser(querier.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get user by id")
	}
	return user, nil
}

// FindByEmail retrieves a user by email, ignoring case.
func (r *PostgreSQLUserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, name, email, cpf, profession, created_at 
			  FROM users WHERE LOWER(email) = LOWER($1)`

	user, err := scanPostgreSQLUser(querier.QueryRowContext(ctx, query, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get user by email")
	}
	return user, nil
}

func scanPostgreSQLUser(row rowScanner) (*domain.User, error) {
	var (
		id                           uuid.UUID
		name, email, cpf, profession string
		createdAt                    time.Time
	)
	if err := row.Scan(&id, &name, &email, &cpf, &profession, &createdAt); err != nil {
		return nil, err
	}
	return domain.RestoreUser(id, name, email, cpf, profession, createdAt)
}
