package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/google/uuid"

	"github.com/allisson/users/internal/database"
	apperrors "github.com/allisson/users/internal/errors"
	"github.com/allisson/users/internal/user/domain"
)

// mysqlDuplicateEntry is the MySQL error number for duplicate keys.
const mysqlDuplicateEntry = 1062

// Unique constraint names declared by the users table migrations.
const (
	constraintUsersEmail = "uk_users_email"
	constraintUsersCPF   = "uk_users_cpf"
)

// MySQLUserRepository handles user persistence for MySQL
type MySQLUserRepository struct {
	db *sql.DB
}

// NewMySQLUserRepository creates a new MySQLUserRepository
func NewMySQLUserRepository(db *sql.DB) *MySQLUserRepository {
	return &MySQLUserRepository{
		db: db,
	}
}

// ExistsByEmail reports whether a user with the given email exists, ignoring case.
func (r *MySQLUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT EXISTS(SELECT 1 FROM users WHERE LOWER(email) = LOWER(?))`

	var exists bool
	if err := querier.QueryRowContext(ctx, query, email).Scan(&exists); err != nil {
		return false, apperrors.Wrap(err, "failed to check user email")
	}
	return exists, nil
}

// ExistsByTaxID reports whether a user with the given CPF exists.
func (r *MySQLUserRepository) ExistsByTaxID(ctx context.Context, taxID string) (bool, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT EXISTS(SELECT 1 FROM users WHERE cpf = ?)`

	var exists bool
	if err := querier.QueryRowContext(ctx, query, taxID).Scan(&exists); err != nil {
		return false, apperrors.Wrap(err, "failed to check user cpf")
	}
	return exists, nil
}

// Save inserts a new user
func (r *MySQLUserRepository) Save(ctx context.Context, user *domain.User) (*domain.User, error) {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO users (id, name, email, cpf, profession, created_at) 
			  VALUES (?, ?, ?, ?, ?, ?)`

	// Convert UUID to bytes for MySQL BINARY(16)
	uuidBytes, err := user.ID.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal UUID")
	}

	_, err = querier.ExecContext(ctx, query, uuidBytes, user.Name, user.Email.String(),
		user.TaxID.String(), user.Profession, user.CreatedAt)
	if err != nil {
		var mysqlErr *mysql.MySQLError
		if errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlDuplicateEntry {
			return nil, &domain.ConflictError{Constraint: mysqlConstraintName(mysqlErr.Message), Err: err}
		}
		return nil, apperrors.Wrap(err, "failed to create user")
	}
	return user, nil
}

// FindByID retrieves a user by ID
func (r *MySQLUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, name, email, cpf, profession, created_at 
			  FROM users WHERE id = ?`

	// Convert UUID to bytes for MySQL BINARY(16)
	uuidBytes, err := id.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal UUID")
	}

	user, err := scanMySQLUser(querier.QueryRowContext(ctx, query, uuidBytes))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get user by id")
	}
	return user, nil
}

// FindByEmail retrieves a user by email, ignoring case.
func (r *MySQLUserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, name, email, cpf, profession, created_at 
			  FROM users WHERE LOWER(email) = LOWER(?)`

	user, err := scanMySQLUser(querier.QueryRowContext(ctx, query, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get user by email")
	}
	return user, nil
}

func scanMySQLUser(row rowScanner) (*domain.User, error) {
	var (
		idBytes                      []byte
		name, email, cpf, profession string
		createdAt                    time.Time
	)
	if err := row.Scan(&idBytes, &name, &email, &cpf, &profession, &createdAt); err != nil {
		return nil, err
	}

	// Convert bytes back to UUID
	var id uuid.UUID
	if err := id.UnmarshalBinary(idBytes); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal UUID")
	}
	return domain.RestoreUser(id, name, email, cpf, profession, createdAt)
}

// mysqlConstraintName extracts the violated key from a "Duplicate entry ... for key ..." message.
func mysqlConstraintName(message string) string {
	switch {
	case strings.Contains(message, constraintUsersEmail):
		return constraintUsersEmail
	case strings.Contains(message, constraintUsersCPF):
		return constraintUsersCPF
	default:
		return ""
	}
}
