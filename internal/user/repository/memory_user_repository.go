package repository

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/allisson/users/internal/user/domain"
)

// MemoryUserRepository keeps users in process memory. It enforces the same uniqueness
// constraints as the SQL schema and is safe for concurrent use.
type MemoryUserRepository struct {
	mu      sync.RWMutex
	byID    map[uuid.UUID]*domain.User
	byEmail map[string]uuid.UUID
	byTaxID map[string]uuid.UUID
}

// NewMemoryUserRepository creates an empty MemoryUserRepository.
func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{
		byID:    make(map[uuid.UUID]*domain.User),
		byEmail: make(map[string]uuid.UUID),
		byTaxID: make(map[string]uuid.UUID),
	}
}

// ExistsByEmail reports whether a user with the given email exists, ignoring case.
func (r *MemoryUserRepository) ExistsByEmail(_ context.Context, email string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.byEmail[domain.NormalizeEmail(email)]
	return ok, nil
}

// ExistsByTaxID reports whether a user with the given CPF exists.
func (r *MemoryUserRepository) ExistsByTaxID(_ context.Context, taxID string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.byTaxID[taxID]
	return ok, nil
}

// Save inserts a new user
func (r *MemoryUserRepository) Save(_ context.Context, user *domain.User) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	email := user.Email.String()
	taxID := user.TaxID.String()

	if _, ok := r.byEmail[email]; ok {
		return nil, &domain.ConflictError{Constraint: constraintUsersEmail}
	}
	if _, ok := r.byTaxID[taxID]; ok {
		return nil, &domain.ConflictError{Constraint: constraintUsersCPF}
	}

	stored := *user
	r.byID[user.ID] = &stored
	r.byEmail[email] = user.ID
	r.byTaxID[taxID] = user.ID
	return user, nil
}

// FindByID retrieves a user by ID
func (r *MemoryUserRepository) FindByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	found := *user
	return &found, nil
}

// FindByEmail retrieves a user by email, ignoring case.
func (r *MemoryUserRepository) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[domain.NormalizeEmail(email)]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	found := *r.byID[id]
	return &found, nil
}

// Count returns the number of stored users.
func (r *MemoryUserRepository) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.byID)
}
