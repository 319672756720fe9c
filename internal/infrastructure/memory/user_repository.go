// Package memory provides an in-process user store for development and tests.
package memory

import (
	"context"
	"sync"

	domain "accounts/backend/internal/domain/auth"
)

// UserRepository keeps users in maps keyed by id and email.
type UserRepository struct {
	mu      sync.RWMutex
	byID    map[string]domain.User
	byEmail map[string]string
}

// NewUserRepository constructs an empty repository.
func NewUserRepository() *UserRepository {
	return &UserRepository{
		byID:    make(map[string]domain.User),
		byEmail: make(map[string]string),
	}
}

var _ domain.UserRepository = (*UserRepository)(nil)

// Create inserts a new user record.
func (r *UserRepository) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byEmail[user.Email]; ok {
		return domain.ErrEmailExists
	}
	r.byID[user.ID] = cloneUser(*user)
	r.byEmail[user.Email] = user.ID
	return nil
}

// GetByEmail fetches a user by email.
func (r *UserRepository) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[email]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	u := cloneUser(r.byID[id])
	return &u, nil
}

// GetByID retrieves a user by id.
func (r *UserRepository) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	u = cloneUser(u)
	return &u, nil
}

// Update replaces an existing user record.
func (r *UserRepository) Update(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.byID[user.ID]
	if !ok {
		return domain.ErrUserNotFound
	}
	if user.Email != current.Email {
		if owner, taken := r.byEmail[user.Email]; taken && owner != user.ID {
			return domain.ErrEmailExists
		}
		delete(r.byEmail, current.Email)
		r.byEmail[user.Email] = user.ID
	}
	r.byID[user.ID] = cloneUser(*user)
	return nil
}

// Len reports the number of stored users.
func (r *UserRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}

func cloneUser(u domain.User) domain.User {
	if u.ProfileImage != nil {
		ref := *u.ProfileImage
		u.ProfileImage = &ref
	}
	return u
}
