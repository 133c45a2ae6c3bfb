package userstore

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/mkweon/authd/internal/authkit"
)

// MemoryUserStore is an in-memory credential store for tests and local runs.
type MemoryUserStore struct {
	mutex   sync.Mutex
	byEmail map[string]authkit.User
	byID    map[string]string
}

// NewMemoryUserStore constructs an empty in-memory store.
func NewMemoryUserStore() *MemoryUserStore {
	return &MemoryUserStore{
		byEmail: make(map[string]authkit.User),
		byID:    make(map[string]string),
	}
}

// Register creates a new user keyed by unique email.
func (store *MemoryUserStore) Register(ctx context.Context, email string, passwordHash string) (authkit.User, error) {
	store.mutex.Lock()
	defer store.mutex.Unlock()
	if _, exists := store.byEmail[email]; exists {
		return authkit.User{}, fmt.Errorf("user_store.register.memory: %w", authkit.ErrDuplicateEmail)
	}
	user := authkit.User{
		UserID:       uuid.NewString(),
		Email:        email,
		PasswordHash: passwordHash,
	}
	store.byEmail[email] = user
	store.byID[user.UserID] = email
	return user, nil
}

// FindByEmail returns the user for an email, or absence.
func (store *MemoryUserStore) FindByEmail(ctx context.Context, email string) (authkit.User, bool, error) {
	store.mutex.Lock()
	defer store.mutex.Unlock()
	user, found := store.byEmail[email]
	return user, found, nil
}

// Delete removes the record for a user id.
func (store *MemoryUserStore) Delete(ctx context.Context, userID string) error {
	store.mutex.Lock()
	defer store.mutex.Unlock()
	email, found := store.byID[userID]
	if !found {
		return fmt.Errorf("user_store.delete.memory: %w", authkit.ErrUserNotFound)
	}
	delete(store.byID, userID)
	delete(store.byEmail, email)
	return nil
}
