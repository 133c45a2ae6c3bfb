package authkit

import "context"

// User is the durable account record.
type User struct {
	UserID       string
	Email        string
	PasswordHash string
}

// CredentialStore persists and retrieves durable user records.
type CredentialStore interface {
	// Register creates a new user. A unique-email violation reports
	// ErrDuplicateEmail.
	Register(ctx context.Context, email string, passwordHash string) (User, error)
	// FindByEmail returns the user for an email, or absence.
	FindByEmail(ctx context.Context, email string) (User, bool, error)
	// Delete removes the durable record. A missing id reports ErrUserNotFound.
	Delete(ctx context.Context, userID string) error
}
