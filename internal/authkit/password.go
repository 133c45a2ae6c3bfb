package authkit

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

const bcryptCost = 12

// HashPassword derives a salted one-way hash for storage.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", fmt.Errorf("password.hash: %w", ErrValidation)
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", fmt.Errorf("password.hash: %w", err)
	}
	return string(hashed), nil
}

// ComparePassword checks a cleartext password against a stored hash in
// constant time. A mismatch reports ErrAuthenticationFailed.
func ComparePassword(password string, hash string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return fmt.Errorf("password.compare: %w", ErrAuthenticationFailed)
		}
		return fmt.Errorf("password.compare: %w", err)
	}
	return nil
}
