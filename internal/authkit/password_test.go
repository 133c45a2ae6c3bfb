package authkit

import (
	"errors"
	"testing"
)

func TestHashPasswordRejectsEmptyInput(t *testing.T) {
	t.Parallel()

	if _, err := HashPassword(""); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestComparePasswordRoundTrip(t *testing.T) {
	t.Parallel()

	hash, hashErr := HashPassword("pw1")
	if hashErr != nil {
		t.Fatalf("unexpected hash error: %v", hashErr)
	}
	if hash == "pw1" {
		t.Fatalf("hash must not equal the cleartext password")
	}
	if err := ComparePassword("pw1", hash); err != nil {
		t.Fatalf("expected matching password to verify: %v", err)
	}
	if err := ComparePassword("pw2", hash); !errors.Is(err, ErrAuthenticationFailed) {
		t.Fatalf("expected authentication failure on mismatch, got %v", err)
	}
}
