package authkit

import (
	"context"
	"fmt"
	"time"
)

// TokenKind selects which half of a session record a store operation targets.
type TokenKind string

const (
	// KindAccess addresses the stored access token.
	KindAccess TokenKind = "access"
	// KindRefresh addresses the stored refresh token.
	KindRefresh TokenKind = "refresh"
)

// SessionKey builds the cache key for one half of a user's session record.
func SessionKey(kind TokenKind, userID string) string {
	return fmt.Sprintf("%s_token:%s", kind, userID)
}

// SessionStore maps a user id to its currently-valid token pair with expiry.
//
// Put overwrites unconditionally: at most one active session record exists
// per user, so issuing new tokens implicitly invalidates old ones. Get on a
// missing or expired key reports absence, never an error. Delete is
// idempotent.
type SessionStore interface {
	Put(ctx context.Context, userID string, kind TokenKind, token string, ttl time.Duration) error
	Get(ctx context.Context, userID string, kind TokenKind) (token string, found bool, err error)
	Delete(ctx context.Context, userID string, kind TokenKind) error
}
