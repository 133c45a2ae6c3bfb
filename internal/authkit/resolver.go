package authkit

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"strings"
)

// Identity is a verified caller identity.
type Identity struct {
	UserID string
	Email  string
}

// AssertionInput carries the raw identity material lifted off an inbound
// request: the gateway assertion header, the presented refresh token, or both.
type AssertionInput struct {
	AssertionHeader string
	RefreshToken    string
}

// IdentityResolver turns an inbound assertion into a verified identity or
// rejects it with ErrUnauthenticated.
type IdentityResolver interface {
	Resolve(ctx context.Context, input AssertionInput) (Identity, error)
}

// NewIdentityResolver selects a resolver for the configured identity mode.
func NewIdentityResolver(mode IdentityMode, codec *TokenCodec, sessions SessionStore) (IdentityResolver, error) {
	switch mode {
	case IdentityModeHeader:
		return &HeaderAssertionResolver{}, nil
	case IdentityModeBearer, "":
		if codec == nil || sessions == nil {
			return nil, fmt.Errorf("resolver.bearer: codec and session store are required")
		}
		return &BearerRefreshResolver{codec: codec, sessions: sessions}, nil
	default:
		return nil, fmt.Errorf("resolver.mode.%s: unsupported identity mode", mode)
	}
}

// HeaderAssertionResolver trusts a structured assertion attached by an
// upstream gateway that has already authenticated the caller. It does not
// re-verify signatures; that trust boundary belongs to the gateway.
type HeaderAssertionResolver struct{}

type headerAssertion struct {
	User struct {
		UserID          string `json:"user_id"`
		Email           string `json:"email"`
		IsAuthenticated bool   `json:"is_authenticated"`
	} `json:"user"`
}

// Resolve parses the assertion header and accepts it if it marks the caller
// authenticated.
func (resolver *HeaderAssertionResolver) Resolve(ctx context.Context, input AssertionInput) (Identity, error) {
	headerValue := strings.TrimSpace(input.AssertionHeader)
	if headerValue == "" {
		return Identity{}, fmt.Errorf("resolver.header.missing: %w", ErrUnauthenticated)
	}
	var assertion headerAssertion
	if err := json.Unmarshal([]byte(headerValue), &assertion); err != nil {
		return Identity{}, fmt.Errorf("resolver.header.malformed: %w", ErrUnauthenticated)
	}
	if !assertion.User.IsAuthenticated || assertion.User.UserID == "" {
		return Identity{}, fmt.Errorf("resolver.header.anonymous: %w", ErrUnauthenticated)
	}
	return Identity{UserID: assertion.User.UserID, Email: assertion.User.Email}, nil
}

// BearerRefreshResolver verifies a presented refresh token and cross-checks
// it against the session store. The byte match detects refresh tokens that
// were revoked or superseded by rotation even though they remain
// cryptographically valid.
type BearerRefreshResolver struct {
	codec    *TokenCodec
	sessions SessionStore
}

// Resolve decodes the presented refresh token and requires it to match the
// stored session record for its user.
func (resolver *BearerRefreshResolver) Resolve(ctx context.Context, input AssertionInput) (Identity, error) {
	presented := strings.TrimSpace(input.RefreshToken)
	if presented == "" {
		return Identity{}, fmt.Errorf("resolver.bearer.missing: %w", ErrUnauthenticated)
	}
	claims, decodeErr := resolver.codec.DecodeToken(presented)
	if decodeErr != nil {
		return Identity{}, fmt.Errorf("resolver.bearer.decode: %w", ErrUnauthenticated)
	}
	if claims.TokenType != TokenTypeRefresh {
		return Identity{}, fmt.Errorf("resolver.bearer.wrong_type: %w", ErrUnauthenticated)
	}
	stored, found, getErr := resolver.sessions.Get(ctx, claims.UserID, KindRefresh)
	if getErr != nil {
		return Identity{}, fmt.Errorf("resolver.bearer.store: %w", getErr)
	}
	if !found || subtle.ConstantTimeCompare([]byte(stored), []byte(presented)) != 1 {
		return Identity{}, fmt.Errorf("resolver.bearer.stale: %w", ErrUnauthenticated)
	}
	return Identity{UserID: claims.UserID, Email: claims.UserEmail}, nil
}
