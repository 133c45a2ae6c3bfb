package authkit

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenType discriminates access tokens from refresh tokens. The codec signs
// both with the same key; only the claim and the TTL differ.
type TokenType string

const (
	// TokenTypeAccess marks a short-lived credential authorizing API calls.
	TokenTypeAccess TokenType = "access"
	// TokenTypeRefresh marks a long-lived credential used solely to obtain a
	// new token pair.
	TokenTypeRefresh TokenType = "refresh"
)

// TokenClaims are embedded in every signed token.
type TokenClaims struct {
	UserID    string    `json:"user_id"`
	UserEmail string    `json:"user_email"`
	TokenType TokenType `json:"type"`
	jwt.RegisteredClaims
}

// TokenCodec mints and verifies HS256 signed identity claims.
//
// DecodeToken enforces signature, issuer, and expiry but deliberately not the
// type claim: refresh endpoints must reject a presented access token (and
// vice versa) themselves.
type TokenCodec struct {
	signingKey []byte
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
	clock      Clock
}

// NewTokenCodec constructs a codec from server configuration.
func NewTokenCodec(config ServerConfig, clock Clock) *TokenCodec {
	if clock == nil {
		clock = NewSystemClock()
	}
	return &TokenCodec{
		signingKey: config.JWTSigningKey,
		issuer:     config.JWTIssuer,
		accessTTL:  config.AccessTTL,
		refreshTTL: config.RefreshTTL,
		clock:      clock,
	}
}

// AccessTTL reports the configured access token lifetime.
func (codec *TokenCodec) AccessTTL() time.Duration {
	return codec.accessTTL
}

// RefreshTTL reports the configured refresh token lifetime.
func (codec *TokenCodec) RefreshTTL() time.Duration {
	return codec.refreshTTL
}

// CreateAccessToken mints a signed access token for the given identity.
func (codec *TokenCodec) CreateAccessToken(userID string, userEmail string) (string, time.Time, error) {
	return codec.mint(userID, userEmail, TokenTypeAccess, codec.accessTTL)
}

// CreateRefreshToken mints a signed refresh token for the given identity.
func (codec *TokenCodec) CreateRefreshToken(userID string, userEmail string) (string, time.Time, error) {
	return codec.mint(userID, userEmail, TokenTypeRefresh, codec.refreshTTL)
}

func (codec *TokenCodec) mint(userID string, userEmail string, tokenType TokenType, ttl time.Duration) (string, time.Time, error) {
	if userID == "" {
		return "", time.Time{}, fmt.Errorf("jwt.mint.failure: subject must be non-empty")
	}
	issuedAt := codec.clock.Now()
	expiresAt := issuedAt.Add(ttl)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, TokenClaims{
		UserID:    userID,
		UserEmail: userEmail,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			// Random jti so rotation always yields a distinct token even when
			// two mints land on the same second.
			ID:        uuid.NewString(),
			Issuer:    codec.issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt.Add(-30 * time.Second)),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	})
	signed, err := token.SignedString(codec.signingKey)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("jwt.mint.sign: %w", err)
	}
	return signed, expiresAt, nil
}

// DecodeToken verifies a signed token and returns its claims. Signature,
// shape, and expiry failures are all folded into ErrInvalidToken.
func (codec *TokenCodec) DecodeToken(tokenText string) (*TokenClaims, error) {
	parsedToken, parseErr := jwt.ParseWithClaims(tokenText, &TokenClaims{}, func(parsed *jwt.Token) (interface{}, error) {
		return codec.signingKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(codec.clock.Now),
	)
	if parseErr != nil || parsedToken == nil || !parsedToken.Valid {
		return nil, fmt.Errorf("jwt.decode: %w", ErrInvalidToken)
	}
	claims, ok := parsedToken.Claims.(*TokenClaims)
	if !ok || claims.UserID == "" {
		return nil, fmt.Errorf("jwt.decode.claims: %w", ErrInvalidToken)
	}
	if codec.issuer != "" && claims.Issuer != codec.issuer {
		return nil, fmt.Errorf("jwt.decode.issuer: %w", ErrInvalidToken)
	}
	return claims, nil
}
