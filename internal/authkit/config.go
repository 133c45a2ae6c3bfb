package authkit

import (
	"net/http"
	"time"
)

// IdentityMode selects how inbound caller identity is resolved.
type IdentityMode string

const (
	// IdentityModeBearer resolves identity from a presented refresh token
	// cross-checked against the session store.
	IdentityModeBearer IdentityMode = "bearer"
	// IdentityModeHeader trusts a pre-verified assertion header attached by
	// an upstream gateway.
	IdentityModeHeader IdentityMode = "header"
)

// ServerConfig configures token signing, cookies, and TTLs.
type ServerConfig struct {
	JWTSigningKey     []byte
	JWTIssuer         string
	RoutePrefix       string
	CookieDomain      string
	RefreshCookieName string
	AccessTTL         time.Duration
	RefreshTTL        time.Duration
	IdentityMode      IdentityMode
	AssertionHeader   string
	SameSiteMode      http.SameSite
	AllowInsecureHTTP bool
}
