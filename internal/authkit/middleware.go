package authkit

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// IdentityContextKey is where RequireIdentity stores the resolved identity.
const IdentityContextKey = "auth_identity"

// RequireIdentity resolves the caller's identity from the assertion header or
// the refresh cookie and injects it into the request context. Requests that
// fail resolution are rejected with 401.
func RequireIdentity(config ServerConfig, resolver IdentityResolver) gin.HandlerFunc {
	return func(contextGin *gin.Context) {
		identity, resolveErr := resolver.Resolve(contextGin, AssertionInput{
			AssertionHeader: contextGin.GetHeader(config.AssertionHeader),
			RefreshToken:    refreshCookieValue(contextGin, config),
		})
		if resolveErr != nil {
			contextGin.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
			return
		}
		contextGin.Set(IdentityContextKey, identity)
		contextGin.Next()
	}
}

// IdentityFromContext returns the identity injected by RequireIdentity.
func IdentityFromContext(contextGin *gin.Context) (Identity, bool) {
	value, found := contextGin.Get(IdentityContextKey)
	if !found {
		return Identity{}, false
	}
	identity, ok := value.(Identity)
	return identity, ok
}

func refreshCookieValue(contextGin *gin.Context, config ServerConfig) string {
	cookie, err := contextGin.Request.Cookie(config.RefreshCookieName)
	if err != nil || cookie == nil {
		return ""
	}
	return cookie.Value
}
