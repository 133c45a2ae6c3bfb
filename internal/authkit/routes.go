package authkit

import (
	"errors"
	"net"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// MountAuthRoutes registers /join, /login, /refresh, /logout, and
// /withdrawal under the configured route prefix.
func MountAuthRoutes(router gin.IRouter, config ServerConfig, lifecycle *Lifecycle, resolver IdentityResolver) {
	group := router.Group(config.RoutePrefix)

	group.POST("/join", func(contextGin *gin.Context) {
		var inbound struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if err := contextGin.BindJSON(&inbound); err != nil {
			contextGin.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid_json"})
			return
		}
		if err := lifecycle.Join(contextGin, inbound.Email, inbound.Password); err != nil {
			abortWithAuthError(contextGin, err)
			return
		}
		contextGin.Status(http.StatusOK)
	})

	group.POST("/login", func(contextGin *gin.Context) {
		var inbound struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if err := contextGin.BindJSON(&inbound); err != nil {
			contextGin.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid_json"})
			return
		}
		if !config.AllowInsecureHTTP && !isHTTPS(contextGin.Request) {
			contextGin.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "https_required"})
			return
		}
		result, loginErr := lifecycle.Login(contextGin, inbound.Email, inbound.Password)
		if loginErr != nil {
			abortWithAuthError(contextGin, loginErr)
			return
		}
		writeRefreshCookie(contextGin, config, result.Tokens.RefreshToken)
		contextGin.JSON(http.StatusOK, gin.H{
			"user_id":      result.UserID,
			"user_email":   result.UserEmail,
			"access_token": result.Tokens.AccessToken,
			"message":      "login successful",
		})
	})

	group.POST("/refresh", func(contextGin *gin.Context) {
		identity, resolveErr := resolveFromRequest(contextGin, config, resolver)
		if resolveErr != nil {
			abortWithAuthError(contextGin, resolveErr)
			return
		}
		result, refreshErr := lifecycle.Refresh(contextGin, identity)
		if refreshErr != nil {
			abortWithAuthError(contextGin, refreshErr)
			return
		}
		writeRefreshCookie(contextGin, config, result.Tokens.RefreshToken)
		contextGin.JSON(http.StatusOK, gin.H{
			"access_token": result.Tokens.AccessToken,
			"message":      "token refreshed",
		})
	})

	group.POST("/logout", func(contextGin *gin.Context) {
		identity, resolveErr := resolveFromRequest(contextGin, config, resolver)
		if resolveErr != nil {
			abortWithAuthError(contextGin, resolveErr)
			return
		}
		if logoutErr := lifecycle.Logout(contextGin, identity); logoutErr != nil {
			abortWithAuthError(contextGin, logoutErr)
			return
		}
		clearRefreshCookie(contextGin, config)
		contextGin.JSON(http.StatusOK, gin.H{"message": "logout successful"})
	})

	group.POST("/withdrawal", RequireIdentity(config, resolver), func(contextGin *gin.Context) {
		var inbound struct {
			UserID string `json:"user_id"`
		}
		if err := contextGin.BindJSON(&inbound); err != nil {
			contextGin.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid_json"})
			return
		}
		identity, found := IdentityFromContext(contextGin)
		if !found {
			contextGin.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
			return
		}
		if withdrawErr := lifecycle.Withdraw(contextGin, identity, inbound.UserID); withdrawErr != nil {
			abortWithAuthError(contextGin, withdrawErr)
			return
		}
		clearRefreshCookie(contextGin, config)
		contextGin.Status(http.StatusOK)
	})
}

// resolveFromRequest builds the assertion input for the configured resolver.
// The refresh token may arrive in the JSON body or in the refresh cookie; the
// body wins when both are present.
func resolveFromRequest(contextGin *gin.Context, config ServerConfig, resolver IdentityResolver) (Identity, error) {
	input := AssertionInput{
		AssertionHeader: contextGin.GetHeader(config.AssertionHeader),
		RefreshToken:    refreshCookieValue(contextGin, config),
	}
	var inbound struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := contextGin.ShouldBindJSON(&inbound); err == nil && strings.TrimSpace(inbound.RefreshToken) != "" {
		input.RefreshToken = inbound.RefreshToken
	}
	return resolver.Resolve(contextGin, input)
}

func abortWithAuthError(contextGin *gin.Context, err error) {
	contextGin.AbortWithStatusJSON(statusFromError(err), gin.H{"error": err.Error()})
}

func statusFromError(err error) int {
	switch {
	case errors.Is(err, ErrAuthenticationFailed),
		errors.Is(err, ErrUnauthenticated),
		errors.Is(err, ErrInvalidToken):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrDependencyUnavailable):
		return http.StatusBadGateway
	case errors.Is(err, ErrValidation),
		errors.Is(err, ErrDuplicateEmail),
		errors.Is(err, ErrUserNotFound):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeRefreshCookie(contextGin *gin.Context, config ServerConfig, refreshToken string) {
	http.SetCookie(contextGin.Writer, &http.Cookie{
		Name:     config.RefreshCookieName,
		Value:    refreshToken,
		Path:     cookiePath(config),
		Domain:   config.CookieDomain,
		MaxAge:   int(config.RefreshTTL.Seconds()),
		Secure:   true,
		HttpOnly: true,
		SameSite: config.SameSiteMode,
	})
}

func clearRefreshCookie(contextGin *gin.Context, config ServerConfig) {
	http.SetCookie(contextGin.Writer, &http.Cookie{
		Name:     config.RefreshCookieName,
		Value:    "",
		Path:     cookiePath(config),
		Domain:   config.CookieDomain,
		MaxAge:   -1,
		Secure:   true,
		HttpOnly: true,
		SameSite: config.SameSiteMode,
	})
}

func cookiePath(config ServerConfig) string {
	if config.RoutePrefix == "" {
		return "/"
	}
	return config.RoutePrefix
}

func isHTTPS(request *http.Request) bool {
	if request.TLS != nil {
		return true
	}
	scheme := request.Header.Get("X-Forwarded-Proto")
	if strings.EqualFold(scheme, "https") {
		return true
	}
	forwarded := request.Header.Get("Forwarded")
	if forwarded != "" && strings.Contains(strings.ToLower(forwarded), "proto=https") {
		return true
	}
	host, _, splitErr := net.SplitHostPort(request.Host)
	if splitErr == nil && host == "localhost" {
		return true
	}
	return false
}
