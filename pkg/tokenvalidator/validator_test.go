package tokenvalidator

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

type fixedClock struct {
	current time.Time
}

func (clock fixedClock) Now() time.Time {
	return clock.current
}

func mintToken(t *testing.T, signingKey []byte, issuer string, tokenType string, issuedAt time.Time, ttl time.Duration) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UserID:    "user-123",
		UserEmail: "user@example.com",
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   "user-123",
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(ttl)),
		},
	})
	result, err := token.SignedString(signingKey)
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return result
}

func newTestValidator(t *testing.T, now time.Time) *Validator {
	t.Helper()
	validator, err := New(Config{
		SigningKey: []byte("secret"),
		Issuer:     "authd",
		Clock:      fixedClock{current: now},
	})
	if err != nil {
		t.Fatalf("unexpected construction error: %v", err)
	}
	return validator
}

func TestNewValidatorRequiresSigningKey(t *testing.T) {
	t.Parallel()

	if _, err := New(Config{Issuer: "authd"}); !errors.Is(err, ErrMissingSigningKey) {
		t.Fatalf("expected missing signing key error, got %v", err)
	}
}

func TestNewValidatorRequiresIssuer(t *testing.T) {
	t.Parallel()

	if _, err := New(Config{SigningKey: []byte("secret")}); !errors.Is(err, ErrMissingIssuer) {
		t.Fatalf("expected missing issuer error, got %v", err)
	}
}

func TestValidateTokenAcceptsAccessToken(t *testing.T) {
	t.Parallel()

	now := time.Unix(1700000000, 0).UTC()
	validator := newTestValidator(t, now)
	token := mintToken(t, []byte("secret"), "authd", "access", now, time.Hour)

	claims, err := validator.ValidateToken(token)
	if err != nil {
		t.Fatalf("unexpected validation error: %v", err)
	}
	if claims.GetUserID() != "user-123" || claims.GetUserEmail() != "user@example.com" {
		t.Fatalf("unexpected claims %+v", claims)
	}
	if claims.GetExpiresAt().IsZero() {
		t.Fatalf("expected expiry timestamp")
	}
}

func TestValidateTokenRejectsRefreshToken(t *testing.T) {
	t.Parallel()

	now := time.Unix(1700000000, 0).UTC()
	validator := newTestValidator(t, now)
	token := mintToken(t, []byte("secret"), "authd", "refresh", now, time.Hour)

	if _, err := validator.ValidateToken(token); !errors.Is(err, ErrWrongTokenType) {
		t.Fatalf("expected wrong-type error, got %v", err)
	}
}

func TestValidateTokenRejectsExpired(t *testing.T) {
	t.Parallel()

	now := time.Unix(1700000000, 0).UTC()
	validator := newTestValidator(t, now)
	token := mintToken(t, []byte("secret"), "authd", "access", now.Add(-2*time.Hour), time.Hour)

	if _, err := validator.ValidateToken(token); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected expired error, got %v", err)
	}
}

func TestValidateTokenRejectsForeignIssuer(t *testing.T) {
	t.Parallel()

	now := time.Unix(1700000000, 0).UTC()
	validator := newTestValidator(t, now)
	token := mintToken(t, []byte("secret"), "someone-else", "access", now, time.Hour)

	if _, err := validator.ValidateToken(token); !errors.Is(err, ErrInvalidIssuer) {
		t.Fatalf("expected issuer error, got %v", err)
	}
}

func TestValidateRequestRequiresBearerHeader(t *testing.T) {
	t.Parallel()

	now := time.Unix(1700000000, 0).UTC()
	validator := newTestValidator(t, now)

	request := httptest.NewRequest(http.MethodGet, "/resource", nil)
	if _, err := validator.ValidateRequest(request); !errors.Is(err, ErrMissingToken) {
		t.Fatalf("expected missing token error, got %v", err)
	}

	request.Header.Set("Authorization", "Bearer "+mintToken(t, []byte("secret"), "authd", "access", now, time.Hour))
	if _, err := validator.ValidateRequest(request); err != nil {
		t.Fatalf("unexpected validation error: %v", err)
	}
}

func TestGinMiddleware(t *testing.T) {
	t.Parallel()
	gin.SetMode(gin.TestMode)

	now := time.Unix(1700000000, 0).UTC()
	validator := newTestValidator(t, now)

	router := gin.New()
	router.GET("/resource", validator.GinMiddleware(""), func(contextGin *gin.Context) {
		claimsValue, _ := contextGin.Get(DefaultContextKey)
		claims, ok := claimsValue.(*Claims)
		if !ok {
			contextGin.AbortWithStatus(http.StatusInternalServerError)
			return
		}
		contextGin.JSON(http.StatusOK, gin.H{"user_id": claims.GetUserID()})
	})

	rejected := httptest.NewRecorder()
	router.ServeHTTP(rejected, httptest.NewRequest(http.MethodGet, "/resource", nil))
	if rejected.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without bearer token, got %d", rejected.Code)
	}

	accepted := httptest.NewRecorder()
	request := httptest.NewRequest(http.MethodGet, "/resource", nil)
	request.Header.Set("Authorization", "Bearer "+mintToken(t, []byte("secret"), "authd", "access", now, time.Hour))
	router.ServeHTTP(accepted, request)
	if accepted.Code != http.StatusOK {
		t.Fatalf("expected 200 with valid bearer token, got %d", accepted.Code)
	}
}
