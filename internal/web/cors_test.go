package web

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap/zaptest"
)

func TestConfigureCORS(t *testing.T) {
	t.Parallel()
	gin.SetMode(gin.TestMode)

	router := gin.New()
	middleware, err := ConfigureCORS(zaptest.NewLogger(t), []string{"http://localhost"})
	if err != nil {
		t.Fatalf("unexpected error configuring CORS: %v", err)
	}
	router.Use(middleware)
	router.OPTIONS("/resource", func(contextGin *gin.Context) {
		contextGin.Status(http.StatusNoContent)
	})

	recorder := httptest.NewRecorder()
	request := httptest.NewRequest(http.MethodOptions, "/resource", nil)
	request.Header.Set("Origin", "http://localhost")
	router.ServeHTTP(recorder, request)

	if recorder.Code != http.StatusNoContent {
		t.Fatalf("expected 204 from preflight, got %d", recorder.Code)
	}
	if origin := recorder.Header().Get("Access-Control-Allow-Origin"); origin != "http://localhost" {
		t.Fatalf("unexpected allowed origin header: %q", origin)
	}
}

func TestConfigureCORSRejectsBlankOrigins(t *testing.T) {
	t.Parallel()

	if _, err := ConfigureCORS(nil, nil); err == nil {
		t.Fatalf("expected error for nil origin list")
	}
	if _, err := ConfigureCORS(nil, []string{"  "}); err == nil {
		t.Fatalf("expected error for whitespace origin")
	}
}

func TestConfigureCORSRejectsWildcard(t *testing.T) {
	t.Parallel()

	if _, err := ConfigureCORS(nil, []string{"*"}); err == nil {
		t.Fatalf("expected error for wildcard origin")
	}
}

func TestConfigureCORSRejectsOriginWithPath(t *testing.T) {
	t.Parallel()

	if _, err := ConfigureCORS(nil, []string{"https://example.com/app"}); err == nil {
		t.Fatalf("expected error for origin with path segment")
	}
}
