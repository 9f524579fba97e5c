package middleware

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/gophsync/internal/server/handlers"
	"github.com/iudanet/gophsync/pkg/api"
)

// setupTestLogger creates a logger for testing
func setupTestLogger() *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: slog.LevelError,
	}
	handler := slog.NewTextHandler(os.Stdout, opts)
	return slog.New(handler)
}

var testJWTConfig = handlers.JWTConfig{
	Secret:         []byte("test-secret-key"),
	AccessTokenTTL: 15 * time.Minute,
}

func TestAuthMiddleware_Success(t *testing.T) {
	token, _, err := handlers.GenerateAccessToken(testJWTConfig, "laptop-1")
	require.NoError(t, err)

	var gotSubject string
	handler := AuthMiddleware(setupTestLogger(), testJWTConfig)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		subject, ok := handlers.GetSubject(r.Context())
		require.True(t, ok, "subject should be in context")
		gotSubject = subject
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/collections/clients/documents", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "laptop-1", gotSubject)
}

func TestAuthMiddleware_Rejects(t *testing.T) {
	expired, _, err := handlers.GenerateAccessToken(handlers.JWTConfig{
		Secret:         testJWTConfig.Secret,
		AccessTokenTTL: -time.Minute,
	}, "laptop-1")
	require.NoError(t, err)

	foreign, _, err := handlers.GenerateAccessToken(handlers.JWTConfig{
		Secret:         []byte("another-secret"),
		AccessTokenTTL: time.Minute,
	}, "laptop-1")
	require.NoError(t, err)

	tests := []struct {
		name          string
		header        string
		expectMessage string
	}{
		{name: "missing header", header: "", expectMessage: "missing token"},
		{name: "no scheme", header: "token-without-bearer", expectMessage: "invalid token format"},
		{name: "wrong scheme", header: "Basic dXNlcjpwYXNz", expectMessage: "invalid token format"},
		{name: "empty bearer", header: "Bearer ", expectMessage: "invalid token format"},
		{name: "garbage token", header: "Bearer not-a-jwt", expectMessage: "invalid token"},
		{name: "expired token", header: "Bearer " + expired, expectMessage: "invalid token"},
		{name: "wrong secret", header: "Bearer " + foreign, expectMessage: "invalid token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := AuthMiddleware(setupTestLogger(), testJWTConfig)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				t.Fatal("handler must not be called")
			}))

			req := httptest.NewRequest(http.MethodGet, "/api/v1/collections/clients/documents", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

			var resp api.ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.expectMessage, resp.Message)
		})
	}
}

func TestAuthMiddleware_SchemeIsCaseInsensitive(t *testing.T) {
	token, _, err := handlers.GenerateAccessToken(testJWTConfig, "laptop-1")
	require.NoError(t, err)

	handler := AuthMiddleware(setupTestLogger(), testJWTConfig)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "bearer "+token)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
}
