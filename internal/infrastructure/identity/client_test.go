package identity

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"meetgate/internal/core/domain"
	apperrors "meetgate/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := NewClient(server.URL, "test-key", 2*time.Second, nil, zaptest.NewLogger(t).Sugar())
	return client, server
}

func TestCreateUser_Success(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/accounts", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("X-API-Key"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "ann@example.com", body["email"])

		json.NewEncoder(w).Encode(map[string]string{
			"uid":          "u1",
			"email":        "ann@example.com",
			"display_name": "Ann",
		})
	})

	identity, err := client.CreateUser(context.Background(), "ann@example.com", "secret1", "Ann")
	require.NoError(t, err)
	assert.Equal(t, domain.UserID("u1"), identity.UID)
	assert.Equal(t, "Ann", identity.DisplayName)
}

func TestCreateUser_EmailExistsBecomesConflict(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"error": map[string]string{"code": "EMAIL_EXISTS", "message": "email exists"},
		})
	})

	_, err := client.CreateUser(context.Background(), "ann@example.com", "secret1", "Ann")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeConflict))
}

func TestVerifyPassword_InvalidCredentials(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"error": map[string]string{"code": "INVALID_CREDENTIALS", "message": "nope"},
		})
	})

	_, err := client.VerifyPassword(context.Background(), "ann@example.com", "wrong")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeUnauthenticated))
}

func TestTokensValidAfter_ZeroWhenNeverRevoked(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/accounts/u1", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]string{"uid": "u1", "email": "ann@example.com"})
	})

	instant, err := client.TokensValidAfter(context.Background(), "u1")
	require.NoError(t, err)
	assert.True(t, instant.IsZero())
}

func TestTokensValidAfter_ReturnsInstant(t *testing.T) {
	revokedAt := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"uid":                "u1",
			"email":              "ann@example.com",
			"tokens_valid_after": revokedAt.Format(time.RFC3339),
		})
	})

	instant, err := client.TokensValidAfter(context.Background(), "u1")
	require.NoError(t, err)
	assert.True(t, instant.Equal(revokedAt))
}

func TestDocumentGet_NotFound(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"error": map[string]string{"code": "DOCUMENT_NOT_FOUND", "message": "no such document"},
		})
	})

	var user domain.User
	err := client.Get(context.Background(), "users", "missing", &user)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeNotFound))
}

func TestDocumentSet_RoundTrip(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/v1/documents/users/u1", r.URL.Path)

		var doc map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&doc))
		assert.Equal(t, "Ann", doc["name"])
		w.WriteHeader(http.StatusOK)
	})

	err := client.Set(context.Background(), "users", "u1", map[string]string{"name": "Ann"})
	require.NoError(t, err)
}

func TestDo_ServerErrorBecomesUpstreamFailure(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	err := client.RevokeTokens(context.Background(), "u1")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeUpstream))
}

func TestDo_UnreachableBecomesUpstreamFailure(t *testing.T) {
	client := NewClient("http://127.0.0.1:1", "", 200*time.Millisecond, nil, zaptest.NewLogger(t).Sugar())

	err := client.RevokeTokens(context.Background(), "u1")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeUpstream))
}
