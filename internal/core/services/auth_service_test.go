package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"meetgate/internal/core/domain"
	"meetgate/internal/core/ports"
	apperrors "meetgate/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newAuthFixture(t *testing.T) (*MockIdentityProvider, *MockDocumentStore, *MockSessionCache, ports.AuthService) {
	identity := new(MockIdentityProvider)
	documents := new(MockDocumentStore)
	cache := new(MockSessionCache)
	svc := NewAuthService(identity, documents, cache, 5*24*time.Hour, zaptest.NewLogger(t).Sugar())
	return identity, documents, cache, svc
}

func TestRegister_InvalidInput(t *testing.T) {
	tests := []struct {
		name string
		req  ports.RegisterRequest
	}{
		{"bad email", ports.RegisterRequest{Email: "not-an-email", Password: "secret1", Name: "Ann"}},
		{"short password", ports.RegisterRequest{Email: "ann@example.com", Password: "abc", Name: "Ann"}},
		{"empty name", ports.RegisterRequest{Email: "ann@example.com", Password: "secret1", Name: "  "}},
		{"bad age", ports.RegisterRequest{Email: "ann@example.com", Password: "secret1", Name: "Ann", Age: 300}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			identity, _, _, svc := newAuthFixture(t)

			_, err := svc.Register(context.Background(), tt.req)
			require.Error(t, err)
			assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeInvalidInput))
			identity.AssertNotCalled(t, "CreateUser")
		})
	}
}

func TestRegister_Success(t *testing.T) {
	identity, documents, _, svc := newAuthFixture(t)

	identity.On("CreateUser", mock.Anything, "ann@example.com", "secret1", "Ann Lee").
		Return(&domain.Identity{UID: "u1", Email: "ann@example.com"}, nil)
	documents.On("Set", mock.Anything, usersCollection, "u1", mock.Anything).
		Return(nil)

	user, err := svc.Register(context.Background(), ports.RegisterRequest{
		Email:    "Ann@Example.com", // normalized before the identity call
		Password: "secret1",
		Name:     "Ann",
		LastName: "Lee",
		Age:      30,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.UserID("u1"), user.UID)
	assert.Equal(t, "ann@example.com", user.Email)
	assert.Equal(t, 30, user.Age)
	documents.AssertExpectations(t)
}

func TestRegister_EmailTakenPassesThrough(t *testing.T) {
	identity, documents, _, svc := newAuthFixture(t)

	identity.On("CreateUser", mock.Anything, "ann@example.com", "secret1", "Ann").
		Return(nil, apperrors.NewConflictError("email already registered"))

	_, err := svc.Register(context.Background(), ports.RegisterRequest{
		Email:    "ann@example.com",
		Password: "secret1",
		Name:     "Ann",
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeConflict))
	documents.AssertNotCalled(t, "Set")
}

func TestLogin_Success(t *testing.T) {
	identity, documents, _, svc := newAuthFixture(t)

	identity.On("VerifyPassword", mock.Anything, "ann@example.com", "secret1").
		Return(&domain.Identity{UID: "u1", Email: "ann@example.com"}, nil)
	documents.On("Get", mock.Anything, usersCollection, "u1", mock.Anything).
		Return(func(out interface{}) {
			u := out.(*domain.User)
			u.UID = "u1"
			u.Email = "ann@example.com"
			u.Name = "Ann"
		}, nil)
	identity.On("CreateSessionCookie", mock.Anything, domain.UserID("u1"), 5*24*time.Hour).
		Return("session-credential", nil)

	user, credential, err := svc.Login(context.Background(), "Ann@Example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "session-credential", credential)
	assert.Equal(t, "Ann", user.Name)
}

func TestLogin_WrongPassword(t *testing.T) {
	identity, _, _, svc := newAuthFixture(t)

	identity.On("VerifyPassword", mock.Anything, "ann@example.com", "wrong").
		Return(nil, apperrors.NewUnauthenticatedError("invalid credentials"))

	_, _, err := svc.Login(context.Background(), "ann@example.com", "wrong")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeUnauthenticated))
	identity.AssertNotCalled(t, "CreateSessionCookie")
}

func TestLogout_RevokesAndInvalidatesCache(t *testing.T) {
	identity, _, cache, svc := newAuthFixture(t)

	identity.On("RevokeTokens", mock.Anything, domain.UserID("u1")).Return(nil)
	cache.On("Invalidate", mock.Anything, domain.UserID("u1")).Return(nil)

	require.NoError(t, svc.Logout(context.Background(), "u1"))
	cache.AssertExpectations(t)
}

func TestLogout_CacheFailureIsNotFatal(t *testing.T) {
	identity, _, cache, svc := newAuthFixture(t)

	identity.On("RevokeTokens", mock.Anything, domain.UserID("u1")).Return(nil)
	cache.On("Invalidate", mock.Anything, domain.UserID("u1")).
		Return(errors.New("cache down"))

	require.NoError(t, svc.Logout(context.Background(), "u1"))
}

func TestResetPassword_ValidatesEmail(t *testing.T) {
	identity, _, _, svc := newAuthFixture(t)

	err := svc.ResetPassword(context.Background(), "nope")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeInvalidInput))
	identity.AssertNotCalled(t, "GeneratePasswordResetLink")
}

func TestOAuthLogin_FirstLoginCreatesProfile(t *testing.T) {
	identity, documents, _, svc := newAuthFixture(t)

	identity.On("CreateOAuthUser", mock.Anything, "github", "12345", "ann@example.com", "Ann").
		Return(&domain.Identity{UID: "github:12345", Email: "ann@example.com"}, nil)
	documents.On("Get", mock.Anything, usersCollection, "github:12345", mock.Anything).
		Return(nil, apperrors.NewNotFoundError("user"))
	documents.On("Set", mock.Anything, usersCollection, "github:12345", mock.Anything).
		Return(nil)
	identity.On("CreateSessionCookie", mock.Anything, domain.UserID("github:12345"), 5*24*time.Hour).
		Return("session-credential", nil)

	user, credential, err := svc.OAuthLogin(context.Background(), "github", "12345", "ann@example.com", "Ann")
	require.NoError(t, err)
	assert.Equal(t, "session-credential", credential)
	assert.Equal(t, "Ann", user.Name)
	documents.AssertCalled(t, "Set", mock.Anything, usersCollection, "github:12345", mock.Anything)
}

func TestOAuthLogin_RepeatLoginKeepsProfile(t *testing.T) {
	identity, documents, _, svc := newAuthFixture(t)

	identity.On("CreateOAuthUser", mock.Anything, "google", "g-1", "ann@example.com", "Ann").
		Return(&domain.Identity{UID: "google:g-1", Email: "ann@example.com"}, nil)
	documents.On("Get", mock.Anything, usersCollection, "google:g-1", mock.Anything).
		Return(func(out interface{}) {
			u := out.(*domain.User)
			u.UID = "google:g-1"
			u.Name = "Annabel" // renamed after first login, must survive
		}, nil)
	identity.On("CreateSessionCookie", mock.Anything, domain.UserID("google:g-1"), 5*24*time.Hour).
		Return("session-credential", nil)

	user, _, err := svc.OAuthLogin(context.Background(), "google", "g-1", "ann@example.com", "Ann")
	require.NoError(t, err)
	assert.Equal(t, "Annabel", user.Name)
	documents.AssertNotCalled(t, "Set")
}
