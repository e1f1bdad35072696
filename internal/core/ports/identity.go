package ports

import (
	"context"
	"time"

	"meetgate/internal/core/domain"
)

// IdentityUpdate carries the identity-provider fields the gateway may change.
type IdentityUpdate struct {
	Email       *string
	DisplayName *string
}

// IdentityProvider is the narrow capability interface over the managed
// identity backend. Account storage, password verification and credential
// issuance all live on the provider side; the gateway only calls it.
type IdentityProvider interface {
	// CreateUser registers a new account. Duplicate email surfaces as a
	// Conflict application error.
	CreateUser(ctx context.Context, email, password, displayName string) (*domain.Identity, error)

	// CreateOAuthUser creates or fetches the account keyed by
	// "provider:providerID".
	CreateOAuthUser(ctx context.Context, provider, providerID, email, displayName string) (*domain.Identity, error)

	// VerifyPassword checks credentials and returns the identity on success.
	VerifyPassword(ctx context.Context, email, password string) (*domain.Identity, error)

	// CreateSessionCookie mints a provider-signed session credential for uid.
	CreateSessionCookie(ctx context.Context, uid domain.UserID, ttl time.Duration) (string, error)

	// RevokeTokens invalidates every credential issued to uid before now.
	RevokeTokens(ctx context.Context, uid domain.UserID) error

	// TokensValidAfter returns the instant before which issued credentials
	// are considered revoked. Zero time means never revoked.
	TokensValidAfter(ctx context.Context, uid domain.UserID) (time.Time, error)

	UpdateUser(ctx context.Context, uid domain.UserID, update IdentityUpdate) error
	DeleteUser(ctx context.Context, uid domain.UserID) error

	// GeneratePasswordResetLink triggers a provider-side reset email.
	GeneratePasswordResetLink(ctx context.Context, email string) error
}
