package ports

import (
	"context"

	"meetgate/internal/core/domain"
)

// SessionVerifier validates an opaque session credential and yields the
// caller identity. Every protected HTTP route and every relay handshake
// must pass through it.
type SessionVerifier interface {
	Verify(ctx context.Context, credential string) (*domain.Identity, error)
}

// RegisterRequest is the validated input of account registration.
type RegisterRequest struct {
	Email    string
	Password string
	Name     string
	LastName string
	Age      int
}

// AuthService owns account registration, login and session lifecycle.
type AuthService interface {
	Register(ctx context.Context, req RegisterRequest) (*domain.User, error)
	// Login verifies credentials and returns the profile plus a freshly
	// minted session credential.
	Login(ctx context.Context, email, password string) (*domain.User, string, error)
	// Logout revokes all credentials issued to uid.
	Logout(ctx context.Context, uid domain.UserID) error
	ResetPassword(ctx context.Context, email string) error
	// OAuthLogin creates-or-fetches the account keyed by provider and
	// providerID and mints a session credential.
	OAuthLogin(ctx context.Context, provider, providerID, email, displayName string) (*domain.User, string, error)
}

// UserService is thin CRUD over the caller's profile document.
type UserService interface {
	GetProfile(ctx context.Context, uid domain.UserID) (*domain.User, error)
	GetByID(ctx context.Context, uid domain.UserID) (*domain.User, error)
	UpdateProfile(ctx context.Context, uid domain.UserID, update domain.UserUpdate) (*domain.User, error)
	// DeleteAccount removes the profile document, then the identity record.
	// A failure after the first write surfaces as PartiallyFailed.
	DeleteAccount(ctx context.Context, uid domain.UserID) error
}

// MeetingService proxies meeting operations to the external store and
// enforces the gateway-side rules (capacity on join, host-only delete).
type MeetingService interface {
	Create(ctx context.Context, caller domain.UserID, req MeetingCreate) (*domain.Meeting, error)
	ListForUser(ctx context.Context, caller domain.UserID) ([]*domain.Meeting, error)
	GetByID(ctx context.Context, caller domain.UserID, id domain.MeetingID) (*domain.Meeting, error)
	Update(ctx context.Context, caller domain.UserID, id domain.MeetingID, update domain.MeetingUpdate) (*domain.Meeting, error)
	Delete(ctx context.Context, caller domain.UserID, id domain.MeetingID) error
	Join(ctx context.Context, caller domain.UserID, id domain.MeetingID) (*domain.Meeting, error)
	Leave(ctx context.Context, caller domain.UserID, id domain.MeetingID) (*domain.Meeting, error)
}
