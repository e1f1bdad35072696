package services

import (
	"context"
	"time"

	"meetgate/internal/core/domain"
	"meetgate/internal/core/ports"

	"github.com/stretchr/testify/mock"
)

// MockIdentityProvider for tests
type MockIdentityProvider struct {
	mock.Mock
}

func (m *MockIdentityProvider) CreateUser(ctx context.Context, email, password, displayName string) (*domain.Identity, error) {
	args := m.Called(ctx, email, password, displayName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Identity), args.Error(1)
}

func (m *MockIdentityProvider) CreateOAuthUser(ctx context.Context, provider, providerID, email, displayName string) (*domain.Identity, error) {
	args := m.Called(ctx, provider, providerID, email, displayName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Identity), args.Error(1)
}

func (m *MockIdentityProvider) VerifyPassword(ctx context.Context, email, password string) (*domain.Identity, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Identity), args.Error(1)
}

func (m *MockIdentityProvider) CreateSessionCookie(ctx context.Context, uid domain.UserID, ttl time.Duration) (string, error) {
	args := m.Called(ctx, uid, ttl)
	return args.String(0), args.Error(1)
}

func (m *MockIdentityProvider) RevokeTokens(ctx context.Context, uid domain.UserID) error {
	args := m.Called(ctx, uid)
	return args.Error(0)
}

func (m *MockIdentityProvider) TokensValidAfter(ctx context.Context, uid domain.UserID) (time.Time, error) {
	args := m.Called(ctx, uid)
	return args.Get(0).(time.Time), args.Error(1)
}

func (m *MockIdentityProvider) UpdateUser(ctx context.Context, uid domain.UserID, update ports.IdentityUpdate) error {
	args := m.Called(ctx, uid, update)
	return args.Error(0)
}

func (m *MockIdentityProvider) DeleteUser(ctx context.Context, uid domain.UserID) error {
	args := m.Called(ctx, uid)
	return args.Error(0)
}

func (m *MockIdentityProvider) GeneratePasswordResetLink(ctx context.Context, email string) error {
	args := m.Called(ctx, email)
	return args.Error(0)
}

// MockDocumentStore for tests
type MockDocumentStore struct {
	mock.Mock
}

func (m *MockDocumentStore) Get(ctx context.Context, collection, id string, out interface{}) error {
	args := m.Called(ctx, collection, id, out)
	if fn, ok := args.Get(0).(func(interface{})); ok {
		fn(out)
		return args.Error(1)
	}
	return args.Error(1)
}

func (m *MockDocumentStore) Set(ctx context.Context, collection, id string, doc interface{}) error {
	args := m.Called(ctx, collection, id, doc)
	return args.Error(0)
}

func (m *MockDocumentStore) Update(ctx context.Context, collection, id string, fields map[string]interface{}) error {
	args := m.Called(ctx, collection, id, fields)
	return args.Error(0)
}

func (m *MockDocumentStore) Delete(ctx context.Context, collection, id string) error {
	args := m.Called(ctx, collection, id)
	return args.Error(0)
}

// MockSessionCache for tests
type MockSessionCache struct {
	mock.Mock
}

func (m *MockSessionCache) GetRevocationInstant(ctx context.Context, uid domain.UserID) (time.Time, bool, error) {
	args := m.Called(ctx, uid)
	return args.Get(0).(time.Time), args.Bool(1), args.Error(2)
}

func (m *MockSessionCache) SetRevocationInstant(ctx context.Context, uid domain.UserID, instant time.Time) error {
	args := m.Called(ctx, uid, instant)
	return args.Error(0)
}

func (m *MockSessionCache) Invalidate(ctx context.Context, uid domain.UserID) error {
	args := m.Called(ctx, uid)
	return args.Error(0)
}

func (m *MockSessionCache) HealthCheck(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockSessionCache) Close() error {
	args := m.Called()
	return args.Error(0)
}

// MockMeetingStore for tests
type MockMeetingStore struct {
	mock.Mock
}

func (m *MockMeetingStore) Create(ctx context.Context, caller domain.UserID, req ports.MeetingCreate) (*domain.Meeting, error) {
	args := m.Called(ctx, caller, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Meeting), args.Error(1)
}

func (m *MockMeetingStore) ListForUser(ctx context.Context, caller domain.UserID) ([]*domain.Meeting, error) {
	args := m.Called(ctx, caller)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Meeting), args.Error(1)
}

func (m *MockMeetingStore) GetByID(ctx context.Context, caller domain.UserID, id domain.MeetingID) (*domain.Meeting, error) {
	args := m.Called(ctx, caller, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Meeting), args.Error(1)
}

func (m *MockMeetingStore) Update(ctx context.Context, caller domain.UserID, id domain.MeetingID, update domain.MeetingUpdate) (*domain.Meeting, error) {
	args := m.Called(ctx, caller, id, update)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Meeting), args.Error(1)
}

func (m *MockMeetingStore) Delete(ctx context.Context, caller domain.UserID, id domain.MeetingID) error {
	args := m.Called(ctx, caller, id)
	return args.Error(0)
}

func (m *MockMeetingStore) Join(ctx context.Context, caller domain.UserID, id domain.MeetingID) (*domain.Meeting, error) {
	args := m.Called(ctx, caller, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Meeting), args.Error(1)
}

func (m *MockMeetingStore) Leave(ctx context.Context, caller domain.UserID, id domain.MeetingID) (*domain.Meeting, error) {
	args := m.Called(ctx, caller, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Meeting), args.Error(1)
}
