package services

import (
	"context"
	"strings"
	"time"

	"meetgate/internal/core/domain"
	"meetgate/internal/core/ports"
	apperrors "meetgate/pkg/errors"
	"meetgate/pkg/validation"

	"go.uber.org/zap"
)

const usersCollection = "users"

type authService struct {
	identity  ports.IdentityProvider
	documents ports.DocumentStore
	cache     ports.SessionCache
	cookieTTL time.Duration
	logger    *zap.SugaredLogger
}

// NewAuthService builds the account/session lifecycle service.
func NewAuthService(
	identity ports.IdentityProvider,
	documents ports.DocumentStore,
	cache ports.SessionCache,
	cookieTTL time.Duration,
	logger *zap.SugaredLogger,
) ports.AuthService {
	return &authService{
		identity:  identity,
		documents: documents,
		cache:     cache,
		cookieTTL: cookieTTL,
		logger:    logger,
	}
}

func (s *authService) Register(ctx context.Context, req ports.RegisterRequest) (*domain.User, error) {
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	req.Name = strings.TrimSpace(req.Name)
	req.LastName = strings.TrimSpace(req.LastName)

	if err := validation.ValidateEmail(req.Email); err != nil {
		return nil, apperrors.NewInvalidInputError(err.Error())
	}
	if err := validation.ValidatePassword(req.Password); err != nil {
		return nil, apperrors.NewInvalidInputError(err.Error())
	}
	if err := validation.ValidateName(req.Name, "name"); err != nil {
		return nil, apperrors.NewInvalidInputError(err.Error())
	}
	if req.Age != 0 {
		if err := validation.ValidateAge(req.Age); err != nil {
			return nil, apperrors.NewInvalidInputError(err.Error())
		}
	}

	displayName := req.Name
	if req.LastName != "" {
		displayName += " " + req.LastName
	}

	identity, err := s.identity.CreateUser(ctx, req.Email, req.Password, displayName)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	user := &domain.User{
		UID:       identity.UID,
		Email:     req.Email,
		Name:      req.Name,
		LastName:  req.LastName,
		Age:       req.Age,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.documents.Set(ctx, usersCollection, string(identity.UID), user); err != nil {
		s.logger.Errorw("profile document write failed after account creation",
			"uid", identity.UID, "error", err)
		return nil, err
	}

	s.logger.Infow("user registered", "uid", identity.UID)
	return user, nil
}

func (s *authService) Login(ctx context.Context, email, password string) (*domain.User, string, error) {
	email = strings.TrimSpace(strings.ToLower(email))

	identity, err := s.identity.VerifyPassword(ctx, email, password)
	if err != nil {
		return nil, "", err
	}

	var user domain.User
	if err := s.documents.Get(ctx, usersCollection, string(identity.UID), &user); err != nil {
		return nil, "", err
	}

	credential, err := s.identity.CreateSessionCookie(ctx, identity.UID, s.cookieTTL)
	if err != nil {
		return nil, "", err
	}

	s.logger.Infow("user logged in", "uid", identity.UID)
	return &user, credential, nil
}

func (s *authService) Logout(ctx context.Context, uid domain.UserID) error {
	if err := s.identity.RevokeTokens(ctx, uid); err != nil {
		return err
	}

	// The cached revocation instant is stale now; drop it so the next
	// verification sees the new one.
	if err := s.cache.Invalidate(ctx, uid); err != nil {
		s.logger.Warnw("session cache invalidation failed", "uid", uid, "error", err)
	}

	s.logger.Infow("user logged out", "uid", uid)
	return nil
}

func (s *authService) ResetPassword(ctx context.Context, email string) error {
	email = strings.TrimSpace(strings.ToLower(email))
	if err := validation.ValidateEmail(email); err != nil {
		return apperrors.NewInvalidInputError(err.Error())
	}
	return s.identity.GeneratePasswordResetLink(ctx, email)
}

func (s *authService) OAuthLogin(ctx context.Context, provider, providerID, email, displayName string) (*domain.User, string, error) {
	identity, err := s.identity.CreateOAuthUser(ctx, provider, providerID, email, displayName)
	if err != nil {
		return nil, "", err
	}

	// Create the profile document on first login; keep the existing one on
	// repeat logins.
	var user domain.User
	err = s.documents.Get(ctx, usersCollection, string(identity.UID), &user)
	if err != nil {
		if !apperrors.IsCode(err, apperrors.ErrCodeNotFound) {
			return nil, "", err
		}
		now := time.Now()
		user = domain.User{
			UID:       identity.UID,
			Email:     email,
			Name:      displayName,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := s.documents.Set(ctx, usersCollection, string(identity.UID), &user); err != nil {
			return nil, "", err
		}
	}

	credential, err := s.identity.CreateSessionCookie(ctx, identity.UID, s.cookieTTL)
	if err != nil {
		return nil, "", err
	}

	s.logger.Infow("oauth login", "uid", identity.UID, "provider", provider)
	return &user, credential, nil
}
