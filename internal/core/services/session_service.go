package services

import (
	"context"
	"errors"
	"time"

	"meetgate/internal/core/domain"
	"meetgate/internal/core/ports"
	apperrors "meetgate/pkg/errors"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

// SessionClaims is the shape of the provider-signed session credential.
type SessionClaims struct {
	UID         string `json:"uid"`
	Email       string `json:"email"`
	DisplayName string `json:"name"`
	jwt.RegisteredClaims
}

type sessionService struct {
	secret   []byte
	identity ports.IdentityProvider
	cache    ports.SessionCache
	logger   *zap.SugaredLogger
}

// NewSessionService builds the session verifier. The secret is shared with
// the identity provider, which signs session credentials with HS256; the
// cache holds per-user revocation instants so verification stays read-only
// and cheap.
func NewSessionService(
	secret string,
	identity ports.IdentityProvider,
	cache ports.SessionCache,
	logger *zap.SugaredLogger,
) ports.SessionVerifier {
	return &sessionService{
		secret:   []byte(secret),
		identity: identity,
		cache:    cache,
		logger:   logger,
	}
}

func (s *sessionService) Verify(ctx context.Context, credential string) (*domain.Identity, error) {
	if credential == "" {
		return nil, apperrors.NewUnauthenticatedError("missing session credential")
	}

	claims, err := s.parse(credential)
	if err != nil {
		return nil, err
	}

	if claims.UID == "" {
		return nil, apperrors.NewUnauthenticatedError("malformed session credential")
	}

	uid := domain.UserID(claims.UID)

	revoked, err := s.issuedBeforeRevocation(ctx, uid, claims)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, apperrors.NewRevokedError("session has been revoked")
	}

	return &domain.Identity{
		UID:         uid,
		Email:       claims.Email,
		DisplayName: claims.DisplayName,
	}, nil
}

func (s *sessionService) parse(credential string) (*SessionClaims, error) {
	token, err := jwt.ParseWithClaims(credential, &SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.secret, nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperrors.NewExpiredError("session has expired")
		}
		return nil, apperrors.NewUnauthenticatedError("invalid session credential")
	}

	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid {
		return nil, apperrors.NewUnauthenticatedError("invalid session credential")
	}

	return claims, nil
}

// issuedBeforeRevocation compares the credential's issue instant against the
// user's revocation instant. The instant is cached; a cache miss falls back
// to the identity provider.
func (s *sessionService) issuedBeforeRevocation(ctx context.Context, uid domain.UserID, claims *SessionClaims) (bool, error) {
	validAfter, found, err := s.cache.GetRevocationInstant(ctx, uid)
	if err != nil {
		// Cache trouble must not take down verification; fall through to
		// the provider.
		s.logger.Warnw("session cache lookup failed", "uid", uid, "error", err)
		found = false
	}

	if !found {
		validAfter, err = s.identity.TokensValidAfter(ctx, uid)
		if err != nil {
			return false, err
		}
		if cacheErr := s.cache.SetRevocationInstant(ctx, uid, validAfter); cacheErr != nil {
			s.logger.Warnw("session cache store failed", "uid", uid, "error", cacheErr)
		}
	}

	if validAfter.IsZero() || claims.IssuedAt == nil {
		return false, nil
	}

	return claims.IssuedAt.Time.Before(validAfter), nil
}

// MintSessionCredential signs a session credential locally. Only used by
// tests and tooling; production credentials come from the identity provider.
func MintSessionCredential(secret string, identity domain.Identity, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &SessionClaims{
		UID:         string(identity.UID),
		Email:       identity.Email,
		DisplayName: identity.DisplayName,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}
