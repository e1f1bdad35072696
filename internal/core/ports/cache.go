package ports

import (
	"context"
	"time"

	"meetgate/internal/core/domain"
)

// SessionCache caches per-user revocation instants so session verification
// does not hit the identity provider on every request. Entries expire after
// a short TTL; logout invalidates eagerly.
type SessionCache interface {
	// GetRevocationInstant returns the cached instant and whether it was
	// present.
	GetRevocationInstant(ctx context.Context, uid domain.UserID) (time.Time, bool, error)
	SetRevocationInstant(ctx context.Context, uid domain.UserID, instant time.Time) error
	Invalidate(ctx context.Context, uid domain.UserID) error

	// HealthCheck verifies the backing store is reachable.
	HealthCheck(ctx context.Context) error
	Close() error
}
