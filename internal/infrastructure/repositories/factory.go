package repositories

import (
	"context"

	"meetgate/internal/core/ports"
	"meetgate/internal/infrastructure/repositories/memory"
	redisrepo "meetgate/internal/infrastructure/repositories/redis"
	"meetgate/pkg/config"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RepositoryFactory creates session caches with fallback support
type RepositoryFactory struct {
	cfg         *config.Config
	useRedis    bool
	redisClient *redis.Client
	logger      *zap.SugaredLogger
}

// NewRepositoryFactory connects to Redis when enabled; a failed connection
// falls back to the in-memory cache rather than refusing to start.
func NewRepositoryFactory(cfg *config.Config, logger *zap.SugaredLogger) (*RepositoryFactory, error) {
	factory := &RepositoryFactory{
		cfg:      cfg,
		useRedis: cfg.Redis.Enabled,
		logger:   logger,
	}

	if cfg.Redis.Enabled {
		client, err := redisrepo.NewRedisClient(
			cfg.Redis.Address,
			cfg.Redis.Password,
			cfg.Redis.DB,
			cfg.Redis.PoolSize,
			logger,
		)
		if err != nil {
			logger.Warnw("failed to connect to Redis, falling back to memory session cache",
				"error", err,
			)
			factory.useRedis = false
		} else {
			factory.redisClient = client
			logger.Info("using Redis session cache")
		}
	}

	if !factory.useRedis {
		logger.Info("using memory session cache")
	}

	return factory, nil
}

// CreateSessionCache creates the session cache (Redis or memory with fallback)
func (f *RepositoryFactory) CreateSessionCache() ports.SessionCache {
	if f.useRedis && f.redisClient != nil {
		return redisrepo.NewRedisSessionCache(f.redisClient, f.cfg.Session.CacheTTL)
	}
	return memory.NewMemorySessionCache(f.cfg.Session.CacheTTL)
}

// Close closes Redis connection if used
func (f *RepositoryFactory) Close() error {
	if f.redisClient != nil {
		return redisrepo.CloseRedisClient(f.redisClient)
	}
	return nil
}

// HealthCheck checks Redis connection health
func (f *RepositoryFactory) HealthCheck(ctx context.Context) error {
	if f.useRedis && f.redisClient != nil {
		return f.redisClient.Ping(ctx).Err()
	}
	return nil
}
