// internal/app/storage.go
package app

import (
	"context"
	"fmt"

	"lms-web/internal/config"
	"lms-web/internal/db"
	"lms-web/internal/pkg/session"

	"go.uber.org/zap"
)

// OpenSessionBackend opens the durable storage selected by SESSION_STORE.
// The returned backend owns its connection; Close releases it.
func OpenSessionBackend(ctx context.Context, cfg config.AppConfig, logger *zap.Logger) (session.Backend, error) {
	switch cfg.SessionStore {
	case config.StoreBolt:
		b, err := session.OpenBoltBackend(cfg.BoltPath)
		if err != nil {
			return nil, fmt.Errorf("open bolt session store: %w", err)
		}
		logger.Info("session store ready", zap.String("kind", "bolt"), zap.String("path", cfg.BoltPath))
		return b, nil

	case config.StoreRedis:
		client, err := db.NewRedisClient(ctx, db.RedisConfig{
			Addresses: cfg.RedisAddrs,
			Password:  cfg.RedisPass,
			PoolSize:  4,
		})
		if err != nil {
			return nil, err
		}
		logger.Info("session store ready", zap.String("kind", "redis"), zap.Strings("addrs", cfg.RedisAddrs))
		return session.NewRedisBackend(client, cfg.RedisPrefix), nil

	case config.StorePostgres:
		pool, err := db.ConnectPostgres(ctx, cfg.PostgresURL)
		if err != nil {
			return nil, err
		}
		b := session.NewPostgresBackend(pool)
		if err := b.EnsureSchema(ctx); err != nil {
			b.Close()
			return nil, fmt.Errorf("prepare postgres session table: %w", err)
		}
		logger.Info("session store ready", zap.String("kind", "postgres"))
		return b, nil

	case config.StoreMemory:
		logger.Warn("session store is in memory; the session will not survive a restart")
		return session.NewMemoryBackend(), nil
	}

	return nil, fmt.Errorf("unknown session store %q", cfg.SessionStore)
}

// NewSessionStore wraps backend with the configured sealer.
func NewSessionStore(cfg config.AppConfig, backend session.Backend, logger *zap.Logger) (*session.Store, error) {
	sealer, err := session.NewSealer(cfg.SealKey)
	if err != nil {
		return nil, fmt.Errorf("SESSION_SEAL_KEY: %w", err)
	}
	return session.NewStore(backend, sealer, logger), nil
}
