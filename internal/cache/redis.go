package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"gitlab.com/timkado/api/clinic-case-service/internal/config"
)

const pingTimeout = 2 * time.Second

// Connect opens a redis client and pings it once.
func Connect(ctx context.Context, addr, password string, db int, logger *zap.Logger) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	logger.Info("Connected to Redis", zap.String("addr", addr), zap.Int("db", db))
	return rdb, nil
}

// ConnectFromConfig is Connect driven by the redis config section.
func ConnectFromConfig(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*redis.Client, error) {
	return Connect(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
}
