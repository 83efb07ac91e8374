package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisService owns the shared Redis connection used by the Redis save
// store and the event broadcaster.
type RedisService struct {
	client *redis.Client
	logger *slog.Logger

	retries    int
	retryDelay time.Duration
}

// NewRedisService connects lazily to redisURL, which is either a
// redis:// URL or a bare host:port.
func NewRedisService(redisURL string, logger *slog.Logger) (*RedisService, error) {
	opts := &redis.Options{Addr: redisURL}
	if strings.Contains(redisURL, "://") {
		parsed, err := redis.ParseURL(redisURL)
		if err != nil {
			return nil, fmt.Errorf("failed to parse redis url: %w", err)
		}
		opts = parsed
	}

	return &RedisService{
		client:     redis.NewClient(opts),
		logger:     logger,
		retries:    30,
		retryDelay: 2 * time.Second,
	}, nil
}

func (r *RedisService) Ping(ctx context.Context) error {
	cmd := r.client.Ping(ctx)
	if err := cmd.Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}

	r.logger.Debug("Redis ping successful", "result", cmd.Val())
	return nil
}

func (r *RedisService) Close() error {
	if err := r.client.Close(); err != nil {
		r.logger.Error("Failed to close Redis connection", "error", err)
		return err
	}

	r.logger.Info("Redis connection closed")
	return nil
}

func (r *RedisService) GetClient() *redis.Client {
	return r.client
}

func (r *RedisService) WaitForConnection(ctx context.Context) error {
	for i := 0; i < r.retries; i++ {
		if err := r.Ping(ctx); err != nil {
			r.logger.Debug("Redis not ready yet", "error", err, "attempt", i+1)

			select {
			case <-ctx.Done():
				return fmt.Errorf("context cancelled while waiting for redis: %w", ctx.Err())
			case <-time.After(r.retryDelay):
				continue
			}
		}

		r.logger.Info("Redis connection established")
		return nil
	}

	return fmt.Errorf("redis did not become available after %d attempts", r.retries)
}
