package services

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestRedisService_Ping(t *testing.T) {
	mr := miniredis.RunT(t)

	for _, addr := range []string{mr.Addr(), "redis://" + mr.Addr() + "/0"} {
		t.Run(addr, func(t *testing.T) {
			redisService, err := NewRedisService(addr, quietLogger())
			if err != nil {
				t.Fatalf("NewRedisService failed: %v", err)
			}
			defer func() {
				if err := redisService.Close(); err != nil {
					t.Errorf("Failed to close Redis service: %v", err)
				}
			}()

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := redisService.Ping(ctx); err != nil {
				t.Fatalf("Ping failed: %v", err)
			}
			if err := redisService.WaitForConnection(ctx); err != nil {
				t.Fatalf("WaitForConnection failed: %v", err)
			}
			if redisService.GetClient() == nil {
				t.Error("GetClient should return non-nil client")
			}
		})
	}
}

func TestRedisService_BadURL(t *testing.T) {
	if _, err := NewRedisService("redis://localhost:6379/notanumber", quietLogger()); err == nil {
		t.Error("expected error for malformed url")
	}
}

func TestRedisService_WaitForConnectionTimeout(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	redisService, err := NewRedisService(addr, quietLogger())
	if err != nil {
		t.Fatalf("NewRedisService failed: %v", err)
	}
	defer func() { _ = redisService.Close() }()
	redisService.retryDelay = 10 * time.Millisecond

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	if err := redisService.WaitForConnection(ctx); err == nil {
		t.Error("Expected timeout error, got nil")
	}
}
