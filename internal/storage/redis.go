package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jwebster45206/text-rpg/pkg/storage"
	"github.com/redis/go-redis/v9"
)

const (
	saveKeyPrefix = "save:"
	saveMetaKey   = "save-meta:"
	saveIndexKey  = "saves:index"
)

// RedisStore keeps saves in Redis: the document under save:<name>, its
// header in the hash save-meta:<name>, and every name in the sorted set
// saves:index scored by save time.
type RedisStore struct {
	client *redis.Client
	logger *slog.Logger
	now    func() time.Time
}

var _ storage.SaveStore = (*RedisStore)(nil)

// NewRedisStore uses an existing client. Close does not close it.
func NewRedisStore(client *redis.Client, logger *slog.Logger) *RedisStore {
	return &RedisStore{client: client, logger: logger, now: time.Now}
}

func (r *RedisStore) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

func (r *RedisStore) Close() error {
	return nil
}

// Save claims the first free name with SETNX, then records the index entry
// and metadata.
func (r *RedisStore) Save(ctx context.Context, name string, doc storage.Document, info storage.SaveInfo) (string, error) {
	base, err := storage.BaseName(name, r.now())
	if err != nil {
		return "", err
	}
	if info.SavedAt.IsZero() {
		info.SavedAt = r.now()
	}

	for n := range storage.MaxNameAttempts {
		candidate := storage.Candidate(base, n)
		data, err := doc(candidate)
		if err != nil {
			return "", fmt.Errorf("failed to encode save: %w", err)
		}
		ok, err := r.client.SetNX(ctx, saveKeyPrefix+candidate, data, 0).Result()
		if err != nil {
			r.logger.Error("Failed to save game", "name", candidate, "error", err)
			return "", fmt.Errorf("failed to save game: %w", err)
		}
		if !ok {
			continue
		}

		_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.ZAdd(ctx, saveIndexKey, redis.Z{Score: float64(info.SavedAt.Unix()), Member: candidate})
			pipe.HSet(ctx, saveMetaKey+candidate, map[string]any{
				"character_name": info.CharacterName,
				"saved_at":       info.SavedAt.UTC().Format(time.RFC3339Nano),
				"version":        info.Version,
			})
			return nil
		})
		if err != nil {
			// leave no half-written save behind
			_ = r.client.Del(ctx, saveKeyPrefix+candidate).Err()
			r.logger.Error("Failed to index save", "name", candidate, "error", err)
			return "", fmt.Errorf("failed to index save: %w", err)
		}
		return candidate, nil
	}
	return "", fmt.Errorf("%w: %s", storage.ErrNoFreeName, base)
}

func (r *RedisStore) Load(ctx context.Context, name string) ([]byte, error) {
	key, err := storage.LookupName(name)
	if err != nil {
		return nil, err
	}
	data, err := r.client.Get(ctx, saveKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: %s", storage.ErrSaveNotFound, key)
	}
	if err != nil {
		r.logger.Error("Failed to load save", "name", key, "error", err)
		return nil, fmt.Errorf("failed to load save: %w", err)
	}
	return data, nil
}

func (r *RedisStore) List(ctx context.Context) ([]storage.SaveInfo, error) {
	names, err := r.client.ZRevRange(ctx, saveIndexKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list saves: %w", err)
	}

	saves := make([]storage.SaveInfo, 0, len(names))
	for _, name := range names {
		meta, err := r.client.HGetAll(ctx, saveMetaKey+name).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to read save metadata: %w", err)
		}
		info := storage.SaveInfo{
			Name:          name,
			CharacterName: meta["character_name"],
			Version:       meta["version"],
		}
		if t, err := time.Parse(time.RFC3339Nano, meta["saved_at"]); err == nil {
			info.SavedAt = t
		}
		saves = append(saves, info)
	}
	storage.SortNewestFirst(saves)
	return saves, nil
}

func (r *RedisStore) Delete(ctx context.Context, name string) error {
	key, err := storage.LookupName(name)
	if err != nil {
		return err
	}

	var removed *redis.IntCmd
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		removed = pipe.Del(ctx, saveKeyPrefix+key)
		pipe.Del(ctx, saveMetaKey+key)
		pipe.ZRem(ctx, saveIndexKey, key)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete save: %w", err)
	}
	if removed.Val() == 0 {
		return fmt.Errorf("%w: %s", storage.ErrSaveNotFound, key)
	}
	return nil
}
