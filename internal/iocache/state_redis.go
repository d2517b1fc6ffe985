package iocache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/carbonlens/emforecast/internal/contract"
	"github.com/carbonlens/emforecast/schema"
	"github.com/go-redis/redis/v8"
)

// Redis key layout: one string key per state plus a sorted set of names scored by save time.
const (
	redisKeyPrefix = "emforecast:state:"
	redisIndexKey  = "emforecast:states"
)

// RedisStateStore keeps ensembles as Redis string values.
type RedisStateStore struct {
	client *redis.Client
}

var _ contract.StateStore = &RedisStateStore{} // Compile-time check

// NewRedisStateStore connects to the server at url (redis://host:port/db).
func NewRedisStateStore(ctx context.Context, url string) (*RedisStateStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w. Check that the server is running", opts.Addr, err)
	}
	return &RedisStateStore{client: client}, nil
}

func redisStateKey(name string) string {
	return redisKeyPrefix + name
}

// Get retrieves the blob saved under name.
func (rs *RedisStateStore) Get(ctx context.Context, name string) ([]byte, error) {
	blob, err := rs.client.Get(ctx, redisStateKey(name)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: no saved state named %q", schema.ErrLoad, name)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", schema.ErrLoad, err)
	}
	return blob, nil
}

// Set stores the blob and indexes the name by save time in one transaction.
func (rs *RedisStateStore) Set(ctx context.Context, name string, blob []byte, savedAt time.Time) error {
	_, err := rs.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, redisStateKey(name), blob, 0)
		pipe.ZAdd(ctx, redisIndexKey, &redis.Z{Score: float64(savedAt.UnixMilli()), Member: name})
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save state %q: %w", name, err)
	}
	return nil
}

// GetStatus returns status information from the state index.
func (rs *RedisStateStore) GetStatus() (schema.StateStatus, error) {
	ctx := context.Background()
	status := schema.StateStatus{
		Backend:   string(schema.RedisState),
		Connected: rs.client.Ping(ctx).Err() == nil,
	}
	if !status.Connected {
		return status, nil
	}

	total, err := rs.client.ZCard(ctx, redisIndexKey).Result()
	if err != nil {
		return status, fmt.Errorf("failed to get total states: %w", err)
	}
	status.TotalStates = int(total)
	if total == 0 {
		return status, nil
	}

	newest, err := rs.client.ZRevRangeWithScores(ctx, redisIndexKey, 0, 0).Result()
	if err != nil {
		return status, fmt.Errorf("failed to get last saved state: %w", err)
	}
	oldest, err := rs.client.ZRangeWithScores(ctx, redisIndexKey, 0, 0).Result()
	if err != nil {
		return status, fmt.Errorf("failed to get oldest saved state: %w", err)
	}
	if len(newest) > 0 {
		status.LastSaved = time.UnixMilli(int64(newest[0].Score))
		status.LastLocation, _ = newest[0].Member.(string)
	}
	if len(oldest) > 0 {
		status.OldestSaved = time.UnixMilli(int64(oldest[0].Score))
	}

	names, err := rs.client.ZRange(ctx, redisIndexKey, 0, -1).Result()
	if err != nil {
		return status, fmt.Errorf("failed to list states: %w", err)
	}
	lengths := make([]*redis.IntCmd, len(names))
	_, err = rs.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, name := range names {
			lengths[i] = pipe.StrLen(ctx, redisStateKey(name))
		}
		return nil
	})
	if err != nil {
		return status, fmt.Errorf("failed to measure states: %w", err)
	}
	for _, cmd := range lengths {
		status.TotalBytes += cmd.Val()
	}
	return status, nil
}

// Clear deletes every saved state and the index.
func (rs *RedisStateStore) Clear(ctx context.Context) error {
	names, err := rs.client.ZRange(ctx, redisIndexKey, 0, -1).Result()
	if err != nil {
		return fmt.Errorf("failed to list states: %w", err)
	}
	keys := make([]string, 0, len(names)+1)
	for _, name := range names {
		keys = append(keys, redisStateKey(name))
	}
	keys = append(keys, redisIndexKey)
	if err := rs.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to delete states: %w", err)
	}
	return nil
}

// Close closes the client.
func (rs *RedisStateStore) Close() error {
	return rs.client.Close()
}
