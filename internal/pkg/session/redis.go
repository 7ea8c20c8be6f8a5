package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisBackend stores the session under prefix in redis. Use a hash-tagged
// prefix such as "{lms-web}:session:" on a cluster so every key shares a slot
// and MULTI/EXEC stays valid.
type RedisBackend struct {
	client redis.UniversalClient
	prefix string
}

var _ Backend = (*RedisBackend)(nil)

func NewRedisBackend(client redis.UniversalClient, prefix string) *RedisBackend {
	return &RedisBackend{client: client, prefix: prefix}
}

func (r *RedisBackend) key(k string) string {
	return r.prefix + k
}

func (r *RedisBackend) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := r.client.Get(ctx, r.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}
	return data, nil
}

func (r *RedisBackend) Commit(ctx context.Context, puts map[string][]byte, deletes []string) error {
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for k, v := range puts {
			pipe.Set(ctx, r.key(k), v, 0)
		}
		if len(deletes) > 0 {
			keys := make([]string, len(deletes))
			for i, k := range deletes {
				keys[i] = r.key(k)
			}
			pipe.Del(ctx, keys...)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis commit: %w", err)
	}
	return nil
}

func (r *RedisBackend) Close() error {
	return r.client.Close()
}
