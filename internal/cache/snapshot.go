// Package cache stores directory snapshots in Redis.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Snapshots is a JSON cache-aside store. Load reports a miss with ok=false
// and a nil error.
type Snapshots interface {
	Load(ctx context.Context, key string, dst any) (ok bool, err error)
	Save(ctx context.Context, key string, value any) error
	Invalidate(ctx context.Context, keys ...string) error
	InvalidateMatch(ctx context.Context, pattern string) error
}

type redisSnapshots struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisSnapshots stores snapshots in rdb for ttl. A zero ttl keeps them
// until invalidated.
func NewRedisSnapshots(rdb *redis.Client, ttl time.Duration) Snapshots {
	return &redisSnapshots{rdb: rdb, ttl: ttl}
}

func (s *redisSnapshots) Load(ctx context.Context, key string, dst any) (bool, error) {
	data, err := s.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("get %s: %w", key, err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, fmt.Errorf("unmarshal %s: %w", key, err)
	}
	return true, nil
}

func (s *redisSnapshots) Save(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	if err := s.rdb.Set(ctx, key, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

func (s *redisSnapshots) Invalidate(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return s.rdb.Del(ctx, keys...).Err()
}

func (s *redisSnapshots) InvalidateMatch(ctx context.Context, pattern string) error {
	var keys []string
	iter := s.rdb.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("scan %s: %w", pattern, err)
	}
	return s.Invalidate(ctx, keys...)
}

// Nop never holds anything. It is used when Redis is not configured.
type Nop struct{}

func (Nop) Load(context.Context, string, any) (bool, error) { return false, nil }
func (Nop) Save(context.Context, string, any) error         { return nil }
func (Nop) Invalidate(context.Context, ...string) error     { return nil }
func (Nop) InvalidateMatch(context.Context, string) error   { return nil }
