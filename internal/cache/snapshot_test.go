package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type entry struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

func TestNopNeverHolds(t *testing.T) {
	ctx := context.Background()
	var s Snapshots = Nop{}
	require.NoError(t, s.Save(ctx, "directory:courses", []entry{{ID: 1}}))

	var got []entry
	ok, err := s.Load(ctx, "directory:courses", &got)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, got)
	assert.NoError(t, s.Invalidate(ctx, "directory:courses"))
	assert.NoError(t, s.InvalidateMatch(ctx, "directory:*"))
}

func TestRedisSnapshotsUnreachable(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 200 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = rdb.Close() })
	s := NewRedisSnapshots(rdb, time.Minute)
	ctx := context.Background()

	var got []entry
	ok, err := s.Load(ctx, "directory:courses", &got)
	assert.Error(t, err)
	assert.False(t, ok)
	assert.Error(t, s.Save(ctx, "directory:courses", []entry{{ID: 1}}))
	assert.Error(t, s.InvalidateMatch(ctx, "directory:*"))
	assert.NoError(t, s.Invalidate(ctx))
}

// liveRedis connects to REDIS_URL and skips the test when it is unset.
func liveRedis(t *testing.T) *redis.Client {
	t.Helper()
	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("REDIS_URL not set")
	}
	opts, err := redis.ParseURL(url)
	require.NoError(t, err)
	rdb := redis.NewClient(opts)
	t.Cleanup(func() { _ = rdb.Close() })
	require.NoError(t, rdb.Ping(context.Background()).Err())
	return rdb
}

func TestRedisSnapshotsRoundTrip(t *testing.T) {
	rdb := liveRedis(t)
	s := NewRedisSnapshots(rdb, time.Minute)
	ctx := context.Background()
	prefix := "test:" + uuid.NewString() + ":"

	var got []entry
	ok, err := s.Load(ctx, prefix+"courses", &got)
	require.NoError(t, err)
	assert.False(t, ok)

	want := []entry{{ID: 1, Name: "CS101"}, {ID: 2, Name: "CS102"}}
	require.NoError(t, s.Save(ctx, prefix+"courses", want))
	ok, err = s.Load(ctx, prefix+"courses", &got)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, want, got)

	ttl, err := rdb.TTL(ctx, prefix+"courses").Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))

	require.NoError(t, s.Invalidate(ctx, prefix+"courses"))
	ok, err = s.Load(ctx, prefix+"courses", &got)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisSnapshotsInvalidateMatch(t *testing.T) {
	rdb := liveRedis(t)
	s := NewRedisSnapshots(rdb, 0)
	ctx := context.Background()
	prefix := "test:" + uuid.NewString() + ":"

	for _, key := range []string{"sections", "sections:3", "courses"} {
		require.NoError(t, s.Save(ctx, prefix+key, []entry{{ID: 3}}))
	}
	require.NoError(t, s.InvalidateMatch(ctx, prefix+"sections*"))

	var got []entry
	for _, key := range []string{"sections", "sections:3"} {
		ok, err := s.Load(ctx, prefix+key, &got)
		require.NoError(t, err)
		assert.False(t, ok, key)
	}
	ok, err := s.Load(ctx, prefix+"courses", &got)
	require.NoError(t, err)
	assert.True(t, ok)
	require.NoError(t, s.Invalidate(ctx, prefix+"courses"))

	// A stored value that no longer decodes is reported, not hidden.
	require.NoError(t, rdb.Set(ctx, prefix+"broken", "{", 0).Err())
	t.Cleanup(func() { rdb.Del(context.Background(), prefix+"broken") })
	_, err = s.Load(ctx, prefix+"broken", &got)
	assert.Error(t, err)
}
