package cache

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type listing struct {
	ID    uint   `json:"id"`
	Title string `json:"title"`
}

func TestLRUStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewLRUStore(4, time.Minute)

	ok, err := GetJSON(ctx, s, "featured", &[]listing{})
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, SetJSON(ctx, s, "featured", []listing{{ID: 1, Title: "Chiefs -3"}}))

	var got []listing
	ok, err = GetJSON(ctx, s, "featured", &got)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []listing{{ID: 1, Title: "Chiefs -3"}}, got)
}

func TestLRUStorePurge(t *testing.T) {
	ctx := context.Background()
	s := NewLRUStore(0, time.Minute)

	require.NoError(t, s.Set(ctx, "a", []byte("1")))
	require.NoError(t, s.Set(ctx, "b", []byte("2")))
	assert.Equal(t, 2, s.Len())

	require.NoError(t, s.Purge(ctx))
	_, ok, err := s.Get(ctx, "a")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLRUStoreExpires(t *testing.T) {
	ctx := context.Background()
	s := NewLRUStore(4, 20*time.Millisecond)
	require.NoError(t, s.Set(ctx, "a", []byte("1")))

	assert.Eventually(t, func() bool {
		_, ok, _ := s.Get(ctx, "a")
		return !ok
	}, time.Second, 10*time.Millisecond)
}

func TestGetJSONRejectsCorruptEntry(t *testing.T) {
	ctx := context.Background()
	s := NewLRUStore(4, time.Minute)
	require.NoError(t, s.Set(ctx, "featured", []byte("{not json")))

	_, err := GetJSON(ctx, s, "featured", &[]listing{})
	assert.Error(t, err)
}

func TestNewRedisStoreRejectsBadURL(t *testing.T) {
	_, err := NewRedisStore("not-a-url", time.Minute)
	assert.Error(t, err)
}

func newTestRedisStore(t *testing.T, ttl time.Duration) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	s, err := NewRedisStore("redis://"+mr.Addr(), ttl)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s, mr
}

func TestRedisStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s, mr := newTestRedisStore(t, time.Minute)
	require.NoError(t, s.Ping(ctx))

	ok, err := GetJSON(ctx, s, "featured", &[]listing{})
	require.NoError(t, err)
	assert.False(t, ok, "a missing key is a miss, not an error")

	require.NoError(t, SetJSON(ctx, s, "featured", []listing{{ID: 1, Title: "Chiefs -3"}}))
	assert.True(t, mr.Exists("picks:listing:featured"))
	assert.Equal(t, time.Minute, mr.TTL("picks:listing:featured"))

	var got []listing
	ok, err = GetJSON(ctx, s, "featured", &got)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []listing{{ID: 1, Title: "Chiefs -3"}}, got)
}

func TestRedisStoreExpires(t *testing.T) {
	ctx := context.Background()
	s, mr := newTestRedisStore(t, 30*time.Second)
	require.NoError(t, s.Set(ctx, "clutch:8", []byte("[]")))

	mr.FastForward(31 * time.Second)

	_, ok, err := s.Get(ctx, "clutch:8")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisStorePurgeLeavesOtherKeys(t *testing.T) {
	ctx := context.Background()
	s, mr := newTestRedisStore(t, time.Minute)

	for i := 0; i < 150; i++ {
		require.NoError(t, s.Set(ctx, fmt.Sprintf("clutch:%d", i), []byte("[]")))
	}
	require.NoError(t, s.Set(ctx, "featured", []byte("[]")))
	require.NoError(t, mr.Set("session:abc", "keep"))
	require.NoError(t, mr.Set("picks:other", "keep"))

	require.NoError(t, s.Purge(ctx))

	for _, key := range mr.Keys() {
		assert.False(t, strings.HasPrefix(key, keyPrefix), "listing key %s survived purge", key)
	}
	assert.ElementsMatch(t, []string{"picks:other", "session:abc"}, mr.Keys())

	require.NoError(t, s.Purge(ctx), "purging an empty cache is a no-op")
}

func TestRedisStoreReportsConnectionErrors(t *testing.T) {
	ctx := context.Background()
	s, mr := newTestRedisStore(t, time.Minute)
	mr.Close()

	_, _, err := s.Get(ctx, "featured")
	assert.Error(t, err)
	assert.Error(t, s.Set(ctx, "featured", []byte("[]")))
	assert.Error(t, s.Ping(ctx))
}
