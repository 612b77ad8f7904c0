// internal/relevance/classifier/store_test.go
package classifier

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_EvictsOldestInserted(t *testing.T) {
	ctx := context.Background()
	store, err := NewMemoryStore(2)
	require.NoError(t, err)

	require.NoError(t, store.Add(ctx, "a", Verdict{Relevant: true}))
	require.NoError(t, store.Add(ctx, "b", Verdict{Relevant: false}))

	// Reading "a" must not protect it from eviction.
	_, ok, _ := store.Get(ctx, "a")
	require.True(t, ok)

	require.NoError(t, store.Add(ctx, "c", Verdict{Relevant: true}))

	_, ok, _ = store.Get(ctx, "a")
	assert.False(t, ok)
	_, ok, _ = store.Get(ctx, "b")
	assert.True(t, ok)
	_, ok, _ = store.Get(ctx, "c")
	assert.True(t, ok)
	assert.Equal(t, 2, store.Len(ctx))
}

func TestMemoryStore_KeepsFirstVerdict(t *testing.T) {
	ctx := context.Background()
	store, err := NewMemoryStore(10)
	require.NoError(t, err)

	require.NoError(t, store.Add(ctx, "k", Verdict{Relevant: true, Explanation: "first"}))
	require.NoError(t, store.Add(ctx, "k", Verdict{Relevant: false, Explanation: "second"}))

	v, ok, err := store.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "first", v.Explanation)
}

func TestNewMemoryStore_InvalidCapacity(t *testing.T) {
	_, err := NewMemoryStore(0)
	assert.Error(t, err)
}

func setupRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

func TestRedisStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	_, client := setupRedis(t)
	store := NewRedisStore(client, "relevance:", 0)

	_, ok, err := store.Get(ctx, CacheKey("What's your favorite movie?", "snippets"))
	require.NoError(t, err)
	assert.False(t, ok)

	key := CacheKey("What's your favorite movie?", "snippets")
	require.NoError(t, store.Add(ctx, key, Verdict{Relevant: false, Explanation: "entertainment", Stage: StageLLM}))

	v, ok, err := store.Get(ctx, key)
	require.NoError(t, err)
	require.True(t, ok)
	assert.False(t, v.Relevant)
	assert.Equal(t, "entertainment", v.Explanation)
	assert.Equal(t, StageLLM, v.Stage)
	assert.Equal(t, 1, store.Len(ctx))
}

func TestRedisStore_HashesKeysUnderPrefix(t *testing.T) {
	ctx := context.Background()
	mr, client := setupRedis(t)
	store := NewRedisStore(client, "relevance:", 0)

	require.NoError(t, store.Add(ctx, "a very long key\x00with snippets", Verdict{Relevant: true}))

	keys := mr.Keys()
	require.Len(t, keys, 1)
	assert.Len(t, keys[0], len("relevance:")+64)
	assert.Contains(t, keys[0], "relevance:")
}

func TestRedisStore_TTL(t *testing.T) {
	ctx := context.Background()
	mr, client := setupRedis(t)
	store := NewRedisStore(client, "relevance:", time.Minute)

	require.NoError(t, store.Add(ctx, "k", Verdict{Relevant: true}))
	mr.FastForward(2 * time.Minute)

	_, ok, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisStore_Unavailable(t *testing.T) {
	ctx := context.Background()
	mr, client := setupRedis(t)
	store := NewRedisStore(client, "relevance:", 0)
	mr.Close()

	_, ok, err := store.Get(ctx, "k")
	assert.Error(t, err)
	assert.False(t, ok)
	assert.Error(t, store.Add(ctx, "k", Verdict{}))
}
