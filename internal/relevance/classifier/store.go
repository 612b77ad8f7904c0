// internal/relevance/classifier/store.go
package classifier

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/redis/go-redis/v9"
)

// VerdictStore memoizes verdicts by cache key. Implementations must be
// safe for concurrent use.
type VerdictStore interface {
	Get(ctx context.Context, key string) (Verdict, bool, error)
	Add(ctx context.Context, key string, v Verdict) error
	Len(ctx context.Context) int
}

// CacheKey combines the normalized question with the raw snippet text.
func CacheKey(question, snippets string) string {
	return strings.ToLower(strings.TrimSpace(question)) + "\x00" + snippets
}

// MemoryStore is a bounded in-process store. Lookups do not refresh an
// entry, so once full the oldest inserted verdict is evicted first.
type MemoryStore struct {
	cache *lru.Cache[string, Verdict]
}

func NewMemoryStore(capacity int) (*MemoryStore, error) {
	cache, err := lru.New[string, Verdict](capacity)
	if err != nil {
		return nil, fmt.Errorf("create verdict cache: %w", err)
	}
	return &MemoryStore{cache: cache}, nil
}

func (s *MemoryStore) Get(_ context.Context, key string) (Verdict, bool, error) {
	v, ok := s.cache.Peek(key)
	return v, ok, nil
}

func (s *MemoryStore) Add(_ context.Context, key string, v Verdict) error {
	s.cache.ContainsOrAdd(key, v)
	return nil
}

func (s *MemoryStore) Len(_ context.Context) int {
	return s.cache.Len()
}

// RedisStore shares verdicts across replicas. Keys are hashed so long
// snippet blocks do not become Redis keys.
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, prefix string, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, prefix: prefix, ttl: ttl}
}

func (s *RedisStore) key(key string) string {
	sum := sha256.Sum256([]byte(key))
	return s.prefix + hex.EncodeToString(sum[:])
}

func (s *RedisStore) Get(ctx context.Context, key string) (Verdict, bool, error) {
	raw, err := s.client.Get(ctx, s.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Verdict{}, false, nil
	}
	if err != nil {
		return Verdict{}, false, fmt.Errorf("redis get verdict: %w", err)
	}
	var v Verdict
	if err := json.Unmarshal(raw, &v); err != nil {
		return Verdict{}, false, fmt.Errorf("decode cached verdict: %w", err)
	}
	return v, true, nil
}

func (s *RedisStore) Add(ctx context.Context, key string, v Verdict) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode verdict: %w", err)
	}
	// SetNX keeps the first verdict, matching MemoryStore.
	if err := s.client.SetNX(ctx, s.key(key), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set verdict: %w", err)
	}
	return nil
}

func (s *RedisStore) Len(ctx context.Context) int {
	var count int
	iter := s.client.Scan(ctx, 0, s.prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		count++
	}
	return count
}
