// internal/relevance/classifier/config.go
package classifier

import (
	"time"

	"market-mentor/internal/common/config"
)

type Config struct {
	// SampleHits is how many specialized search results the LLM sees.
	SampleHits int
	Capacity   int
	RedisTTL   time.Duration
	RedisKey   string
}

func NewConfig(assistant config.AssistantConfig, cache config.CacheConfig) *Config {
	return &Config{
		SampleHits: assistant.ClassifierHits,
		Capacity:   cache.Capacity,
		RedisTTL:   time.Duration(cache.Redis.TTL) * time.Second,
		RedisKey:   cache.Redis.Prefix,
	}
}
