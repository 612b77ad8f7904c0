// internal/search/google/config.go
package google

import (
	"time"

	"market-mentor/internal/common/config"
)

type Config struct {
	BaseURL    string
	APIKey     string
	EngineID   string
	Timeout    time.Duration
	MaxResults int
}

func NewConfig(cfg config.GoogleConfig, maxResults int) *Config {
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}
	return &Config{
		BaseURL:    cfg.BaseURL,
		APIKey:     cfg.APIKey,
		EngineID:   cfg.EngineID,
		Timeout:    config.GetDuration(cfg.Timeout),
		MaxResults: maxResults,
	}
}
