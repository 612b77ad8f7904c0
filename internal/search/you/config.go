// internal/search/you/config.go
package you

import (
	"time"

	"market-mentor/internal/common/config"
)

type Config struct {
	BaseURL    string
	APIKey     string
	Timeout    time.Duration
	MaxResults int
}

func NewConfig(cfg config.YouSearchConfig, maxResults int) *Config {
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}
	return &Config{
		BaseURL:    cfg.BaseURL,
		APIKey:     cfg.APIKey,
		Timeout:    config.GetDuration(cfg.Timeout),
		MaxResults: maxResults,
	}
}
