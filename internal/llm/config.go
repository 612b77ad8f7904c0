// internal/llm/config.go
package llm

import (
	"time"

	"market-mentor/internal/common/config"
)

// Config is one chat-completions call profile.
type Config struct {
	Purpose           string
	BaseURL           string
	APIKey            string
	Model             string
	Temperature       float64
	TopP              float64
	RepetitionPenalty float64
	MaxTokens         int
	Timeout           time.Duration
	MaxRetries        int
	RequestsPerMinute int
	Referer           string
	Title             string
}

func NewConfig(purpose string, cfg config.LLMConfig) *Config {
	return &Config{
		Purpose:           purpose,
		BaseURL:           cfg.BaseURL,
		APIKey:            cfg.APIKey,
		Model:             cfg.Model,
		Temperature:       cfg.Temperature,
		TopP:              cfg.TopP,
		RepetitionPenalty: cfg.RepetitionPenalty,
		MaxTokens:         cfg.MaxTokens,
		Timeout:           config.GetDuration(cfg.Timeout),
		MaxRetries:        cfg.MaxRetries,
		RequestsPerMinute: cfg.RequestsPerMinute,
		Referer:           cfg.Referer,
		Title:             cfg.Title,
	}
}
