package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"market-mentor/internal/common/config"
	"market-mentor/internal/common/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestConfig() *config.Config {
	profile := config.LLMConfig{
		BaseURL:   "http://127.0.0.1:1",
		APIKey:    "k",
		Model:     "m",
		MaxTokens: 10,
		Timeout:   1000,
	}
	cfg := &config.Config{}
	cfg.Assistant = config.AssistantConfig{
		Name:           "Market Mentor",
		Retailer:       "Walmart",
		AnchorPhrase:   "In the context of Walmart suppliers: ",
		ClassifierHits: 5,
		ContextHits:    15,
		GeneralHits:    10,
	}
	cfg.APIs.Generation = profile
	cfg.APIs.Classification = profile
	cfg.APIs.Rejection = profile
	cfg.APIs.YouSearch = config.YouSearchConfig{BaseURL: "http://127.0.0.1:1", APIKey: "y", Timeout: 1000}
	cfg.APIs.GoogleSearch = config.GoogleConfig{BaseURL: "http://127.0.0.1:1", APIKey: "g", EngineID: "cx", Timeout: 1000}
	cfg.Cache.Capacity = 10
	cfg.Cache.Redis.Prefix = "relevance:"
	return cfg
}

func TestBuild_InMemoryCache(t *testing.T) {
	a, err := Build(context.Background(), createTestConfig(), logger.NewTestLogger(t))
	require.NoError(t, err)
	defer a.Close()

	assert.NotNil(t, a.Pipeline)
	assert.Nil(t, a.Redis)
	assert.NoError(t, a.Ping(context.Background()))
	assert.True(t, a.Classifier.IsInDomain(context.Background(), "What is OTIF?"))
}

func TestBuild_RedisCache(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := createTestConfig()
	cfg.Cache.Redis.Enabled = true
	cfg.Database.Redis.Address = mr.Addr()

	a, err := Build(context.Background(), cfg, logger.NewTestLogger(t))
	require.NoError(t, err)
	defer a.Close()

	require.NotNil(t, a.Redis)
	assert.NoError(t, a.Ping(context.Background()))

	mr.Close()
	assert.Error(t, a.Ping(context.Background()))
}

func TestBuild_RedisUnreachable(t *testing.T) {
	cfg := createTestConfig()
	cfg.Cache.Redis.Enabled = true
	cfg.Database.Redis.Address = "127.0.0.1:1"

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	_, err := Build(ctx, cfg, logger.NewNoOpLogger())
	assert.Error(t, err)
}

func TestRetryWithBackoff(t *testing.T) {
	attempts := 0
	err := retryWithBackoff(context.Background(), func() error {
		attempts++
		if attempts < 3 {
			return errors.New("not yet")
		}
		return nil
	}, 5, time.Millisecond, logger.NewNoOpLogger(), "test op")

	assert.NoError(t, err)
	assert.Equal(t, 3, attempts)

	err = retryWithBackoff(context.Background(), func() error {
		return errors.New("down")
	}, 2, time.Millisecond, logger.NewNoOpLogger(), "test op")
	assert.EqualError(t, err, "test op failed after 2 attempts: down")
}
