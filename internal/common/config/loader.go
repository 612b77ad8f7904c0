// internal/common/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const openRouterBaseURL = "https://openrouter.ai/api/v1"

// Load reads .env, configs/config.yaml and config.<env>.yaml, then the
// environment. Missing credentials fail the load.
func Load() (*Config, error) {
	loadEnvFile()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../../configs")
	v.AddConfigPath(".")

	setDefaults(v)
	bindEnv(v)

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	v.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = v.MergeInConfig() // optional

	return finish(v)
}

// LoadFromFile loads configuration from a specific file path
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	v := viper.New()
	setDefaults(v)
	bindEnv(v)

	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	return finish(v)
}

func finish(v *viper.Viper) (*Config, error) {
	expandEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	overrideEmptyConfig(&cfg)
	applyDefaults(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func bindEnv(v *viper.Viper) {
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
}

// loadEnvFile loads the first .env found walking up to the project root.
func loadEnvFile() {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env",
	}
	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

// Find project root by looking for go.mod
func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return ""
}

func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		strVal, ok := v.Get(key).(string)
		if !ok {
			continue
		}
		if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
			expanded := os.ExpandEnv(strVal)
			if expanded != strVal {
				v.Set(key, expanded)
			}
		}
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "market-mentor")
	v.SetDefault("app.version", "dev")
	v.SetDefault("app.environment", "development")

	v.SetDefault("server.address", ":5000")
	v.SetDefault("server.public_dir", "public")
	v.SetDefault("server.read_timeout", 15000)
	v.SetDefault("server.write_timeout", 120000)
	v.SetDefault("server.shutdown_timeout", 30000)

	v.SetDefault("assistant.name", "Market Mentor")
	v.SetDefault("assistant.retailer", "Walmart")
	v.SetDefault("assistant.anchor_phrase", "In the context of Walmart suppliers: ")
	v.SetDefault("assistant.classifier_hits", 5)
	v.SetDefault("assistant.context_hits", 15)
	v.SetDefault("assistant.general_hits", 10)
	v.SetDefault("assistant.parallel_searches", true)

	llmDefaults := func(prefix, model string, temperature, topP, repetitionPenalty float64, maxTokens, timeout int) {
		v.SetDefault(prefix+".base_url", openRouterBaseURL)
		v.SetDefault(prefix+".api_key", "")
		v.SetDefault(prefix+".model", model)
		v.SetDefault(prefix+".temperature", temperature)
		v.SetDefault(prefix+".top_p", topP)
		v.SetDefault(prefix+".repetition_penalty", repetitionPenalty)
		v.SetDefault(prefix+".max_tokens", maxTokens)
		v.SetDefault(prefix+".timeout", timeout)
		v.SetDefault(prefix+".max_retries", 0)
		v.SetDefault(prefix+".requests_per_minute", 0)
		v.SetDefault(prefix+".referer", "https://marketmentor.com")
		v.SetDefault(prefix+".title", "Market Mentor")
	}
	llmDefaults("apis.generation", "anthropic/claude-3.5-sonnet", 0.7, 1, 1.0, 30000, 60000)
	llmDefaults("apis.classification", "openai/gpt-4o", 0.1, 1, 0, 50, 15000)
	llmDefaults("apis.rejection", "anthropic/claude-3.5-sonnet", 0.7, 0.9, 0, 150, 15000)

	v.SetDefault("apis.google_search.base_url", "https://www.googleapis.com/customsearch/v1")
	v.SetDefault("apis.google_search.api_key", "")
	v.SetDefault("apis.google_search.engine_id", "")
	v.SetDefault("apis.google_search.timeout", 10000)

	v.SetDefault("apis.you_search.base_url", "https://api.ydc-index.io/search")
	v.SetDefault("apis.you_search.api_key", "")
	v.SetDefault("apis.you_search.timeout", 10000)

	v.SetDefault("cache.capacity", 1000)
	v.SetDefault("cache.redis.enabled", false)
	v.SetDefault("cache.redis.prefix", "relevance:")
	v.SetDefault("cache.redis.ttl", 0)

	v.SetDefault("database.redis.address", "localhost:6379")
	v.SetDefault("database.redis.password", "")
	v.SetDefault("database.redis.db", 0)

	v.SetDefault("legal.terms_path", "mentor_tos.txt")
	v.SetDefault("legal.privacy_path", "mentor_privacy.txt")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// overrideEmptyConfig fills credentials from the deployment's legacy
// variable names when the structured keys are still empty.
func overrideEmptyConfig(cfg *Config) {
	fill := func(dst *string, envName string) {
		if *dst != "" {
			return
		}
		if val := os.Getenv(envName); val != "" {
			*dst = val
		}
	}

	fill(&cfg.APIs.Generation.APIKey, "OPENROUTER_API_KEY")
	fill(&cfg.APIs.Rejection.APIKey, "OPENROUTER_API_KEY")
	fill(&cfg.APIs.Classification.APIKey, "OPENROUTER_DIF_API_KEY")
	fill(&cfg.APIs.GoogleSearch.APIKey, "GOOGLE_API_KEY")
	fill(&cfg.APIs.GoogleSearch.EngineID, "CUSTOM_SEARCH_ENGINE_ID")
	fill(&cfg.APIs.YouSearch.APIKey, "YDC_API_KEY")
	fill(&cfg.Database.Redis.Password, "REDIS_PASSWORD")
}

// applyDefaults covers values that depend on other fields.
func applyDefaults(cfg *Config) {
	if cfg.APIs.Rejection.APIKey == "" {
		cfg.APIs.Rejection.APIKey = cfg.APIs.Generation.APIKey
	}
	if cfg.Cache.Capacity <= 0 {
		cfg.Cache.Capacity = 1000
	}
	if cfg.Assistant.ClassifierHits <= 0 {
		cfg.Assistant.ClassifierHits = 5
	}
}

// validateConfig validates critical configuration fields
func validateConfig(cfg *Config) error {
	required := []struct {
		name  string
		value string
	}{
		{"apis.generation.api_key (OPENROUTER_API_KEY)", cfg.APIs.Generation.APIKey},
		{"apis.classification.api_key (OPENROUTER_DIF_API_KEY)", cfg.APIs.Classification.APIKey},
		{"apis.google_search.api_key (GOOGLE_API_KEY)", cfg.APIs.GoogleSearch.APIKey},
		{"apis.google_search.engine_id (CUSTOM_SEARCH_ENGINE_ID)", cfg.APIs.GoogleSearch.EngineID},
		{"apis.you_search.api_key (YDC_API_KEY)", cfg.APIs.YouSearch.APIKey},
	}

	var missing []string
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			missing = append(missing, r.name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required API keys: %s", strings.Join(missing, ", "))
	}

	if cfg.Cache.Redis.Enabled && cfg.Database.Redis.Address == "" {
		return fmt.Errorf("database.redis.address is required when cache.redis.enabled is set")
	}
	return nil
}

// GetDuration converts milliseconds from config to time.Duration
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}
