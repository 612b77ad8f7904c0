// internal/common/config/config.go
package config

// Config is the main application configuration struct.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Server    ServerConfig    `mapstructure:"server"`
	Assistant AssistantConfig `mapstructure:"assistant"`
	APIs      APIsConfig      `mapstructure:"apis"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Legal     LegalConfig     `mapstructure:"legal"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type ServerConfig struct {
	Address         string `mapstructure:"address"`
	PublicDir       string `mapstructure:"public_dir"`
	ReadTimeout     int    `mapstructure:"read_timeout"`     // milliseconds
	WriteTimeout    int    `mapstructure:"write_timeout"`    // milliseconds
	ShutdownTimeout int    `mapstructure:"shutdown_timeout"` // milliseconds
}

// AssistantConfig holds the persona and pipeline knobs.
type AssistantConfig struct {
	Name             string `mapstructure:"name"`
	Retailer         string `mapstructure:"retailer"`
	AnchorPhrase     string `mapstructure:"anchor_phrase"`
	ClassifierHits   int    `mapstructure:"classifier_hits"`
	ContextHits      int    `mapstructure:"context_hits"`
	GeneralHits      int    `mapstructure:"general_hits"`
	ParallelSearches bool   `mapstructure:"parallel_searches"`
}

// APIsConfig holds settings for external API integrations.
type APIsConfig struct {
	Generation     LLMConfig       `mapstructure:"generation"`
	Classification LLMConfig       `mapstructure:"classification"`
	Rejection      LLMConfig       `mapstructure:"rejection"`
	GoogleSearch   GoogleConfig    `mapstructure:"google_search"`
	YouSearch      YouSearchConfig `mapstructure:"you_search"`
}

// LLMConfig describes one chat-completions call profile.
type LLMConfig struct {
	BaseURL           string  `mapstructure:"base_url"`
	APIKey            string  `mapstructure:"api_key"`
	Model             string  `mapstructure:"model"`
	Temperature       float64 `mapstructure:"temperature"`
	TopP              float64 `mapstructure:"top_p"`
	RepetitionPenalty float64 `mapstructure:"repetition_penalty"` // 0 = not sent
	MaxTokens         int     `mapstructure:"max_tokens"`
	Timeout           int     `mapstructure:"timeout"` // milliseconds
	MaxRetries        int     `mapstructure:"max_retries"`
	RequestsPerMinute int     `mapstructure:"requests_per_minute"`
	Referer           string  `mapstructure:"referer"`
	Title             string  `mapstructure:"title"`
}

type GoogleConfig struct {
	BaseURL  string `mapstructure:"base_url"`
	APIKey   string `mapstructure:"api_key"`
	EngineID string `mapstructure:"engine_id"`
	Timeout  int    `mapstructure:"timeout"` // milliseconds
}

type YouSearchConfig struct {
	BaseURL string `mapstructure:"base_url"`
	APIKey  string `mapstructure:"api_key"`
	Timeout int    `mapstructure:"timeout"` // milliseconds
}

// CacheConfig sizes the relevance verdict cache.
type CacheConfig struct {
	Capacity int `mapstructure:"capacity"`
	Redis    struct {
		Enabled bool   `mapstructure:"enabled"`
		Prefix  string `mapstructure:"prefix"`
		TTL     int    `mapstructure:"ttl"` // seconds, 0 = no expiry
	} `mapstructure:"redis"`
}

type DatabaseConfig struct {
	Redis RedisConfig `mapstructure:"redis"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// LegalConfig points at the plain-text legal documents.
type LegalConfig struct {
	TermsPath   string `mapstructure:"terms_path"`
	PrivacyPath string `mapstructure:"privacy_path"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}
