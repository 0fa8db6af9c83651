package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server  ServerConfig  `mapstructure:"server" validate:"required"`
	LLM     LLMConfig     `mapstructure:"llm" validate:"required"`
	Scoring ScoringConfig `mapstructure:"scoring" validate:"required"`
	Storage StorageConfig `mapstructure:"storage" validate:"required"`
	Task    TaskConfig    `mapstructure:"task" validate:"required"`
	Cache   CacheConfig   `mapstructure:"cache" validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port            int           `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel        string        `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gt=0"`
}

// LLMConfig contains the content generator settings.
type LLMConfig struct {
	GeminiAPIKey string `mapstructure:"gemini_api_key" validate:"required"`
	ModelName    string `mapstructure:"model_name" validate:"required"`

	// MaxRetries is the number of retries after the first attempt.
	MaxRetries        int           `mapstructure:"max_retries" validate:"gte=0,lte=10"`
	RetryDelaySeconds int           `mapstructure:"retry_delay_seconds" validate:"gte=1,lte=60"`
	RequestTimeout    time.Duration `mapstructure:"request_timeout" validate:"gt=0"`

	Temperature         float32 `mapstructure:"temperature" validate:"gte=0,lte=2"`
	TopP                float32 `mapstructure:"top_p" validate:"gt=0,lte=1"`
	MaxOutputTokens     int32   `mapstructure:"max_output_tokens" validate:"gt=0"`
	GoalMaxOutputTokens int32   `mapstructure:"goal_max_output_tokens" validate:"gt=0"`
}

// ScoringConfig locates the scoring table and the answers that double as
// student achievements.
type ScoringConfig struct {
	TablePath            string   `mapstructure:"table_path" validate:"required"`
	AchievementQuestions []string `mapstructure:"achievement_questions" validate:"dive,required"`
}

// StorageConfig controls where and how rendered reports are written.
type StorageConfig struct {
	ReportsDir string `mapstructure:"reports_dir" validate:"required"`
	Format     string `mapstructure:"format" validate:"required,oneof=pdf html"`
	// ChromeURL points at an already running browser's devtools endpoint.
	// When empty a local headless browser is launched.
	ChromeURL string `mapstructure:"chrome_url" validate:"omitempty,url"`
}

// TaskConfig sizes the background report pipeline.
type TaskConfig struct {
	WorkerCount int           `mapstructure:"worker_count" validate:"gt=0,lte=64"`
	QueueSize   int           `mapstructure:"queue_size" validate:"gt=0"`
	TopicDelay  time.Duration `mapstructure:"topic_delay" validate:"gte=0"`
}

// CacheConfig bounds the prompt cache. RedisURL enables the shared tier.
type CacheConfig struct {
	Size     int           `mapstructure:"size" validate:"gt=0"`
	RedisURL string        `mapstructure:"redis_url" validate:"omitempty,url"`
	TTL      time.Duration `mapstructure:"ttl" validate:"gt=0"`
}
