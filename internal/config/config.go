// Package config defines configuration parsing and helpers.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config holds all application configuration parsed from environment variables.
type Config struct {
	AppEnv string `env:"APP_ENV" envDefault:"dev"`
	Port   int    `env:"PORT" envDefault:"8080"`

	// Redis holds the whole-state interview snapshot under SnapshotKey.
	RedisAddr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`
	SnapshotKey   string `env:"SNAPSHOT_KEY" envDefault:"ai-interviewer:state"`

	// AI provider (OpenAI-compatible chat completions). When the key is
	// empty the engine runs fully offline on the local analyzer and bank.
	OpenRouterAPIKey  string `env:"OPENROUTER_API_KEY"`
	OpenRouterBaseURL string `env:"OPENROUTER_BASE_URL" envDefault:"https://openrouter.ai/api/v1"`
	OpenRouterModel   string `env:"OPENROUTER_MODEL" envDefault:"openai/gpt-3.5-turbo"`

	// Retry policy for provider calls: attempts with 2s, 4s, ... delays,
	// retried only on rate-limit/unavailable-style failures.
	ProviderMaxAttempts    int           `env:"PROVIDER_MAX_ATTEMPTS" envDefault:"3"`
	ProviderRetryBaseDelay time.Duration `env:"PROVIDER_RETRY_BASE_DELAY" envDefault:"2s"`

	// Courtesy delays before evaluation and summary calls when a provider
	// is configured (rate-limit friendliness, matching the web client).
	EvaluationDelay time.Duration `env:"EVALUATION_DELAY" envDefault:"1s"`
	SummaryDelay    time.Duration `env:"SUMMARY_DELAY" envDefault:"1500ms"`

	// QuestionBankFile optionally overrides the built-in fallback bank
	// with a YAML file of questions per difficulty.
	QuestionBankFile string `env:"QUESTION_BANK_FILE"`

	// TikaURL specifies the Apache Tika server used for resume text extraction.
	TikaURL string `env:"TIKA_URL" envDefault:"http://tika:9998"`

	MaxUploadMB           int64         `env:"MAX_UPLOAD_MB" envDefault:"10"`
	CORSAllowOrigins      string        `env:"CORS_ALLOW_ORIGINS" envDefault:"*"`
	RateLimitPerMin       int           `env:"RATE_LIMIT_PER_MIN" envDefault:"30"`
	ServerShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" envDefault:"30s"`
	HTTPReadTimeout       time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"15s"`
	HTTPWriteTimeout      time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"30s"`
	HTTPIdleTimeout       time.Duration `env:"HTTP_IDLE_TIMEOUT" envDefault:"60s"`

	OTLPEndpoint    string `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:""`
	OTELServiceName string `env:"OTEL_SERVICE_NAME" envDefault:"ai-interviewer"`
}

// Load parses environment variables into a Config.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("op=config.Load: %w", err)
	}
	return cfg, nil
}

// ProviderEnabled reports whether an external AI provider is configured.
func (c Config) ProviderEnabled() bool { return c.OpenRouterAPIKey != "" }

// IsDev reports whether the app is running in development mode.
func (c Config) IsDev() bool { return strings.ToLower(c.AppEnv) == "dev" }

// IsProd reports whether the app is running in production mode.
func (c Config) IsProd() bool { return strings.ToLower(c.AppEnv) == "prod" }

// IsTest reports whether the app is running in test mode.
func (c Config) IsTest() bool { return strings.ToLower(c.AppEnv) == "test" }

// GetProviderRetry returns the retry attempt count and base delay for the
// current environment. Test environments use millisecond delays so the
// retry path stays exercisable in unit tests.
func (c Config) GetProviderRetry() (attempts int, baseDelay time.Duration) {
	if c.IsTest() {
		return c.ProviderMaxAttempts, 10 * time.Millisecond
	}
	return c.ProviderMaxAttempts, c.ProviderRetryBaseDelay
}

// GetCourtesyDelays returns the pre-call delays for evaluation and summary
// requests, zeroed in test environments.
func (c Config) GetCourtesyDelays() (eval, summary time.Duration) {
	if c.IsTest() {
		return 0, 0
	}
	return c.EvaluationDelay, c.SummaryDelay
}
