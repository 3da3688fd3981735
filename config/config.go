// Package config loads the coordinatord process configuration from the
// environment and validates it before the server accepts any traffic, the
// way the teacher's registry command loads REGISTRY_* env vars in
// registry/cmd/registry/main.go.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/Pharbi/arachnid/types"
)

// Config is the coordinatord process configuration. Struct tags drive
// validator/v10 field-level checks; a failed check is reported with the
// offending field name rather than a generic message.
type Config struct {
	// DatabaseURL is the Postgres connection string for storage.Store.
	DatabaseURL string `validate:"required"`

	// RedisURL backs the validation package's per-web budget tracker.
	// Optional: when empty, validation runs without a distributed budget.
	RedisURL      string
	RedisPassword string

	// AnthropicAPIKey and OpenAIAPIKey select which LLM/embedding
	// providers construct successfully; at least one completion provider
	// and one embedding provider must be configured.
	AnthropicAPIKey string
	OpenAIAPIKey    string
	BraveAPIKey     string

	// BedrockModelID selects the AWS Bedrock completion provider instead
	// of Anthropic's direct API when set. AWS credentials are resolved
	// from the environment the way every aws-sdk-go-v2 service client
	// does (shared config/credentials files, env vars, or an attached
	// role).
	BedrockModelID string

	// LLMRateLimitTPM and LLMRateLimitMaxTPM bound the completion
	// provider's adaptive tokens-per-minute budget. A zero LLMRateLimitTPM
	// leaves the completion provider without a limiter; a LLMRateLimitMaxTPM
	// of zero or below LLMRateLimitTPM caps the budget at LLMRateLimitTPM.
	LLMRateLimitTPM    int
	LLMRateLimitMaxTPM int

	// ListenAddr is the httpapi bind address.
	ListenAddr string `validate:"required"`

	// MetricsAddr is reported by `config show`; no listener is opened on
	// it. Prometheus metrics are served at /metrics on the API server.
	MetricsAddr string

	// PollInterval is the coordination loop's per-iteration sleep (spec
	// §4.11 names ~10ms; configurable for tests and tuning).
	PollInterval time.Duration `validate:"gt=0"`

	// MaxIterations bounds a single web's coordination loop (spec §4.10).
	MaxIterations int `validate:"gt=0"`

	// DefaultWeb seeds types.WebConfig for webs created without explicit
	// overrides.
	DefaultWeb types.WebConfig `validate:"required"`

	// LogFormat selects Clue's text or JSON log encoding.
	LogFormat string `validate:"oneof=text json"`

	// LogDebug enables debug-level logging.
	LogDebug bool
}

// MaxIterationsDefault mirrors spec §4.10's MAX_ITERATIONS constant.
const MaxIterationsDefault = 100

// Load builds a Config from environment variables, applying defaults for
// anything unset, then validates it. A returned error names the specific
// field that failed.
func Load() (Config, error) {
	cfg := Config{
		DatabaseURL:     os.Getenv("ARACHNID_DATABASE_URL"),
		RedisURL:        os.Getenv("ARACHNID_REDIS_URL"),
		RedisPassword:   os.Getenv("ARACHNID_REDIS_PASSWORD"),
		AnthropicAPIKey: os.Getenv("ANTHROPIC_API_KEY"),
		OpenAIAPIKey:    os.Getenv("OPENAI_API_KEY"),
		BraveAPIKey:     os.Getenv("BRAVE_API_KEY"),
		BedrockModelID:  os.Getenv("ARACHNID_BEDROCK_MODEL_ID"),

		LLMRateLimitTPM:    envIntOr("ARACHNID_LLM_RATE_LIMIT_TPM", 0),
		LLMRateLimitMaxTPM: envIntOr("ARACHNID_LLM_RATE_LIMIT_MAX_TPM", 0),
		ListenAddr:         envOr("ARACHNID_LISTEN_ADDR", ":8080"),
		MetricsAddr:        envOr("ARACHNID_METRICS_ADDR", ":9090"),
		PollInterval:       envDurationOr("ARACHNID_POLL_INTERVAL", 10*time.Millisecond),
		MaxIterations:      envIntOr("ARACHNID_MAX_ITERATIONS", MaxIterationsDefault),
		DefaultWeb:         types.DefaultWebConfig(),
		LogFormat:          envOr("ARACHNID_LOG_FORMAT", "text"),
		LogDebug:           envBoolOr("ARACHNID_LOG_DEBUG", false),
	}

	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	if cfg.AnthropicAPIKey == "" && cfg.BedrockModelID == "" {
		return Config{}, fmt.Errorf("config: at least one of ANTHROPIC_API_KEY or ARACHNID_BEDROCK_MODEL_ID must be set")
	}
	return cfg, nil
}

// Validate runs struct-tag validation over cfg, wrapping the first failure
// with the offending field's namespace.
func Validate(cfg Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("config: field %q failed %q validation", fe.Namespace(), fe.Tag())
		}
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

func envOr(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envIntOr(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func envBoolOr(key string, defaultVal bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return defaultVal
}

func envDurationOr(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}
