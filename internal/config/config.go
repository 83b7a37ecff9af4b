package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	APIPort  string
	LogLevel string

	LLMAPIKey         string
	LLMBaseURL        string
	LLMModelID        string
	LLMTimeoutSeconds int

	LLMRetryMaxAttempts          int
	LLMBreakerEnabled            bool
	LLMBreakerMinRequests        int
	LLMBreakerFailureRatio       float64
	LLMBreakerOpenTimeoutSeconds int

	PostgresDSN string

	NATSURL     string
	NATSSubject string

	NATSPublishRetryMaxAttempts int
	NATSBreakerEnabled          bool

	StoragePath string
	MaxUploadMB int

	APIRateLimitRPS       float64
	APIRateLimitBurst     int
	APIMaxInFlight        int
	APIBackpressureWaitMS int
}

func Load() Config {
	return Config{
		APIPort:  mustEnv("API_PORT", "8080"),
		LogLevel: mustEnv("LOG_LEVEL", "info"),

		LLMAPIKey:         mustEnv("LOVABLE_API_KEY", ""),
		LLMBaseURL:        mustEnv("LLM_BASE_URL", "https://ai.gateway.lovable.dev/v1"),
		LLMModelID:        mustEnv("LLM_MODEL_ID", "google/gemini-2.5-flash"),
		LLMTimeoutSeconds: mustEnvInt("LLM_TIMEOUT_SECONDS", 30),

		LLMRetryMaxAttempts:          mustEnvInt("LLM_RETRY_MAX_ATTEMPTS", 1),
		LLMBreakerEnabled:            mustEnvBool("LLM_BREAKER_ENABLED", true),
		LLMBreakerMinRequests:        mustEnvInt("LLM_BREAKER_MIN_REQUESTS", 10),
		LLMBreakerFailureRatio:       mustEnvFloat("LLM_BREAKER_FAILURE_RATIO", 0.5),
		LLMBreakerOpenTimeoutSeconds: mustEnvInt("LLM_BREAKER_OPEN_TIMEOUT_SECONDS", 30),

		PostgresDSN: mustEnv("POSTGRES_DSN", ""),

		NATSURL:     mustEnv("NATS_URL", ""),
		NATSSubject: mustEnv("NATS_SUBJECT", "documents.created"),

		NATSPublishRetryMaxAttempts: mustEnvInt("NATS_PUBLISH_RETRY_MAX_ATTEMPTS", 3),
		NATSBreakerEnabled:          mustEnvBool("NATS_BREAKER_ENABLED", true),

		StoragePath: mustEnv("STORAGE_PATH", "./data/storage"),
		MaxUploadMB: mustEnvInt("MAX_UPLOAD_MB", 50),

		APIRateLimitRPS:       mustEnvFloat("API_RATE_LIMIT_RPS", 0),
		APIRateLimitBurst:     mustEnvInt("API_RATE_LIMIT_BURST", 0),
		APIMaxInFlight:        mustEnvInt("API_MAX_IN_FLIGHT", 0),
		APIBackpressureWaitMS: mustEnvInt("API_BACKPRESSURE_WAIT_MS", 50),
	}
}

func (c Config) LLMTimeout() time.Duration {
	return time.Duration(c.LLMTimeoutSeconds) * time.Second
}

func (c Config) LLMBreakerOpenTimeout() time.Duration {
	return time.Duration(c.LLMBreakerOpenTimeoutSeconds) * time.Second
}

func (c Config) APIBackpressureWait() time.Duration {
	return time.Duration(c.APIBackpressureWaitMS) * time.Millisecond
}

func (c Config) MaxUploadBytes() int64 {
	return int64(c.MaxUploadMB) << 20
}

func mustEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func mustEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func mustEnvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func mustEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return parsed
}
