// Package config loads service configuration from environment variables.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration.
type Config struct {
	Port     string
	Env      string
	LogLevel string

	DatabaseURL string

	RedisAddr     string
	RedisPassword string
	RedisTLS      bool

	JWTSecret string

	CORSAllowedOrigins []string

	// Chat rate limiting, per caregiver. Zero disables it.
	ChatRateLimit      float64
	ChatRateLimitBurst int

	// Inference backend (OpenAI-compatible, e.g. a local LM Studio).
	LLMBaseURL         string
	LLMFallbackBaseURL string
	LLMAPIKey          string
	LLMModel           string
	LLMTemperature     float64
	LLMMaxTokens       int
	LLMContextLength   int
	LLMResponseBudget  int

	// OCR collaborator.
	OCRBaseURL  string
	OCRLanguage string
	OCRTimeout  time.Duration

	MaxConversationHistory int
	ExtractionConcurrency  int
	HistoryCacheTTL        time.Duration
}

// Load reads configuration from environment variables.
func Load() *Config {
	return &Config{
		Port:     getEnv("PORT", "8080"),
		Env:      getEnv("ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		DatabaseURL: getEnv("DATABASE_URL", ""),

		RedisAddr:     getEnv("REDIS_ADDR", "redis:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTLS:      getEnvAsBool("REDIS_TLS", false),

		JWTSecret: getEnv("JWT_SECRET", ""),

		CORSAllowedOrigins: splitAndTrim(getEnv("CORS_ALLOWED_ORIGINS", "")),

		ChatRateLimit:      getEnvAsFloat("CHAT_RATE_LIMIT", 1),
		ChatRateLimitBurst: getEnvAsInt("CHAT_RATE_LIMIT_BURST", 5),

		LLMBaseURL:         getEnv("LLM_BASE_URL", "http://localhost:1234"),
		LLMFallbackBaseURL: getEnv("LLM_FALLBACK_BASE_URL", ""),
		LLMAPIKey:          getEnv("LLM_API_KEY", "not-needed"),
		LLMModel:           getEnv("LLM_MODEL", "google-gemma-2-2b-it@q4_k_m"),
		LLMTemperature:     getEnvAsFloat("LLM_TEMPERATURE", 0.7),
		LLMMaxTokens:       getEnvAsInt("LLM_MAX_TOKENS", 500),
		LLMContextLength:   getEnvAsInt("LLM_CONTEXT_LENGTH", 4096),
		LLMResponseBudget:  getEnvAsInt("LLM_RESPONSE_BUDGET", 600),

		OCRBaseURL:  getEnv("OCR_BASE_URL", "http://localhost:7300"),
		OCRLanguage: getEnv("OCR_LANGUAGE", "spa"),
		OCRTimeout:  getEnvAsDuration("OCR_TIMEOUT", 90*time.Second),

		MaxConversationHistory: getEnvAsInt("MAX_CONVERSATION_HISTORY", 10),
		ExtractionConcurrency:  getEnvAsInt("EXTRACTION_CONCURRENCY", 3),
		HistoryCacheTTL:        getEnvAsDuration("HISTORY_CACHE_TTL", 24*time.Hour),
	}
}

// PromptBudget is the token budget available to the assembled prompt once
// the response reservation is subtracted from the context window.
func (c *Config) PromptBudget() int {
	return c.LLMContextLength - c.LLMResponseBudget
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}
