package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	Port           string
	AllowedOrigins []string
	LogLevel       string

	// Request governor
	RateLimitMax    int           // admitted requests per client per window
	RateLimitWindow time.Duration // sliding window length
	QueueLimit      int           // max deferred requests per client
	QueueDrainDelay time.Duration // pause between draining queued requests

	// LLM gateway
	LLMBaseURL     string
	LLMAPIKey      string
	LLMModelSmall  string // simple lookups
	LLMModelLarge  string // multi-section summaries
	LLMMaxAttempts int
	LLMConcurrency int64 // max in-flight completion calls
	LLMTimeout     time.Duration

	// Context assembly
	TokenBudget      int // per-prompt soft budget (estimated tokens)
	HardTokenCeiling int // above this estimate, chunking kicks in

	// Chat response cache
	CacheTTL time.Duration

	// Live summary feed
	FeedInterval   time.Duration
	WSReadTimeout  time.Duration
	WSWriteTimeout time.Duration
	PingPeriod     time.Duration
	PongWait       time.Duration
	WriteWait      time.Duration
	MaxMessageSize int64
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	config := &Config{
		Port:           getEnv("PORT", "8080"),
		AllowedOrigins: strings.Split(getEnv("ALLOWED_ORIGINS", "http://localhost:5173"), ","),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LLMBaseURL:     getEnv("LLM_BASE_URL", "https://api.openai.com/v1"),
		LLMAPIKey:      getEnv("LLM_API_KEY", ""),
		LLMModelSmall:  getEnv("LLM_MODEL_SMALL", "gpt-4o-mini"),
		LLMModelLarge:  getEnv("LLM_MODEL_LARGE", "gpt-4o"),
	}

	rateLimitMax, err := getEnvInt("RATE_LIMIT_MAX", 15)
	if err != nil {
		return nil, err
	}
	config.RateLimitMax = rateLimitMax

	windowSecs, err := getEnvInt("RATE_LIMIT_WINDOW_SECONDS", 60)
	if err != nil {
		return nil, err
	}
	config.RateLimitWindow = time.Duration(windowSecs) * time.Second

	queueLimit, err := getEnvInt("QUEUE_LIMIT", 5)
	if err != nil {
		return nil, err
	}
	config.QueueLimit = queueLimit

	drainMillis, err := getEnvInt("QUEUE_DRAIN_DELAY_MS", 2000)
	if err != nil {
		return nil, err
	}
	config.QueueDrainDelay = time.Duration(drainMillis) * time.Millisecond

	maxAttempts, err := getEnvInt("LLM_MAX_ATTEMPTS", 3)
	if err != nil {
		return nil, err
	}
	config.LLMMaxAttempts = maxAttempts

	concurrency, err := getEnvInt("LLM_CONCURRENCY", 4)
	if err != nil {
		return nil, err
	}
	config.LLMConcurrency = int64(concurrency)

	llmTimeout, err := getEnvInt("LLM_TIMEOUT_SECONDS", 120)
	if err != nil {
		return nil, err
	}
	config.LLMTimeout = time.Duration(llmTimeout) * time.Second

	tokenBudget, err := getEnvInt("TOKEN_BUDGET", 6000)
	if err != nil {
		return nil, err
	}
	config.TokenBudget = tokenBudget

	hardCeiling, err := getEnvInt("HARD_TOKEN_CEILING", 8000)
	if err != nil {
		return nil, err
	}
	config.HardTokenCeiling = hardCeiling

	cacheSecs, err := getEnvInt("RESPONSE_CACHE_TTL_SECONDS", 60)
	if err != nil {
		return nil, err
	}
	config.CacheTTL = time.Duration(cacheSecs) * time.Second

	feedSecs, err := getEnvInt("FEED_INTERVAL_SECONDS", 15)
	if err != nil {
		return nil, err
	}
	config.FeedInterval = time.Duration(feedSecs) * time.Second

	// Parse WebSocket timeouts
	wsReadTimeout, err := getEnvInt("WS_READ_TIMEOUT", 60)
	if err != nil {
		return nil, err
	}
	config.WSReadTimeout = time.Duration(wsReadTimeout) * time.Second

	wsWriteTimeout, err := getEnvInt("WS_WRITE_TIMEOUT", 10)
	if err != nil {
		return nil, err
	}
	config.WSWriteTimeout = time.Duration(wsWriteTimeout) * time.Second

	// Calculate WebSocket constants
	config.PongWait = config.WSReadTimeout
	config.PingPeriod = (config.PongWait * 9) / 10 // Must be less than pongWait
	config.WriteWait = config.WSWriteTimeout
	config.MaxMessageSize = 512

	// Trim spaces from allowed origins
	for i, origin := range config.AllowedOrigins {
		config.AllowedOrigins[i] = strings.TrimSpace(origin)
	}

	return config, nil
}

// getEnv gets an environment variable with a fallback default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets an integer environment variable with a fallback default
func getEnvInt(key string, defaultValue int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return value, nil
}
