package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

var (
	ErrInvalidViewport    = errors.New("viewport width and height must be positive")
	ErrInvalidTimeout     = errors.New("browser timeouts must be positive")
	ErrInvalidParallelism = errors.New("MAX_PARALLEL_SESSIONS must be positive")
	ErrInvalidRateLimit   = errors.New("RATE_LIMIT_PER_MINUTE must be positive")
)

type Config struct {
	Database  DatabaseConfig
	Rubric    RubricConfig
	Browser   BrowserConfig
	Log       LogConfig
	RateLimit RateLimitConfig
	HTTP      HTTPConfig

	MaxParallelSessions int
}

type DatabaseConfig struct {
	// URL пустой - рубрики из каталога, журнал сдач не пишется
	URL string
}

type RubricConfig struct {
	File     string
	Watch    bool
	CacheTTL time.Duration
}

type BrowserConfig struct {
	ExecPath        string
	Headless        bool
	ViewportWidth   int
	ViewportHeight  int
	PageLoadTimeout time.Duration
	ScriptTimeout   time.Duration
	SessionTimeout  time.Duration
	SettleDelay     time.Duration
}

type LogConfig struct {
	Level string
	// Format - "json" или "console"; пустой выбирается по уровню
	Format string
}

type RateLimitConfig struct {
	RequestsPerMinute int
}

type HTTPConfig struct {
	Addr string
}

func Load() (*Config, error) {
	cfg := &Config{
		Database: DatabaseConfig{
			URL: os.Getenv("DATABASE_URL"),
		},
		Rubric: RubricConfig{
			File:     os.Getenv("RUBRIC_FILE"),
			Watch:    getEnvBoolOrDefault("RUBRIC_WATCH", false),
			CacheTTL: time.Duration(getEnvIntOrDefault("RUBRIC_CACHE_TTL_SEC", 300)) * time.Second,
		},
		Browser: BrowserConfig{
			ExecPath:        os.Getenv("CHROME_PATH"),
			Headless:        getEnvBoolOrDefault("BROWSER_HEADLESS", true),
			ViewportWidth:   getEnvIntOrDefault("VIEWPORT_WIDTH", 1400),
			ViewportHeight:  getEnvIntOrDefault("VIEWPORT_HEIGHT", 900),
			PageLoadTimeout: time.Duration(getEnvIntOrDefault("PAGE_LOAD_TIMEOUT_MS", 10000)) * time.Millisecond,
			ScriptTimeout:   time.Duration(getEnvIntOrDefault("SCRIPT_TIMEOUT_MS", 5000)) * time.Millisecond,
			SessionTimeout:  time.Duration(getEnvIntOrDefault("SESSION_TIMEOUT_SEC", 60)) * time.Second,
			SettleDelay:     time.Duration(getEnvIntOrDefault("SETTLE_DELAY_MS", 300)) * time.Millisecond,
		},
		Log: LogConfig{
			Level:  getEnvOrDefault("LOG_LEVEL", "info"),
			Format: os.Getenv("LOG_FORMAT"),
		},
		RateLimit: RateLimitConfig{
			RequestsPerMinute: getEnvIntOrDefault("RATE_LIMIT_PER_MINUTE", 20),
		},
		HTTP: HTTPConfig{
			Addr: getEnvOrDefault("HTTP_ADDR", ":8080"),
		},
		MaxParallelSessions: getEnvIntOrDefault("MAX_PARALLEL_SESSIONS", 4),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Browser.ViewportWidth <= 0 || c.Browser.ViewportHeight <= 0 {
		return ErrInvalidViewport
	}
	if c.Browser.PageLoadTimeout <= 0 || c.Browser.ScriptTimeout <= 0 || c.Browser.SessionTimeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.MaxParallelSessions <= 0 {
		return ErrInvalidParallelism
	}
	if c.RateLimit.RequestsPerMinute <= 0 {
		return ErrInvalidRateLimit
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return b
}
