package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the QualityLens server.
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	AI        AIConfig
	Analysis  AnalysisConfig
	RateLimit int
}

type ServerConfig struct {
	Port     int
	Env      string
	LogLevel slog.Level
}

type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type RedisConfig struct {
	URL string
}

// AIConfig configures the external reasoning service.
type AIConfig struct {
	Provider       string
	IntentTimeout  time.Duration
	TopicTimeout   time.Duration
	InsightTimeout time.Duration
	CacheTTL       time.Duration
	Gemini         GeminiConfig
	Ollama         OllamaConfig
}

type GeminiConfig struct {
	APIKey string
	Model  string
}

type OllamaConfig struct {
	BaseURL string
	Model   string
}

// AnalysisConfig tunes the composite analysis engine.
type AnalysisConfig struct {
	MemoryCapacity  int
	TopicSampleSize int
	TopicMinRows    int
	MaxSessions     int
	IntentModelPath string
}

var validProviders = map[string]bool{
	"gemini": true,
	"ollama": true,
	"none":   true,
}

// Load reads configuration from environment variables and returns a validated Config.
// Returns an error with a descriptive message if any required value is missing or invalid.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:     envInt("QL_PORT", 8080),
			Env:      envString("QL_ENV", "development"),
			LogLevel: envLevel("QL_LOG_LEVEL", slog.LevelInfo),
		},
		Database: DatabaseConfig{
			URL:             os.Getenv("DATABASE_URL"),
			MaxOpenConns:    envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    envInt("DATABASE_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: envDuration("DATABASE_CONN_MAX_LIFETIME", 5*time.Minute),
		},
		Redis: RedisConfig{
			URL: os.Getenv("REDIS_URL"),
		},
		AI: AIConfig{
			Provider:       os.Getenv("AI_PROVIDER"),
			IntentTimeout:  envDurationSecs("AI_INTENT_TIMEOUT_SECS", 5*time.Second),
			TopicTimeout:   envDurationSecs("AI_TOPIC_TIMEOUT_SECS", 25*time.Second),
			InsightTimeout: envDurationSecs("AI_INSIGHT_TIMEOUT_SECS", 40*time.Second),
			CacheTTL:       envDuration("AI_CACHE_TTL", time.Hour),
			Gemini: GeminiConfig{
				APIKey: os.Getenv("GEMINI_API_KEY"),
				Model:  envString("GEMINI_MODEL", "gemini-2.5-flash"),
			},
			Ollama: OllamaConfig{
				BaseURL: envString("OLLAMA_BASE_URL", "http://localhost:11434"),
				Model:   envString("OLLAMA_MODEL", "llama3"),
			},
		},
		Analysis: AnalysisConfig{
			MemoryCapacity:  envInt("ANALYSIS_MEMORY_CAPACITY", 5),
			TopicSampleSize: envInt("ANALYSIS_TOPIC_SAMPLE", 100),
			TopicMinRows:    envInt("ANALYSIS_TOPIC_MIN_ROWS", 30),
			MaxSessions:     envInt("ANALYSIS_MAX_SESSIONS", 1000),
			IntentModelPath: os.Getenv("INTENT_MODEL_PATH"),
		},
		RateLimit: envInt("RATE_LIMIT_PER_MIN", 60),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.Redis.URL == "" {
		return fmt.Errorf("REDIS_URL is required")
	}

	if c.AI.Provider == "" {
		return fmt.Errorf("AI_PROVIDER is required")
	}
	if !validProviders[c.AI.Provider] {
		return fmt.Errorf("AI_PROVIDER must be one of gemini, ollama, none; got %q", c.AI.Provider)
	}
	if c.AI.Provider == "gemini" && c.AI.Gemini.APIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY is required when AI_PROVIDER is gemini")
	}
	if c.AI.Provider == "ollama" &&
		!strings.HasPrefix(c.AI.Ollama.BaseURL, "http://") && !strings.HasPrefix(c.AI.Ollama.BaseURL, "https://") {
		return fmt.Errorf("OLLAMA_BASE_URL must start with http:// or https://, got %q", c.AI.Ollama.BaseURL)
	}

	if c.Analysis.MemoryCapacity <= 0 {
		return fmt.Errorf("ANALYSIS_MEMORY_CAPACITY must be positive, got %d", c.Analysis.MemoryCapacity)
	}
	if c.Analysis.TopicSampleSize <= 0 {
		return fmt.Errorf("ANALYSIS_TOPIC_SAMPLE must be positive, got %d", c.Analysis.TopicSampleSize)
	}
	if c.Analysis.MaxSessions <= 0 {
		return fmt.Errorf("ANALYSIS_MAX_SESSIONS must be positive, got %d", c.Analysis.MaxSessions)
	}

	return nil
}

func envString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func envDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}

func envDurationSecs(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	secs, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return time.Duration(secs) * time.Second
}

func envLevel(key string, defaultVal slog.Level) slog.Level {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(v)); err != nil {
		return defaultVal
	}
	return lvl
}
