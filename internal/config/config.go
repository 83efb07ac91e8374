package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Provider names accepted by LLM_PROVIDER.
const (
	ProviderNone      = "none"
	ProviderAnthropic = "anthropic"
	ProviderGroq      = "groq"
	ProviderGemini    = "gemini"
)

// Save backends accepted by SAVE_BACKEND.
const (
	BackendFile     = "file"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

type Config struct {
	Port        string
	Environment string
	LogLevel    slog.Level

	// Narrative provider
	LLMProvider     string
	AnthropicAPIKey string
	GroqAPIKey      string
	GroqBaseURL     string
	GeminiAPIKey    string
	ModelName       string
	ContentRating   string

	NarrativeTimeout   time.Duration
	NarrativeCacheSize int

	// Saves
	SaveBackend string
	SaveDir     string
	RedisURL    string
	DatabaseURL string

	// Game data
	RulesDir     string
	WorldFile    string
	NPCDiscovery bool

	// Sessions idle longer than this are dropped by the API server.
	SessionIdleTimeout time.Duration

	// Console
	APIBaseURL string
}

// Load reads configuration from the environment. A .env file in the working
// directory is applied first when present.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENVIRONMENT", "development"),
		LogLevel:    parseLogLevel(getEnv("LOG_LEVEL", "info")),

		LLMProvider:     strings.ToLower(getEnv("LLM_PROVIDER", ProviderNone)),
		AnthropicAPIKey: getEnv("ANTHROPIC_API_KEY", ""),
		GroqAPIKey:      getEnv("GROQ_API_KEY", ""),
		GroqBaseURL:     getEnv("GROQ_BASE_URL", "https://api.groq.com/openai/v1"),
		GeminiAPIKey:    getEnv("GEMINI_API_KEY", ""),
		ModelName:       getEnv("MODEL_NAME", ""),
		ContentRating:   getEnv("CONTENT_RATING", "PG13"),

		NarrativeTimeout:   getEnvDuration("NARRATIVE_TIMEOUT", 20*time.Second),
		NarrativeCacheSize: getEnvInt("NARRATIVE_CACHE_SIZE", 128),

		SaveBackend: strings.ToLower(getEnv("SAVE_BACKEND", BackendFile)),
		SaveDir:     getEnv("SAVE_DIR", "saves"),
		RedisURL:    getEnv("REDIS_URL", ""),
		DatabaseURL: getEnv("DATABASE_URL", ""),

		RulesDir:     getEnv("RULES_DIR", "rules"),
		WorldFile:    getEnv("WORLD_FILE", ""),
		NPCDiscovery: getEnvBool("NPC_DISCOVERY", true),

		SessionIdleTimeout: getEnvDuration("SESSION_IDLE_TIMEOUT", 2*time.Hour),

		APIBaseURL: getEnv("API_BASE_URL", "http://localhost:8080"),
	}
}

// Validate reports every setting that cannot work together.
func (c *Config) Validate() error {
	var errs []error
	switch c.LLMProvider {
	case ProviderNone:
	case ProviderAnthropic:
		if c.AnthropicAPIKey == "" {
			errs = append(errs, errors.New("ANTHROPIC_API_KEY is required for the anthropic provider"))
		}
	case ProviderGroq:
		if c.GroqAPIKey == "" {
			errs = append(errs, errors.New("GROQ_API_KEY is required for the groq provider"))
		}
	case ProviderGemini:
		if c.GeminiAPIKey == "" {
			errs = append(errs, errors.New("GEMINI_API_KEY is required for the gemini provider"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown LLM_PROVIDER %q", c.LLMProvider))
	}

	switch c.SaveBackend {
	case BackendFile:
		if c.SaveDir == "" {
			errs = append(errs, errors.New("SAVE_DIR is required for the file backend"))
		}
	case BackendRedis:
		if c.RedisURL == "" {
			errs = append(errs, errors.New("REDIS_URL is required for the redis backend"))
		}
	case BackendPostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for the postgres backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown SAVE_BACKEND %q", c.SaveBackend))
	}

	if c.NarrativeCacheSize <= 0 {
		errs = append(errs, errors.New("NARRATIVE_CACHE_SIZE must be positive"))
	}
	if c.SessionIdleTimeout < 0 {
		errs = append(errs, errors.New("SESSION_IDLE_TIMEOUT cannot be negative"))
	}
	if c.NarrativeTimeout < 0 {
		errs = append(errs, errors.New("NARRATIVE_TIMEOUT cannot be negative"))
	}
	return errors.Join(errs...)
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if v, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return v
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if v, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return v
	}
	return defaultValue
}
