// Package config gathers process configuration from the environment.
//
// Values come from environment variables, optionally seeded from a .env
// file. The source catalog may additionally be loaded from a YAML or TOML
// file named by SOURCES_FILE.
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

	"github.com/ragsense/ragsense/internal/core/domain"
)

// Run modes of the serve command
const (
	RunModeAPI    = "api"
	RunModeWorker = "worker"
	RunModeAll    = "all"
)

// Config is the complete process configuration
type Config struct {
	Port        int
	CORSOrigins []string
	RunMode     string

	Elasticsearch ElasticsearchConfig
	Mapping       domain.CollectionMapping
	SourcesFile   string

	Embedding     domain.EmbeddingSettings
	LLM           domain.LLMSettings
	Weights       domain.FusionWeights
	QueryCacheTTL time.Duration

	Reindex ReindexConfig
	Worker  WorkerConfig

	DatabaseURL string
	RedisURL    string

	Auth AuthConfig
	Log  LogConfig
}

// ElasticsearchConfig holds the document store connection
type ElasticsearchConfig struct {
	URL        string
	Username   string
	Password   string
	APIKey     string
	Timeout    time.Duration
	MaxRetries int
}

// ReindexConfig holds the embedding indexer and scheduler settings
type ReindexConfig struct {
	BatchSize   int
	ScrollTTL   time.Duration
	LockTTL     time.Duration
	Concurrency int

	// Scheduler
	Interval         time.Duration
	OnStart          bool
	SchedulerEnabled bool
}

// WorkerConfig holds task worker settings
type WorkerConfig struct {
	Concurrency    int
	DequeueTimeout int // seconds
}

// AuthConfig holds operator authentication settings
type AuthConfig struct {
	JWTSecret       string
	OperatorKeyHash string
	TokenTTL        time.Duration
}

// Enabled reports whether operator endpoints can be served
func (a AuthConfig) Enabled() bool {
	return a.JWTSecret != "" && a.OperatorKeyHash != ""
}

// LogConfig selects the slog handler
type LogConfig struct {
	Level  string
	Format string
}

// Load reads the given .env files (or ./.env when none are given) and then
// the environment. Missing .env files are not an error; variables already
// set in the environment win over file values.
func Load(envFiles ...string) (*Config, error) {
	if err := loadDotEnv(envFiles...); err != nil {
		return nil, err
	}
	cfg := FromEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	var existing []string
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			existing = append(existing, f)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	if err := godotenv.Load(existing...); err != nil {
		return fmt.Errorf("load env file: %w", err)
	}
	return nil
}

// FromEnv builds a Config from environment variables, applying defaults
func FromEnv() *Config {
	embeddingProvider := domain.AIProvider(getEnv("EMBEDDING_PROVIDER", string(domain.AIProviderLocal)))
	llmProvider := domain.AIProvider(getEnv("LLM_PROVIDER", string(domain.AIProviderLocal)))

	return &Config{
		Port:        getEnvInt("PORT", 8080),
		CORSOrigins: getEnvList("CORS_ORIGINS", []string{"*"}),
		RunMode:     getEnv("RUN_MODE", RunModeAll),

		Elasticsearch: ElasticsearchConfig{
			URL:        getEnv("ES_URL", "http://localhost:9200"),
			Username:   getEnv("ES_USERNAME", ""),
			Password:   getEnv("ES_PASSWORD", ""),
			APIKey:     getEnv("ES_API_KEY", ""),
			Timeout:    getEnvDuration("ES_TIMEOUT", 30*time.Second),
			MaxRetries: getEnvInt("ES_MAX_RETRIES", 3),
		},
		Mapping: domain.CollectionMapping{
			Jira:  getEnv("ES_JIRA_INDEX", "jira"),
			Wiki:  getEnv("ES_WIKI_INDEX", "wiki"),
			Files: getEnv("ES_FILES_INDEX", "files"),
		},
		SourcesFile: getEnv("SOURCES_FILE", ""),

		Embedding: domain.EmbeddingSettings{
			Provider:          embeddingProvider,
			Model:             getEnv("EMBEDDING_MODEL", domain.DefaultEmbeddingModel),
			APIKey:            getEnv("EMBEDDING_API_KEY", ""),
			BaseURL:           getEnv("EMBEDDING_BASE_URL", ""),
			RequestsPerSecond: getEnvFloat("EMBEDDING_RPS", 0),
		},
		LLM: domain.LLMSettings{
			Provider:     llmProvider,
			Model:        getEnv("LLM_MODEL", domain.DefaultLLMModel),
			APIKey:       getEnv("LLM_API_KEY", ""),
			BaseURL:      getEnv("LLM_BASE_URL", ""),
			Temperature:  getEnvFloat("LLM_TEMPERATURE", 0.2),
			SystemPrompt: getEnv("LLM_SYSTEM_PROMPT", domain.DefaultSystemPrompt),
		},
		Weights: domain.FusionWeights{
			BM25:      getEnvFloat("BM25_WEIGHT", domain.DefaultBM25Weight),
			Embedding: getEnvFloat("EMBEDDING_WEIGHT", domain.DefaultEmbeddingWeight),
		},
		QueryCacheTTL: getEnvDuration("QUERY_CACHE_TTL", time.Hour),

		Reindex: ReindexConfig{
			BatchSize:        getEnvInt("REINDEX_BATCH_SIZE", domain.DefaultBatchSize),
			ScrollTTL:        getEnvDuration("REINDEX_SCROLL_TTL", domain.DefaultScrollTTL),
			LockTTL:          getEnvDuration("REINDEX_LOCK_TTL", 10*time.Minute),
			Concurrency:      getEnvInt("REINDEX_CONCURRENCY", 2),
			Interval:         getEnvDuration("REINDEX_INTERVAL", 24*time.Hour),
			OnStart:          getEnvBool("REINDEX_ON_START", false),
			SchedulerEnabled: getEnvBool("SCHEDULER_ENABLED", true),
		},
		Worker: WorkerConfig{
			Concurrency:    getEnvInt("WORKER_CONCURRENCY", 2),
			DequeueTimeout: getEnvInt("WORKER_DEQUEUE_TIMEOUT", 5),
		},

		DatabaseURL: getEnv("DATABASE_URL", ""),
		RedisURL:    getEnv("REDIS_URL", ""),

		Auth: AuthConfig{
			JWTSecret:       getEnv("JWT_SECRET", ""),
			OperatorKeyHash: getEnv("OPERATOR_KEY_HASH", ""),
			TokenTTL:        getEnvDuration("TOKEN_TTL", 12*time.Hour),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "text"),
		},
	}
}

// Validate checks value ranges. Missing optional backends are not errors.
func (c *Config) Validate() error {
	var errs []error
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT out of range: %d", c.Port))
	}
	switch c.RunMode {
	case RunModeAPI, RunModeWorker, RunModeAll:
	default:
		errs = append(errs, fmt.Errorf("RUN_MODE must be api, worker or all, got %q", c.RunMode))
	}
	if !c.Embedding.Provider.IsValid() {
		errs = append(errs, fmt.Errorf("EMBEDDING_PROVIDER: %w: %s", domain.ErrInvalidProvider, c.Embedding.Provider))
	}
	if !c.LLM.Provider.IsValid() {
		errs = append(errs, fmt.Errorf("LLM_PROVIDER: %w: %s", domain.ErrInvalidProvider, c.LLM.Provider))
	}
	if c.Weights.BM25 < 0 || c.Weights.Embedding < 0 {
		errs = append(errs, errors.New("BM25_WEIGHT and EMBEDDING_WEIGHT must not be negative"))
	}
	if c.Reindex.BatchSize <= 0 || c.Reindex.BatchSize > domain.MaxBatchSize {
		errs = append(errs, fmt.Errorf("REINDEX_BATCH_SIZE must be in 1..%d, got %d", domain.MaxBatchSize, c.Reindex.BatchSize))
	}
	if c.Reindex.ScrollTTL <= 0 {
		errs = append(errs, errors.New("REINDEX_SCROLL_TTL must be positive"))
	}
	if c.Reindex.Concurrency <= 0 {
		errs = append(errs, errors.New("REINDEX_CONCURRENCY must be positive"))
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// ParseLevel maps LOG_LEVEL onto a slog level
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, fmt.Errorf("LOG_LEVEL: %w", err)
	}
	return level, nil
}

// NewLogger builds the process logger from LOG_LEVEL and LOG_FORMAT
func (c LogConfig) NewLogger() *slog.Logger {
	level, _ := ParseLevel(c.Level)
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(c.Format, "json") {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if result, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
			return result
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if result, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil {
			return result
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(strings.TrimSpace(value)); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
