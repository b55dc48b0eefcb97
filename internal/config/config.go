package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the settings shared by the server and the CLI. Values come
// from the environment, optionally seeded from a .env file.
type Config struct {
	Env        string
	Port       string
	GinMode    string
	CORSOrigin string
	JWTSecret  string

	DatabaseURL string
	DBHost      string
	DBUser      string
	DBPassword  string
	DBName      string
	DBPort      string
	DBSSLMode   string

	OllamaURL          string
	OllamaModel        string
	OllamaTimeout      time.Duration
	LLMRequestsPerSec  float64
	SummaryConcurrency int

	ChunkSize              int
	CacheDir               string
	CatalogFile            string
	MaxUploadMB            int64
	DiscoverUnknownFormats bool

	LogLevel string
	LogFile  string
}

// Load reads .env files (missing ones are ignored) and then the
// environment. The returned bool reports whether any .env file was loaded.
func Load(files ...string) (*Config, bool, error) {
	loaded := godotenv.Load(files...) == nil

	cfg := &Config{
		Env:        getEnv("ENV", "local"),
		Port:       getEnv("PORT", "8080"),
		GinMode:    getEnv("GIN_MODE", "debug"),
		CORSOrigin: getEnv("CORS_ORIGIN", "http://localhost:5173"),
		JWTSecret:  os.Getenv("JWT_SECRET"),

		DatabaseURL: os.Getenv("DATABASE_URL"),
		DBHost:      os.Getenv("DB_HOST"),
		DBUser:      getEnv("DB_USER", "postgres"),
		DBPassword:  os.Getenv("DB_PASSWORD"),
		DBName:      getEnv("DB_NAME", "loglens"),
		DBPort:      getEnv("DB_PORT", "5432"),
		DBSSLMode:   getEnv("DB_SSLMODE", "disable"),

		OllamaURL:   getEnv("OLLAMA_URL", "http://localhost:11434"),
		OllamaModel: getEnv("OLLAMA_MODEL", "llama3"),

		CacheDir:    getEnv("CACHE_DIR", ".loglens"),
		CatalogFile: os.Getenv("CATALOG_FILE"),
		LogLevel:    getEnv("LOG_LEVEL", "INFO"),
		LogFile:     os.Getenv("LOG_FILE"),
	}

	timeout, err := getInt("OLLAMA_TIMEOUT_SECONDS", 300)
	if err != nil {
		return nil, loaded, err
	}
	cfg.OllamaTimeout = time.Duration(timeout) * time.Second

	if cfg.LLMRequestsPerSec, err = getFloat("LLM_REQUESTS_PER_SECOND", 2); err != nil {
		return nil, loaded, err
	}
	if cfg.SummaryConcurrency, err = getInt("SUMMARY_CONCURRENCY", 4); err != nil {
		return nil, loaded, err
	}
	if cfg.ChunkSize, err = getInt("CHUNK_SIZE", 4000); err != nil {
		return nil, loaded, err
	}
	maxUpload, err := getInt("MAX_UPLOAD_MB", 32)
	if err != nil {
		return nil, loaded, err
	}
	cfg.MaxUploadMB = int64(maxUpload)
	if cfg.DiscoverUnknownFormats, err = getBool("DISCOVER_UNKNOWN_FORMATS", false); err != nil {
		return nil, loaded, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, loaded, err
	}
	return cfg, loaded, nil
}

// Validate checks value ranges that the parsers cannot.
func (c *Config) Validate() error {
	if c.ChunkSize <= 0 {
		return fmt.Errorf("CHUNK_SIZE must be positive, got %d", c.ChunkSize)
	}
	if c.SummaryConcurrency <= 0 {
		return fmt.Errorf("SUMMARY_CONCURRENCY must be positive, got %d", c.SummaryConcurrency)
	}
	if c.LLMRequestsPerSec < 0 {
		return fmt.Errorf("LLM_REQUESTS_PER_SECOND must not be negative, got %v", c.LLMRequestsPerSec)
	}
	if c.MaxUploadMB <= 0 {
		return fmt.Errorf("MAX_UPLOAD_MB must be positive, got %d", c.MaxUploadMB)
	}
	return nil
}

// DatabaseEnabled reports whether analysis runs should be persisted.
func (c *Config) DatabaseEnabled() bool {
	return c.DatabaseURL != "" || c.DBHost != ""
}

// DSN returns the postgres connection string, preferring DATABASE_URL.
func (c *Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort, c.DBSSLMode)
}

// AllowedOrigin returns the CORS origin. Local environments always use the
// dev frontend.
func (c *Config) AllowedOrigin() string {
	if c.Env == "" || c.Env == "local" {
		return "http://localhost:5173"
	}
	return c.CORSOrigin
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return n, nil
}

func getFloat(key string, fallback float64) (float64, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return f, nil
}

func getBool(key string, fallback bool) (bool, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return b, nil
}
