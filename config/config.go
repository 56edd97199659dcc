package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	AppEnv         string
	Port           string
	DBType         string
	PostgresURL    string
	MongoURL       string
	MongoDatabase  string
	MigrationsPath string

	LogLevel  string
	LogFormat string

	CORSAllowedOrigins []string

	SessionStore string
	RedisURL     string
	SessionTTL   time.Duration

	PDFDir string
	R2     R2Config
}

// R2Config holds Cloudflare R2 credentials for invoice uploads. Empty means PDFs stay on disk.
type R2Config struct {
	Bucket          string
	AccountID       string
	PublicURL       string
	AccessKeyID     string
	SecretAccessKey string
}

func (c R2Config) Enabled() bool {
	return c.Bucket != "" && c.AccountID != "" && c.PublicURL != ""
}

// LoadConfig reads configuration from the environment, after an optional .env file.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}
	return fromKoanf(k)
}

func fromKoanf(k *koanf.Koanf) (*Config, error) {
	cfg := &Config{
		AppEnv:             valueOrDefault(k.String("APP_ENV"), "development"),
		Port:               valueOrDefault(k.String("PORT"), "8080"),
		DBType:             strings.ToLower(valueOrDefault(k.String("DB_TYPE"), "postgres")),
		PostgresURL:        k.String("POSTGRES_URL"),
		MongoURL:           k.String("MONGO_URL"),
		MongoDatabase:      valueOrDefault(k.String("MONGO_DATABASE"), "posbilling"),
		MigrationsPath:     valueOrDefault(k.String("MIGRATIONS_PATH"), "file://db/migrations"),
		LogLevel:           valueOrDefault(k.String("LOG_LEVEL"), "info"),
		LogFormat:          valueOrDefault(k.String("LOG_FORMAT"), "json"),
		CORSAllowedOrigins: splitAndTrim(k.String("CORS_ALLOWED_ORIGINS")),
		SessionStore:       strings.ToLower(valueOrDefault(k.String("SESSION_STORE"), "memory")),
		RedisURL:           k.String("REDIS_URL"),
		PDFDir:             valueOrDefault(k.String("PDF_DIR"), "./pdfs"),
		R2: R2Config{
			Bucket:          k.String("R2_BUCKET"),
			AccountID:       k.String("R2_ACCOUNT_ID"),
			PublicURL:       k.String("R2_PUBLIC_URL"),
			AccessKeyID:     k.String("R2_ACCESS_KEY_ID"),
			SecretAccessKey: k.String("R2_SECRET_ACCESS_KEY"),
		},
	}

	ttl, err := time.ParseDuration(valueOrDefault(k.String("SESSION_TTL"), "12h"))
	if err != nil {
		return nil, fmt.Errorf("SESSION_TTL: %w", err)
	}
	cfg.SessionTTL = ttl

	switch cfg.DBType {
	case "postgres":
		if cfg.PostgresURL == "" {
			return nil, errors.New("POSTGRES_URL is required for DB_TYPE=postgres")
		}
	case "mongo":
		if cfg.MongoURL == "" {
			return nil, errors.New("MONGO_URL is required for DB_TYPE=mongo")
		}
	case "memory":
	default:
		return nil, fmt.Errorf("DB_TYPE %q not supported", cfg.DBType)
	}

	switch cfg.SessionStore {
	case "memory":
	case "redis":
		if cfg.RedisURL == "" {
			return nil, errors.New("REDIS_URL is required for SESSION_STORE=redis")
		}
	default:
		return nil, fmt.Errorf("SESSION_STORE %q not supported", cfg.SessionStore)
	}

	return cfg, nil
}

// HTTPAddr returns the address the HTTP server should bind to.
func (c *Config) HTTPAddr() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return ":" + c.Port
}

func splitAndTrim(value string) []string {
	if value == "" {
		return nil
	}
	var result []string
	for _, part := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func valueOrDefault(value, fallback string) string {
	if strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	return fallback
}
