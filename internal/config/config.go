package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config is everything the API binary reads from the environment.
type Config struct {
	Port      string
	LogLevel  string
	LogFormat string

	DB DatabaseConfig

	AccessTokenSecret []byte
	AccessTokenTTL    time.Duration

	// CORSOrigins lists allowed browser origins. Empty allows all.
	CORSOrigins []string

	RedisAddr      string
	RedisPassword  string
	SchemaCacheTTL time.Duration

	MinIO MinIOConfig
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// RedisEnabled reports whether a schema cache is configured.
func (c *Config) RedisEnabled() bool { return c.RedisAddr != "" }

// MinIOEnabled reports whether snapshot archiving is configured.
func (c *Config) MinIOEnabled() bool { return c.MinIO.Endpoint != "" }

// Load reads .env (if present) and then the process environment.
func Load() (*Config, error) {
	// a missing .env is fine, the environment may already be set
	_ = godotenv.Load()
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a lookup function.
func FromEnv(getenv func(string) string) (*Config, error) {
	get := func(key, def string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return def
	}

	cfg := &Config{
		Port:      get("PORT", "8080"),
		LogLevel:  get("LOG_LEVEL", "info"),
		LogFormat: get("LOG_FORMAT", "json"),
		DB: DatabaseConfig{
			Host:     get("DB_HOST", ""),
			Port:     get("DB_PORT", "5432"),
			User:     get("DB_USERNAME", ""),
			Password: get("DB_PASSWORD", ""),
			Name:     get("DB_DATABASE", ""),
			SSLMode:  get("DB_SSLMODE", "disable"),
		},
		AccessTokenSecret: []byte(get("ACCESS_TOKEN_SECRET", "")),
		RedisAddr:         get("REDIS_ADDR", ""),
		RedisPassword:     get("REDIS_PASSWORD", ""),
		MinIO: MinIOConfig{
			Endpoint:  get("MINIO_ENDPOINT", ""),
			AccessKey: get("MINIO_ACCESS_KEY", ""),
			SecretKey: get("MINIO_SECRET_KEY", ""),
			Bucket:    get("MINIO_BUCKET", "schema-snapshots"),
		},
	}

	for _, o := range strings.Split(get("CORS_ORIGINS", ""), ",") {
		if o = strings.TrimSpace(o); o != "" {
			cfg.CORSOrigins = append(cfg.CORSOrigins, o)
		}
	}

	var err error
	if cfg.AccessTokenTTL, err = time.ParseDuration(get("ACCESS_TOKEN_TTL", "15m")); err != nil {
		return nil, fmt.Errorf("ACCESS_TOKEN_TTL: %w", err)
	}
	if cfg.SchemaCacheTTL, err = time.ParseDuration(get("SCHEMA_CACHE_TTL", "10m")); err != nil {
		return nil, fmt.Errorf("SCHEMA_CACHE_TTL: %w", err)
	}
	if cfg.MinIO.UseSSL, err = strconv.ParseBool(get("MINIO_USE_SSL", "false")); err != nil {
		return nil, fmt.Errorf("MINIO_USE_SSL: %w", err)
	}

	required := map[string]string{
		"DB_HOST":             cfg.DB.Host,
		"DB_USERNAME":         cfg.DB.User,
		"DB_PASSWORD":         cfg.DB.Password,
		"DB_DATABASE":         cfg.DB.Name,
		"ACCESS_TOKEN_SECRET": string(cfg.AccessTokenSecret),
	}
	for _, key := range []string{"DB_HOST", "DB_USERNAME", "DB_PASSWORD", "DB_DATABASE", "ACCESS_TOKEN_SECRET"} {
		if required[key] == "" {
			return nil, fmt.Errorf("%s environment variable is required", key)
		}
	}
	return cfg, nil
}
