package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App      AppConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Storage  StorageConfig
	Logger   LoggerConfig
	Auth     AuthConfig
	Seed     SeedConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
	MaxUploadBytes        int
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr           string
	Password       string
	DB             int
	UnreadCountTTL time.Duration
}

// StorageConfig holds object storage connection values for attachments.
type StorageConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines authentication parameters.
type AuthConfig struct {
	JWTSecret             string
	AccessTokenTTLMinutes int
	BcryptCost            int
}

// SeedConfig holds the bootstrap admin credentials.
type SeedConfig struct {
	AdminUsername string
	AdminEmail    string
	AdminPassword string
}

// Load reads configuration from the environment, after sourcing a .env
// file when one exists. Defaults suit local development.
func Load() (*Config, error) {
	_ = godotenv.Load()

	// REDIS_DB is strict: a malformed index errors instead of silently
	// selecting database 0.
	redisDB, err := strconv.Atoi(envOr("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  envOr("APP_NAME", "helpdesk-service"),
			Env:                   envOr("APP_ENV", "development"),
			Host:                  envOr("APP_HOST", "0.0.0.0"),
			Port:                  envOr("APP_PORT", "8080"),
			Version:               envOr("APP_VERSION", "dev"),
			RequestTimeoutSeconds: envInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
			MaxUploadBytes:        envInt("HTTP_MAX_UPLOAD_BYTES", 16*1024*1024),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       envInt32("POSTGRES_MAX_CONNS", 10),
			MinConns:       envInt32("POSTGRES_MIN_CONNS", 2),
			RunMigrations:  envBool("POSTGRES_RUN_MIGRATIONS", true),
			ConnMaxIdleSec: envInt32("POSTGRES_CONN_MAX_IDLE_SECONDS", 30),
			ConnMaxLifeSec: envInt32("POSTGRES_CONN_MAX_LIFE_SECONDS", 300),
		},
		Redis: RedisConfig{
			Addr:           envOr("REDIS_ADDR", "127.0.0.1:6379"),
			Password:       os.Getenv("REDIS_PASSWORD"),
			DB:             redisDB,
			UnreadCountTTL: envSeconds("REDIS_UNREAD_COUNT_TTL_SECONDS", 300),
		},
		Storage: StorageConfig{
			Endpoint:  envOr("STORAGE_ENDPOINT", "127.0.0.1:9000"),
			AccessKey: os.Getenv("STORAGE_ACCESS_KEY"),
			SecretKey: os.Getenv("STORAGE_SECRET_KEY"),
			Bucket:    envOr("STORAGE_BUCKET", "helpdesk-attachments"),
			UseSSL:    envBool("STORAGE_USE_SSL", false),
		},
		Logger: LoggerConfig{
			Level: envOr("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret:             envOr("AUTH_JWT_SECRET", "dev-secret"),
			AccessTokenTTLMinutes: envInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", 60),
			BcryptCost:            envInt("AUTH_BCRYPT_COST", 12),
		},
		Seed: SeedConfig{
			AdminUsername: envOr("SEED_ADMIN_USERNAME", "admin"),
			AdminEmail:    envOr("SEED_ADMIN_EMAIL", "admin@quickdesk.com"),
			AdminPassword: envOr("SEED_ADMIN_PASSWORD", "admin123"),
		},
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// envOr returns the value of key, or fallback when unset or empty.
func envOr(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		return val
	}
	return fallback
}

func envInt(key string, fallback int) int {
	parsed, err := strconv.Atoi(envOr(key, ""))
	if err != nil {
		return fallback
	}
	return parsed
}

func envInt32(key string, fallback int32) int32 {
	return int32(envInt(key, int(fallback)))
}

func envBool(key string, fallback bool) bool {
	parsed, err := strconv.ParseBool(envOr(key, ""))
	if err != nil {
		return fallback
	}
	return parsed
}

func envSeconds(key string, fallbackSeconds int) time.Duration {
	return time.Duration(envInt(key, fallbackSeconds)) * time.Second
}
