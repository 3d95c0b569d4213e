// Package config loads floord settings from the environment. A .env file in
// the working directory is read first when present.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/gastroflow/ledger/tenant"
)

type Config struct {
	Server  ServerConfig
	Store   StoreConfig
	Auth    AuthConfig
	CORS    CORSConfig
	Redis   RedisConfig
	Kafka   KafkaConfig
	Log     LogConfig
	Jobs    JobsConfig
	Tenants []TenantSeed

	PluginTimeout time.Duration
	EnableMetrics bool
	EnableAudit   bool
}

type ServerConfig struct {
	Addr            string
	Mode            string // gin mode: debug, release or test
	ShutdownTimeout time.Duration
}

// StoreConfig selects the persistence backend.
type StoreConfig struct {
	Kind        string // memory or postgres
	PostgresDSN string
}

type AuthConfig struct {
	Secret string
	Issuer string
	TTL    time.Duration
}

type CORSConfig struct {
	AllowOrigins []string
}

// RedisConfig enables the redis relay when Addr is set.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// KafkaConfig enables the kafka relay when Brokers is non-empty.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

type LogConfig struct {
	Level      string
	FilePath   string
	MaxSize    int // MB
	MaxBackups int
	MaxAge     int // days
	Compress   bool
}

type JobsConfig struct {
	StockSweep string // cron spec; empty disables the sweep
}

// TenantSeed is a tenant provisioned at startup.
type TenantSeed struct {
	ID   string
	Plan tenant.PlanTier
}

const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
)

// Load reads the configuration. It fails only on values that cannot work,
// such as an unknown store kind or a postgres store without a DSN.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Addr:            getEnv("FLOOR_HTTP_ADDR", ":8080"),
			Mode:            getEnv("FLOOR_GIN_MODE", "release"),
			ShutdownTimeout: getEnvAsDuration("FLOOR_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Store: StoreConfig{
			Kind:        strings.ToLower(getEnv("FLOOR_STORE", StoreMemory)),
			PostgresDSN: getEnv("FLOOR_POSTGRES_DSN", ""),
		},
		Auth: AuthConfig{
			Secret: getEnv("FLOOR_JWT_SECRET", ""),
			Issuer: getEnv("FLOOR_JWT_ISSUER", "floord"),
			TTL:    getEnvAsDuration("FLOOR_JWT_TTL", 12*time.Hour),
		},
		CORS: CORSConfig{
			AllowOrigins: getEnvAsStringArray("FLOOR_CORS_ORIGINS", []string{"*"}),
		},
		Redis: RedisConfig{
			Addr:     getEnv("FLOOR_REDIS_ADDR", ""),
			Password: getEnv("FLOOR_REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("FLOOR_REDIS_DB", 0),
		},
		Kafka: KafkaConfig{
			Brokers: getEnvAsStringArray("FLOOR_KAFKA_BROKERS", nil),
			Topic:   getEnv("FLOOR_KAFKA_TOPIC", "floor-events"),
		},
		Log: LogConfig{
			Level:      getEnv("FLOOR_LOG_LEVEL", "info"),
			FilePath:   getEnv("FLOOR_LOG_FILE", ""),
			MaxSize:    getEnvAsInt("FLOOR_LOG_MAX_SIZE", 100),
			MaxBackups: getEnvAsInt("FLOOR_LOG_MAX_BACKUPS", 7),
			MaxAge:     getEnvAsInt("FLOOR_LOG_MAX_AGE", 30),
			Compress:   getEnvAsBool("FLOOR_LOG_COMPRESS", true),
		},
		Jobs: JobsConfig{
			StockSweep: getEnv("FLOOR_STOCK_SWEEP", "@every 15m"),
		},
		PluginTimeout: getEnvAsDuration("FLOOR_PLUGIN_TIMEOUT", 2*time.Second),
		EnableMetrics: getEnvAsBool("FLOOR_METRICS", true),
		EnableAudit:   getEnvAsBool("FLOOR_AUDIT_LOG", true),
	}

	seeds, err := parseTenants(getEnv("FLOOR_TENANTS", ""))
	if err != nil {
		return nil, err
	}
	cfg.Tenants = seeds

	switch cfg.Store.Kind {
	case StoreMemory:
	case StorePostgres:
		if cfg.Store.PostgresDSN == "" {
			return nil, fmt.Errorf("config: FLOOR_POSTGRES_DSN is required for the postgres store")
		}
	default:
		return nil, fmt.Errorf("config: unknown store %q", cfg.Store.Kind)
	}
	if cfg.Auth.Secret == "" {
		return nil, fmt.Errorf("config: FLOOR_JWT_SECRET is required")
	}
	return cfg, nil
}

// TenantIDs returns the ids of the seeded tenants.
func (c *Config) TenantIDs() []string {
	ids := make([]string, 0, len(c.Tenants))
	for _, t := range c.Tenants {
		ids = append(ids, t.ID)
	}
	return ids
}

// parseTenants reads "id[:PLAN],id[:PLAN]". The plan defaults to BASIC.
func parseTenants(value string) ([]TenantSeed, error) {
	var seeds []TenantSeed
	seen := make(map[string]bool)
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		tenantID, plan, _ := strings.Cut(part, ":")
		tenantID = strings.TrimSpace(tenantID)
		tier := tenant.PlanBasic
		if plan = strings.TrimSpace(plan); plan != "" {
			tier = tenant.PlanTier(strings.ToUpper(plan))
		}
		if tenantID == "" {
			return nil, fmt.Errorf("config: empty tenant id in FLOOR_TENANTS")
		}
		if !tier.Valid() {
			return nil, fmt.Errorf("config: tenant %s: unknown plan %q", tenantID, plan)
		}
		if seen[tenantID] {
			return nil, fmt.Errorf("config: tenant %s listed twice", tenantID)
		}
		seen[tenantID] = true
		seeds = append(seeds, TenantSeed{ID: tenantID, Plan: tier})
	}
	return seeds, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// getEnvAsStringArray splits a comma-separated value, dropping blanks.
func getEnvAsStringArray(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
