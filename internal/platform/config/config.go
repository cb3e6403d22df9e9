package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config is the process configuration shared by the server and the reconcile CLI
type Config struct {
	Server     ServerConfig     `json:"server"`
	Database   DatabaseConfig   `json:"database"`
	JWT        JWTConfig        `json:"jwt"`
	Cache      CacheConfig      `json:"cache"`
	App        AppConfig        `json:"app"`
	Engagement EngagementConfig `json:"engagement"`
	Reconcile  ReconcileConfig  `json:"reconcile"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Host      string `json:"host"`
	Port      int    `json:"port"`
	WebDomain string `json:"webDomain"`
	Debug     bool   `json:"debug"`
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	// Driver is one of postgres (lib/pq), pgx or sqlite3
	Driver   string           `json:"driver"`
	Postgres PostgreSQLConfig `json:"postgres"`
	SQLite   SQLiteConfig     `json:"sqlite"`
}

// PostgreSQLConfig holds PostgreSQL-specific configuration
type PostgreSQLConfig struct {
	Host            string        `json:"host"`
	Port            int           `json:"port"`
	Username        string        `json:"username"`
	Password        string        `json:"password"`
	Database        string        `json:"database"`
	Schema          string        `json:"schema"`
	SSLMode         string        `json:"sslMode"`
	MaxOpenConns    int           `json:"maxOpenConns"`
	MaxIdleConns    int           `json:"maxIdleConns"`
	ConnMaxLifetime time.Duration `json:"connMaxLifetime"`
	ConnectTimeout  int           `json:"connectTimeout"`
}

// SQLiteConfig holds configuration for the embedded sqlite3 driver
type SQLiteConfig struct {
	Path string `json:"path"`
}

// JWTConfig holds JWT-related configuration
type JWTConfig struct {
	PublicKey string `json:"publicKey"`
	ClaimKey  string `json:"claimKey"`
}

// CacheConfig holds cache-related configuration
type CacheConfig struct {
	Enabled         bool          `json:"enabled"`
	Backend         string        `json:"backend"`
	Prefix          string        `json:"prefix"`
	TTL             time.Duration `json:"ttl"`
	MaxMemory       int64         `json:"maxMemory"`
	CleanupInterval time.Duration `json:"cleanupInterval"`
	Redis           RedisConfig   `json:"redis"`
}

// RedisConfig holds Redis-specific configuration
type RedisConfig struct {
	Address      string        `json:"address"`
	Password     string        `json:"password"`
	Database     int           `json:"database"`
	PoolSize     int           `json:"poolSize"`
	MinIdleConns int           `json:"minIdleConns"`
	MaxConnAge   time.Duration `json:"maxConnAge"`
}

// AppConfig holds application-related configuration
type AppConfig struct {
	Name string `json:"name"`
	// IDEncoding selects the client-facing id scheme: relay or uuid
	IDEncoding string `json:"idEncoding"`
}

// EngagementConfig tunes the comment/interaction gateway
type EngagementConfig struct {
	CommentMaxLength int `json:"commentMaxLength"`
	ConflictRetries  int `json:"conflictRetries"`
}

// ReconcileConfig configures the counter reconciliation job
type ReconcileConfig struct {
	// Interval of zero disables the in-process periodic job
	Interval    time.Duration `json:"interval"`
	BatchSize   int           `json:"batchSize"`
	Concurrency int           `json:"concurrency"`
}

type lookupFunc func(key string) (string, bool)

// LoadFromEnv loads configuration from the environment.
// It follows a clear precedence:
// 1. Explicit Environment Variables (e.g., set in the shell or by CI)
// 2. Values from the .env file (if it exists)
// 3. Hardcoded defaults
func LoadFromEnv() (*Config, error) {
	envPaths := []string{".env", "../.env", "../../.env"}

	var loadErr error
	for _, envPath := range envPaths {
		loadErr = godotenv.Load(envPath)
		if loadErr == nil {
			break
		}
	}
	if loadErr != nil {
		fmt.Println("INFO: .env file not found, using environment variables and defaults.")
	}

	return load(func(key string) (string, bool) {
		value := os.Getenv(key)
		return value, value != ""
	})
}

// LoadFromMap loads configuration from an in-memory map.
// This is the primary helper for testing configuration logic in isolation
// without manipulating global environment variables.
func LoadFromMap(envMap map[string]string) (*Config, error) {
	return load(func(key string) (string, bool) {
		value, ok := envMap[key]
		return value, ok
	})
}

func load(lookup lookupFunc) (*Config, error) {
	get := func(key, defaultValue string) string {
		if value, ok := lookup(key); ok {
			return value
		}
		return defaultValue
	}
	getInt := func(key string, defaultValue int) int {
		if value, ok := lookup(key); ok {
			if intValue, err := strconv.Atoi(value); err == nil {
				return intValue
			}
		}
		return defaultValue
	}
	getInt64 := func(key string, defaultValue int64) int64 {
		if value, ok := lookup(key); ok {
			if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
				return intValue
			}
		}
		return defaultValue
	}
	getBool := func(key string, defaultValue bool) bool {
		if value, ok := lookup(key); ok {
			if boolValue, err := strconv.ParseBool(value); err == nil {
				return boolValue
			}
		}
		return defaultValue
	}
	getDuration := func(key string, defaultValue time.Duration) time.Duration {
		if value, ok := lookup(key); ok {
			if duration, err := time.ParseDuration(value); err == nil {
				return duration
			}
		}
		return defaultValue
	}

	config := &Config{
		Server: ServerConfig{
			Host:      get("HOST", "localhost"),
			Port:      getInt("SERVER_PORT", 8080),
			WebDomain: get("WEB_DOMAIN", "http://localhost:3000"),
			Debug:     getBool("DEBUG", false),
		},
		Database: DatabaseConfig{
			Driver: get("DB_DRIVER", "postgres"),
			Postgres: PostgreSQLConfig{
				Host:            get("POSTGRES_HOST", "localhost"),
				Port:            getInt("POSTGRES_PORT", 5432),
				Username:        get("POSTGRES_USERNAME", ""),
				Password:        get("POSTGRES_PASSWORD", ""),
				Database:        get("POSTGRES_DATABASE", "social"),
				Schema:          get("POSTGRES_SCHEMA", ""),
				SSLMode:         get("POSTGRES_SSL_MODE", "disable"),
				MaxOpenConns:    getInt("POSTGRES_MAX_OPEN_CONNS", 25),
				MaxIdleConns:    getInt("POSTGRES_MAX_IDLE_CONNS", 25),
				ConnMaxLifetime: time.Duration(getInt("POSTGRES_CONN_MAX_LIFETIME", 300)) * time.Second,
				ConnectTimeout:  getInt("POSTGRES_CONNECT_TIMEOUT", 10),
			},
			SQLite: SQLiteConfig{
				Path: get("SQLITE_PATH", "social.db"),
			},
		},
		JWT: JWTConfig{
			PublicKey: get("JWT_PUBLIC_KEY", ""),
			ClaimKey:  get("JWT_CLAIM_KEY", "claim"),
		},
		Cache: CacheConfig{
			Enabled:         getBool("CACHE_ENABLED", true),
			Backend:         get("CACHE_BACKEND", "memory"),
			Prefix:          get("CACHE_PREFIX", "social:"),
			TTL:             getDuration("CACHE_TTL", 5*time.Minute),
			MaxMemory:       getInt64("CACHE_MAX_MEMORY", 64*1024*1024),
			CleanupInterval: getDuration("CACHE_CLEANUP_INTERVAL", time.Minute),
			Redis: RedisConfig{
				Address:      get("REDIS_ADDRESS", "localhost:6379"),
				Password:     get("REDIS_PASSWORD", ""),
				Database:     getInt("REDIS_DATABASE", 0),
				PoolSize:     getInt("REDIS_POOL_SIZE", 10),
				MinIdleConns: getInt("REDIS_MIN_IDLE_CONNS", 2),
				MaxConnAge:   time.Duration(getInt("REDIS_MAX_CONN_AGE", 300)) * time.Second,
			},
		},
		App: AppConfig{
			Name:       get("APP_NAME", "social"),
			IDEncoding: get("ID_ENCODING", "relay"),
		},
		Engagement: EngagementConfig{
			CommentMaxLength: getInt("COMMENT_MAX_LENGTH", 5000),
			ConflictRetries:  getInt("ENGAGEMENT_CONFLICT_RETRIES", 3),
		},
		Reconcile: ReconcileConfig{
			Interval:    getDuration("RECONCILE_INTERVAL", 0),
			BatchSize:   getInt("RECONCILE_BATCH_SIZE", 200),
			Concurrency: getInt("RECONCILE_CONCURRENCY", 4),
		},
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// Validate validates the configuration shared by every binary
func (c *Config) Validate() error {
	var errors []string

	validDrivers := []string{"postgres", "pgx", "sqlite3"}
	if !contains(validDrivers, c.Database.Driver) {
		errors = append(errors, fmt.Sprintf("DB_DRIVER must be one of: %s", strings.Join(validDrivers, ", ")))
	}
	if c.Database.Driver == "sqlite3" && strings.TrimSpace(c.Database.SQLite.Path) == "" {
		errors = append(errors, "SQLITE_PATH is required for the sqlite3 driver")
	}

	validBackends := []string{"memory", "redis"}
	if !contains(validBackends, c.Cache.Backend) {
		errors = append(errors, fmt.Sprintf("CACHE_BACKEND must be one of: %s", strings.Join(validBackends, ", ")))
	}

	validEncodings := []string{"relay", "uuid"}
	if !contains(validEncodings, c.App.IDEncoding) {
		errors = append(errors, fmt.Sprintf("ID_ENCODING must be one of: %s", strings.Join(validEncodings, ", ")))
	}

	if c.Engagement.CommentMaxLength <= 0 {
		errors = append(errors, "COMMENT_MAX_LENGTH must be positive")
	}
	if c.Engagement.ConflictRetries < 1 {
		errors = append(errors, "ENGAGEMENT_CONFLICT_RETRIES must be at least 1")
	}
	if c.Reconcile.BatchSize <= 0 {
		errors = append(errors, "RECONCILE_BATCH_SIZE must be positive")
	}
	if c.Reconcile.Concurrency <= 0 {
		errors = append(errors, "RECONCILE_CONCURRENCY must be positive")
	}
	if c.Reconcile.Interval < 0 {
		errors = append(errors, "RECONCILE_INTERVAL must not be negative")
	}

	if len(errors) > 0 {
		return fmt.Errorf("validation errors: %s", strings.Join(errors, "; "))
	}

	return nil
}

// ValidateForServer adds the checks only the HTTP server needs
func (c *Config) ValidateForServer() error {
	if strings.TrimSpace(c.JWT.PublicKey) == "" {
		return fmt.Errorf("validation errors: JWT_PUBLIC_KEY is required")
	}
	return c.Validate()
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
