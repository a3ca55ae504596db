package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

func init() {
	// Load .env file if it exists (silent fail if not)
	_ = godotenv.Load()
}

// Config holds all application configuration loaded from environment variables.
type Config struct {
	Server       ServerConfig
	App          AppConfig
	Cache        CacheConfig
	Database     DatabaseConfig
	CollectionDB CollectionDBConfig
	BGG          BGGConfig
	Sync         SyncConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `envconfig:"SERVER_HOST" default:"0.0.0.0"`
	Port            int           `envconfig:"SERVER_PORT" default:"8080"`
	ReadTimeout     time.Duration `envconfig:"SERVER_READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `envconfig:"SERVER_WRITE_TIMEOUT" default:"300s"`
	ShutdownTimeout time.Duration `envconfig:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`
}

// AppConfig holds application-level settings.
type AppConfig struct {
	Name        string `envconfig:"APP_NAME" default:"meeplehub-api"`
	Environment string `envconfig:"APP_ENV" default:"development"`
	Debug       bool   `envconfig:"APP_DEBUG" default:"false"`
	Version     string `envconfig:"APP_VERSION" default:"1.0.0"`
	LoginKey    string `envconfig:"LOGIN_KEY" default:""` // Admin stats login key
}

// CacheConfig holds cache settings.
type CacheConfig struct {
	Type string        `envconfig:"CACHE_TYPE" default:"memory"`
	TTL  time.Duration `envconfig:"CACHE_TTL" default:"5m"`

	RedisHost     string `envconfig:"REDIS_HOST" default:"localhost"`
	RedisPort     int    `envconfig:"REDIS_PORT" default:"6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD" default:""`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`
}

// DatabaseConfig holds MySQL connection settings (for user_profiles).
type DatabaseConfig struct {
	Host     string `envconfig:"DB_HOST" default:"localhost"`
	Port     int    `envconfig:"DB_PORT" default:"3306"`
	Name     string `envconfig:"DB_NAME" default:"meeplehub"`
	User     string `envconfig:"DB_USER" default:"root"`
	Password string `envconfig:"DB_PASS" default:""`
}

// CollectionDBConfig holds collection/catalog database settings.
type CollectionDBConfig struct {
	Type string `envconfig:"COLLECTION_DB_TYPE" default:"sqlite"` // sqlite or postgres
	Path string `envconfig:"COLLECTION_DB_PATH" default:"./data/collection.db"`
	// PostgreSQL settings
	Host     string `envconfig:"COLLECTION_DB_HOST" default:"localhost"`
	Port     int    `envconfig:"COLLECTION_DB_PORT" default:"5432"`
	Name     string `envconfig:"COLLECTION_DB_NAME" default:"meeplehub"`
	User     string `envconfig:"COLLECTION_DB_USER" default:"postgres"`
	Password string `envconfig:"COLLECTION_DB_PASS" default:""`
	SSLMode  string `envconfig:"COLLECTION_DB_SSLMODE" default:"disable"`
}

// BGGConfig holds BoardGameGeek XMLAPI2 client settings.
//
// BGG queues collection exports server-side and answers 202 until the export
// is ready, so the retry budget and backoff schedule are first-class settings.
type BGGConfig struct {
	BaseURL        string        `envconfig:"BGG_BASE_URL" default:"https://boardgamegeek.com/xmlapi2"`
	RequestTimeout time.Duration `envconfig:"BGG_REQUEST_TIMEOUT" default:"15s"`
	MaxAttempts    int           `envconfig:"BGG_MAX_ATTEMPTS" default:"8"`
	BaseDelay      time.Duration `envconfig:"BGG_BASE_DELAY" default:"2s"`
	MaxDelay       time.Duration `envconfig:"BGG_MAX_DELAY" default:"30s"`
	UserAgent      string        `envconfig:"BGG_USER_AGENT" default:"meeplehub-api/1.0"`
}

// SyncConfig holds collection sync settings.
type SyncConfig struct {
	// LockTTL caps how long a per-user sync lock may be held before it is
	// considered abandoned.
	LockTTL time.Duration `envconfig:"SYNC_LOCK_TTL" default:"10m"`
}

// PostgresDSN returns the PostgreSQL connection string.
func (c *CollectionDBConfig) PostgresDSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Name, c.SSLMode)
}

// Address returns the server address in host:port format.
func (s *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// RedisAddress returns the Redis address in host:port format.
func (c *CacheConfig) RedisAddress() string {
	return fmt.Sprintf("%s:%d", c.RedisHost, c.RedisPort)
}

// DSN returns the MySQL data source name.
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true",
		d.User, d.Password, d.Host, d.Port, d.Name)
}

// IsDevelopment returns true if running in development mode.
func (a *AppConfig) IsDevelopment() bool {
	return a.Environment == "development"
}

// IsProduction returns true if running in production mode.
func (a *AppConfig) IsProduction() bool {
	return a.Environment == "production"
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return &cfg, nil
}

// MustLoad loads configuration or panics on error.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}
