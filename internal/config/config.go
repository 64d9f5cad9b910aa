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
	Server   ServerConfig
	App      AppConfig
	Cache    CacheConfig
	Database DatabaseConfig
	Roblox   RobloxConfig
	Security SecurityConfig
	Cleanup  CleanupConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `envconfig:"SERVER_HOST" default:"0.0.0.0"`
	Port            int           `envconfig:"SERVER_PORT" default:"8080"`
	ReadTimeout     time.Duration `envconfig:"SERVER_READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `envconfig:"SERVER_WRITE_TIMEOUT" default:"30s"`
	ShutdownTimeout time.Duration `envconfig:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`
}

// AppConfig holds application-level settings.
type AppConfig struct {
	Name        string `envconfig:"APP_NAME" default:"bloxstake-trading-api"`
	Environment string `envconfig:"APP_ENV" default:"development"`
	Debug       bool   `envconfig:"APP_DEBUG" default:"false"`
	Version     string `envconfig:"APP_VERSION" default:"1.0.0"`
}

// CacheConfig holds cache and lock backend settings.
type CacheConfig struct {
	Type string `envconfig:"CACHE_TYPE" default:"memory"` // memory or redis

	RedisHost     string `envconfig:"REDIS_HOST" default:"localhost"`
	RedisPort     int    `envconfig:"REDIS_PORT" default:"6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD" default:""`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`
}

// DatabaseConfig holds persistence settings. SQLite is the default backend;
// MySQL can take over bindings and inventory for multi-instance deployments.
type DatabaseConfig struct {
	Backend string `envconfig:"DB_BACKEND" default:"sqlite"` // sqlite or mysql
	Path    string `envconfig:"DB_PATH" default:"./data/trading.db"`

	MySQLHost     string `envconfig:"MYSQL_HOST" default:"localhost"`
	MySQLPort     int    `envconfig:"MYSQL_PORT" default:"3306"`
	MySQLName     string `envconfig:"MYSQL_NAME" default:"bloxstake"`
	MySQLUser     string `envconfig:"MYSQL_USER" default:"root"`
	MySQLPassword string `envconfig:"MYSQL_PASS" default:""`
}

// RobloxConfig holds Roblox public API client settings.
type RobloxConfig struct {
	UsersBaseURL      string        `envconfig:"ROBLOX_USERS_URL" default:""`
	ThumbnailsBaseURL string        `envconfig:"ROBLOX_THUMBNAILS_URL" default:""`
	Timeout           time.Duration `envconfig:"ROBLOX_TIMEOUT" default:"10s"`
}

// SecurityConfig holds request authentication settings. SigningSecret signs
// agent payload envelopes; APIKeys authenticate bot frontends.
type SecurityConfig struct {
	SigningSecret string   `envconfig:"SIGNING_SECRET" required:"true"`
	APIKeys       []string `envconfig:"API_KEYS" required:"true"`
}

// CleanupConfig holds stale-profile pruning settings.
type CleanupConfig struct {
	Interval       time.Duration `envconfig:"CLEANUP_INTERVAL" default:"1h"`
	StaleThreshold time.Duration `envconfig:"CLEANUP_STALE_THRESHOLD" default:"24h"`
}

// Address returns the server address in host:port format.
func (s *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// RedisAddress returns the Redis address in host:port format.
func (c *CacheConfig) RedisAddress() string {
	return fmt.Sprintf("%s:%d", c.RedisHost, c.RedisPort)
}

// MySQLDSN returns the MySQL data source name.
func (d *DatabaseConfig) MySQLDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true",
		d.MySQLUser, d.MySQLPassword, d.MySQLHost, d.MySQLPort, d.MySQLName)
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
