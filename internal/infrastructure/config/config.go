package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Server   ServerConfig   `mapstructure:"server"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Session  SessionConfig  `mapstructure:"session"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Logger   LoggerConfig   `mapstructure:"logger"`
	Security SecurityConfig `mapstructure:"security"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

// AppConfig holds application-specific configuration
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
	Debug       bool   `mapstructure:"debug"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port         int           `mapstructure:"port"`
	Host         string        `mapstructure:"host"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

// StorageConfig holds the document directories. The test directory is used
// when the application runs in the test environment.
type StorageConfig struct {
	DataDir     string `mapstructure:"data_dir"`
	TestDataDir string `mapstructure:"test_data_dir"`
}

// AuthConfig holds credential file locations
type AuthConfig struct {
	UsersFile     string `mapstructure:"users_file"`
	TestUsersFile string `mapstructure:"test_users_file"`
}

// SessionConfig holds session cookie and store configuration
type SessionConfig struct {
	Secret       string        `mapstructure:"secret"`
	CookieName   string        `mapstructure:"cookie_name"`
	TTL          time.Duration `mapstructure:"ttl"`
	Store        string        `mapstructure:"store"`
	SecureCookie bool          `mapstructure:"secure_cookie"`
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// LoggerConfig holds logging configuration
type LoggerConfig struct {
	Level    string `mapstructure:"level"`
	Format   string `mapstructure:"format"`
	Output   string `mapstructure:"output"`
	Filename string `mapstructure:"filename"`
}

// SecurityConfig holds security-related configuration
type SecurityConfig struct {
	RateLimitRequests int           `mapstructure:"rate_limit_requests"`
	RateLimitWindow   time.Duration `mapstructure:"rate_limit_window"`
}

// MetricsConfig holds metrics configuration
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
	EnvTest        = "test"

	SessionStoreMemory = "memory"
	SessionStoreRedis  = "redis"

	defaultSessionSecret = "change-me-session-secret"
)

// Load loads configuration from defaults, an optional .env file and the
// process environment.
func Load() (*Config, error) {
	// Load .env file if it exists (ignore errors)
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)
	if err := bindEnvVars(v); err != nil {
		return nil, fmt.Errorf("failed to bind environment: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("app.name", "flatcms")
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("app.environment", EnvDevelopment)
	v.SetDefault("app.debug", false)

	// Server defaults
	v.SetDefault("server.port", 4567)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.idle_timeout", "120s")

	// Storage defaults
	v.SetDefault("storage.data_dir", "data")
	v.SetDefault("storage.test_data_dir", "test/data")

	// Auth defaults
	v.SetDefault("auth.users_file", "users.yml")
	v.SetDefault("auth.test_users_file", "test/users.yml")

	// Session defaults
	v.SetDefault("session.secret", defaultSessionSecret)
	v.SetDefault("session.cookie_name", "flatcms_session")
	v.SetDefault("session.ttl", "168h")
	v.SetDefault("session.store", SessionStoreMemory)
	v.SetDefault("session.secure_cookie", false)

	// Redis defaults
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	// Logger defaults
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "json")
	v.SetDefault("logger.output", "stdout")
	v.SetDefault("logger.filename", "")

	// Security defaults
	v.SetDefault("security.rate_limit_requests", 20)
	v.SetDefault("security.rate_limit_window", "1m")

	// Metrics defaults
	v.SetDefault("metrics.enabled", true)
}

func bindEnvVars(v *viper.Viper) error {
	bindings := map[string]string{
		// App
		"app.name":        "APP_NAME",
		"app.version":     "APP_VERSION",
		"app.environment": "APP_ENVIRONMENT",
		"app.debug":       "APP_DEBUG",

		// Server
		"server.port":          "SERVER_PORT",
		"server.host":          "SERVER_HOST",
		"server.read_timeout":  "SERVER_READ_TIMEOUT",
		"server.write_timeout": "SERVER_WRITE_TIMEOUT",
		"server.idle_timeout":  "SERVER_IDLE_TIMEOUT",

		// Storage
		"storage.data_dir":      "DATA_DIR",
		"storage.test_data_dir": "TEST_DATA_DIR",

		// Auth
		"auth.users_file":      "USERS_FILE",
		"auth.test_users_file": "TEST_USERS_FILE",

		// Session
		"session.secret":        "SESSION_SECRET",
		"session.cookie_name":   "SESSION_COOKIE_NAME",
		"session.ttl":           "SESSION_TTL",
		"session.store":         "SESSION_STORE",
		"session.secure_cookie": "SESSION_SECURE_COOKIE",

		// Redis
		"redis.host":     "REDIS_HOST",
		"redis.port":     "REDIS_PORT",
		"redis.password": "REDIS_PASSWORD",
		"redis.db":       "REDIS_DB",

		// Logger
		"logger.level":    "LOG_LEVEL",
		"logger.format":   "LOG_FORMAT",
		"logger.output":   "LOG_OUTPUT",
		"logger.filename": "LOG_FILENAME",

		// Security
		"security.rate_limit_requests": "RATE_LIMIT_REQUESTS",
		"security.rate_limit_window":   "RATE_LIMIT_WINDOW",

		// Metrics
		"metrics.enabled": "ENABLE_METRICS",
	}

	for key, env := range bindings {
		if err := v.BindEnv(key, env); err != nil {
			return err
		}
	}
	return nil
}

func validateConfig(cfg *Config) error {
	switch cfg.App.Environment {
	case EnvDevelopment, EnvProduction, EnvTest:
	default:
		return fmt.Errorf("unknown environment %q", cfg.App.Environment)
	}

	if cfg.DataDir() == "" {
		return fmt.Errorf("data directory is required")
	}

	if cfg.UsersFile() == "" {
		return fmt.Errorf("users file is required")
	}

	if cfg.Session.Secret == "" {
		return fmt.Errorf("session secret must be set")
	}

	if cfg.App.IsProduction() && cfg.Session.Secret == defaultSessionSecret {
		return fmt.Errorf("session secret should not use default value in production")
	}

	switch cfg.Session.Store {
	case SessionStoreMemory, SessionStoreRedis:
	default:
		return fmt.Errorf("unknown session store %q", cfg.Session.Store)
	}

	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("server port must be between 1 and 65535")
	}

	return nil
}

// DataDir returns the document directory for the active environment
func (cfg *Config) DataDir() string {
	if cfg.App.IsTest() {
		return cfg.Storage.TestDataDir
	}
	return cfg.Storage.DataDir
}

// UsersFile returns the credentials file for the active environment
func (cfg *Config) UsersFile() string {
	if cfg.App.IsTest() {
		return cfg.Auth.TestUsersFile
	}
	return cfg.Auth.UsersFile
}

// GetAddr returns the HTTP listen address
func (cfg *ServerConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
}

// GetAddr returns the Redis address
func (cfg *RedisConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
}

// IsProduction returns true if the environment is production
func (cfg *AppConfig) IsProduction() bool {
	return cfg.Environment == EnvProduction
}

// IsTest returns true if the environment is test
func (cfg *AppConfig) IsTest() bool {
	return cfg.Environment == EnvTest
}
