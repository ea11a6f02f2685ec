package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Database    DatabaseConfig    `mapstructure:"database"`
	Redis       RedisConfig       `mapstructure:"redis"`
	Auth        AuthConfig        `mapstructure:"auth"`
	Integration IntegrationConfig `mapstructure:"integration"`
	Logging     LoggingConfig     `mapstructure:"logging"`
}

type ServerConfig struct {
	Host               string        `mapstructure:"host"`
	Port               int           `mapstructure:"port"`
	Debug              bool          `mapstructure:"debug"`
	ReadTimeout        time.Duration `mapstructure:"read_timeout"`
	WriteTimeout       time.Duration `mapstructure:"write_timeout"`
	IdleTimeout        time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout    time.Duration `mapstructure:"shutdown_timeout"`
	MiddlewareTimeout  time.Duration `mapstructure:"middleware_timeout"`
	CORSAllowedOrigins []string      `mapstructure:"cors_allowed_origins"`
}

// Storage drivers
const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
	DriverRedis    = "redis"
)

type DatabaseConfig struct {
	Driver         string `mapstructure:"driver"`
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	Database       string `mapstructure:"database"`
	SSLMode        string `mapstructure:"ssl_mode"`
	MaxConns       int32  `mapstructure:"max_conns"`
	MinConns       int32  `mapstructure:"min_conns"`
	MigrationsPath string `mapstructure:"migrations_path"`
}

func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Database, c.SSLMode,
	)
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type AuthConfig struct {
	SecretKey                string `mapstructure:"secret_key"`
	TokenExpiredAfterSeconds int    `mapstructure:"token_expired_after_seconds"`
	TokenStore               string `mapstructure:"token_store"`
	APIKeyEmailDomain        string `mapstructure:"apikey_email_domain"`
	PasswordMinLength        int    `mapstructure:"password_min_length"`

	// LoginAttemptsPerMinute throttles POST /auth/login per client IP through
	// Redis; 0 disables it
	LoginAttemptsPerMinute int `mapstructure:"login_attempts_per_minute"`
}

// TokenTTL is the lifetime of a bearer token
func (c AuthConfig) TokenTTL() time.Duration {
	return time.Duration(c.TokenExpiredAfterSeconds) * time.Second
}

type IntegrationConfig struct {
	Host        string            `mapstructure:"host"`
	AuthURL     string            `mapstructure:"auth_url"`
	AuthType    string            `mapstructure:"auth_type"`
	Credentials map[string]string `mapstructure:"credentials"`
	Options     map[string]string `mapstructure:"options"`
	Timeout     time.Duration     `mapstructure:"timeout"`
}

type LoggingConfig struct {
	Level        string        `mapstructure:"level"`
	Format       string        `mapstructure:"format"`
	File         string        `mapstructure:"file"`
	MaxAge       time.Duration `mapstructure:"max_age"`
	RotationTime time.Duration `mapstructure:"rotation_time"`
}

// Load reads configuration from file and environment variables
func Load() (*Config, error) {
	v := viper.New()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./configs/config.yaml"
	}

	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found, use defaults and env vars
	}

	v.AutomaticEnv()
	bindEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks settings that have no safe default
func (c *Config) Validate() error {
	if c.Auth.SecretKey == "" && !c.Server.Debug {
		return errors.New("auth.secret_key (SECRET_KEY) is required when debug is off")
	}
	if c.Auth.TokenExpiredAfterSeconds <= 0 {
		return fmt.Errorf("auth.token_expired_after_seconds must be positive, got %d", c.Auth.TokenExpiredAfterSeconds)
	}
	switch c.Database.Driver {
	case DriverPostgres, DriverMemory:
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	switch c.Auth.TokenStore {
	case DriverPostgres, DriverRedis, DriverMemory:
	default:
		return fmt.Errorf("unsupported token store %q", c.Auth.TokenStore)
	}
	if c.Database.Driver == DriverMemory && c.Auth.TokenStore == DriverPostgres {
		c.Auth.TokenStore = DriverMemory
	}
	if c.Auth.LoginAttemptsPerMinute < 0 {
		return fmt.Errorf("auth.login_attempts_per_minute must not be negative, got %d", c.Auth.LoginAttemptsPerMinute)
	}
	return nil
}

// UsesRedis reports whether any component needs a Redis connection
func (c *Config) UsesRedis() bool {
	return c.Auth.TokenStore == DriverRedis || c.Auth.LoginAttemptsPerMinute > 0
}

// CORSOrigins returns the origins allowed by the CORS middleware
func (c ServerConfig) CORSOrigins() []string {
	if c.Debug {
		return []string{"*"}
	}
	return c.CORSAllowedOrigins
}

func setDefaults(v *viper.Viper) {
	// Server
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.debug", false)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.idle_timeout", "60s")
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("server.middleware_timeout", "60s")
	v.SetDefault("server.cors_allowed_origins", []string{"http://localhost:8080", "http://127.0.0.1:8080"})

	// Database
	v.SetDefault("database.driver", DriverPostgres)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "teamhub")
	v.SetDefault("database.database", "teamhub")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_conns", 20)
	v.SetDefault("database.min_conns", 2)
	v.SetDefault("database.migrations_path", "file://migrations")

	// Redis
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 0)

	// Auth
	v.SetDefault("auth.token_expired_after_seconds", 3600)
	v.SetDefault("auth.token_store", DriverPostgres)
	v.SetDefault("auth.apikey_email_domain", "apikey.local")
	v.SetDefault("auth.password_min_length", 8)
	v.SetDefault("auth.login_attempts_per_minute", 0)

	// Integration
	v.SetDefault("integration.auth_type", "API_KEY")
	v.SetDefault("integration.timeout", "60s")

	// Logging
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.max_age", "168h")
	v.SetDefault("logging.rotation_time", "24h")
}

func bindEnvVars(v *viper.Viper) {
	// Server
	v.BindEnv("server.debug", "DEBUG")
	v.BindEnv("server.port", "SERVER_PORT")

	// Database
	v.BindEnv("database.driver", "DATABASE_DRIVER")
	v.BindEnv("database.host", "POSTGRES_HOST")
	v.BindEnv("database.port", "POSTGRES_PORT")
	v.BindEnv("database.user", "POSTGRES_USER")
	v.BindEnv("database.password", "POSTGRES_PASSWORD")
	v.BindEnv("database.database", "POSTGRES_DB")

	// Redis
	v.BindEnv("redis.host", "REDIS_HOST")
	v.BindEnv("redis.password", "REDIS_PASSWORD")

	// Auth
	v.BindEnv("auth.secret_key", "SECRET_KEY")
	v.BindEnv("auth.token_expired_after_seconds", "TOKEN_EXPIRED_AFTER_SECONDS")
	v.BindEnv("auth.token_store", "TOKEN_STORE")
	v.BindEnv("auth.login_attempts_per_minute", "LOGIN_ATTEMPTS_PER_MINUTE")

	// Integration
	v.BindEnv("integration.host", "INTEGRATION_HOST")
	v.BindEnv("integration.auth_url", "INTEGRATION_AUTH_URL")
	v.BindEnv("integration.credentials.API_KEY", "INTEGRATION_API_KEY")

	// Logging
	v.BindEnv("logging.level", "LOG_LEVEL")
	v.BindEnv("logging.file", "LOG_FILE")
}
