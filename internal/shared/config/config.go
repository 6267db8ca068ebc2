package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Env      string         `mapstructure:"env"`
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Charge   ChargeConfig   `mapstructure:"charge"`
	Webhook  WebhookConfig  `mapstructure:"webhook"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Log      LogConfig      `mapstructure:"log"`
}

// Sandbox reports whether the service runs in the sandbox environment.
// The payment simulation endpoint is only exposed in sandbox.
func (c *Config) Sandbox() bool {
	return c.Env == "sandbox"
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Address      string        `mapstructure:"address"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

// DatabaseConfig holds database configuration.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Database        string        `mapstructure:"database"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
}

// DSN returns the database connection string.
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// RedisConfig holds Redis configuration. Redis is optional; it backs the
// in-flight duplicate-request lock when available.
type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// ChargeConfig holds charge lifecycle configuration.
type ChargeConfig struct {
	// ExpiryTTL is how long a pix charge stays payable after creation.
	ExpiryTTL time.Duration `mapstructure:"expiry_ttl"`
}

// WebhookConfig holds webhook delivery configuration.
type WebhookConfig struct {
	// URL and Secret are the fallback delivery target used when the
	// resolver is not configured or fails.
	URL    string `mapstructure:"url"`
	Secret string `mapstructure:"secret"`

	// ResolverBaseURL and ResolverToken configure the remote endpoint
	// resolver. Empty values disable the resolver.
	ResolverBaseURL  string        `mapstructure:"resolver_base_url"`
	ResolverToken    string        `mapstructure:"resolver_token"`
	ResolverCacheTTL time.Duration `mapstructure:"resolver_cache_ttl"`

	Timeout time.Duration `mapstructure:"timeout"`
}

// AuthConfig holds API authentication configuration.
type AuthConfig struct {
	// APIKey is the default key checked against X-API-Key. It can be
	// rotated at runtime via the settings endpoint.
	APIKey string `mapstructure:"api_key"`
	// RuntimeDir stores runtime overrides such as the rotated API key.
	RuntimeDir string `mapstructure:"runtime_dir"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load loads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	v.AddConfigPath("/etc/ventrapay")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
		// Config file not found, use defaults and env
	}

	v.SetEnvPrefix("VENTRA")
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	// Override with environment variables for sensitive values
	if key := os.Getenv("VENTRA_API_KEY"); key != "" {
		cfg.Auth.APIKey = key
	}
	if password := os.Getenv("VENTRA_DB_PASSWORD"); password != "" {
		cfg.Database.Password = password
	}
	if password := os.Getenv("VENTRA_REDIS_PASSWORD"); password != "" {
		cfg.Redis.Password = password
	}
	if secret := os.Getenv("VENTRA_WEBHOOK_SECRET"); secret != "" {
		cfg.Webhook.Secret = secret
	}
	if token := os.Getenv("VENTRA_INTERNAL_TOKEN"); token != "" {
		cfg.Webhook.ResolverToken = token
	}

	return &cfg, nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "sandbox")

	// Server defaults
	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.idle_timeout", 120*time.Second)

	// Database defaults
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.database", "ventrapay")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.conn_max_lifetime", time.Hour)
	v.SetDefault("database.conn_max_idle_time", 30*time.Minute)

	// Redis defaults (empty address disables Redis)
	v.SetDefault("redis.address", "")
	v.SetDefault("redis.db", 0)

	// Charge defaults
	v.SetDefault("charge.expiry_ttl", 15*time.Minute)

	// Webhook defaults
	v.SetDefault("webhook.resolver_cache_ttl", 30*time.Second)
	v.SetDefault("webhook.timeout", 5*time.Second)

	// Auth defaults
	v.SetDefault("auth.runtime_dir", ".runtime")

	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}
