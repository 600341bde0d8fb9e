package config

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/viper"
)

// Config holds all application settings.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Email    EmailConfig
	Media    MediaConfig
	Sweep    SweepConfig
}

// ServerConfig contains the HTTP server settings.
type ServerConfig struct {
	Port         string
	ReadTimeout  int
	WriteTimeout int
}

// DatabaseConfig contains the PostgreSQL connection settings.
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// RedisConfig contains the unified Redis connection settings.
// Supported modes: single, sentinel, cluster.
type RedisConfig struct {
	// Mode: Redis operating mode ("single", "sentinel", "cluster"). Defaults to "single".
	Mode string `mapstructure:"mode"`

	// Addrs: list of Redis addresses (host:port). Used for all modes.
	// For 'single', the first address of the list is used when non-empty.
	Addrs []string `mapstructure:"addrs"`

	// Addr: alternative address for 'single' mode (kept for backward compatibility).
	// Used when Mode="single" and Addrs is empty.
	Addr string `mapstructure:"addr"`

	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`

	// MasterName: Redis master name (sentinel mode only).
	MasterName string `mapstructure:"master_name"`

	// MaxRetries: maximum number of reconnect attempts (-1 = infinite). Defaults to 0 (no retries).
	MaxRetries int `mapstructure:"max_retries"`

	// MinRetryBackoff: minimum interval between attempts, in milliseconds. Defaults to 8ms.
	MinRetryBackoff int `mapstructure:"min_retry_backoff"`

	// MaxRetryBackoff: maximum interval between attempts, in milliseconds. Defaults to 512ms.
	MaxRetryBackoff int `mapstructure:"max_retry_backoff"`
}

// JWTConfig contains JWT verification settings.
type JWTConfig struct {
	Secret        string `mapstructure:"secret"`
	ExpirationHrs int    `mapstructure:"expirationHrs"`
}

// EmailConfig contains the approval notification settings.
type EmailConfig struct {
	// Enabled: when false, decision emails are silently skipped.
	Enabled bool `mapstructure:"enabled"`

	// ResendAPIKey: API key for the Resend service.
	ResendAPIKey string `mapstructure:"resend_api_key"`

	// From: sender address for decision emails.
	From string `mapstructure:"from"`
}

// MediaConfig contains the external media store settings.
type MediaConfig struct {
	// BaseURL: base URL of the media service. Empty disables media cleanup.
	BaseURL string `mapstructure:"base_url"`

	// APIKey: bearer token for the media service.
	APIKey string `mapstructure:"api_key"`
}

// SweepConfig contains the lifecycle sweep settings.
type SweepConfig struct {
	// IntervalMinutes: how often the periodic sweep runs. Defaults to 15.
	IntervalMinutes int `mapstructure:"interval_minutes"`
}

// PostgresConnectionString builds the PostgreSQL connection string.
func (d *DatabaseConfig) PostgresConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

// Load loads the configuration from a file and bound environment variables.
func Load(configPath string) (*Config, error) {
	vip := viper.New() // new Viper instance to avoid global state

	// 1. Bind environment variables EXPLICITLY.
	// Database section
	vip.BindEnv("database.host", "DATABASE_HOST")
	vip.BindEnv("database.port", "DATABASE_PORT")
	vip.BindEnv("database.user", "DATABASE_USER")
	vip.BindEnv("database.password", "DATABASE_PASSWORD")
	vip.BindEnv("database.dbname", "DATABASE_DBNAME")
	vip.BindEnv("database.sslmode", "DATABASE_SSLMODE")

	// Redis section
	vip.BindEnv("redis.mode", "REDIS_MODE")
	vip.BindEnv("redis.addrs", "REDIS_ADDRS") // string list
	vip.BindEnv("redis.addr", "REDIS_ADDR")   // single string
	vip.BindEnv("redis.password", "REDIS_PASSWORD")
	vip.BindEnv("redis.db", "REDIS_DB")
	vip.BindEnv("redis.master_name", "REDIS_MASTER_NAME")

	// JWT section
	vip.BindEnv("jwt.secret", "JWT_SECRET")
	vip.BindEnv("jwt.expirationHrs", "JWT_EXPIRATIONHRS")

	// Email section
	vip.BindEnv("email.enabled", "EMAIL_ENABLED")
	vip.BindEnv("email.resend_api_key", "EMAIL_RESEND_API_KEY")
	vip.BindEnv("email.from", "EMAIL_FROM")

	// Media section
	vip.BindEnv("media.base_url", "MEDIA_BASE_URL")
	vip.BindEnv("media.api_key", "MEDIA_API_KEY")

	// Sweep section
	vip.BindEnv("sweep.interval_minutes", "SWEEP_INTERVAL_MINUTES")

	// Server
	vip.BindEnv("server.port", "SERVER_PORT")

	// 2. Point at the config file.
	if configPath != "" {
		vip.SetConfigFile(configPath)
		// Missing file is fine, env vars cover everything.
		if err := vip.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); ok {
				log.Printf("Config file '%s' not found, using environment variables/defaults.", configPath)
			} else {
				log.Printf("Warning: failed to read config file '%s': %v", configPath, err)
			}
		}
	}

	// 3. Unmarshal (Viper merges file values with bound env vars).
	var cfg Config
	if err := vip.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// 4. Log loaded values (debug mode only).
	if os.Getenv("GIN_MODE") != "release" {
		log.Printf("--- Loaded configuration values ---")
		log.Printf("Database Host: %s", cfg.Database.Host)
		log.Printf("Database Port: %s", cfg.Database.Port)
		log.Printf("Database User: %s", cfg.Database.User)
		log.Printf("Database Name: %s", cfg.Database.DBName)
		log.Printf("Database SSLMode: %s", cfg.Database.SSLMode)
		log.Printf("Redis Addr: %s", cfg.Redis.Addr)
		log.Printf("Redis Mode: %s", cfg.Redis.Mode)
		log.Printf("JWT Secret Set: %t", cfg.JWT.Secret != "")
		log.Printf("JWT Expiration Hours: %d", cfg.JWT.ExpirationHrs)
		log.Printf("Email Enabled: %t", cfg.Email.Enabled)
		log.Printf("Media Base URL: %s", cfg.Media.BaseURL)
		log.Printf("Sweep Interval Minutes: %d", cfg.Sweep.IntervalMinutes)
		log.Printf("Server Port: %s", cfg.Server.Port)
		log.Printf("-----------------------------------")
	}

	// 5. Validate required values.
	if cfg.JWT.Secret == "" {
		return nil, fmt.Errorf("JWT secret is required in config (check JWT_SECRET env var)")
	}
	if cfg.Database.Host == "" || cfg.Database.DBName == "" || cfg.Database.User == "" {
		return nil, fmt.Errorf("database configuration (host, dbname, user) is incomplete in config (check DATABASE_HOST, DATABASE_DBNAME, DATABASE_USER env vars)")
	}
	if os.Getenv("GIN_MODE") == "release" && cfg.Database.Password == "" {
		return nil, fmt.Errorf("database password is required in release mode (check DATABASE_PASSWORD env var)")
	}
	if cfg.Email.Enabled && cfg.Email.ResendAPIKey == "" {
		return nil, fmt.Errorf("email is enabled but no API key is set (check EMAIL_RESEND_API_KEY env var)")
	}

	return &cfg, nil
}
