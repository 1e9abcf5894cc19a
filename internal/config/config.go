// Package config provides configuration management using viper.
// It supports loading from YAML files and environment variable overrides.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Bot       BotConfig       `mapstructure:"bot"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Whitelist WhitelistConfig `mapstructure:"whitelist"`
	Guess     GuessConfig     `mapstructure:"guess"`
	Payment   PaymentConfig   `mapstructure:"payment"`
	Admin     AdminConfig     `mapstructure:"admin"`
}

// BotConfig holds Telegram bot configuration.
type BotConfig struct {
	Token string `mapstructure:"token"`
}

// DatabaseConfig holds PostgreSQL connection configuration.
// An empty host disables game history persistence entirely.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	PoolSize        int           `mapstructure:"pool_size"`
	ConnectTimeout  time.Duration `mapstructure:"connect_timeout"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime time.Duration `mapstructure:"max_conn_idle_time"`
}

// WhitelistConfig holds chat whitelist configuration.
type WhitelistConfig struct {
	Chats []int64 `mapstructure:"chats"`
}

// GuessConfig holds guess game tuning.
type GuessConfig struct {
	DefaultCapacity int           `mapstructure:"default_capacity"`
	MaxCapacity     int           `mapstructure:"max_capacity"`
	StakeBase       string        `mapstructure:"stake_base"` // decimal token amount
	JoinWindow      time.Duration `mapstructure:"join_window"`
	ExpireAfter     time.Duration `mapstructure:"expire_after"`
	Surge           SurgeConfig   `mapstructure:"surge"`
}

// SurgeConfig holds surge pricing tuning.
type SurgeConfig struct {
	Cooldown time.Duration `mapstructure:"cooldown"`
	Step     string        `mapstructure:"step"` // decimal token amount added per step
}

// PaymentConfig holds payment link configuration.
type PaymentConfig struct {
	LinkBase    string `mapstructure:"link_base"`
	TokenSymbol string `mapstructure:"token_symbol"`
}

// AdminConfig holds admin lookup configuration.
type AdminConfig struct {
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
}

// DSN returns the PostgreSQL connection string.
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		d.User, d.Password, d.Host, d.Port, d.Name,
	)
}

// Enabled reports whether a database host is configured.
func (d *DatabaseConfig) Enabled() bool {
	return d.Host != ""
}

// Load reads configuration from file and environment variables.
// It looks for config.yaml in the config directory.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set defaults
	setDefaults(v)

	// Configure viper
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	// Enable environment variable override
	// Environment variables use underscore separator and uppercase
	// e.g., BOT_TOKEN, DATABASE_HOST, GUESS_JOIN_WINDOW
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (optional - env vars can provide all config)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found is OK - we can use env vars
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.Guess.DefaultCapacity < 1 {
		return nil, fmt.Errorf("guess.default_capacity must be at least 1, got %d", cfg.Guess.DefaultCapacity)
	}
	if cfg.Guess.MaxCapacity < cfg.Guess.DefaultCapacity {
		return nil, fmt.Errorf("guess.max_capacity must be >= guess.default_capacity")
	}

	return &cfg, nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	// Database defaults (host intentionally empty: history is opt-in)
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "guessbot")
	v.SetDefault("database.name", "guessbot")
	v.SetDefault("database.pool_size", 10)
	v.SetDefault("database.connect_timeout", "10s")
	v.SetDefault("database.max_conn_lifetime", "1h")
	v.SetDefault("database.max_conn_idle_time", "30m")

	// Guess game defaults
	v.SetDefault("guess.default_capacity", 5)
	v.SetDefault("guess.max_capacity", 20)
	v.SetDefault("guess.stake_base", "50")
	v.SetDefault("guess.join_window", "1s")
	v.SetDefault("guess.expire_after", "10m")
	v.SetDefault("guess.surge.cooldown", "5m")
	v.SetDefault("guess.surge.step", "10")

	// Payment defaults
	v.SetDefault("payment.link_base", "https://pay.tokentip.app/u")
	v.SetDefault("payment.token_symbol", "TIP")

	// Admin lookup defaults
	v.SetDefault("admin.cache_ttl", "1h")
}

// IsChatAllowed checks if a chat ID is in the whitelist.
func (c *Config) IsChatAllowed(chatID int64) bool {
	// Empty whitelist means all chats are allowed
	if len(c.Whitelist.Chats) == 0 {
		return true
	}
	for _, id := range c.Whitelist.Chats {
		if id == chatID {
			return true
		}
	}
	return false
}
