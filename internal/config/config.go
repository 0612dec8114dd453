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
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Wallet   WalletConfig   `mapstructure:"wallet"`
	Games    GamesConfig    `mapstructure:"games"`
}

// ServerConfig holds the websocket endpoint configuration.
type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

// DatabaseConfig holds PostgreSQL connection configuration.
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

// WalletConfig holds the debit policy parameters.
type WalletConfig struct {
	// BonusCap is the fraction of a stake the bonus balance may cover when
	// spendable funds are present.
	BonusCap float64 `mapstructure:"bonus_cap"`
}

// GamesConfig holds the per-variant round parameters.
type GamesConfig struct {
	AndarBahar  VariantConfig `mapstructure:"andar_bahar"`
	DragonTiger VariantConfig `mapstructure:"dragon_tiger"`
	TeenPatti   VariantConfig `mapstructure:"teen_patti"`
	Surath      VariantConfig `mapstructure:"surath"`
}

// VariantConfig holds one variant's timing and stake limits.
type VariantConfig struct {
	// Window is the betting window duration.
	Window time.Duration `mapstructure:"window"`
	// ResultDelay is the pause after a result before the next round opens.
	ResultDelay time.Duration `mapstructure:"result_delay"`
	// MinBet is the minimum stake per wager.
	MinBet float64 `mapstructure:"min_bet"`
}

// DSN returns the PostgreSQL connection string.
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		d.User, d.Password, d.Host, d.Port, d.Name,
	)
}

// Load reads configuration from file and environment variables.
// It looks for config.yaml in the config directory.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	// Environment variables use underscore separator and uppercase,
	// e.g. DATABASE_HOST, SERVER_ADDR.
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// The config file is optional; env vars can provide everything.
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")

	// Database defaults
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "casino")
	v.SetDefault("database.name", "casino")
	v.SetDefault("database.pool_size", 20)
	v.SetDefault("database.connect_timeout", "10s")
	v.SetDefault("database.max_conn_lifetime", "1h")
	v.SetDefault("database.max_conn_idle_time", "30m")

	// Wallet defaults
	v.SetDefault("wallet.bonus_cap", 0.2)

	// Game defaults: 30s windows, surath runs a one-minute board
	v.SetDefault("games.andar_bahar.window", "30s")
	v.SetDefault("games.andar_bahar.result_delay", "10s")
	v.SetDefault("games.andar_bahar.min_bet", 10)
	v.SetDefault("games.dragon_tiger.window", "30s")
	v.SetDefault("games.dragon_tiger.result_delay", "10s")
	v.SetDefault("games.dragon_tiger.min_bet", 10)
	v.SetDefault("games.teen_patti.window", "30s")
	v.SetDefault("games.teen_patti.result_delay", "10s")
	v.SetDefault("games.teen_patti.min_bet", 10)
	v.SetDefault("games.surath.window", "60s")
	v.SetDefault("games.surath.result_delay", "5s")
	v.SetDefault("games.surath.min_bet", 10)
}
