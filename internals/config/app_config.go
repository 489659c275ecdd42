package config

import (
	"time"

	"github.com/spf13/viper"
)

// Config carries everything the server and CLI need, overridable through
// the environment.
type Config struct {
	ServerPort          string        `mapstructure:"SERVER_PORT"`
	FiatAPIURL          string        `mapstructure:"FIAT_API_URL"`
	CoinAPIURL          string        `mapstructure:"COIN_API_URL"`
	RequestTimeout      time.Duration `mapstructure:"REQUEST_TIMEOUT"`
	CatalogRefresh      time.Duration `mapstructure:"CATALOG_REFRESH"`
	FiatRateInterval    time.Duration `mapstructure:"FIAT_RATE_INTERVAL"`
	FiatRateBurst       int           `mapstructure:"FIAT_RATE_BURST"`
	CoinRateInterval    time.Duration `mapstructure:"COIN_RATE_INTERVAL"`
	CoinRateBurst       int           `mapstructure:"COIN_RATE_BURST"`
	RedisURL            string        `mapstructure:"REDIS_URL"`
	SnapshotTTL         time.Duration `mapstructure:"SNAPSHOT_TTL"`
	RefreshLockTTL      time.Duration `mapstructure:"REFRESH_LOCK_TTL"`
	LogLevel            string        `mapstructure:"LOG_LEVEL"`
	ShutdownGracePeriod time.Duration `mapstructure:"SHUTDOWN_GRACE_PERIOD"`
}

// LoadConfig reads configuration from the environment over built-in
// defaults. The defaults fit the public no-key tiers of both providers.
func LoadConfig() (*Config, error) {
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("FIAT_API_URL", "https://open.er-api.com/v6/latest")
	viper.SetDefault("COIN_API_URL", "https://api.coingecko.com/api/v3")
	viper.SetDefault("REQUEST_TIMEOUT", "30s")
	viper.SetDefault("CATALOG_REFRESH", "1h")

	// open.er-api refreshes daily; coingecko's free tier allows roughly
	// 30 calls a minute.
	viper.SetDefault("FIAT_RATE_INTERVAL", "1s")
	viper.SetDefault("FIAT_RATE_BURST", 2)
	viper.SetDefault("COIN_RATE_INTERVAL", "1m")
	viper.SetDefault("COIN_RATE_BURST", 30)

	// Redis is optional; an empty URL keeps the catalog purely in memory.
	viper.SetDefault("REDIS_URL", "")
	viper.SetDefault("SNAPSHOT_TTL", "24h")
	viper.SetDefault("REFRESH_LOCK_TTL", "2m")

	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("SHUTDOWN_GRACE_PERIOD", "5s")

	viper.AutomaticEnv()

	cfg := &Config{}
	cfg.ServerPort = viper.GetString("SERVER_PORT")
	cfg.FiatAPIURL = viper.GetString("FIAT_API_URL")
	cfg.CoinAPIURL = viper.GetString("COIN_API_URL")
	cfg.RequestTimeout = viper.GetDuration("REQUEST_TIMEOUT")
	cfg.CatalogRefresh = viper.GetDuration("CATALOG_REFRESH")
	cfg.FiatRateInterval = viper.GetDuration("FIAT_RATE_INTERVAL")
	cfg.FiatRateBurst = viper.GetInt("FIAT_RATE_BURST")
	cfg.CoinRateInterval = viper.GetDuration("COIN_RATE_INTERVAL")
	cfg.CoinRateBurst = viper.GetInt("COIN_RATE_BURST")
	cfg.RedisURL = viper.GetString("REDIS_URL")
	cfg.SnapshotTTL = viper.GetDuration("SNAPSHOT_TTL")
	cfg.RefreshLockTTL = viper.GetDuration("REFRESH_LOCK_TTL")
	cfg.LogLevel = viper.GetString("LOG_LEVEL")
	cfg.ShutdownGracePeriod = viper.GetDuration("SHUTDOWN_GRACE_PERIOD")

	return cfg, nil
}
