package config

import (
	"fmt"
	"time"
	_ "time/tzdata" // часовые пояса клиники в образах без системной tzdata

	"github.com/spf13/viper"
)

// Config — настройки сервиса записи. Значения берутся из окружения,
// опционально из config.yaml в рабочей директории.
type Config struct {
	Env      string `mapstructure:"ENV"`
	LogLevel string `mapstructure:"LOG_LEVEL"`
	HTTPAddr string `mapstructure:"HTTP_ADDR"`
	GRPCAddr string `mapstructure:"GRPC_ADDR"`

	// Часовой пояс клиники, в нём форматируются подписи слотов.
	ClinicTimeZone string `mapstructure:"CLINIC_TIMEZONE"`

	// Ширина ячейки сетки расписания.
	SlotGridMinutes int `mapstructure:"SLOT_GRID_MINUTES"`
	// Попытки многослотовой записи при гонке за якорный слот.
	BookingMaxAttempts     int `mapstructure:"BOOKING_MAX_ATTEMPTS"`
	BookingRetryBackoffMS  int `mapstructure:"BOOKING_RETRY_BACKOFF_MS"`
	SlotListMaxWindowDays  int `mapstructure:"SLOT_LIST_MAX_WINDOW_DAYS"`
	HealthCheckIntervalSec int `mapstructure:"HEALTH_CHECK_INTERVAL_SEC"`

	RedisAddr          string `mapstructure:"REDIS_ADDR"`
	RedisPassword      string `mapstructure:"REDIS_PASSWORD"`
	RedisDB            int    `mapstructure:"REDIS_DB"`
	CatalogCacheTTLSec int    `mapstructure:"CATALOG_CACHE_TTL_SEC"`

	DB DBConfig `mapstructure:",squash"`
}

// Load читает конфигурацию.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AutomaticEnv()

	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("GRPC_ADDR", ":50051")
	v.SetDefault("CLINIC_TIMEZONE", "UTC")
	v.SetDefault("SLOT_GRID_MINUTES", 30)
	v.SetDefault("BOOKING_MAX_ATTEMPTS", 3)
	v.SetDefault("BOOKING_RETRY_BACKOFF_MS", 100)
	v.SetDefault("SLOT_LIST_MAX_WINDOW_DAYS", 31)
	v.SetDefault("HEALTH_CHECK_INTERVAL_SEC", 10)
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("CATALOG_CACHE_TTL_SEC", 300)
	setDBDefaults(v)

	// Файл конфигурации не обязателен.
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.DB.validate(); err != nil {
		return nil, err
	}
	if cfg.SlotGridMinutes <= 0 {
		return nil, fmt.Errorf("SLOT_GRID_MINUTES must be positive, got %d", cfg.SlotGridMinutes)
	}
	if cfg.BookingMaxAttempts <= 0 {
		cfg.BookingMaxAttempts = 1
	}
	if _, err := time.LoadLocation(cfg.ClinicTimeZone); err != nil {
		return nil, fmt.Errorf("CLINIC_TIMEZONE: %w", err)
	}

	return cfg, nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func (c *Config) SlotGrid() time.Duration {
	return time.Duration(c.SlotGridMinutes) * time.Minute
}

func (c *Config) RetryBackoff() time.Duration {
	return time.Duration(c.BookingRetryBackoffMS) * time.Millisecond
}

func (c *Config) SlotListMaxWindow() time.Duration {
	return time.Duration(c.SlotListMaxWindowDays) * 24 * time.Hour
}

func (c *Config) CatalogCacheTTL() time.Duration {
	return time.Duration(c.CatalogCacheTTLSec) * time.Second
}

func (c *Config) HealthCheckInterval() time.Duration {
	return time.Duration(c.HealthCheckIntervalSec) * time.Second
}

func (c *Config) ClinicLocation() *time.Location {
	loc, err := time.LoadLocation(c.ClinicTimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}
