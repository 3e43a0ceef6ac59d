// Package config loads service configuration from a JSON file and
// QUESTIOND_* environment overrides.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the service.
type Config struct {
	General   GeneralConfig   `mapstructure:"general"`
	Dataset   DatasetConfig   `mapstructure:"dataset"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Storage   StorageConfig   `mapstructure:"storage"`
}

// GeneralConfig contains general application settings.
type GeneralConfig struct {
	Listen string `mapstructure:"listen"`
	Debug  bool   `mapstructure:"debug"`
}

// DatasetConfig selects and tunes the question feeds.
type DatasetConfig struct {
	Mode         string        `mapstructure:"mode"` // api, csv or store
	CSVURL       string        `mapstructure:"csv_url"`
	RandomAPIURL string        `mapstructure:"random_api_url"`
	BatchSize    int           `mapstructure:"batch_size"`
	BatchTimeout time.Duration `mapstructure:"batch_timeout"`
	CacheTTL     time.Duration `mapstructure:"cache_ttl"`
}

// Normalize applies defaults for unset dataset values.
func (d DatasetConfig) Normalize() DatasetConfig {
	if d.Mode == "" {
		d.Mode = "api"
	}
	if d.BatchSize <= 0 {
		d.BatchSize = 12
	}
	if d.BatchTimeout <= 0 {
		d.BatchTimeout = 8 * time.Second
	}
	if d.CacheTTL <= 0 {
		d.CacheTTL = 15 * time.Minute
	}
	return d
}

// Validate checks the dataset feed configuration.
func (d DatasetConfig) Validate() error {
	switch d.Mode {
	case "api":
		if d.RandomAPIURL == "" {
			return errors.New("dataset.random_api_url is required in api mode")
		}
	case "csv":
		if d.CSVURL == "" {
			return errors.New("dataset.csv_url is required in csv mode")
		}
	case "store":
	default:
		return fmt.Errorf("dataset.mode must be api, csv or store, got %q", d.Mode)
	}
	if d.CSVURL != "" {
		if _, err := url.ParseRequestURI(d.CSVURL); err != nil {
			return fmt.Errorf("dataset.csv_url: %w", err)
		}
	}
	return nil
}

// RateLimitConfig is the submission gatekeeping policy.
type RateLimitConfig struct {
	MaxPerHour      int `mapstructure:"max_per_hour"`
	MaxPerDay       int `mapstructure:"max_per_day"`
	CooldownMinutes int `mapstructure:"cooldown_minutes"`
}

// Normalize applies the production policy defaults.
func (r RateLimitConfig) Normalize() RateLimitConfig {
	if r.MaxPerHour <= 0 {
		r.MaxPerHour = 3
	}
	if r.MaxPerDay <= 0 {
		r.MaxPerDay = 10
	}
	if r.CooldownMinutes <= 0 {
		r.CooldownMinutes = 5
	}
	return r
}

// StorageConfig groups the persistence backends.
type StorageConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

// PostgresConfig locates the submission and question store.
type PostgresConfig struct {
	URL      string `mapstructure:"url"`
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

// DSN builds the connection string, preferring an explicit URL.
func (p PostgresConfig) DSN() (string, error) {
	if p.URL != "" {
		return p.URL, nil
	}
	if p.Host == "" || p.DBName == "" {
		return "", errors.New("postgres not configured (storage.postgres.host/dbname or url)")
	}
	port := p.Port
	if port == "" {
		port = "5432"
	}
	ssl := p.SSLMode
	if ssl == "" {
		ssl = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", p.User, p.Password, p.Host, port, p.DBName, ssl), nil
}

// RedisConfig locates the optional dataset cache. An empty host disables it.
type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

func (r RedisConfig) Enabled() bool { return r.Host != "" }

func (r RedisConfig) Addr() string {
	port := r.Port
	if port == "" {
		port = "6379"
	}
	return fmt.Sprintf("%s:%s", r.Host, port)
}

// LoadConfig reads the config file (if any) and environment overrides,
// normalizes defaults and validates. Invalid configuration is fatal.
func LoadConfig(path string) *Config {
	viper.SetConfigName("config")
	viper.SetConfigType("json")
	viper.SetDefault("general.listen", ":8080")
	viper.SetDefault("dataset.mode", "api")
	viper.SetDefault("dataset.batch_size", 12)
	viper.SetDefault("dataset.batch_timeout", "8s")
	viper.SetDefault("dataset.cache_ttl", "15m")
	viper.SetDefault("rate_limit.max_per_hour", 3)
	viper.SetDefault("rate_limit.max_per_day", 10)
	viper.SetDefault("rate_limit.cooldown_minutes", 5)

	if path == "" {
		viper.AddConfigPath("./config")
		viper.AddConfigPath(".")
		exe, _ := os.Executable()
		exeDir := filepath.Dir(exe)
		viper.AddConfigPath(exeDir)
		viper.AddConfigPath(filepath.Join(exeDir, ".."))
	} else {
		viper.SetConfigFile(path)
	}

	viper.SetEnvPrefix("QUESTIOND")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			panic(fmt.Errorf("fatal error config file: %w", err))
		}
		// No file is fine; env vars and defaults carry the config.
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		panic(fmt.Errorf("fatal error config file: %w", err))
	}
	config.Dataset = config.Dataset.Normalize()
	config.RateLimit = config.RateLimit.Normalize()

	if err := config.Dataset.Validate(); err != nil {
		panic(err)
	}
	return &config
}
