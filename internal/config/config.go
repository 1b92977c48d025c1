// Package config loads and validates service configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/avlloyd/jobscout/internal/client"
	"github.com/avlloyd/jobscout/internal/pacing"
	"github.com/avlloyd/jobscout/internal/storage/postgres"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Scraper   ScraperConfig   `mapstructure:"scraper"`
	Pacing    PacingConfig    `mapstructure:"pacing"`
	DB        DBConfig        `mapstructure:"db"`
	Alerts    AlertsConfig    `mapstructure:"alerts"`
	Export    ExportConfig    `mapstructure:"export"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// ServerConfig controls HTTP server behavior.
type ServerConfig struct {
	Port          int     `mapstructure:"port"`
	RatePerSecond float64 `mapstructure:"rate_per_second"`
	RateBurst     int     `mapstructure:"rate_burst"`
}

// ScraperConfig governs the upstream fetch loop.
type ScraperConfig struct {
	BaseURL        string `mapstructure:"base_url"`
	UserAgent      string `mapstructure:"user_agent"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
	MaxRetries     int    `mapstructure:"max_retries"`
	PageSize       int    `mapstructure:"page_size"`
	MaxOffset      int    `mapstructure:"max_offset"`
}

// PacingConfig sets the request pacing and backoff schedule.
type PacingConfig struct {
	MinDelayMs        int     `mapstructure:"min_delay_ms"`
	BackoffMultiplier float64 `mapstructure:"backoff_multiplier"`
	MaxDelaySeconds   int     `mapstructure:"max_delay_seconds"`
	ResetAfter        int     `mapstructure:"reset_after"`
}

// DBConfig controls access to the relational database.
type DBConfig struct {
	DSN             string `mapstructure:"dsn"`
	MaxConns        int    `mapstructure:"max_conns"`
	MinConns        int    `mapstructure:"min_conns"`
	ConnLifetimeMin int    `mapstructure:"conn_lifetime_minutes"`
}

// AlertsConfig locates the saved-search file.
type AlertsConfig struct {
	File string `mapstructure:"file"`
}

// ExportConfig locates the JSON export directory.
type ExportConfig struct {
	Dir string `mapstructure:"dir"`
}

// SchedulerConfig controls the recurring alert runner.
type SchedulerConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Spec    string `mapstructure:"spec"`
}

// LoggingConfig selects the zap flavor and minimum level.
type LoggingConfig struct {
	Development bool   `mapstructure:"development"`
	Level       string `mapstructure:"level"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("JOBSCOUT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.rate_per_second", 5.0)
	v.SetDefault("server.rate_burst", 10)
	v.SetDefault("scraper.base_url", client.DefaultBaseURL)
	v.SetDefault("scraper.user_agent", "jobscout/0.1")
	v.SetDefault("scraper.timeout_seconds", 30)
	v.SetDefault("scraper.max_retries", 3)
	v.SetDefault("scraper.page_size", 25)
	v.SetDefault("scraper.max_offset", 1000)
	v.SetDefault("pacing.min_delay_ms", 2000)
	v.SetDefault("pacing.backoff_multiplier", 2.0)
	v.SetDefault("pacing.max_delay_seconds", 60)
	v.SetDefault("pacing.reset_after", 5)
	v.SetDefault("db.max_conns", 4)
	v.SetDefault("db.min_conns", 1)
	v.SetDefault("db.conn_lifetime_minutes", 30)
	v.SetDefault("alerts.file", "alerts.yaml")
	v.SetDefault("export.dir", "exports")
	v.SetDefault("scheduler.enabled", false)
	v.SetDefault("scheduler.spec", "@hourly")
	v.SetDefault("logging.development", true)
	v.SetDefault("logging.level", "info")
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.Scraper.TimeoutSeconds <= 0 {
		return fmt.Errorf("scraper.timeout_seconds must be > 0")
	}
	if c.Scraper.MaxRetries <= 0 {
		return fmt.Errorf("scraper.max_retries must be > 0")
	}
	if c.Pacing.MinDelayMs <= 0 {
		return fmt.Errorf("pacing.min_delay_ms must be > 0")
	}
	if c.Pacing.BackoffMultiplier < 1 {
		return fmt.Errorf("pacing.backoff_multiplier must be >= 1")
	}
	if c.Pacing.MaxDelaySeconds <= 0 {
		return fmt.Errorf("pacing.max_delay_seconds must be > 0")
	}
	if c.Pacing.ResetAfter <= 0 {
		return fmt.Errorf("pacing.reset_after must be > 0")
	}
	if c.Scheduler.Enabled && c.Scheduler.Spec == "" {
		return fmt.Errorf("scheduler.spec must be set when the scheduler is enabled")
	}
	return nil
}

// PacingSettings converts the pacing knobs to the governor's config.
func (c Config) PacingSettings() pacing.Config {
	return pacing.Config{
		MinDelay:          time.Duration(c.Pacing.MinDelayMs) * time.Millisecond,
		BackoffMultiplier: c.Pacing.BackoffMultiplier,
		MaxDelay:          time.Duration(c.Pacing.MaxDelaySeconds) * time.Second,
		ResetAfter:        c.Pacing.ResetAfter,
	}
}

// ClientSettings converts the scraper knobs to the client's config.
func (c Config) ClientSettings() client.Config {
	return client.Config{
		BaseURL:    c.Scraper.BaseURL,
		PageSize:   c.Scraper.PageSize,
		MaxOffset:  c.Scraper.MaxOffset,
		MaxRetries: c.Scraper.MaxRetries,
		UserAgent:  c.Scraper.UserAgent,
		Timeout:    time.Duration(c.Scraper.TimeoutSeconds) * time.Second,
	}
}

// StoreSettings converts the db knobs to the job store's config.
func (c Config) StoreSettings() postgres.Config {
	return postgres.Config{
		DSN:             c.DB.DSN,
		MaxConns:        int32(c.DB.MaxConns),
		MinConns:        int32(c.DB.MinConns),
		MaxConnLifetime: time.Duration(c.DB.ConnLifetimeMin) * time.Minute,
	}
}
