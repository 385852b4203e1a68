package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"meetroom/internal/model"
	"meetroom/internal/slots"
	"meetroom/internal/store"
)

type Config struct {
	Server struct {
		Port int `yaml:"port"`
	} `yaml:"server"`

	API struct {
		BaseURL         string  `yaml:"base_url"`
		APIKey          string  `yaml:"api_key"`
		TimeoutSeconds  int     `yaml:"timeout_seconds"`
		CacheTTLSeconds int     `yaml:"cache_ttl_seconds"`
		RatePerSecond   float64 `yaml:"rate_per_second"`
		RateBurst       int     `yaml:"rate_burst"`
	} `yaml:"api"`

	Redis struct {
		Address  string `yaml:"address"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`

	Database struct {
		Path   string             `yaml:"path"`
		Backup store.BackupConfig `yaml:"backup"`
	} `yaml:"database"`

	Monitoring struct {
		HealthCheckPort   int  `yaml:"health_check_port"`
		PrometheusEnabled bool `yaml:"prometheus_enabled"`
		PrometheusPort    int  `yaml:"prometheus_port"`
	} `yaml:"monitoring"`

	Booking struct {
		OpenTime              string `yaml:"open_time"`
		CloseTime             string `yaml:"close_time"`
		FullDayThreshold      int    `yaml:"full_day_threshold"`
		SessionTimeoutMinutes int    `yaml:"session_timeout_minutes"`
	} `yaml:"booking"`
}

func Load(path string) (*Config, error) {
	// A local .env feeds the ${ENV_VAR} placeholders below; absence is
	// not an error.
	_ = godotenv.Load()

	if path == "" {
		path = "configs/config.yaml"
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Support ${ENV_VAR} placeholders in YAML config.
	data = []byte(os.ExpandEnv(string(data)))

	var cfg Config
	if err = yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	if cfg.Database.Path == "" {
		cfg.Database.Path = "data/meetroom.db"
	}

	if err = os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// BusinessHours parses the configured window, defaulting to 08:00-18:00.
func (c *Config) BusinessHours() (model.BusinessHours, error) {
	hours := model.DefaultBusinessHours()
	if c.Booking.OpenTime != "" {
		open, err := model.ParseTimeOfDay(c.Booking.OpenTime)
		if err != nil {
			return hours, fmt.Errorf("booking.open_time: %w", err)
		}
		hours.Open = open
	}
	if c.Booking.CloseTime != "" {
		closeAt, err := model.ParseTimeOfDay(c.Booking.CloseTime)
		if err != nil {
			return hours, fmt.Errorf("booking.close_time: %w", err)
		}
		hours.Close = closeAt
	}
	if hours.Close.Minutes() <= hours.Open.Minutes() {
		return hours, fmt.Errorf("booking hours %s-%s are inverted", hours.Open, hours.Close)
	}
	return hours, nil
}

// SlotsConfig builds the aggregation constants from config.
func (c *Config) SlotsConfig() (slots.Config, error) {
	hours, err := c.BusinessHours()
	if err != nil {
		return slots.Config{}, err
	}
	cfg := slots.Config{Hours: hours, FullDayThreshold: c.Booking.FullDayThreshold}
	if cfg.FullDayThreshold <= 0 {
		cfg.FullDayThreshold = slots.DefaultConfig().FullDayThreshold
	}
	return cfg, nil
}

// SessionTimeout returns the form session expiry.
func (c *Config) SessionTimeout() time.Duration {
	if c.Booking.SessionTimeoutMinutes <= 0 {
		return 30 * time.Minute
	}
	return time.Duration(c.Booking.SessionTimeoutMinutes) * time.Minute
}

// APITimeout returns the upstream request timeout.
func (c *Config) APITimeout() time.Duration {
	if c.API.TimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.API.TimeoutSeconds) * time.Second
}
