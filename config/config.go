package config

import (
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the overall application configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Push       PushConfig       `yaml:"push"`
	WorkerPool WorkerPoolConfig `yaml:"worker_pool"`
	Lifecycle  LifecycleConfig  `yaml:"lifecycle"`
	Booking    BookingConfig    `yaml:"booking"`
}

// ServerConfig holds the server-related configuration.
type ServerConfig struct {
	Port            int     `yaml:"port"`
	RequestIPHeader string  `yaml:"request_ip_header"`
	RateLimitPerSec float64 `yaml:"rate_limit_per_sec"`
	RateLimitBurst  int     `yaml:"rate_limit_burst"`
	CacheTTLSeconds int     `yaml:"cache_ttl_seconds"`
}

// DatabaseConfig holds the database connection configuration.
type DatabaseConfig struct {
	DSN                    string `yaml:"dsn"`
	MaxOpenConns           int    `yaml:"max_open_conns"`
	MaxIdleConns           int    `yaml:"max_idle_conns"`
	ConnMaxLifetimeMinutes int    `yaml:"conn_max_lifetime_minutes"`
	EnableRangeIndexes     bool   `yaml:"enable_range_indexes"`
}

// PushConfig holds the VAPID keys for web push notifications.
type PushConfig struct {
	PublicKey  string `yaml:"vapid_public_key"`
	PrivateKey string `yaml:"vapid_private_key"`
	Subject    string `yaml:"subject"`
	TTL        int    `yaml:"ttl"`
}

// WorkerPoolConfig holds the configuration for the notification worker pool.
type WorkerPoolConfig struct {
	Size int `yaml:"size"`
}

// LifecycleConfig holds the configuration for the reservation lifecycle sweeper.
type LifecycleConfig struct {
	Enabled            bool          `yaml:"enabled"`
	IntervalSeconds    int           `yaml:"interval_seconds"`
	Interval           time.Duration `yaml:"-"` // Ignored by YAML parser
	PendingHoldMinutes int           `yaml:"pending_hold_minutes"`
	PendingHold        time.Duration `yaml:"-"`
}

// BookingConfig holds reservation validation limits.
type BookingConfig struct {
	MaxHorsesPerReservation int `yaml:"max_horses_per_reservation"`
}

// Load reads the configuration from the given path.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg Config
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, err
	}

	if cfg.Server.RateLimitPerSec <= 0 {
		cfg.Server.RateLimitPerSec = 10
	}
	if cfg.Server.RateLimitBurst <= 0 {
		cfg.Server.RateLimitBurst = 5
	}
	if cfg.Server.CacheTTLSeconds <= 0 {
		cfg.Server.CacheTTLSeconds = 60
	}

	if cfg.Lifecycle.IntervalSeconds <= 0 {
		cfg.Lifecycle.IntervalSeconds = 60
	}
	cfg.Lifecycle.Interval = time.Duration(cfg.Lifecycle.IntervalSeconds) * time.Second

	if cfg.Lifecycle.PendingHoldMinutes <= 0 {
		cfg.Lifecycle.PendingHoldMinutes = 30
	}
	cfg.Lifecycle.PendingHold = time.Duration(cfg.Lifecycle.PendingHoldMinutes) * time.Minute

	if cfg.Push.TTL <= 0 {
		cfg.Push.TTL = 3600
	}

	if cfg.WorkerPool.Size <= 0 {
		log.Printf("worker_pool.size is not set or invalid; defaulting to 1")
		cfg.WorkerPool.Size = 1
	}

	if cfg.Booking.MaxHorsesPerReservation <= 0 {
		cfg.Booking.MaxHorsesPerReservation = 20
	}

	return &cfg, nil
}
