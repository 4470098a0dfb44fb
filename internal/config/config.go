// Package config loads server settings from an optional YAML file overlaid by
// environment variables. Environment always wins.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	yaml "gopkg.in/yaml.v3"
)

type AppConfig struct {
	ListenAddr string

	// RedisURL enables the live room directory when set.
	RedisURL string
	// DatabaseURL enables the finished-game archive when set.
	DatabaseURL string

	// RoomIdleTTL is how long an empty room survives before it is reaped.
	// Zero keeps rooms for the process lifetime.
	RoomIdleTTL time.Duration

	WriteTimeout  time.Duration
	SendQueueSize int

	AllowedOrigins []string
}

// fileConfig mirrors AppConfig for the YAML file; durations are strings so
// "30m" style values work.
type fileConfig struct {
	ListenAddr     string   `yaml:"listen_addr"`
	RedisURL       string   `yaml:"redis_url"`
	DatabaseURL    string   `yaml:"database_url"`
	RoomIdleTTL    string   `yaml:"room_idle_ttl"`
	WriteTimeout   string   `yaml:"write_timeout"`
	SendQueueSize  int      `yaml:"send_queue_size"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// Load reads CONFIG_FILE (when set) and then applies environment overrides.
func Load() (*AppConfig, error) {
	cfg := &AppConfig{
		ListenAddr:    ":8080",
		RoomIdleTTL:   30 * time.Minute,
		WriteTimeout:  5 * time.Second,
		SendQueueSize: 32,
	}

	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		if err := applyFile(cfg, path); err != nil {
			return nil, err
		}
	}
	if err := applyEnv(cfg); err != nil {
		return nil, err
	}

	if cfg.ListenAddr == "" {
		return nil, fmt.Errorf("listen address is required")
	}
	return cfg, nil
}

func applyFile(cfg *AppConfig, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(raw, &fc); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	if fc.ListenAddr != "" {
		cfg.ListenAddr = fc.ListenAddr
	}
	if fc.RedisURL != "" {
		cfg.RedisURL = fc.RedisURL
	}
	if fc.DatabaseURL != "" {
		cfg.DatabaseURL = fc.DatabaseURL
	}
	if fc.RoomIdleTTL != "" {
		d, err := time.ParseDuration(fc.RoomIdleTTL)
		if err != nil || d < 0 {
			return fmt.Errorf("invalid room_idle_ttl: %q", fc.RoomIdleTTL)
		}
		cfg.RoomIdleTTL = d
	}
	if fc.WriteTimeout != "" {
		d, err := time.ParseDuration(fc.WriteTimeout)
		if err != nil || d <= 0 {
			return fmt.Errorf("invalid write_timeout: %q", fc.WriteTimeout)
		}
		cfg.WriteTimeout = d
	}
	if fc.SendQueueSize != 0 {
		if fc.SendQueueSize < 0 {
			return fmt.Errorf("invalid send_queue_size: %d", fc.SendQueueSize)
		}
		cfg.SendQueueSize = fc.SendQueueSize
	}
	if len(fc.AllowedOrigins) > 0 {
		cfg.AllowedOrigins = fc.AllowedOrigins
	}
	return nil
}

func applyEnv(cfg *AppConfig) error {
	if v := strings.TrimSpace(os.Getenv("LISTEN_ADDR")); v != "" {
		cfg.ListenAddr = v
	}
	if v := strings.TrimSpace(os.Getenv("REDIS_URL")); v != "" {
		cfg.RedisURL = v
	}
	if v := strings.TrimSpace(os.Getenv("DATABASE_URL")); v != "" {
		cfg.DatabaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv("ROOM_IDLE_TTL")); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d < 0 {
			return fmt.Errorf("invalid ROOM_IDLE_TTL: %q", v)
		}
		cfg.RoomIdleTTL = d
	}
	if v := strings.TrimSpace(os.Getenv("WRITE_TIMEOUT")); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return fmt.Errorf("invalid WRITE_TIMEOUT: %q", v)
		}
		cfg.WriteTimeout = d
	}
	if v := strings.TrimSpace(os.Getenv("SEND_QUEUE_SIZE")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return fmt.Errorf("invalid SEND_QUEUE_SIZE: %q", v)
		}
		cfg.SendQueueSize = n
	}
	if v := strings.TrimSpace(os.Getenv("ALLOWED_ORIGINS")); v != "" {
		cfg.AllowedOrigins = nil
		for _, p := range strings.Split(v, ",") {
			if s := strings.TrimSpace(p); s != "" {
				cfg.AllowedOrigins = append(cfg.AllowedOrigins, s)
			}
		}
	}
	return nil
}
