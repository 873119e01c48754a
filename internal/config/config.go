// Package config loads the daemon's infrastructure configuration from a JSON
// file. Gate behaviour itself is configured from the environment (see
// gate.SettingsFromEnv); this file only wires the surrounding pieces: server
// address, audit store, event queue, logging and alerting.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// Config is the daemon configuration.
type Config struct {
	Server   ServerConfig   `json:"server"`
	Audit    AuditConfig    `json:"audit"`
	Events   EventsConfig   `json:"events"`
	Logging  LoggingConfig  `json:"logging"`
	Alerting AlertingConfig `json:"alerting"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Address string `json:"address"`
}

// AuditConfig selects the decision store backend.
type AuditConfig struct {
	Driver string `json:"driver"`
	DSN    string `json:"dsn"`
}

// EventsConfig selects the decision event queue backend.
type EventsConfig struct {
	Driver   string         `json:"driver"`
	Workers  int            `json:"workers"`
	Redis    RedisConfig    `json:"redis"`
	RabbitMQ RabbitMQConfig `json:"rabbitmq"`
}

// RedisConfig carries the Redis queue connection settings.
type RedisConfig struct {
	Address   string `json:"address"`
	Password  string `json:"password"`
	DB        int    `json:"db"`
	Queue     string `json:"queue"`
	BlockWait int    `json:"block_wait_seconds"`
}

// RabbitMQConfig carries the RabbitMQ queue connection settings.
type RabbitMQConfig struct {
	URL        string `json:"url"`
	Queue      string `json:"queue"`
	Prefetch   int    `json:"prefetch"`
	Durable    bool   `json:"durable"`
	AutoDelete bool   `json:"auto_delete"`
}

// LoggingConfig mirrors pkg/logger.Config.
type LoggingConfig struct {
	Level   string         `json:"level"`
	Format  string         `json:"format"`
	Outputs []string       `json:"outputs"`
	Audit   AuditLogConfig `json:"audit"`
}

// AuditLogConfig controls the rolling decision-audit log file.
type AuditLogConfig struct {
	Enabled    bool   `json:"enabled"`
	Path       string `json:"path"`
	MaxSizeMB  int    `json:"max_size_mb"`
	MaxBackups int    `json:"max_backups"`
	MaxAgeDays int    `json:"max_age_days"`
}

// AlertingConfig points at the YAML notifier configuration.
type AlertingConfig struct {
	ConfigPath string `json:"config_path"`
}

// Load parses the JSON configuration at path. A missing path yields the
// built-in defaults so the daemon can start with nothing but environment
// variables set.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config file: %w", err)
	}
	if err := json.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}
	cfg.applyDefaults()
	return cfg, nil
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Server.Address == "" {
		c.Server.Address = ":8080"
	}
	if c.Audit.Driver == "" {
		c.Audit.Driver = "memory"
	}
	if c.Events.Driver == "" {
		c.Events.Driver = "memory"
	}
	if c.Events.Workers <= 0 {
		c.Events.Workers = 2
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}
}
