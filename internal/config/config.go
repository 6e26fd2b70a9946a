package config

import (
	"fmt"
	"time"
)

// Session backends.
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

// Config holds server configuration values.
type Config struct {
	Addr              string        `mapstructure:"addr" yaml:"addr"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	LogLevel          string        `mapstructure:"log_level" yaml:"log_level"`
	LogFormat         string        `mapstructure:"log_format" yaml:"log_format"`
	Session           SessionConfig `mapstructure:"session" yaml:"session"`
	Relay             RelayConfig   `mapstructure:"relay" yaml:"relay"`
}

// SessionConfig controls the session registry.
type SessionConfig struct {
	Backend           string        `mapstructure:"backend" yaml:"backend"`
	CodeLength        int           `mapstructure:"code_length" yaml:"code_length"`
	TTL               time.Duration `mapstructure:"ttl" yaml:"ttl"`
	SweepInterval     time.Duration `mapstructure:"sweep_interval" yaml:"sweep_interval"`
	MaxCreateAttempts int           `mapstructure:"max_create_attempts" yaml:"max_create_attempts"`
	DatabasePath      string        `mapstructure:"database_path" yaml:"database_path"`
	RedisURL          string        `mapstructure:"redis_url" yaml:"redis_url"`
}

// RelayConfig controls the websocket room relay.
type RelayConfig struct {
	EventBuffer          int           `mapstructure:"event_buffer" yaml:"event_buffer"`
	MaxMessageBytes      int           `mapstructure:"max_message_bytes" yaml:"max_message_bytes"`
	MaxMessagesPerMinute int           `mapstructure:"max_messages_per_minute" yaml:"max_messages_per_minute"`
	WriteTimeout         time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		Addr:              ":3001",
		ReadHeaderTimeout: 5 * time.Second,
		ShutdownTimeout:   5 * time.Second,
		LogLevel:          "info",
		LogFormat:         "console",
		Session: SessionConfig{
			Backend:           BackendMemory,
			CodeLength:        6,
			TTL:               24 * time.Hour,
			SweepInterval:     time.Minute,
			MaxCreateAttempts: 8,
			DatabasePath:      "labconnect.db",
			RedisURL:          "redis://localhost:6379/0",
		},
		Relay: RelayConfig{
			EventBuffer:          32,
			MaxMessageBytes:      4096,
			MaxMessagesPerMinute: 120,
			WriteTimeout:         5 * time.Second,
		},
	}
}

// UpdateFrom overwrites non-zero values from other config into receiver.
func (c *Config) UpdateFrom(other Config) {
	if other.Addr != "" {
		c.Addr = other.Addr
	}
	if other.ReadHeaderTimeout != 0 {
		c.ReadHeaderTimeout = other.ReadHeaderTimeout
	}
	if other.ShutdownTimeout != 0 {
		c.ShutdownTimeout = other.ShutdownTimeout
	}
	if other.LogLevel != "" {
		c.LogLevel = other.LogLevel
	}
	if other.LogFormat != "" {
		c.LogFormat = other.LogFormat
	}
	if other.Session.Backend != "" {
		c.Session.Backend = other.Session.Backend
	}
	if other.Session.CodeLength != 0 {
		c.Session.CodeLength = other.Session.CodeLength
	}
	if other.Session.TTL != 0 {
		c.Session.TTL = other.Session.TTL
	}
	if other.Session.SweepInterval != 0 {
		c.Session.SweepInterval = other.Session.SweepInterval
	}
	if other.Session.MaxCreateAttempts != 0 {
		c.Session.MaxCreateAttempts = other.Session.MaxCreateAttempts
	}
	if other.Session.DatabasePath != "" {
		c.Session.DatabasePath = other.Session.DatabasePath
	}
	if other.Session.RedisURL != "" {
		c.Session.RedisURL = other.Session.RedisURL
	}
	if other.Relay.EventBuffer != 0 {
		c.Relay.EventBuffer = other.Relay.EventBuffer
	}
	if other.Relay.MaxMessageBytes != 0 {
		c.Relay.MaxMessageBytes = other.Relay.MaxMessageBytes
	}
	if other.Relay.MaxMessagesPerMinute != 0 {
		c.Relay.MaxMessagesPerMinute = other.Relay.MaxMessagesPerMinute
	}
	if other.Relay.WriteTimeout != 0 {
		c.Relay.WriteTimeout = other.Relay.WriteTimeout
	}
}

// Validate reports configuration values the server cannot run with.
func (c *Config) Validate() error {
	switch c.Session.Backend {
	case BackendMemory, BackendSQLite, BackendRedis:
	default:
		return fmt.Errorf("unknown session backend %q", c.Session.Backend)
	}
	if c.Session.CodeLength != 5 && c.Session.CodeLength != 6 {
		return fmt.Errorf("session code length must be 5 or 6, got %d", c.Session.CodeLength)
	}
	if c.Session.TTL <= 0 {
		return fmt.Errorf("session ttl must be positive")
	}
	if c.Session.MaxCreateAttempts <= 0 {
		return fmt.Errorf("max create attempts must be positive")
	}
	if c.Relay.EventBuffer <= 0 {
		return fmt.Errorf("relay event buffer must be positive")
	}
	return nil
}
