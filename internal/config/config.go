package config

import "time"

// Config holds server configuration values.
type Config struct {
	Host              string        `mapstructure:"host" yaml:"host"`
	Port              int           `mapstructure:"port" yaml:"port"`
	HTTPAddr          string        `mapstructure:"http_addr" yaml:"http_addr"`
	LogLevel          string        `mapstructure:"log_level" yaml:"log_level"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`
	RateLimit         int           `mapstructure:"rate_limit" yaml:"rate_limit"`
	AuditDBPath       string        `mapstructure:"audit_db_path" yaml:"audit_db_path"`
	Console           bool          `mapstructure:"console" yaml:"console"`
}

// Default returns configuration with reasonable starter defaults.
// The admin HTTP server and the audit store are disabled unless configured.
func Default() Config {
	return Config{
		Host:              "",
		Port:              9000,
		HTTPAddr:          "",
		LogLevel:          "info",
		ReadHeaderTimeout: 5 * time.Second,
		ShutdownTimeout:   5 * time.Second,
		WriteTimeout:      0,
		RateLimit:         0,
		AuditDBPath:       "",
		Console:           true,
	}
}

// UpdateFrom overwrites non-zero values from other config into receiver.
// Console is a plain bool and is left to the caller.
func (c *Config) UpdateFrom(other Config) {
	if other.Host != "" {
		c.Host = other.Host
	}
	if other.Port != 0 {
		c.Port = other.Port
	}
	if other.HTTPAddr != "" {
		c.HTTPAddr = other.HTTPAddr
	}
	if other.LogLevel != "" {
		c.LogLevel = other.LogLevel
	}
	if other.ReadHeaderTimeout != 0 {
		c.ReadHeaderTimeout = other.ReadHeaderTimeout
	}
	if other.ShutdownTimeout != 0 {
		c.ShutdownTimeout = other.ShutdownTimeout
	}
	if other.WriteTimeout != 0 {
		c.WriteTimeout = other.WriteTimeout
	}
	if other.RateLimit != 0 {
		c.RateLimit = other.RateLimit
	}
	if other.AuditDBPath != "" {
		c.AuditDBPath = other.AuditDBPath
	}
}
