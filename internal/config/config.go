package config

import "time"

// Config holds server configuration values.
type Config struct {
	Addr              string        `mapstructure:"addr" yaml:"addr"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	LogLevel          string        `mapstructure:"log_level" yaml:"log_level"`
	TokenSecret       string        `mapstructure:"token_secret" yaml:"token_secret"`
	MaxPlayersPerRoom int           `mapstructure:"max_players_per_room" yaml:"max_players_per_room"`
	ReconnectWindow   time.Duration `mapstructure:"reconnect_window" yaml:"reconnect_window"`
	ResetDelay        time.Duration `mapstructure:"reset_delay" yaml:"reset_delay"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		Addr:              ":8080",
		ReadHeaderTimeout: 5 * time.Second,
		ShutdownTimeout:   5 * time.Second,
		LogLevel:          "info",
		TokenSecret:       "race-dev-secret",
		MaxPlayersPerRoom: 50,
		ReconnectWindow:   10 * time.Second,
		ResetDelay:        10 * time.Second,
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
	if other.TokenSecret != "" {
		c.TokenSecret = other.TokenSecret
	}
	if other.MaxPlayersPerRoom != 0 {
		c.MaxPlayersPerRoom = other.MaxPlayersPerRoom
	}
	if other.ReconnectWindow != 0 {
		c.ReconnectWindow = other.ReconnectWindow
	}
	if other.ResetDelay != 0 {
		c.ResetDelay = other.ResetDelay
	}
}
