// Package config loads paperz settings from defaults, an optional TOML file
// and PAPERZ_* environment variables, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/abhisek/paperz/internal/paperapi"
)

// Config holds application configuration.
type Config struct {
	Service  ServiceConfig  `mapstructure:"service"`
	Retry    RetryConfig    `mapstructure:"retry"`
	Database DatabaseConfig `mapstructure:"database"`
	Session  SessionConfig  `mapstructure:"session"`
	Server   ServerConfig   `mapstructure:"server"`
}

// ServiceConfig selects and addresses the paper service.
type ServiceConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	UserID  string        `mapstructure:"user_id"`
	Timeout time.Duration `mapstructure:"timeout"`
	// Local uses the embedded SQLite backend instead of HTTP.
	Local bool `mapstructure:"local"`
}

// RetryConfig tunes retries of read-only service calls.
type RetryConfig struct {
	MaxAttempts int           `mapstructure:"max_attempts"`
	InitialWait time.Duration `mapstructure:"initial_wait"`
	MaxWait     time.Duration `mapstructure:"max_wait"`
	Multiplier  float64       `mapstructure:"multiplier"`
}

// DatabaseConfig holds sqlite settings. An empty path means the XDG default.
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// SessionConfig tunes the paper session.
type SessionConfig struct {
	AutoAdvanceDelay time.Duration `mapstructure:"auto_advance_delay"`
	NarrowWidth      int           `mapstructure:"narrow_width"`
}

// ServerConfig holds dev server settings.
type ServerConfig struct {
	Addr           string   `mapstructure:"addr"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// DefaultConfig returns the settings used when nothing is configured.
func DefaultConfig() Config {
	r := paperapi.DefaultRetryConfig()
	return Config{
		Service: ServiceConfig{
			BaseURL: "http://localhost:8080",
			UserID:  "local",
			Timeout: 15 * time.Second,
		},
		Retry: RetryConfig{
			MaxAttempts: r.MaxAttempts,
			InitialWait: r.InitialWait,
			MaxWait:     r.MaxWait,
			Multiplier:  r.Multiplier,
		},
		Session: SessionConfig{
			AutoAdvanceDelay: 600 * time.Millisecond,
			NarrowWidth:      100,
		},
		Server: ServerConfig{Addr: ":8080"},
	}
}

// Path returns the config file location: $PAPERZ_CONFIG, else
// ~/.config/paperz/config.toml.
func Path() string {
	if p := os.Getenv("PAPERZ_CONFIG"); p != "" {
		return p
	}
	return filepath.Join(os.Getenv("HOME"), ".config", "paperz", "config.toml")
}

// Load reads configuration from file and env. Env var overrides use prefix
// PAPERZ_, with dots in keys replaced by underscores. A missing config file
// is not an error; a malformed one is.
func Load() (Config, error) {
	v := viper.New()
	setDefaults(v, DefaultConfig())

	v.SetConfigType("toml")
	v.SetConfigFile(Path())

	v.SetEnvPrefix("PAPERZ")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("read config %s: %w", v.ConfigFileUsed(), err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	return c, nil
}

func setDefaults(v *viper.Viper, d Config) {
	v.SetDefault("service.base_url", d.Service.BaseURL)
	v.SetDefault("service.user_id", d.Service.UserID)
	v.SetDefault("service.timeout", d.Service.Timeout)
	v.SetDefault("service.local", d.Service.Local)
	v.SetDefault("retry.max_attempts", d.Retry.MaxAttempts)
	v.SetDefault("retry.initial_wait", d.Retry.InitialWait)
	v.SetDefault("retry.max_wait", d.Retry.MaxWait)
	v.SetDefault("retry.multiplier", d.Retry.Multiplier)
	v.SetDefault("database.path", d.Database.Path)
	v.SetDefault("session.auto_advance_delay", d.Session.AutoAdvanceDelay)
	v.SetDefault("session.narrow_width", d.Session.NarrowWidth)
	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("server.allowed_origins", d.Server.AllowedOrigins)
}

// RetryPolicy converts the retry settings for paperapi.WithRetry.
func (c Config) RetryPolicy() paperapi.RetryConfig {
	return paperapi.RetryConfig{
		MaxAttempts: c.Retry.MaxAttempts,
		InitialWait: c.Retry.InitialWait,
		MaxWait:     c.Retry.MaxWait,
		Multiplier:  c.Retry.Multiplier,
	}
}
