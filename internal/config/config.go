// Package config defines and loads the respserver configuration.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ananthvk/respkv/internal/logger"
)

type ServerConfig struct {
	Server  ServerSection  `koanf:"server"`
	Metrics MetricsSection `koanf:"metrics"`
	Log     LogSection     `koanf:"log"`
}

type ServerSection struct {
	Addr string `koanf:"addr"`

	// IdleTimeout applies while the connection holds no partial request, ReadTimeout once it
	// does. Zero disables the deadline.
	IdleTimeout  time.Duration `koanf:"idle_timeout"`
	ReadTimeout  time.Duration `koanf:"read_timeout"`
	WriteTimeout time.Duration `koanf:"write_timeout"`

	// MaxConnections caps concurrent clients, 0 means unlimited
	MaxConnections int `koanf:"max_connections"`

	// RateLimit is commands per second per connection, 0 disables limiting
	RateLimit float64 `koanf:"rate_limit"`
	RateBurst int     `koanf:"rate_burst"`

	ReadBufferSize int `koanf:"read_buffer_size"`
	MaxBufferSize  int `koanf:"max_buffer_size"`
}

type MetricsSection struct {
	Enabled bool   `koanf:"enabled"`
	Addr    string `koanf:"addr"`
}

type LogSection struct {
	Level     string `koanf:"level"`
	Format    string `koanf:"format"`
	AddSource bool   `koanf:"add_source"`
}

const (
	DefaultAddr        = "0.0.0.0:6379"
	DefaultMetricsAddr = "127.0.0.1:9121"

	DefaultIdleTimeout  = 5 * time.Minute
	DefaultReadTimeout  = 30 * time.Second
	DefaultWriteTimeout = 10 * time.Second

	DefaultMaxConnections = 10000
	DefaultReadBufferSize = 4096
	// Large enough for one maximum-size bulk string plus its framing
	DefaultMaxBufferSize = 512<<20 + 64

	DefaultLogLevel  = "info"
	DefaultLogFormat = "text"
)

func Default() ServerConfig {
	return ServerConfig{
		Server: ServerSection{
			Addr:           DefaultAddr,
			IdleTimeout:    DefaultIdleTimeout,
			ReadTimeout:    DefaultReadTimeout,
			WriteTimeout:   DefaultWriteTimeout,
			MaxConnections: DefaultMaxConnections,
			ReadBufferSize: DefaultReadBufferSize,
			MaxBufferSize:  DefaultMaxBufferSize,
		},
		Metrics: MetricsSection{
			Addr: DefaultMetricsAddr,
		},
		Log: LogSection{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}

var ErrInvalid = errors.New("invalid configuration")

// Verify reports the first invalid setting
func Verify(cfg *ServerConfig) error {
	if err := verifyServer(&cfg.Server); err != nil {
		return err
	}
	if cfg.Metrics.Enabled && cfg.Metrics.Addr == "" {
		return fmt.Errorf("%w: metrics.addr is required when metrics are enabled", ErrInvalid)
	}
	if _, err := logger.ParseLevel(cfg.Log.Level); err != nil {
		return fmt.Errorf("%w: log.level: %v", ErrInvalid, err)
	}
	switch strings.ToLower(cfg.Log.Format) {
	case "", "text", "console", "json":
	default:
		return fmt.Errorf("%w: log.format must be text or json, got %q", ErrInvalid, cfg.Log.Format)
	}
	return nil
}

func verifyServer(s *ServerSection) error {
	if s.Addr == "" {
		return fmt.Errorf("%w: server.addr is required", ErrInvalid)
	}
	if s.IdleTimeout < 0 || s.ReadTimeout < 0 || s.WriteTimeout < 0 {
		return fmt.Errorf("%w: server timeouts cannot be negative", ErrInvalid)
	}
	if s.MaxConnections < 0 {
		return fmt.Errorf("%w: server.max_connections cannot be negative", ErrInvalid)
	}
	if s.RateLimit < 0 {
		return fmt.Errorf("%w: server.rate_limit cannot be negative", ErrInvalid)
	}
	if s.RateLimit > 0 && s.RateBurst < 1 {
		return fmt.Errorf("%w: server.rate_burst must be at least 1 when rate_limit is set", ErrInvalid)
	}
	if s.ReadBufferSize < 1 {
		return fmt.Errorf("%w: server.read_buffer_size must be positive", ErrInvalid)
	}
	if s.MaxBufferSize < s.ReadBufferSize {
		return fmt.Errorf("%w: server.max_buffer_size must be at least read_buffer_size", ErrInvalid)
	}
	return nil
}
