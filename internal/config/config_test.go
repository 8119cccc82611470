package config

import (
	"errors"
	"testing"
	"time"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := Verify(&cfg); err != nil {
		t.Fatalf("Verify(Default()) error = %v", err)
	}
	if cfg.Server.Addr != DefaultAddr {
		t.Errorf("Server.Addr = %q, want %q", cfg.Server.Addr, DefaultAddr)
	}
	if cfg.Metrics.Enabled {
		t.Error("metrics enabled by default")
	}
}

func TestVerify(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*ServerConfig)
	}{
		{"empty addr", func(c *ServerConfig) { c.Server.Addr = "" }},
		{"negative idle timeout", func(c *ServerConfig) { c.Server.IdleTimeout = -time.Second }},
		{"negative write timeout", func(c *ServerConfig) { c.Server.WriteTimeout = -1 }},
		{"negative max connections", func(c *ServerConfig) { c.Server.MaxConnections = -1 }},
		{"negative rate", func(c *ServerConfig) { c.Server.RateLimit = -1 }},
		{"rate without burst", func(c *ServerConfig) { c.Server.RateLimit = 10 }},
		{"zero read buffer", func(c *ServerConfig) { c.Server.ReadBufferSize = 0 }},
		{"max buffer below read buffer", func(c *ServerConfig) { c.Server.MaxBufferSize = 10 }},
		{"metrics without addr", func(c *ServerConfig) {
			c.Metrics.Enabled = true
			c.Metrics.Addr = ""
		}},
		{"bad log level", func(c *ServerConfig) { c.Log.Level = "verbose" }},
		{"bad log format", func(c *ServerConfig) { c.Log.Format = "xml" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(&cfg)
			if err := Verify(&cfg); !errors.Is(err, ErrInvalid) {
				t.Errorf("Verify() error = %v, want ErrInvalid", err)
			}
		})
	}
}
