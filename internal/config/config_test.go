package config

import (
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default configuration should validate: %v", err)
	}

	if cfg.API.Port != 8080 || cfg.MobileWS.Port != 8090 || cfg.DeviceWS.Port != 8091 {
		t.Errorf("unexpected default ports: api=%d mobile=%d device=%d",
			cfg.API.Port, cfg.MobileWS.Port, cfg.DeviceWS.Port)
	}
	if cfg.Catalog.DefaultLocale != "en" {
		t.Errorf("unexpected default locale %q", cfg.Catalog.DefaultLocale)
	}
	if cfg.Redis.Addr != "" {
		t.Error("redis cache should be disabled by default")
	}
}

func TestLoadFromEnv_Overrides(t *testing.T) {
	t.Setenv("CAPSYHUB_MOBILE_PORT", "9001")
	t.Setenv("CAPSYHUB_DEVICE_HOST", "127.0.0.1")
	t.Setenv("CAPSYHUB_WS_PING_INTERVAL", "15s")
	t.Setenv("CAPSYHUB_DIRECTORY_PATH", "/tmp/accounts.db")
	t.Setenv("CAPSYHUB_REDIS_ADDR", "localhost:6379")
	t.Setenv("CAPSYHUB_CATALOG_DEFAULT_LOCALE", "de")

	cfg := LoadFromEnv()

	if cfg.MobileWS.Port != 9001 {
		t.Errorf("expected mobile port 9001, got %d", cfg.MobileWS.Port)
	}
	if cfg.DeviceWS.Host != "127.0.0.1" {
		t.Errorf("expected device host 127.0.0.1, got %q", cfg.DeviceWS.Host)
	}
	if cfg.WebSocket.PingInterval != 15*time.Second {
		t.Errorf("expected 15s ping interval, got %v", cfg.WebSocket.PingInterval)
	}
	if cfg.Directory.Path != "/tmp/accounts.db" {
		t.Errorf("expected directory path override, got %q", cfg.Directory.Path)
	}
	if cfg.Redis.Addr != "localhost:6379" {
		t.Errorf("expected redis addr override, got %q", cfg.Redis.Addr)
	}
	if cfg.Catalog.DefaultLocale != "de" {
		t.Errorf("expected default locale de, got %q", cfg.Catalog.DefaultLocale)
	}
}

func TestLoadFromEnv_IgnoresInvalidValues(t *testing.T) {
	t.Setenv("CAPSYHUB_MOBILE_PORT", "not-a-number")
	t.Setenv("CAPSYHUB_WS_READ_TIMEOUT", "soon")

	cfg := LoadFromEnv()
	if cfg.MobileWS.Port != 8090 {
		t.Errorf("invalid port should fall back to default, got %d", cfg.MobileWS.Port)
	}
	if cfg.WebSocket.ReadTimeout != 60*time.Second {
		t.Errorf("invalid duration should fall back to default, got %v", cfg.WebSocket.ReadTimeout)
	}
}

func TestValidate_Failures(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad api port", func(c *Config) { c.API.Port = 0 }},
		{"port collision", func(c *Config) { c.DeviceWS.Port = c.MobileWS.Port }},
		{"empty host", func(c *Config) { c.MobileWS.Host = "" }},
		{"zero ping interval", func(c *Config) { c.WebSocket.PingInterval = 0 }},
		{"zero buffer", func(c *Config) { c.WebSocket.BufferSize = 0 }},
		{"empty directory path", func(c *Config) { c.Directory.Path = "" }},
		{"zero directory timeout", func(c *Config) { c.Directory.Timeout = 0 }},
		{"redis without ttl", func(c *Config) { c.Redis.Addr = "x:1"; c.Redis.TTL = 0 }},
		{"empty default locale", func(c *Config) { c.Catalog.DefaultLocale = "" }},
		{"missing websocket section", func(c *Config) { c.WebSocket = nil }},
	}

	for _, tc := range cases {
		cfg := DefaultConfig()
		tc.mutate(cfg)
		if err := cfg.Validate(); err == nil {
			t.Errorf("%s: expected validation error", tc.name)
		}
	}
}
