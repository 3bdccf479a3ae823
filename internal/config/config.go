package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config is the system-wide settings coordinator. One section per listener
// plus the collaborator stores.
type Config struct {
	API       *ServerConfig    `json:"api"`
	MobileWS  *ServerConfig    `json:"mobile_ws"`
	DeviceWS  *ServerConfig    `json:"device_ws"`
	WebSocket *WebSocketConfig `json:"websocket"`
	Directory *DirectoryConfig `json:"directory"`
	Redis     *RedisConfig     `json:"redis"`
	Catalog   *CatalogConfig   `json:"catalog"`
}

// ServerConfig configures one HTTP listener.
type ServerConfig struct {
	Host         string        `json:"host"`
	Port         int           `json:"port"`
	ReadTimeout  time.Duration `json:"read_timeout"`
	WriteTimeout time.Duration `json:"write_timeout"`
}

// Addr returns the listen address.
func (s *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// WebSocketConfig tunes the per-connection transport behavior.
type WebSocketConfig struct {
	PingInterval time.Duration `json:"ping_interval"`
	ReadTimeout  time.Duration `json:"read_timeout"`
	WriteTimeout time.Duration `json:"write_timeout"`
	BufferSize   int           `json:"buffer_size"`
}

// DirectoryConfig configures the SQLite-backed user directory.
type DirectoryConfig struct {
	Path    string        `json:"path"`
	Timeout time.Duration `json:"timeout"`
}

// RedisConfig configures the optional directory read-through cache. An empty
// Addr disables it.
type RedisConfig struct {
	Addr     string        `json:"addr"`
	Username string        `json:"username"`
	Password string        `json:"password"`
	TTL      time.Duration `json:"ttl"`
}

// CatalogConfig points at the optional TOML content overrides. An empty Path
// uses the built-in defaults only.
type CatalogConfig struct {
	Path          string `json:"path"`
	DefaultLocale string `json:"default_locale"`
}

// DefaultConfig returns production defaults: ops API on 8080, mobile broker
// on 8090, device broker on 8091.
func DefaultConfig() *Config {
	return &Config{
		API: &ServerConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		MobileWS: &ServerConfig{
			Host:         "0.0.0.0",
			Port:         8090,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		DeviceWS: &ServerConfig{
			Host:         "0.0.0.0",
			Port:         8091,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		WebSocket: &WebSocketConfig{
			PingInterval: 30 * time.Second,
			ReadTimeout:  60 * time.Second,
			WriteTimeout: 10 * time.Second,
			BufferSize:   100,
		},
		Directory: &DirectoryConfig{
			Path:    "./capsyhub.db",
			Timeout: 30 * time.Second,
		},
		Redis: &RedisConfig{
			TTL: 5 * time.Minute,
		},
		Catalog: &CatalogConfig{
			DefaultLocale: "en",
		},
	}
}

// Validate rejects configurations that would fail at runtime.
func (c *Config) Validate() error {
	for name, s := range map[string]*ServerConfig{
		"api": c.API, "mobile_ws": c.MobileWS, "device_ws": c.DeviceWS,
	} {
		if s == nil {
			return fmt.Errorf("%s server configuration is required", name)
		}
		if s.Port <= 0 || s.Port > 65535 {
			return fmt.Errorf("%s port must be between 1 and 65535", name)
		}
		if s.Host == "" {
			return fmt.Errorf("%s host cannot be empty", name)
		}
		if s.ReadTimeout <= 0 || s.WriteTimeout <= 0 {
			return fmt.Errorf("%s timeouts must be positive", name)
		}
	}

	ports := map[int]string{}
	for name, s := range map[string]*ServerConfig{
		"api": c.API, "mobile_ws": c.MobileWS, "device_ws": c.DeviceWS,
	} {
		if other, taken := ports[s.Port]; taken {
			return fmt.Errorf("%s and %s cannot share port %d", name, other, s.Port)
		}
		ports[s.Port] = name
	}

	if c.WebSocket == nil {
		return fmt.Errorf("websocket configuration is required")
	}
	if c.WebSocket.PingInterval <= 0 || c.WebSocket.ReadTimeout <= 0 || c.WebSocket.WriteTimeout <= 0 {
		return fmt.Errorf("websocket intervals must be positive")
	}
	if c.WebSocket.BufferSize <= 0 {
		return fmt.Errorf("websocket buffer size must be positive")
	}

	if c.Directory == nil || c.Directory.Path == "" {
		return fmt.Errorf("directory path cannot be empty")
	}
	if c.Directory.Timeout <= 0 {
		return fmt.Errorf("directory timeout must be positive")
	}

	if c.Redis == nil {
		return fmt.Errorf("redis configuration is required")
	}
	if c.Redis.Addr != "" && c.Redis.TTL <= 0 {
		return fmt.Errorf("redis ttl must be positive")
	}

	if c.Catalog == nil || c.Catalog.DefaultLocale == "" {
		return fmt.Errorf("catalog default locale cannot be empty")
	}

	return nil
}

// LoadFromEnv builds a configuration from CAPSYHUB_* environment variables
// over the defaults.
func LoadFromEnv() *Config {
	cfg := DefaultConfig()

	loadServerEnv("CAPSYHUB_API", cfg.API)
	loadServerEnv("CAPSYHUB_MOBILE", cfg.MobileWS)
	loadServerEnv("CAPSYHUB_DEVICE", cfg.DeviceWS)

	if v := os.Getenv("CAPSYHUB_WS_PING_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.WebSocket.PingInterval = d
		}
	}
	if v := os.Getenv("CAPSYHUB_WS_READ_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.WebSocket.ReadTimeout = d
		}
	}
	if v := os.Getenv("CAPSYHUB_WS_WRITE_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.WebSocket.WriteTimeout = d
		}
	}
	if v := os.Getenv("CAPSYHUB_WS_BUFFER_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.WebSocket.BufferSize = n
		}
	}

	if v := os.Getenv("CAPSYHUB_DIRECTORY_PATH"); v != "" {
		cfg.Directory.Path = v
	}
	if v := os.Getenv("CAPSYHUB_DIRECTORY_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Directory.Timeout = d
		}
	}

	cfg.Redis.Addr = os.Getenv("CAPSYHUB_REDIS_ADDR")
	cfg.Redis.Username = os.Getenv("CAPSYHUB_REDIS_USERNAME")
	cfg.Redis.Password = os.Getenv("CAPSYHUB_REDIS_PASSWORD")
	if v := os.Getenv("CAPSYHUB_REDIS_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Redis.TTL = d
		}
	}

	if v := os.Getenv("CAPSYHUB_CATALOG_PATH"); v != "" {
		cfg.Catalog.Path = v
	}
	if v := os.Getenv("CAPSYHUB_CATALOG_DEFAULT_LOCALE"); v != "" {
		cfg.Catalog.DefaultLocale = v
	}

	return cfg
}

func loadServerEnv(prefix string, s *ServerConfig) {
	if v := os.Getenv(prefix + "_HOST"); v != "" {
		s.Host = v
	}
	if v := os.Getenv(prefix + "_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			s.Port = n
		}
	}
	if v := os.Getenv(prefix + "_READ_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			s.ReadTimeout = d
		}
	}
	if v := os.Getenv(prefix + "_WRITE_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			s.WriteTimeout = d
		}
	}
}
