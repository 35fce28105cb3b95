// Package config loads server settings from code defaults, an optional YAML
// file and the environment, in that order of precedence (lowest first).
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

const (
	DevEnv = "dev"
	ProEnv = "pro"

	// FallbackAddress is served when no address is configured and TLS
	// cannot be used.
	FallbackAddress = ":5000"
)

type Config struct {
	Env     string  `yaml:"env" env:"ENV"`
	Server  Server  `yaml:"server"`
	Storage Storage `yaml:"storage"`
}

type Server struct {
	// Address is where plain HTTP is served. When empty in pro with TLSHost
	// set the server terminates TLS itself on :443.
	Address      string `yaml:"address" env:"ADDRESS_LISTEN"`
	TLSHost      string `yaml:"tls_host" env:"WHITELIST_HOST"`
	CertCacheDir string `yaml:"cert_cache_dir" env:"CERT_CACHE_DIR"`
}

type Storage struct {
	Driver      string `yaml:"driver" env:"STORAGE_DRIVER"`
	Key         string `yaml:"key" env:"STORAGE_KEY"`
	Dir         string `yaml:"dir" env:"STORAGE_DIR"`
	SQLitePath  string `yaml:"sqlite_path" env:"SQLITE_PATH"`
	RedisAddr   string `yaml:"redis_addr" env:"REDIS_ADDR"`
	RedisPass   string `yaml:"redis_password" env:"REDIS_PASSWORD"`
	RedisDB     int    `yaml:"redis_db" env:"REDIS_DB"`
	PostgresDSN string `yaml:"postgres_dsn" env:"POSTGRES_DSN"`
}

func Default() *Config {
	return &Config{
		Env: ProEnv,
		Server: Server{
			CertCacheDir: "/var/www/.cache",
		},
		Storage: Storage{
			Driver:     "file",
			Key:        "posts",
			Dir:        "./localStorage",
			SQLitePath: "./blogger.db",
			RedisAddr:  "localhost:6379",
		},
	}
}

// Load reads path when it exists, then applies environment overrides.
// An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	cfg.Server.applyFallback(cfg.Env)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyFallback picks the plain HTTP address when none was configured. Only
// pro with a TLS host keeps it empty, which selects autocert.
func (s *Server) applyFallback(env string) {
	if s.Address != "" {
		return
	}
	if env == DevEnv || s.TLSHost == "" {
		s.Address = FallbackAddress
	}
}

func (c *Config) Validate() error {
	switch c.Env {
	case DevEnv, ProEnv:
	default:
		return fmt.Errorf("unknown environment %q", c.Env)
	}
	switch c.Storage.Driver {
	case "memory", "file", "sqlite", "redis", "postgres":
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	if c.Storage.Key == "" {
		return errors.New("storage key is required")
	}
	if c.Server.Address == "" && c.Server.TLSHost == "" {
		return errors.New("either a listen address or a TLS host is required")
	}
	return nil
}
