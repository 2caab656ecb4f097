// Package config loads packet API server configuration from a file and
// the environment.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"bidpacket_parser/internal/storage"
)

// ServerConfig holds the HTTP server settings.
type ServerConfig struct {
	Port        int      `yaml:"port" json:"port"`
	AuthEnabled bool     `yaml:"auth_enabled" json:"auth_enabled"`
	APIKeys     []string `yaml:"api_keys" json:"api_keys"`
}

// SQLiteConfig locates the local packet store.
type SQLiteConfig struct {
	Path string `yaml:"path" json:"path"`
}

// DatabaseConfig holds connection settings for PostgreSQL or ClickHouse.
type DatabaseConfig struct {
	Enabled  bool   `yaml:"enabled" json:"enabled"`
	Host     string `yaml:"host" json:"host"`
	Port     int    `yaml:"port" json:"port"`
	Database string `yaml:"database" json:"database"`
	User     string `yaml:"user" json:"user"`
	Password string `yaml:"password" json:"password"`
}

// NATSConfig holds the feed publisher settings.
type NATSConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	URL     string `yaml:"url" json:"url"`
}

// Config is the full configuration for the packet API server.
type Config struct {
	Server     ServerConfig   `yaml:"server" json:"server"`
	SQLite     SQLiteConfig   `yaml:"sqlite" json:"sqlite"`
	Postgres   DatabaseConfig `yaml:"postgres" json:"postgres"`
	ClickHouse DatabaseConfig `yaml:"clickhouse" json:"clickhouse"`
	NATS       NATSConfig     `yaml:"nats" json:"nats"`
}

// Default returns the local development configuration.
func Default() Config {
	st := storage.DefaultConfig()
	return Config{
		Server: ServerConfig{Port: 8080},
		SQLite: SQLiteConfig{Path: "bids.db"},
		Postgres: DatabaseConfig{
			Host:     st.Postgres.Host,
			Port:     st.Postgres.Port,
			Database: st.Postgres.Database,
			User:     st.Postgres.User,
			Password: st.Postgres.Password,
		},
		ClickHouse: DatabaseConfig{
			Host:     st.ClickHouse.Host,
			Port:     st.ClickHouse.Port,
			Database: st.ClickHouse.Database,
			User:     st.ClickHouse.User,
			Password: st.ClickHouse.Password,
		},
	}
}

// LoadFile reads a YAML or JSON configuration file and overlays it on the
// defaults. Keys absent from the file keep their default values.
func LoadFile(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse YAML config %s: %w", path, err)
		}
	case ".json":
		if err := json.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse JSON config %s: %w", path, err)
		}
	default:
		// Unknown extension: try JSON first, then YAML.
		if jsonErr := json.Unmarshal(data, &cfg); jsonErr != nil {
			if yamlErr := yaml.Unmarshal(data, &cfg); yamlErr != nil {
				return cfg, fmt.Errorf("parse config %s: not valid JSON (%v) or YAML (%v)", path, jsonErr, yamlErr)
			}
		}
	}

	return cfg, nil
}

// ApplyEnv overrides configuration from environment variables, so container
// setups work without a config file.
func ApplyEnv(cfg *Config) {
	cfg.Server.Port = envInt("PORT", cfg.Server.Port)
	cfg.SQLite.Path = envStr("SQLITE_PATH", cfg.SQLite.Path)

	cfg.Postgres.Host = envStr("POSTGRES_HOST", cfg.Postgres.Host)
	cfg.Postgres.Port = envInt("POSTGRES_PORT", cfg.Postgres.Port)
	cfg.Postgres.Database = envStr("POSTGRES_DATABASE", cfg.Postgres.Database)
	cfg.Postgres.User = envStr("POSTGRES_USER", cfg.Postgres.User)
	cfg.Postgres.Password = envStr("POSTGRES_PASSWORD", cfg.Postgres.Password)

	cfg.ClickHouse.Host = envStr("CLICKHOUSE_HOST", cfg.ClickHouse.Host)
	cfg.ClickHouse.Port = envInt("CLICKHOUSE_PORT", cfg.ClickHouse.Port)
	cfg.ClickHouse.Database = envStr("CLICKHOUSE_DATABASE", cfg.ClickHouse.Database)
	cfg.ClickHouse.User = envStr("CLICKHOUSE_USER", cfg.ClickHouse.User)
	cfg.ClickHouse.Password = envStr("CLICKHOUSE_PASSWORD", cfg.ClickHouse.Password)

	cfg.NATS.URL = envStr("NATS_URL", cfg.NATS.URL)
}

// Storage maps the PostgreSQL and ClickHouse sections onto the storage
// package's connection config.
func (c Config) Storage() storage.Config {
	return storage.Config{
		ClickHouse: storage.ClickHouseConfig{
			Host:     c.ClickHouse.Host,
			Port:     c.ClickHouse.Port,
			Database: c.ClickHouse.Database,
			User:     c.ClickHouse.User,
			Password: c.ClickHouse.Password,
		},
		Postgres: storage.PostgresConfig{
			Host:     c.Postgres.Host,
			Port:     c.Postgres.Port,
			Database: c.Postgres.Database,
			User:     c.Postgres.User,
			Password: c.Postgres.Password,
		},
	}
}

// SyncEnabled reports whether summary sync to PostgreSQL and ClickHouse is on.
func (c Config) SyncEnabled() bool {
	return c.Postgres.Enabled && c.ClickHouse.Enabled
}

// Validate checks the configuration for inconsistencies.
func (c Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	if c.SQLite.Path == "" {
		return fmt.Errorf("sqlite path is required")
	}
	if c.Server.AuthEnabled && len(c.Server.APIKeys) == 0 {
		return fmt.Errorf("auth enabled but no API keys configured")
	}
	if c.Postgres.Enabled != c.ClickHouse.Enabled {
		return fmt.Errorf("summary sync requires both postgres and clickhouse enabled")
	}
	return nil
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}
