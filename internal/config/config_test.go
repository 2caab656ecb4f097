package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Server.Port != 8080 {
		t.Errorf("server port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.SQLite.Path != "bids.db" {
		t.Errorf("sqlite path = %q, want bids.db", cfg.SQLite.Path)
	}
	if cfg.Postgres.Host != "localhost" || cfg.Postgres.Port != 5432 {
		t.Errorf("postgres = %s:%d, want localhost:5432", cfg.Postgres.Host, cfg.Postgres.Port)
	}
	if cfg.ClickHouse.Port != 9000 {
		t.Errorf("clickhouse port = %d, want 9000", cfg.ClickHouse.Port)
	}
	if cfg.Postgres.Enabled || cfg.ClickHouse.Enabled || cfg.NATS.Enabled {
		t.Error("optional backends should default to disabled")
	}
}

func TestLoadFileYAML(t *testing.T) {
	path := writeConfig(t, "config.yaml", `
server:
  port: 9090
  auth_enabled: true
  api_keys:
    - secret-1
postgres:
  enabled: true
  host: pg.internal
clickhouse:
  enabled: true
nats:
  enabled: true
  url: nats://broker:4222
`)

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("server port = %d, want 9090", cfg.Server.Port)
	}
	if !cfg.Server.AuthEnabled || len(cfg.Server.APIKeys) != 1 {
		t.Errorf("auth = %v keys = %v", cfg.Server.AuthEnabled, cfg.Server.APIKeys)
	}
	if cfg.Postgres.Host != "pg.internal" {
		t.Errorf("postgres host = %q, want pg.internal", cfg.Postgres.Host)
	}
	// Keys absent from the file keep their defaults.
	if cfg.Postgres.Port != 5432 {
		t.Errorf("postgres port = %d, want default 5432", cfg.Postgres.Port)
	}
	if cfg.ClickHouse.Host != "localhost" {
		t.Errorf("clickhouse host = %q, want default localhost", cfg.ClickHouse.Host)
	}
	if !cfg.SyncEnabled() {
		t.Error("sync should be enabled with both backends on")
	}
	if cfg.NATS.URL != "nats://broker:4222" {
		t.Errorf("nats url = %q", cfg.NATS.URL)
	}
}

func TestLoadFileJSON(t *testing.T) {
	path := writeConfig(t, "config.json", `{"server": {"port": 7070}, "sqlite": {"path": "/var/lib/bids.db"}}`)

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.Server.Port != 7070 {
		t.Errorf("server port = %d, want 7070", cfg.Server.Port)
	}
	if cfg.SQLite.Path != "/var/lib/bids.db" {
		t.Errorf("sqlite path = %q", cfg.SQLite.Path)
	}
}

func TestLoadFileUnknownExtension(t *testing.T) {
	path := writeConfig(t, "config.conf", "server:\n  port: 6060\n")

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.Server.Port != 6060 {
		t.Errorf("server port = %d, want 6060", cfg.Server.Port)
	}
}

func TestLoadFileMissing(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected an error for a missing file")
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("PORT", "8181")
	t.Setenv("SQLITE_PATH", "/tmp/env.db")
	t.Setenv("POSTGRES_HOST", "pgbox")
	t.Setenv("POSTGRES_PORT", "6432")
	t.Setenv("CLICKHOUSE_HOST", "chbox")
	t.Setenv("NATS_URL", "nats://envbroker:4222")

	cfg := Default()
	ApplyEnv(&cfg)

	if cfg.Server.Port != 8181 {
		t.Errorf("server port = %d, want 8181", cfg.Server.Port)
	}
	if cfg.SQLite.Path != "/tmp/env.db" {
		t.Errorf("sqlite path = %q", cfg.SQLite.Path)
	}
	if cfg.Postgres.Host != "pgbox" || cfg.Postgres.Port != 6432 {
		t.Errorf("postgres = %s:%d, want pgbox:6432", cfg.Postgres.Host, cfg.Postgres.Port)
	}
	if cfg.ClickHouse.Host != "chbox" {
		t.Errorf("clickhouse host = %q, want chbox", cfg.ClickHouse.Host)
	}
	if cfg.NATS.URL != "nats://envbroker:4222" {
		t.Errorf("nats url = %q", cfg.NATS.URL)
	}
	// Untouched values keep their defaults.
	if cfg.Postgres.Database != "bids_state" {
		t.Errorf("postgres database = %q, want bids_state", cfg.Postgres.Database)
	}
}

func TestApplyEnvIgnoresBadInt(t *testing.T) {
	t.Setenv("PORT", "not-a-number")

	cfg := Default()
	ApplyEnv(&cfg)

	if cfg.Server.Port != 8080 {
		t.Errorf("server port = %d, want default 8080", cfg.Server.Port)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:   "defaults",
			mutate: func(c *Config) {},
		},
		{
			name:    "bad port",
			mutate:  func(c *Config) { c.Server.Port = 0 },
			wantErr: true,
		},
		{
			name:    "empty sqlite path",
			mutate:  func(c *Config) { c.SQLite.Path = "" },
			wantErr: true,
		},
		{
			name:    "auth without keys",
			mutate:  func(c *Config) { c.Server.AuthEnabled = true },
			wantErr: true,
		},
		{
			name: "auth with keys",
			mutate: func(c *Config) {
				c.Server.AuthEnabled = true
				c.Server.APIKeys = []string{"k"}
			},
		},
		{
			name:    "postgres without clickhouse",
			mutate:  func(c *Config) { c.Postgres.Enabled = true },
			wantErr: true,
		},
		{
			name: "both sync backends",
			mutate: func(c *Config) {
				c.Postgres.Enabled = true
				c.ClickHouse.Enabled = true
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestStorageMapping(t *testing.T) {
	cfg := Default()
	cfg.Postgres.Host = "pg.internal"
	cfg.ClickHouse.Database = "analytics"

	st := cfg.Storage()

	if st.Postgres.Host != "pg.internal" {
		t.Errorf("postgres host = %q, want pg.internal", st.Postgres.Host)
	}
	if st.ClickHouse.Database != "analytics" {
		t.Errorf("clickhouse database = %q, want analytics", st.ClickHouse.Database)
	}
	if st.ClickHouse.Port != 9000 {
		t.Errorf("clickhouse port = %d, want 9000", st.ClickHouse.Port)
	}
}
