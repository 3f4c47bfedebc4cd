package config

import (
	"os"
	"testing"
)

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	tmpFile, err := os.CreateTemp(t.TempDir(), "timeslice-config-*.yaml")
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	if _, err := tmpFile.WriteString(content); err != nil {
		t.Fatalf("failed to write temp file: %v", err)
	}
	if err := tmpFile.Close(); err != nil {
		t.Fatalf("failed to close temp file: %v", err)
	}
	return tmpFile.Name()
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"DATA_DIR", "SQLITE_PATH", "EVENTS_DIR", "LOG_LEVEL",
		"ALPACA_API_KEY", "ALPACA_API_SECRET", "APCA_API_KEY_ID", "APCA_API_SECRET_KEY",
	} {
		os.Unsetenv(k)
	}
}

func TestLoadFull(t *testing.T) {
	clearEnv(t)
	path := writeTempConfig(t, `
storage:
  backend: "sqlite"
  data_dir: "/tmp/timeslice/data"
  sqlite_path: "/tmp/timeslice/bars.db"
server:
  host: "0.0.0.0"
  port: 8090
events:
  dir: "/tmp/timeslice/events"
  restrict_to_data: true
instruments:
  - ES
  - NQ
alpaca:
  api_key: "test-key"
  api_secret: "test-secret"
  base_url: "https://paper-api.alpaca.markets"
  data_url: "https://data.alpaca.markets"
logging:
  level: "debug"
  format: "json"
gather:
  start_date: "2019-08-11"
  rate_limit_per_min: 120
  max_retries: 5
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if cfg.Storage.Backend != BackendSQLite {
		t.Errorf("Storage.Backend = %q, want %q", cfg.Storage.Backend, BackendSQLite)
	}
	if cfg.Storage.DataDir != "/tmp/timeslice/data" {
		t.Errorf("Storage.DataDir = %q, want %q", cfg.Storage.DataDir, "/tmp/timeslice/data")
	}
	if cfg.Storage.SQLitePath != "/tmp/timeslice/bars.db" {
		t.Errorf("Storage.SQLitePath = %q, want %q", cfg.Storage.SQLitePath, "/tmp/timeslice/bars.db")
	}
	if cfg.Server.Host != "0.0.0.0" || cfg.Server.Port != 8090 {
		t.Errorf("Server = %+v, want 0.0.0.0:8090", cfg.Server)
	}
	if cfg.Events.Dir != "/tmp/timeslice/events" {
		t.Errorf("Events.Dir = %q, want %q", cfg.Events.Dir, "/tmp/timeslice/events")
	}
	if !cfg.Events.RestrictToData {
		t.Error("Events.RestrictToData = false, want true")
	}
	if len(cfg.Instruments) != 2 || cfg.Instruments[0] != "ES" || cfg.Instruments[1] != "NQ" {
		t.Errorf("Instruments = %v, want [ES NQ]", cfg.Instruments)
	}
	if cfg.Alpaca.APIKey != "test-key" || cfg.Alpaca.APISecret != "test-secret" {
		t.Errorf("Alpaca credentials = %q/%q", cfg.Alpaca.APIKey, cfg.Alpaca.APISecret)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "json" {
		t.Errorf("Logging = %+v", cfg.Logging)
	}
	if cfg.Gather.StartDate != "2019-08-11" {
		t.Errorf("Gather.StartDate = %q, want %q", cfg.Gather.StartDate, "2019-08-11")
	}
	if cfg.Gather.RateLimitPerMin != 120 {
		t.Errorf("Gather.RateLimitPerMin = %d, want 120", cfg.Gather.RateLimitPerMin)
	}
	if cfg.Gather.MaxRetries != 5 {
		t.Errorf("Gather.MaxRetries = %d, want 5", cfg.Gather.MaxRetries)
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	path := writeTempConfig(t, `
instruments:
  - ES
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if cfg.Storage.Backend != BackendParquet {
		t.Errorf("default Storage.Backend = %q, want %q", cfg.Storage.Backend, BackendParquet)
	}
	if cfg.Storage.DataDir != "data" {
		t.Errorf("default Storage.DataDir = %q, want %q", cfg.Storage.DataDir, "data")
	}
	if cfg.Events.Dir != "events" {
		t.Errorf("default Events.Dir = %q, want %q", cfg.Events.Dir, "events")
	}
	if cfg.Server.Host != "127.0.0.1" || cfg.Server.Port != 8080 {
		t.Errorf("default Server = %+v, want 127.0.0.1:8080", cfg.Server)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "text" {
		t.Errorf("default Logging = %+v", cfg.Logging)
	}
	if cfg.Gather.RateLimitPerMin != 200 || cfg.Gather.MaxRetries != 3 {
		t.Errorf("default Gather = %+v", cfg.Gather)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	clearEnv(t)
	path := writeTempConfig(t, `
storage:
  data_dir: "/original/data"
alpaca:
  api_key: "yaml-key"
  api_secret: "yaml-secret"
`)

	os.Setenv("DATA_DIR", "/env/data")
	os.Setenv("ALPACA_API_KEY", "env-key")
	defer clearEnv(t)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if cfg.Storage.DataDir != "/env/data" {
		t.Errorf("Storage.DataDir = %q, want %q (env override)", cfg.Storage.DataDir, "/env/data")
	}
	if cfg.Alpaca.APIKey != "env-key" {
		t.Errorf("Alpaca.APIKey = %q, want %q (env override)", cfg.Alpaca.APIKey, "env-key")
	}
	// api_secret should remain from YAML since no env override was set.
	if cfg.Alpaca.APISecret != "yaml-secret" {
		t.Errorf("Alpaca.APISecret = %q, want %q (from YAML)", cfg.Alpaca.APISecret, "yaml-secret")
	}
}

func TestLoadUnknownBackend(t *testing.T) {
	clearEnv(t)
	path := writeTempConfig(t, `
storage:
  backend: "postgres"
`)

	if _, err := Load(path); err == nil {
		t.Error("Load() should reject an unknown storage backend")
	}
}
