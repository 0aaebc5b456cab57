package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestConfig_Defaults(t *testing.T) {
	cfg := Default()
	if cfg.Storage.Backend != BackendFile {
		t.Errorf("expected file backend, got %s", cfg.Storage.Backend)
	}
	if cfg.Storage.Path == "" {
		t.Error("expected a default storage path")
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("expected info level, got %s", cfg.Logging.Level)
	}
}

func TestConfig_LoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "flightrec.toml")
	content := `
[workflow]
id = "invoice-7781"

[storage]
backend = "sqlite"
path = "/var/lib/flightrec/invoice.db"

[logging]
level = "debug"

[telemetry]
enabled = true
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	if cfg.Workflow.ID != "invoice-7781" {
		t.Errorf("workflow id: %s", cfg.Workflow.ID)
	}
	if cfg.Storage.Backend != BackendSQLite {
		t.Errorf("backend: %s", cfg.Storage.Backend)
	}
	if !cfg.Telemetry.Enabled {
		t.Error("expected telemetry enabled")
	}
}

func TestConfig_UnknownBackend(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "flightrec.toml")
	if err := os.WriteFile(path, []byte("[storage]\nbackend = \"carrier-pigeon\"\n"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadFile(path); err == nil {
		t.Error("expected error for unknown backend")
	}
}
