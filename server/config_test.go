package server

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfigYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := "shmem: true\npoolSizes:\n  forward: 4\nevalLog:\n  driver: sqlite\n  dsn: /tmp/evals.db\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if !cfg.ShMem {
		t.Fatal("ShMem = false, want true")
	}
	if cfg.PoolSizes["forward"] != 4 {
		t.Fatalf("PoolSizes[forward] = %d, want 4", cfg.PoolSizes["forward"])
	}
	if cfg.EvalLog.Driver != "sqlite" || cfg.EvalLog.DSN != "/tmp/evals.db" {
		t.Fatalf("EvalLog = %+v, want sqlite /tmp/evals.db", cfg.EvalLog)
	}

	opts := cfg.Options()
	if len(opts) != 2 {
		t.Fatalf("Options() returned %d options, want 2 (shmem + pool size)", len(opts))
	}
}

func TestLoadConfigJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	content := `{"shmem": false, "poolSizes": {"gaussian1d": 2}}`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.PoolSizes["gaussian1d"] != 2 {
		t.Fatalf("PoolSizes[gaussian1d] = %d, want 2", cfg.PoolSizes["gaussian1d"])
	}
}

func TestLoadConfigUnsupportedExtension(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte("x=1"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Fatal("expected error for unsupported extension")
	}
}
