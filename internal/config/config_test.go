package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Report.Data != nil || cfg.Archive.MaxFiles != nil {
		t.Fatalf("expected empty config, got %+v", cfg)
	}
}

func TestLoadConfigSections(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[report]
data = "/tmp/charts.json"
locale = "en"
hide-empty = true

[serve]
addr = ":9000"

[archive]
max-files = 5
date-folders = false
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Report.Data == nil || *cfg.Report.Data != "/tmp/charts.json" {
		t.Fatalf("unexpected data path: %v", cfg.Report.Data)
	}
	if cfg.Report.HideEmpty == nil || !*cfg.Report.HideEmpty {
		t.Fatalf("expected hide-empty set")
	}
	if cfg.Serve.Addr == nil || *cfg.Serve.Addr != ":9000" {
		t.Fatalf("unexpected addr: %v", cfg.Serve.Addr)
	}
	if cfg.Archive.MaxFiles == nil || *cfg.Archive.MaxFiles != 5 {
		t.Fatalf("unexpected max-files: %v", cfg.Archive.MaxFiles)
	}
	if cfg.Archive.DateFolders == nil || *cfg.Archive.DateFolders {
		t.Fatalf("expected date-folders false")
	}
	if cfg.Browse.Tab != nil {
		t.Fatalf("expected browse tab unset")
	}
}

func TestLoadConfigUnknownKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[report]\ncolour = \"red\"\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Fatalf("expected unknown key error")
	}
}

func TestLoadEnvAndOverrides(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	if err := os.WriteFile(envPath, []byte("KEYSTONE_DATA=/data/charts.json\nKEYSTONE_CONFIG="+filepath.Join(dir, "c.toml")+"\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv(EnvData, "")
	t.Setenv(EnvConfig, "")
	os.Unsetenv(EnvData)
	os.Unsetenv(EnvConfig)

	if err := LoadEnv(envPath); err != nil {
		t.Fatalf("load env: %v", err)
	}
	if p, ok := DataPathFromEnv(); !ok || p != "/data/charts.json" {
		t.Fatalf("unexpected data path %q", p)
	}
	if got := DefaultConfigPath(); got != filepath.Join(dir, "c.toml") {
		t.Fatalf("unexpected config path %q", got)
	}
	if err := LoadEnv(filepath.Join(dir, "missing.env")); err != nil {
		t.Fatalf("missing env file should be ignored: %v", err)
	}
}

func TestDefaultPathsUseXDG(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_DATA_HOME", dir)
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv(EnvConfig, "")
	if got := DefaultDBPath(); got != filepath.Join(dir, "keystone", "keystone.db") {
		t.Fatalf("unexpected db path %q", got)
	}
	if got := DefaultReportsDir(); got != filepath.Join(dir, "keystone", "reports") {
		t.Fatalf("unexpected reports dir %q", got)
	}
	if got := DefaultConfigPath(); got != filepath.Join(dir, "keystone", "config.toml") {
		t.Fatalf("unexpected config path %q", got)
	}
}
