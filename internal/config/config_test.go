package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"smokecheck/internal/core"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, kv := range os.Environ() {
		name, _, _ := strings.Cut(kv, "=")
		if strings.HasPrefix(name, EnvPrefix) {
			t.Setenv(name, "")
			_ = os.Unsetenv(name)
		}
	}
}

func TestLoadDefaultsWithoutFile(t *testing.T) {
	clearEnv(t)
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg != Default() {
		t.Fatalf("expected defaults, got %+v", cfg)
	}
	if cfg.Storage.Driver != "sqlite" || cfg.KeyPrefix != core.DefaultKeyPrefix || cfg.Log.Format != "console" {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
}

func TestLoadMissingFileFallsBackToDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Storage.Driver != DefaultDriver {
		t.Fatalf("expected default driver, got %s", cfg.Storage.Driver)
	}
}

func TestLoadYAMLThenEnvOverride(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "smokecheck.yaml")
	yamlContent := `storage:
  driver: s3
  s3:
    bucket: surveys
    endpoint: http://localhost:9000
    path_style: true
log:
  level: debug
  format: json
key_prefix: "acme:"
`
	if err := os.WriteFile(path, []byte(yamlContent), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("SMOKECHECK_STORAGE_S3_BUCKET", "override")
	t.Setenv("SMOKECHECK_LOG_LEVEL", "warn")
	t.Setenv("SMOKECHECK_UNRELATED_SETTING", "ignored")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Storage.Driver != "s3" || !cfg.Storage.S3.PathStyle || cfg.Storage.S3.Endpoint != "http://localhost:9000" {
		t.Fatalf("yaml not applied: %+v", cfg.Storage)
	}
	if cfg.Storage.S3.Bucket != "override" {
		t.Fatalf("env override not applied, bucket=%s", cfg.Storage.S3.Bucket)
	}
	if cfg.Log.Level != "warn" || cfg.Log.Format != "json" {
		t.Fatalf("unexpected log config %+v", cfg.Log)
	}
	if cfg.KeyPrefix != "acme:" {
		t.Fatalf("unexpected key prefix %q", cfg.KeyPrefix)
	}
	if cfg.Storage.S3.Region != "us-east-1" {
		t.Fatalf("expected default region, got %q", cfg.Storage.S3.Region)
	}
}

func TestLoadEnvDriverIsNormalized(t *testing.T) {
	clearEnv(t)
	t.Setenv("SMOKECHECK_STORAGE_DRIVER", " Postgres ")
	t.Setenv("SMOKECHECK_STORAGE_POSTGRES_DSN", "postgres://db/smokecheck")
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Storage.Driver != "postgres" || cfg.Storage.PostgresDSN != "postgres://db/smokecheck" {
		t.Fatalf("unexpected storage %+v", cfg.Storage)
	}
}

func TestLoadRejectsInvalidSettings(t *testing.T) {
	cases := map[string]map[string]string{
		"unknown driver": {"SMOKECHECK_STORAGE_DRIVER": "redis"},
		"s3 no bucket":   {"SMOKECHECK_STORAGE_DRIVER": "s3"},
		"bad level":      {"SMOKECHECK_LOG_LEVEL": "loud"},
		"bad format":     {"SMOKECHECK_LOG_FORMAT": "xml"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range env {
				t.Setenv(k, v)
			}
			if _, err := Load(""); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}

func TestLoadRejectsBadFiles(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	if _, err := Load(dir); err == nil {
		t.Fatalf("expected directory path to be rejected")
	}
	bad := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(bad, []byte("storage: [unterminated"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(bad); err == nil {
		t.Fatalf("expected yaml parse error")
	}
	big := filepath.Join(dir, "big.yaml")
	if err := os.WriteFile(big, []byte(strings.Repeat("#", maxConfigFileSize+1)), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(big); err == nil || !strings.Contains(err.Error(), "too large") {
		t.Fatalf("expected size error, got %v", err)
	}
}
