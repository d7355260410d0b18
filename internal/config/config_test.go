package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func envMap(values map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := values[key]
		return v, ok
	}
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Storage.Driver != DriverSQLite || cfg.Storage.SQLite.Path != "initiative.db" {
		t.Fatalf("unexpected storage defaults %+v", cfg.Storage)
	}
}

func TestLoadMergesYAMLOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "initiative.yaml")
	doc := `
storage:
  driver: badger
  badger:
    path: /var/lib/initiative
log:
  level: debug
`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("INITIATIVE_STORAGE_DRIVER", "")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Storage.Driver != DriverBadger || cfg.Storage.Badger.Path != "/var/lib/initiative" {
		t.Fatalf("unexpected storage %+v", cfg.Storage)
	}
	if !cfg.Storage.Badger.SyncWrites {
		t.Fatalf("expected default sync_writes to survive partial yaml")
	}
	if cfg.Log.Level != "debug" || cfg.Log.Format != "text" {
		t.Fatalf("unexpected log %+v", cfg.Log)
	}
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "initiative.yaml")
	if err := os.WriteFile(path, []byte("storage:\n  driver: sqlite\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("INITIATIVE_STORAGE_DRIVER", DriverMemory)
	t.Setenv("INITIATIVE_METRICS_ADDR", ":9102")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Storage.Driver != DriverMemory || cfg.Metrics.Addr != ":9102" {
		t.Fatalf("env overrides not applied: %+v", cfg)
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected missing file error")
	}
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("storage: [\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestApplyEnvBlobSettings(t *testing.T) {
	cfg := Default()
	err := cfg.ApplyEnv(envMap(map[string]string{
		"INITIATIVE_STORAGE_DRIVER":     DriverBlob,
		"INITIATIVE_BLOB_DRIVER":        "s3",
		"INITIATIVE_BLOB_S3_BUCKET":     "journal",
		"INITIATIVE_BLOB_S3_ENDPOINT":   "http://localhost:9000",
		"INITIATIVE_BLOB_S3_PATH_STYLE": "true",
	}))
	if err != nil {
		t.Fatalf("apply env: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	s3 := cfg.Storage.Blob.S3
	if s3.Bucket != "journal" || s3.Endpoint != "http://localhost:9000" || !s3.PathStyle {
		t.Fatalf("unexpected s3 config %+v", s3)
	}
	if err := cfg.ApplyEnv(envMap(map[string]string{"INITIATIVE_BLOB_S3_PATH_STYLE": "maybe"})); err == nil {
		t.Fatalf("expected bool parse error")
	}
}

func TestValidateCollectsErrors(t *testing.T) {
	cfg := Default()
	cfg.Storage.Driver = "floppy"
	cfg.Log.Level = "loud"
	cfg.Log.Format = "xml"
	err := cfg.Validate()
	if err == nil {
		t.Fatalf("expected validation error")
	}
	for _, want := range []string{"floppy", "loud", "xml"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("expected %q in %v", want, err)
		}
	}
	cfg = Default()
	cfg.Storage.Driver = DriverBlob
	cfg.Storage.Blob.Driver = "s3"
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "bucket") {
		t.Fatalf("expected bucket error, got %v", err)
	}
}
