package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"vitae/internal/config"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, _, exists, err := config.Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if exists {
		t.Fatal("expected missing config to report exists=false")
	}
	if cfg.Ingest.MaxWorkers != 4 {
		t.Fatalf("expected default max_workers 4, got %d", cfg.Ingest.MaxWorkers)
	}
	if cfg.Ingest.MetadataMarker != "profile" {
		t.Fatalf("unexpected default marker %q", cfg.Ingest.MetadataMarker)
	}
}

func TestLoadParsesAndNormalizes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[paths]
data_dir = "` + filepath.Join(dir, "data") + `"
log_dir = "` + filepath.Join(dir, "logs") + `"

[ingest]
max_workers = 8
metadata_marker = " Profile "
extensions = ["PDF", ".docx", ""]
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("unexpected resolution: exists=%v path=%s", exists, resolved)
	}
	if cfg.Ingest.MaxWorkers != 8 {
		t.Fatalf("expected max_workers 8, got %d", cfg.Ingest.MaxWorkers)
	}
	if cfg.Ingest.MetadataMarker != "profile" {
		t.Fatalf("expected normalized marker, got %q", cfg.Ingest.MetadataMarker)
	}
	if len(cfg.Ingest.Extensions) != 2 || cfg.Ingest.Extensions[0] != ".pdf" {
		t.Fatalf("unexpected extensions: %v", cfg.Ingest.Extensions)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"zero workers", func(c *config.Config) { c.Ingest.MaxWorkers = 0 }},
		{"empty marker", func(c *config.Config) { c.Ingest.MetadataMarker = "" }},
		{"no extensions", func(c *config.Config) { c.Ingest.Extensions = nil }},
		{"empty data dir", func(c *config.Config) { c.Paths.DataDir = "" }},
		{"bad log format", func(c *config.Config) { c.Logging.Format = "xml" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			tc.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("expected sample config content")
	}
}
