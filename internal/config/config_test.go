package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	def := DefaultConfig()
	if cfg != def {
		t.Errorf("missing file config = %+v, want defaults %+v", cfg, def)
	}
	if cfg.Curation.TargetSize != 50 || cfg.Curation.PrimaryRatio != 0.95 {
		t.Errorf("curation defaults = %d, %v; want 50 and 0.95",
			cfg.Curation.TargetSize, cfg.Curation.PrimaryRatio)
	}
	if cfg.Scoring.Workers != 3 {
		t.Errorf("workers = %d, want 3", cfg.Scoring.Workers)
	}
}

func TestLoadMergesOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `database:
  path: /tmp/other.db
curation:
  target_size: 25
scoring:
  workers: 8
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Database.Path != "/tmp/other.db" {
		t.Errorf("database path = %q, want the override", cfg.Database.Path)
	}
	if cfg.Curation.TargetSize != 25 {
		t.Errorf("target size = %d, want 25", cfg.Curation.TargetSize)
	}
	if cfg.Scoring.Workers != 8 {
		t.Errorf("workers = %d, want 8", cfg.Scoring.Workers)
	}

	// Untouched fields keep their defaults, even inside overridden sections.
	if cfg.Curation.PrimaryRatio != 0.95 {
		t.Errorf("primary ratio = %v, want default 0.95", cfg.Curation.PrimaryRatio)
	}
	if cfg.Similarity.Threshold != 0.6 {
		t.Errorf("similarity threshold = %v, want default 0.6", cfg.Similarity.Threshold)
	}
	if cfg.Feedback.Weight != 0.5 {
		t.Errorf("feedback weight = %v, want default 0.5", cfg.Feedback.Weight)
	}
}

func TestLoadRejectsBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("curation: [not a map"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(path); err == nil {
		t.Error("Load accepted malformed YAML")
	}
}
