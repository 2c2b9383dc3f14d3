package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("REGATTA_CONFIG", "")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.MaxRegattas != 250 {
		t.Errorf("MaxRegattas: got %d, want 250", cfg.MaxRegattas)
	}
	if cfg.ScraperTimeout != 12*time.Second {
		t.Errorf("ScraperTimeout: got %v, want 12s", cfg.ScraperTimeout)
	}
	if cfg.HarvestPasses != 16 {
		t.Errorf("HarvestPasses: got %d, want 16", cfg.HarvestPasses)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("REGATTA_MAX_REGATTAS", "40")
	t.Setenv("REGATTA_SCRAPER_TIMEOUT", "5s")
	t.Setenv("REGATTA_STORE", "memory")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.MaxRegattas != 40 {
		t.Errorf("MaxRegattas: got %d, want 40", cfg.MaxRegattas)
	}
	if cfg.ScraperTimeout != 5*time.Second {
		t.Errorf("ScraperTimeout: got %v, want 5s", cfg.ScraperTimeout)
	}
	if cfg.Store != "memory" {
		t.Errorf("Store: got %q, want memory", cfg.Store)
	}
}

func TestLoadYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "regatta.yaml")
	if err := os.WriteFile(path, []byte("max_regattas: 7\nlog_level: debug\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("REGATTA_CONFIG", path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.MaxRegattas != 7 {
		t.Errorf("MaxRegattas: got %d, want 7", cfg.MaxRegattas)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel: got %q, want debug", cfg.LogLevel)
	}
}

func TestLoadRejectsUnknownStore(t *testing.T) {
	t.Setenv("REGATTA_STORE", "sqlite")
	if _, err := Load(); err == nil {
		t.Error("expected error for unknown store")
	}
}

func TestResultsURL(t *testing.T) {
	cfg := Default()
	cfg.ClubspotBaseURL = "https://theclubspot.com/"
	got := cfg.ResultsURL("abc123")
	want := "https://theclubspot.com/regatta/abc123/results"
	if got != want {
		t.Errorf("ResultsURL = %q; want %q", got, want)
	}
}
