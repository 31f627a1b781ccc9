package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestConfig_LakeBasePathDefault(t *testing.T) {
	// Unset env var to test default
	os.Unsetenv("LAKE_BASE_PATH")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.LakeBasePath != "./data" {
		t.Errorf("LakeBasePath = %q, want %q", cfg.LakeBasePath, "./data")
	}
}

func TestConfig_LakeBasePathFromEnv(t *testing.T) {
	os.Setenv("LAKE_BASE_PATH", "/custom/lake")
	defer os.Unsetenv("LAKE_BASE_PATH")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.LakeBasePath != "/custom/lake" {
		t.Errorf("LakeBasePath = %q, want %q", cfg.LakeBasePath, "/custom/lake")
	}
}

func TestConfig_ScrapeLimitFromEnv(t *testing.T) {
	os.Setenv("SCRAPE_LIMIT", "250")
	defer os.Unsetenv("SCRAPE_LIMIT")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.ScrapeLimit != 250 {
		t.Errorf("ScrapeLimit = %d, want 250", cfg.ScrapeLimit)
	}
}

func TestLoadChannels(t *testing.T) {
	path := filepath.Join(t.TempDir(), "channels.yaml")
	yaml := `channels:
  - name: cheMed123
    title: Chemed Pharmacy
  - name: lobelia4cosmetics
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}

	channels, err := LoadChannels(path)
	if err != nil {
		t.Fatalf("LoadChannels() error = %v", err)
	}

	if len(channels) != 2 {
		t.Fatalf("len(channels) = %d, want 2", len(channels))
	}
	if channels[0].Name != "cheMed123" || channels[0].Title != "Chemed Pharmacy" {
		t.Errorf("channels[0] = %+v", channels[0])
	}
	if channels[1].Name != "lobelia4cosmetics" {
		t.Errorf("channels[1] = %+v", channels[1])
	}
}

func TestLoadChannels_Empty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "channels.yaml")
	if err := os.WriteFile(path, []byte("channels: []\n"), 0o644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}

	if _, err := LoadChannels(path); err == nil {
		t.Error("expected error for empty channel list")
	}
}
