package shared

import (
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config.Sync.PlaylistPrefix != "Discogs - " {
		t.Errorf("playlist prefix = %q", config.Sync.PlaylistPrefix)
	}
	if config.Sync.MinConfidence != 0.30 {
		t.Errorf("min confidence = %v", config.Sync.MinConfidence)
	}
	if config.Sync.HighConfidence != 0.95 {
		t.Errorf("high confidence = %v", config.Sync.HighConfidence)
	}
	if config.Sync.CacheTTL() != 30*24*time.Hour {
		t.Errorf("cache ttl = %v", config.Sync.CacheTTL())
	}
	if config.Sync.SearchTimeout() != 30*time.Second {
		t.Errorf("search timeout = %v", config.Sync.SearchTimeout())
	}
	if config.Sync.Workers != 4 {
		t.Errorf("workers = %d", config.Sync.Workers)
	}
	if config.Database.Path == "" {
		t.Error("database path not set")
	}

	weights := config.Matching
	sum := weights.ArtistWeight + weights.TitleWeight + weights.VerifiedWeight + weights.PopularityWeight
	if math.Abs(sum-1.0) > 1e-9 {
		t.Errorf("base weights sum to %v, want 1.0", sum)
	}
}

func TestLoadConfig(t *testing.T) {
	t.Run("reads file values", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.toml")
		content := `
[credentials.discogs]
token = "file-token"

[database]
path = "custom.db"

[sync]
playlist_prefix = "Vinyl: "
min_confidence = 0.5
`
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}

		config, err := LoadConfig(path)
		if err != nil {
			t.Fatalf("load failed: %v", err)
		}
		if config.Credentials.Discogs.Token != "file-token" {
			t.Errorf("token = %q", config.Credentials.Discogs.Token)
		}
		if config.Database.Path != "custom.db" {
			t.Errorf("database path = %q", config.Database.Path)
		}
		if config.Sync.PlaylistPrefix != "Vinyl: " {
			t.Errorf("prefix = %q", config.Sync.PlaylistPrefix)
		}
	})

	t.Run("environment wins over file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.toml")
		if err := os.WriteFile(path, []byte("[credentials.discogs]\ntoken = \"file-token\"\n"), 0644); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}

		t.Setenv("DISCOGS_TOKEN", "env-token")
		config, err := LoadConfig(path)
		if err != nil {
			t.Fatalf("load failed: %v", err)
		}
		if config.Credentials.Discogs.Token != "env-token" {
			t.Errorf("token = %q, want environment value", config.Credentials.Discogs.Token)
		}
	})

	t.Run("missing file errors", func(t *testing.T) {
		if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
			t.Error("expected error for missing file")
		}
	})

	t.Run("invalid toml errors", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.toml")
		if err := os.WriteFile(path, []byte("not [valid toml"), 0644); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}
		if _, err := LoadConfig(path); err == nil {
			t.Error("expected parse error")
		}
	})
}

func TestCreateConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	if err := CreateConfigFile(path); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	config, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("created config does not load: %v", err)
	}
	if config.Sync.PlaylistPrefix != "Discogs - " {
		t.Errorf("prefix = %q", config.Sync.PlaylistPrefix)
	}

	if err := CreateConfigFile(path); err == nil {
		t.Error("expected error when file exists")
	}
}
