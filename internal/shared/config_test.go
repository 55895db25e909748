package shared

import (
	"os"
	"path/filepath"
	"testing"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.Database.Path != "tagx.db" {
			t.Errorf("expected database path tagx.db, got %s", config.Database.Path)
		}

		if config.Pipeline.Workers != 4 {
			t.Errorf("expected 4 workers, got %d", config.Pipeline.Workers)
		}

		if config.Pipeline.FailureThreshold != 5 {
			t.Errorf("expected failure threshold 5, got %d", config.Pipeline.FailureThreshold)
		}

		if config.Aggregator.MaxGenres != 3 {
			t.Errorf("expected max_genres 3, got %d", config.Aggregator.MaxGenres)
		}

		if config.Metrics.Path != "tagx_metrics.json" {
			t.Errorf("expected metrics path tagx_metrics.json, got %s", config.Metrics.Path)
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		if err := CreateConfigFile(configPath); err != nil {
			t.Fatalf("failed to create config file: %v", err)
		}

		if _, err := os.Stat(configPath); err != nil {
			t.Fatalf("config file should exist: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load created config: %v", err)
		}

		defaultConfig := DefaultConfig()
		if config.Database.Path != defaultConfig.Database.Path {
			t.Errorf("created config database path doesn't match default")
		}

		if err := CreateConfigFile(configPath); err == nil {
			t.Error("creating config file again should fail")
		}
	})

	t.Run("LoadConfig", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		testConfig := `[sources.spotify]
client_id = "test_client_id"
client_secret = "test_secret"
rate_capacity = 8.0
rate_fill = 1.5

[sources.lastfm]
api_key = "test_api_key"
rate_capacity = 4.0
rate_fill = 0.5

[pipeline]
workers = 8
submit_rps = 2.5
failure_threshold = 3
reset_timeout_seconds = 30.0

[aggregator]
max_tags = 12
max_genres = 5
confidence = 0.7
min_confidence = 0.25

[metrics]
path = "/custom/metrics.json"

[database]
path = "/custom/path.db"
max_open_conns = 20
max_idle_conns = 10

[cache]
ttl_hours = 24
`
		if err := os.WriteFile(configPath, []byte(testConfig), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.Database.Path != "/custom/path.db" {
			t.Errorf("expected database path /custom/path.db, got %s", config.Database.Path)
		}

		if config.Pipeline.FailureThreshold != 3 {
			t.Errorf("expected failure threshold 3, got %d", config.Pipeline.FailureThreshold)
		}

		if config.Sources.Spotify.ClientID != "test_client_id" {
			t.Errorf("expected spotify client_id test_client_id, got %s", config.Sources.Spotify.ClientID)
		}

		if config.Sources.LastFM.RateFill != 0.5 {
			t.Errorf("expected lastfm rate_fill 0.5, got %f", config.Sources.LastFM.RateFill)
		}

		if config.Cache.TTLHours != 24 {
			t.Errorf("expected cache ttl_hours 24, got %d", config.Cache.TTLHours)
		}
	})

	t.Run("LoadConfigMissing", func(t *testing.T) {
		if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
			t.Error("loading a missing config file should fail")
		}
	})
}
