package shared

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Sources    SourcesConfig    `toml:"sources"`
	Pipeline   PipelineConfig   `toml:"pipeline"`
	Aggregator AggregatorConfig `toml:"aggregator"`
	Metrics    MetricsConfig    `toml:"metrics"`
	Database   DatabaseConfig   `toml:"database"`
	Cache      CacheConfig      `toml:"cache"`
}

// SourcesConfig contains per-source credentials and rate limits.
type SourcesConfig struct {
	Spotify SpotifyConfig `toml:"spotify"`
	LastFM  LastFMConfig  `toml:"lastfm"`
	Deezer  DeezerConfig  `toml:"deezer"`
}

// SpotifyConfig contains Spotify API credentials and rate limit settings.
type SpotifyConfig struct {
	ClientID     string  `toml:"client_id"`
	ClientSecret string  `toml:"client_secret"`
	RateCapacity float64 `toml:"rate_capacity"`
	RateFill     float64 `toml:"rate_fill"`
}

// LastFMConfig contains Last.fm API credentials and rate limit settings.
type LastFMConfig struct {
	APIKey       string  `toml:"api_key"`
	RateCapacity float64 `toml:"rate_capacity"`
	RateFill     float64 `toml:"rate_fill"`
}

// DeezerConfig contains Deezer rate limit settings (no credentials required).
type DeezerConfig struct {
	Enabled      bool    `toml:"enabled"`
	RateCapacity float64 `toml:"rate_capacity"`
	RateFill     float64 `toml:"rate_fill"`
}

// PipelineConfig contains task queue and circuit breaker settings.
type PipelineConfig struct {
	Workers          int     `toml:"workers"`
	SubmitRPS        float64 `toml:"submit_rps"`
	FailureThreshold int     `toml:"failure_threshold"`
	ResetTimeout     float64 `toml:"reset_timeout_seconds"`
}

// AggregatorConfig contains genre aggregation and selection settings.
type AggregatorConfig struct {
	MaxTags       int     `toml:"max_tags"`
	MaxGenres     int     `toml:"max_genres"`
	Confidence    float64 `toml:"confidence"`
	MinConfidence float64 `toml:"min_confidence"`
}

// MetricsConfig contains metrics persistence settings.
type MetricsConfig struct {
	Path string `toml:"path"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// CacheConfig contains lookup cache settings.
type CacheConfig struct {
	TTLHours int `toml:"ttl_hours"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return &config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	// Check if file already exists
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s: %w", path, ErrInvalidInput)
	}

	// Write the embedded example config to the file
	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
