package main

import (
	"context"
	"errors"
	"os"

	"github.com/desertthunder/tagx/internal/services"
	"github.com/desertthunder/tagx/internal/shared"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := shared.NewLogger(nil)

	config := shared.DefaultConfig()
	if _, err := os.Stat("config.toml"); err == nil {
		if loadedConfig, err := shared.LoadConfig("config.toml"); err == nil {
			config = loadedConfig
		}
	}

	var sources []services.MusicAPI

	if config.Sources.Spotify.ClientID != "" && config.Sources.Spotify.ClientSecret != "" {
		if svc, err := services.NewSpotifyService(config.Sources.Spotify.ClientID, config.Sources.Spotify.ClientSecret); err == nil {
			sources = append(sources, svc)
		} else {
			logger.Warn("skipping spotify", "error", err)
		}
	}

	if config.Sources.LastFM.APIKey != "" {
		if svc, err := services.NewLastFMService(config.Sources.LastFM.APIKey, "", nil); err == nil {
			sources = append(sources, svc)
		} else {
			logger.Warn("skipping lastfm", "error", err)
		}
	}

	if config.Sources.Deezer.Enabled {
		sources = append(sources, services.NewDeezerService("", nil))
	}

	runner := NewRunner(RunnerOpts{
		Config:  config,
		Sources: sources,
		Logger:  logger,
	})

	app := &cli.Command{
		Name:     "tagx",
		Usage:    "Enrich MP3 genre, year, and album metadata from music APIs",
		Version:  "0.3.0",
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		err_ := errors.Unwrap(err)
		if errors.Is(err_, shared.ErrNotImplemented) {
			logger.Warn("not implemented")
			os.Exit(0)
		} else {
			logger.Fatalf("application error: %v", err)
		}
	}
}
