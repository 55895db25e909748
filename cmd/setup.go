package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/desertthunder/tagx/internal/repositories"
	"github.com/desertthunder/tagx/internal/shared"
	"github.com/urfave/cli/v3"
)

// Setup creates the config file from the embedded template when missing and
// initializes the lookup cache database.
func (r *Runner) Setup(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	var config *shared.Config
	if _, err := os.Stat(configPath); err == nil {
		if config, err = shared.LoadConfig(configPath); err != nil {
			r.logger.Warn("failed to load config, using defaults", "error", err)
			config = shared.DefaultConfig()
		}
	} else {
		r.logger.Info("config file not found, creating from template", "path", configPath)
		if err := shared.CreateConfigFile(configPath); err != nil {
			r.logger.Warn("failed to create config file, using defaults", "error", err)
			config = shared.DefaultConfig()
		} else {
			r.logger.Info("config file created", "path", configPath)
			if config, err = shared.LoadConfig(configPath); err != nil {
				r.logger.Warn("failed to load created config, using defaults", "error", err)
				config = shared.DefaultConfig()
			}
		}
	}

	r.logger.Info("initializing database", "path", config.Database.Path)

	db, err := shared.NewDatabase(config.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to create database: %w", err)
	}
	defer db.Close()

	shared.ConfigureDatabase(db, config.Database.MaxOpenConns, config.Database.MaxIdleConns)

	ttl := time.Duration(config.Cache.TTLHours) * time.Hour
	if _, err := repositories.NewLookupCache(db, ttl, r.logger); err != nil {
		return fmt.Errorf("failed to initialize lookup cache: %w", err)
	}

	r.logger.Infof("setup complete for database: %v", config.Database.Path)
	r.writePlain("✓ Configuration ready: %s\n", configPath)
	r.writePlain("✓ Lookup cache ready: %s\n", config.Database.Path)
	r.writePlainln("Next steps:")
	r.writePlain("1. Add source credentials to %s\n", configPath)
	r.writePlain("2. Run 'tagx sources test' to verify each source\n")
	r.writePlain("3. Run 'tagx enrich run <dir>' to enrich your library\n")

	return nil
}
