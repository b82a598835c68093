package main

import (
	"context"

	"github.com/desertthunder/ytq/internal/repositories"
	"github.com/desertthunder/ytq/internal/shared"
	"github.com/urfave/cli/v3"
)

// SetupConfig writes the default configuration to the --config path.
func (r *Runner) SetupConfig(ctx context.Context, cmd *cli.Command) error {
	path := cmd.String("config")
	if err := shared.CreateConfigFile(path); err != nil {
		return err
	}
	r.logger.Info("config file created", "path", path)
	return r.writePlain("✓ Config written to %s\n", path)
}

// SetupDatabase initializes the cache database and runs migrations.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	if err := r.loadConfig(cmd); err != nil {
		return err
	}

	r.logger.Info("initializing database", "path", r.config.ResolveCachePath())
	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	entries, err := repositories.Count(db, "probe_cache")
	if err != nil {
		return err
	}
	downloads, err := repositories.Count(db, "download_history")
	if err != nil {
		return err
	}

	r.logger.Infof("setup complete for database: %v", r.config.ResolveCachePath())
	return r.writePlain("✓ Database ready at %s (%d cached, %d downloads)\n", r.config.ResolveCachePath(), entries, downloads)
}
