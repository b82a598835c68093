package main

import (
	"context"

	"github.com/desertthunder/ytq/internal/cache"
	"github.com/desertthunder/ytq/internal/formatter"
	"github.com/desertthunder/ytq/internal/repositories"
	"github.com/urfave/cli/v3"
)

// CacheList prints live cache entries, newest first.
func (r *Runner) CacheList(ctx context.Context, cmd *cli.Command) error {
	if err := r.loadConfig(cmd); err != nil {
		return err
	}
	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	c := cache.New(repositories.NewProbeCacheRepository(db), cache.Options{TTL: r.config.CacheTTL(), Logger: r.logger})
	entries := c.Entries()
	c.Close()

	data, err := formatter.CacheToText(entries, r.now())
	if err != nil {
		return err
	}
	return r.writeBytes(data)
}

// CacheClear removes every cache entry.
func (r *Runner) CacheClear(ctx context.Context, cmd *cli.Command) error {
	if err := r.loadConfig(cmd); err != nil {
		return err
	}
	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	count, err := repositories.Count(db, "probe_cache")
	if err != nil {
		return err
	}
	if err := repositories.NewProbeCacheRepository(db).Clear(); err != nil {
		return err
	}

	r.logger.Info("cache cleared", "entries", count, "path", r.config.ResolveCachePath())
	return r.writePlain("✓ Removed %d cache entries\n", count)
}

// CachePrune removes entries older than the configured TTL from the durable store.
func (r *Runner) CachePrune(ctx context.Context, cmd *cli.Command) error {
	if err := r.loadConfig(cmd); err != nil {
		return err
	}
	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	removed, err := repositories.NewProbeCacheRepository(db).Prune(r.now().Add(-r.config.CacheTTL()))
	if err != nil {
		return err
	}
	return r.writePlain("✓ Pruned %d expired cache entries\n", removed)
}
