package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/ytq/internal/cache"
	"github.com/desertthunder/ytq/internal/formatter"
	"github.com/desertthunder/ytq/internal/models"
	"github.com/desertthunder/ytq/internal/repositories"
	"github.com/desertthunder/ytq/internal/services"
	"github.com/urfave/cli/v3"
)

// Probe resolves a URL and prints its formats or playlist entries.
//
// Playlists honour --export; single items are always rendered as a format table (or JSON).
func (r *Runner) Probe(ctx context.Context, cmd *cli.Command) error {
	if err := r.loadConfig(cmd); err != nil {
		return err
	}
	url, err := urlArg(cmd)
	if err != nil {
		return err
	}
	export, err := formatter.ParseExport(cmd.String("export"))
	if err != nil {
		return err
	}

	var store cache.Store
	if db, err := r.openDatabase(); err != nil {
		r.logger.Warn("cache unavailable", "error", err)
	} else {
		defer db.Close()
		store = repositories.NewProbeCacheRepository(db)
	}
	c := cache.New(store, cache.Options{TTL: r.config.CacheTTL(), Logger: r.logger})
	defer c.Close()

	res, ok := c.Get(url)
	if ok && !cmd.Bool("refresh") && (res.IsPlaylist() || res.HasFormats()) {
		r.logger.Debug("using cached probe result", "url", url, "captured", res.CapturedAt)
	} else {
		res, err = r.resolve(ctx, url)
		if err != nil {
			return err
		}
		c.Set(url, res)
	}

	if cmd.Bool("json") {
		return r.writeJSON(res, cmd.Bool("pretty"))
	}

	var data []byte
	if res.IsPlaylist() {
		data, err = formatter.ExportListing(res, export)
	} else {
		data, err = formatter.FormatsToText(res)
	}
	if err != nil {
		return err
	}

	if path := cmd.String("output"); path != "" {
		if err := formatter.WriteExport(data, path); err != nil {
			return err
		}
		return r.writePlain("✓ Written to %s\n", path)
	}
	return r.writeBytes(data)
}

// resolve detects whether url is a playlist and, for single items, fetches its formats.
func (r *Runner) resolve(ctx context.Context, url string) (models.ProbeResult, error) {
	client := r.services()

	out, err := services.Detect(ctx, client, url, r.config.DetectTimeout())
	if err != nil {
		return models.ProbeResult{}, err
	}
	if out.Playlist {
		r.logger.Info("playlist detected", "url", url, "entries", len(out.Entries))
		return out.Result(r.now()), nil
	}

	res, err := client.Formats(ctx, url)
	if err != nil {
		return models.ProbeResult{}, fmt.Errorf("failed to fetch formats: %w", err)
	}
	res.URL = url
	if res.Title == "" {
		res.Title = out.Metadata.Title
	}
	if res.Duration == "" {
		res.Duration = out.Metadata.Duration
	}
	if res.CapturedAt.IsZero() {
		res.CapturedAt = r.now()
	}
	return res, nil
}
