package main

import (
	"context"

	"github.com/desertthunder/ytq/internal/formatter"
	"github.com/desertthunder/ytq/internal/repositories"
	"github.com/urfave/cli/v3"
)

// History prints finished downloads, newest first.
func (r *Runner) History(ctx context.Context, cmd *cli.Command) error {
	if err := r.loadConfig(cmd); err != nil {
		return err
	}
	export, err := formatter.ParseExport(cmd.String("export"))
	if err != nil {
		return err
	}

	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	records, err := repositories.NewHistoryRepository(db).List(int(cmd.Int("limit")))
	if err != nil {
		return err
	}

	data, err := formatter.ExportHistory(records, export)
	if err != nil {
		return err
	}
	if path := cmd.String("output"); path != "" {
		if err := formatter.WriteExport(data, path); err != nil {
			return err
		}
		return r.writePlain("✓ Written %d records to %s\n", len(records), path)
	}
	return r.writeBytes(data)
}
