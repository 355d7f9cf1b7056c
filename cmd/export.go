package main

import (
	"context"

	"github.com/desertthunder/songs/internal/formatter"
	"github.com/desertthunder/songs/internal/services"
	"github.com/desertthunder/songs/internal/shared"
	"github.com/urfave/cli/v3"
)

// Export writes the current collection to a file in the requested format, or to stdout with --stdout.
func (r *Runner) Export(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	config, err := r.loadConfig(cmd)
	if err != nil {
		return err
	}

	repo, err := r.openRepository(ctx, config)
	if err != nil {
		return err
	}
	defer repo.Close(context.Background())

	svc := services.NewSongService(repo, shared.WithLogger(r.logger, "component", "songs"))
	songs, err := svc.List(ctx)
	if err != nil {
		return err
	}

	if cmd.Bool("stdout") {
		data, err := formatter.Export(songs, format)
		if err != nil {
			return err
		}
		return r.writePlain("%s", data)
	}

	path, err := formatter.WriteExport(songs, format, cmd.String("output"))
	if err != nil {
		return err
	}

	r.logger.Info("exported songs", "count", len(songs), "format", format, "path", path)
	return r.writePlain("✓ Exported %d songs to %s\n", len(songs), path)
}
