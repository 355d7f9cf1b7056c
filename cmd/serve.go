package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/desertthunder/songs/internal/models"
	"github.com/desertthunder/songs/internal/server"
	"github.com/desertthunder/songs/internal/services"
	"github.com/desertthunder/songs/internal/shared"
	"github.com/urfave/cli/v3"
)

// Serve resets the collection from the seed file, then serves the API until SIGINT or SIGTERM.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
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
	if _, err := r.seed(ctx, svc, config.Seed.Path); err != nil {
		return err
	}

	router := server.NewSongRouter(svc, r.logger, config.Server)
	srv := server.NewServer(router, server.OptionsFromConfig(config.Server, r.logger))

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	return srv.Run(ctx)
}

// Seed replaces the collection with the contents of the seed file and exits.
func (r *Runner) Seed(ctx context.Context, cmd *cli.Command) error {
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
	count, err := r.seed(ctx, svc, config.Seed.Path)
	if err != nil {
		return err
	}

	return r.writePlain("✓ Seeded %d songs from %s\n", count, config.Seed.Path)
}

func (r *Runner) openRepository(ctx context.Context, config *shared.Config) (models.SongRepository, error) {
	switch config.Storage.Driver {
	case shared.DriverMongo:
		r.logger.Info("connecting to mongo", "uri", config.Mongo.Redacted())
	case shared.DriverSQLite:
		r.logger.Info("opening database", "path", config.Database.Path)
	}

	repo, err := r.open(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s storage: %w", config.Storage.Driver, err)
	}
	return repo, nil
}

func (r *Runner) seed(ctx context.Context, svc *services.SongService, path string) (int, error) {
	songs, err := services.LoadSeed(path)
	if err != nil {
		return 0, err
	}

	if err := svc.Seed(ctx, songs); err != nil {
		return 0, err
	}

	r.logger.Debug("loaded seed file", "path", path)
	return len(songs), nil
}
