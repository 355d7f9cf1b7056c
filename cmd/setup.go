package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"github.com/desertthunder/songs/internal/shared"
	"github.com/urfave/cli/v3"
)

// Setup writes a config file from the embedded template when none exists and, for the sqlite driver, initializes
// the database and runs migrations.
func (r *Runner) Setup(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	if _, err := os.Stat(configPath); err != nil {
		r.logger.Info("config file not found, creating from template", "path", configPath)
		if err := shared.CreateConfigFile(configPath); err != nil {
			return fmt.Errorf("failed to create config file: %w", err)
		}
		if err := r.writePlain("✓ Created %s\n", configPath); err != nil {
			return err
		}
	}

	config, err := shared.LoadConfig(configPath)
	if err != nil {
		return err
	}
	config.ApplyEnv(r.lookupEnv)

	if config.Storage.Driver != shared.DriverSQLite {
		r.logger.Info("no schema to prepare", "driver", config.Storage.Driver)
		return r.writePlain("Edit %s and set MONGODB_SERVICE before running 'songs serve'\n", configPath)
	}

	if err := r.withDatabase(config, func(db *sql.DB) error {
		r.logger.Info("running database migrations")
		return shared.RunMigrations(ctx, db)
	}); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	r.logger.Infof("setup complete for database: %v", config.Database.Path)
	return r.writePlain("✓ Database ready at %s\n", config.Database.Path)
}

// MigrateUp applies pending SQLite migrations.
func (r *Runner) MigrateUp(ctx context.Context, cmd *cli.Command) error {
	config, err := r.loadSQLiteConfig(cmd)
	if err != nil {
		return err
	}

	if err := r.withDatabase(config, func(db *sql.DB) error { return shared.RunMigrations(ctx, db) }); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return r.writePlain("✓ Migrations applied\n")
}

// MigrateRollback reverts the most recently applied SQLite migration.
func (r *Runner) MigrateRollback(ctx context.Context, cmd *cli.Command) error {
	config, err := r.loadSQLiteConfig(cmd)
	if err != nil {
		return err
	}

	if err := r.withDatabase(config, func(db *sql.DB) error { return shared.RollbackMigration(ctx, db) }); err != nil {
		return fmt.Errorf("failed to roll back migration: %w", err)
	}
	return r.writePlain("✓ Rolled back latest migration\n")
}

func (r *Runner) loadSQLiteConfig(cmd *cli.Command) (*shared.Config, error) {
	config, err := r.loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	if config.Storage.Driver != shared.DriverSQLite {
		return nil, fmt.Errorf("%w: migrations require the sqlite driver, got %q", shared.ErrInvalidConfig, config.Storage.Driver)
	}
	return config, nil
}

func (r *Runner) withDatabase(config *shared.Config, fn func(*sql.DB) error) error {
	db, err := shared.NewDatabase(config.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to create database: %w", err)
	}
	defer db.Close()

	shared.ConfigureDatabase(db, config.Database.MaxOpenConns, config.Database.MaxIdleConns)
	return fn(db)
}
