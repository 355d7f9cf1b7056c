// package repositories provides persistence layer implementations for the songs collection.
package repositories

import (
	"context"
	"fmt"

	"github.com/desertthunder/songs/internal/models"
	"github.com/desertthunder/songs/internal/shared"
)

// Open connects to the storage backend named by conf.Storage.Driver and returns a ready [models.SongRepository].
//
// SQLite databases are migrated before use. The caller owns the returned repository and must Close it.
func Open(ctx context.Context, conf *shared.Config) (models.SongRepository, error) {
	switch conf.Storage.Driver {
	case shared.DriverMongo:
		client, err := shared.NewMongoClient(ctx, conf.Mongo)
		if err != nil {
			return nil, err
		}
		return NewMongoSongRepository(client, conf.Mongo.Database, conf.Mongo.Collection), nil
	case shared.DriverSQLite:
		db, err := shared.NewDatabase(conf.Database.Path)
		if err != nil {
			return nil, err
		}
		shared.ConfigureDatabase(db, conf.Database.MaxOpenConns, conf.Database.MaxIdleConns)

		if err := shared.RunMigrations(ctx, db); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		return NewSongRepository(db), nil
	default:
		return nil, fmt.Errorf("%w: unknown storage driver %q", shared.ErrInvalidConfig, conf.Storage.Driver)
	}
}
