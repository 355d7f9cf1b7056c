package shared

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// NewDatabase opens a connection to a SQLite database at the specified path.
// The path can be ":memory:" for an in-memory database.
// Returns an open database connection or an error if connection fails.
func NewDatabase(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Every connection to :memory: gets its own empty database.
	if path == ":memory:" {
		ConfigureDatabase(db, 1, 1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// ConfigureDatabase sets connection pool settings for the database.
// Non-positive values leave the database/sql defaults in place.
func ConfigureDatabase(db *sql.DB, maxOpenConns, maxIdleConns int) {
	if maxOpenConns > 0 {
		db.SetMaxOpenConns(maxOpenConns)
	}
	if maxIdleConns > 0 {
		db.SetMaxIdleConns(maxIdleConns)
	}
}

// NewMongoClient connects to MongoDB and pings the primary so unreachable servers and rejected credentials surface
// at startup instead of on the first request.
//
// Credential rejections are reported as [ErrAuthFailed]; other connection problems as [ErrServiceUnavailable].
func NewMongoClient(ctx context.Context, conf MongoConfig) (*mongo.Client, error) {
	if conf.Host == "" {
		return nil, fmt.Errorf("%w: missing MongoDB server in %s", ErrMissingConfig, EnvMongoHost)
	}

	ctx, cancel := context.WithTimeout(ctx, conf.Timeout())
	defer cancel()

	opts := options.Client().
		ApplyURI(conf.URI()).
		SetServerSelectionTimeout(conf.Timeout()).
		SetAppName("songs")

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", conf.Redacted(), classifyMongoError(err))
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping %s: %w", conf.Redacted(), classifyMongoError(err))
	}

	return client, nil
}

// classifyMongoError maps driver errors onto the package's sentinel errors while keeping the original message.
func classifyMongoError(err error) error {
	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) && cmdErr.Code == 18 {
		return fmt.Errorf("%w: %v", ErrAuthFailed, err)
	}

	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "auth") || strings.Contains(msg, "credential") {
		return fmt.Errorf("%w: %v", ErrAuthFailed, err)
	}

	return fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
}
