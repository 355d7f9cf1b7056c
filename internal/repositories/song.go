package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/desertthunder/songs/internal/models"
	"github.com/desertthunder/songs/internal/shared"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SongRepository implements [models.SongRepository] on SQLite.
//
// Each song is stored as a JSON document next to a canonical encoding of its "id" field, which is what lookups match
// on. Internal identifiers are ObjectID hex strings so both backends render them the same way.
type SongRepository struct {
	db *sql.DB
}

// NewSongRepository creates a new SongRepository with the given database connection
func NewSongRepository(db *sql.DB) *SongRepository {
	return &SongRepository{db: db}
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Replace deletes every stored song and inserts songs in order, atomically.
func (r *SongRepository) Replace(ctx context.Context, songs []models.Song) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM songs"); err != nil {
		return fmt.Errorf("failed to clear songs: %w", err)
	}

	for i, song := range songs {
		if _, err := r.insert(ctx, tx, song); err != nil {
			return fmt.Errorf("failed to insert song %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit songs: %w", err)
	}

	return nil
}

// List returns all songs in insertion order.
func (r *SongRepository) List(ctx context.Context) ([]models.Song, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT document FROM songs ORDER BY seq ASC")
	if err != nil {
		return nil, fmt.Errorf("failed to query songs: %w", err)
	}
	defer rows.Close()

	songs := []models.Song{}
	for rows.Next() {
		var document string
		if err := rows.Scan(&document); err != nil {
			return nil, fmt.Errorf("failed to scan song: %w", err)
		}

		song, err := models.ParseSong([]byte(document))
		if err != nil {
			return nil, err
		}
		songs = append(songs, song)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return songs, nil
}

// Find returns the first song whose id equals any of ids.
func (r *SongRepository) Find(ctx context.Context, ids ...models.Value) (models.Song, error) {
	if len(ids) == 0 {
		return nil, shared.ErrSongNotFound
	}

	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id.Key()
	}

	query := fmt.Sprintf(`
		SELECT document FROM songs
		WHERE song_key IN (%s)
		ORDER BY seq ASC
		LIMIT 1
	`, strings.TrimSuffix(strings.Repeat("?,", len(ids)), ","))

	var document string
	err := r.db.QueryRowContext(ctx, query, args...).Scan(&document)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, shared.ErrSongNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query song: %w", err)
	}

	return models.ParseSong([]byte(document))
}

// Exists reports whether a song with the given id is stored.
func (r *SongRepository) Exists(ctx context.Context, id models.Value) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM songs WHERE song_key = ?)", id.Key()).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check song: %w", err)
	}
	return exists, nil
}

// Insert stores song and returns its generated internal identifier.
func (r *SongRepository) Insert(ctx context.Context, song models.Song) (string, error) {
	return r.insert(ctx, r.db, song)
}

func (r *SongRepository) insert(ctx context.Context, ex execer, song models.Song) (string, error) {
	doc := song.Without(models.InternalIDField)
	data, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("failed to encode song: %w", err)
	}

	oid := primitive.NewObjectID().Hex()
	query := `
		INSERT INTO songs (oid, song_key, document)
		VALUES (?, ?, ?)
	`
	if _, err := ex.ExecContext(ctx, query, oid, songKey(doc), string(data)); err != nil {
		return "", fmt.Errorf("failed to insert song: %w", err)
	}

	return oid, nil
}

// Update merges patch into the first song with the given id.
//
// The returned song carries its internal identifier under "_id".
func (r *SongRepository) Update(ctx context.Context, id models.Value, patch models.Song) (models.Song, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var oid, document string
	err = tx.QueryRowContext(ctx, `
		SELECT oid, document FROM songs
		WHERE song_key = ?
		ORDER BY seq ASC
		LIMIT 1
	`, id.Key()).Scan(&oid, &document)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, shared.ErrSongNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query song: %w", err)
	}

	existing, err := models.ParseSong([]byte(document))
	if err != nil {
		return nil, err
	}

	merged, changed := existing.Merge(patch.Without(models.InternalIDField))
	if !changed {
		return nil, shared.ErrNotModified
	}

	data, err := json.Marshal(merged)
	if err != nil {
		return nil, fmt.Errorf("failed to encode song: %w", err)
	}

	query := `
		UPDATE songs
		SET document = ?, song_key = ?, updated_at = CURRENT_TIMESTAMP
		WHERE oid = ?
	`
	if _, err := tx.ExecContext(ctx, query, string(data), songKey(merged), oid); err != nil {
		return nil, fmt.Errorf("failed to update song: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit update: %w", err)
	}

	merged[models.InternalIDField] = models.InternalID(oid)
	return merged, nil
}

// Delete removes the first song with the given id.
func (r *SongRepository) Delete(ctx context.Context, id models.Value) error {
	query := `
		DELETE FROM songs
		WHERE seq = (SELECT seq FROM songs WHERE song_key = ? ORDER BY seq ASC LIMIT 1)
	`

	result, err := r.db.ExecContext(ctx, query, id.Key())
	if err != nil {
		return fmt.Errorf("failed to delete song: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return shared.ErrSongNotFound
	}

	return nil
}

func (r *SongRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SongRepository) Close(context.Context) error {
	return r.db.Close()
}

// songKey returns the lookup key for doc, or NULL when it has no id.
func songKey(doc models.Song) sql.NullString {
	id, ok := doc.ID()
	if !ok {
		return sql.NullString{}
	}
	return sql.NullString{String: id.Key(), Valid: true}
}
