// package models defines the data model for the song service
package models

import "context"

// SongRepository defines storage operations for the songs collection.
//
// Lookups are by business key (the song's "id" field), never by the storage-internal identifier.
// Implementations return shared.ErrSongNotFound when no song matches and shared.ErrNotModified when an update leaves
// the stored document unchanged.
type SongRepository interface {
	// Replace drops every stored song and inserts songs in order.
	Replace(ctx context.Context, songs []Song) error
	// List returns all songs without their internal identifier.
	List(ctx context.Context) ([]Song, error)
	// Find returns the first song whose id equals any of ids.
	Find(ctx context.Context, ids ...Value) (Song, error)
	Exists(ctx context.Context, id Value) (bool, error)
	// Insert stores song and returns its new internal identifier.
	Insert(ctx context.Context, song Song) (string, error)
	// Update applies patch with set semantics and returns the stored result.
	Update(ctx context.Context, id Value, patch Song) (Song, error)
	// Delete removes one song by id.
	Delete(ctx context.Context, id Value) error
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}
