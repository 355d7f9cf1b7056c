// Package services holds the song service's business rules.
//
// [SongService] sits between the HTTP handlers and a models.SongRepository and owns the rules the storage layer
// does not know about:
//   - create refuses an id that is already stored ([shared.ErrDuplicateSong]) and requires an id at all
//   - update forces the payload's id to the id from the path, so a mismatched body id is ignored
//   - caller supplied "_id" fields are discarded on create and update
//   - get accepts the raw path segment and matches it both as a string and, when numeric, as an integer
//
// [LoadSeed] reads the seed dataset, and [SongService.Seed] replaces the collection with it.
package services
