// Package repositories implements [models.SongRepository] for MongoDB and SQLite.
//
// Key Implementations:
//   - [MongoSongRepository] : the songs collection in MongoDB; set-merge and no-op detection are delegated to $set
//     and the server's modified count
//   - [SongRepository] : JSON documents in a SQLite table with a canonical business-key column; merge and no-op
//     detection happen inside a transaction
//
// Both backends match the "id" field by value and type, so the string "1" and the number 1 are different keys,
// while 1 and 1.0 are the same. Internal identifiers are ObjectIDs in both and are returned as {"$oid": "..."}.
//
// [Open] selects the backend from configuration.
package repositories
