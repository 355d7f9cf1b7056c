// Package models defines the song document and the storage interface of the song service.
//
// Songs are schemaless: a [Song] maps field names to a [Value], a tagged union over the JSON types
// (null, bool, number, string, array, object). The only field with meaning to the service is "id", the business key
// used for every lookup. The storage engine's own identifier lives under "_id" and is rendered in extended JSON form
// via [InternalID].
//
// Updates use set semantics through [Song.Merge]: patched fields overwrite or add, the rest are kept, and nested
// objects are replaced wholesale. The merge reports whether anything changed so callers can tell a no-op update apart.
//
// [SongRepository] is implemented for MongoDB and SQLite in the repositories package.
package models
