package models

import (
	"encoding/json"
	"fmt"
)

const (
	IDField         = "id"  // business key
	InternalIDField = "_id" // storage-internal identifier
	oidField        = "$oid"
)

// Song is a song document: a caller-assigned "id" plus arbitrary fields.
type Song map[string]Value

// ParseSong decodes a JSON object into a [Song].
func ParseSong(data []byte) (Song, error) {
	var song Song
	if err := json.Unmarshal(data, &song); err != nil {
		return nil, fmt.Errorf("failed to decode song: %w", err)
	}
	if song == nil {
		return nil, fmt.Errorf("song must be a JSON object")
	}
	return song, nil
}

// ID returns the business key, if present.
func (s Song) ID() (Value, bool) {
	v, ok := s[IDField]
	return v, ok
}

// Clone returns a shallow copy of s.
func (s Song) Clone() Song {
	out := make(Song, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// Without returns a copy of s with the given fields removed.
func (s Song) Without(fields ...string) Song {
	out := s.Clone()
	for _, f := range fields {
		delete(out, f)
	}
	return out
}

// Merge applies patch to a copy of s with set semantics: fields in patch overwrite or add, all other fields are kept.
// Nested objects are replaced, never merged. changed is false when every patched field already held an equal value.
func (s Song) Merge(patch Song) (merged Song, changed bool) {
	merged = s.Clone()
	for k, v := range patch {
		if cur, ok := merged[k]; ok && cur.Equal(v) {
			continue
		}
		merged[k] = v
		changed = true
	}
	return merged, changed
}

// Equal reports whether both documents hold the same fields and values.
func (s Song) Equal(o Song) bool {
	if len(s) != len(o) {
		return false
	}
	for k, v := range s {
		ov, ok := o[k]
		if !ok || !v.Equal(ov) {
			return false
		}
	}
	return true
}

// Fields returns the field names in sorted order.
func (s Song) Fields() []string {
	return sortedKeys(s)
}

// InternalID renders a storage-internal identifier in extended JSON form: {"$oid": "..."}.
func InternalID(hex string) Value {
	return Object(map[string]Value{oidField: String(hex)})
}

// InternalIDHex extracts the hex string from a value built by [InternalID].
func InternalIDHex(v Value) (string, bool) {
	obj, ok := v.AsObject()
	if !ok || len(obj) != 1 {
		return "", false
	}
	return obj[oidField].AsString()
}
