// package testing contains shared testing utilities
package testing

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/desertthunder/songs/internal/models"
	"github.com/desertthunder/songs/internal/repositories"
	"github.com/desertthunder/songs/internal/shared"
)

// SeedJSON is a small seed dataset shared by tests.
const SeedJSON = `[
	{"id": 1, "title": "Bohemian Rhapsody", "lyrics": "Is this the real life?"},
	{"id": 2, "title": "Imagine", "lyrics": "Imagine there's no heaven"},
	{"id": 3, "title": "Hey Jude", "lyrics": "Hey Jude, don't make it bad"}
]`

// NewSongRepository returns an in-memory SQLite repository with migrations applied, closed when the test ends.
func NewSongRepository(t *testing.T) *repositories.SongRepository {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	if err := shared.RunMigrations(context.Background(), db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() { db.Close() })
	return repositories.NewSongRepository(db)
}

// MustParseSeed decodes data as a list of songs or fails the test.
func MustParseSeed(t *testing.T, data string) []models.Song {
	t.Helper()

	var songs []models.Song
	if err := json.Unmarshal([]byte(data), &songs); err != nil {
		t.Fatalf("failed to parse seed: %v", err)
	}
	return songs
}

// WriteSeedFile writes data to a songs.json file in a temporary directory and returns its path.
func WriteSeedFile(t *testing.T, data string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "songs.json")
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatalf("failed to write seed file: %v", err)
	}
	return path
}

// Do sends a request with an optional JSON body through h and returns the recorded response.
func Do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()

	var r io.Reader
	if body != "" {
		r = bytes.NewBufferString(body)
	}

	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

// DecodeJSON decodes a recorded JSON response body into a generic map.
func DecodeJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("failed to decode response %q: %v", rec.Body.String(), err)
	}
	return out
}

// ErrStorage is returned by every [FailingRepository] method.
var ErrStorage = errors.New("storage offline")

// FailingRepository is a [models.SongRepository] whose every operation fails with [ErrStorage].
type FailingRepository struct{}

func (FailingRepository) Replace(context.Context, []models.Song) error { return ErrStorage }
func (FailingRepository) List(context.Context) ([]models.Song, error)   { return nil, ErrStorage }
func (FailingRepository) Find(context.Context, ...models.Value) (models.Song, error) {
	return nil, ErrStorage
}
func (FailingRepository) Exists(context.Context, models.Value) (bool, error) { return false, ErrStorage }
func (FailingRepository) Insert(context.Context, models.Song) (string, error) {
	return "", ErrStorage
}
func (FailingRepository) Update(context.Context, models.Value, models.Song) (models.Song, error) {
	return nil, ErrStorage
}
func (FailingRepository) Delete(context.Context, models.Value) error { return ErrStorage }
func (FailingRepository) Ping(context.Context) error                 { return ErrStorage }
func (FailingRepository) Close(context.Context) error                { return nil }

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
