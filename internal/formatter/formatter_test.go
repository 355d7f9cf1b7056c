package formatter

import (
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/desertthunder/songs/internal/models"
	"github.com/desertthunder/songs/internal/shared"
	th "github.com/desertthunder/songs/internal/testing"
)

func TestExporters(t *testing.T) {
	songs := th.MustParseSeed(t, `[
		{"id": 1, "title": "Bohemian Rhapsody", "artist": "Queen"},
		{"id": "two", "title": "Imagine", "tags": ["piano", "peace"], "extra": null},
		{"id": 3, "title": "Pipe | Dream", "year": 1999}
	]`)

	t.Run("Columns", func(t *testing.T) {
		got := strings.Join(Columns(songs), ",")
		if got != "id,artist,extra,tags,title,year" {
			t.Errorf("unexpected columns %s", got)
		}
	})

	t.Run("ExportToCSV", func(t *testing.T) {
		data, err := ExportToCSV(songs)
		if err != nil {
			t.Fatalf("ExportToCSV failed: %v", err)
		}

		records, err := csv.NewReader(strings.NewReader(string(data))).ReadAll()
		if err != nil {
			t.Fatalf("output is not valid CSV: %v", err)
		}

		if len(records) != 4 {
			t.Fatalf("expected header plus 3 rows, got %d", len(records))
		}
		if got := strings.Join(records[1], ","); got != "1,Queen,,,Bohemian Rhapsody," {
			t.Errorf("unexpected first row %q", got)
		}
		if records[2][0] != "two" || records[2][3] != `["piano","peace"]` {
			t.Errorf("expected string id and JSON array cell, got %v", records[2])
		}
	})

	t.Run("ExportToMarkdown", func(t *testing.T) {
		data, err := ExportToMarkdown(songs)
		if err != nil {
			t.Fatalf("ExportToMarkdown failed: %v", err)
		}

		output := string(data)
		if !strings.HasPrefix(output, "# Songs\n\n**Count**: 3") {
			t.Errorf("missing heading, got: %s", output)
		}
		if !strings.Contains(output, "| id | artist | extra | tags | title | year |") {
			t.Errorf("missing table header, got: %s", output)
		}
		if !strings.Contains(output, `Pipe \| Dream`) {
			t.Errorf("expected pipe to be escaped, got: %s", output)
		}
	})

	t.Run("ExportToMarkdown empty", func(t *testing.T) {
		data, _ := ExportToMarkdown(nil)
		if strings.Contains(string(data), "|") {
			t.Errorf("expected no table for empty collection, got %s", data)
		}
	})

	t.Run("ExportToText", func(t *testing.T) {
		data, err := ExportToText(songs)
		if err != nil {
			t.Fatalf("ExportToText failed: %v", err)
		}

		output := string(data)
		if !strings.HasPrefix(output, "Songs: 3\n") {
			t.Errorf("missing count, got %s", output)
		}
		if !strings.Contains(output, "1. [1] artist=Queen title=Bohemian Rhapsody\n") {
			t.Errorf("unexpected text line, got %s", output)
		}
	})

	t.Run("ExportToJSON", func(t *testing.T) {
		data, err := ExportToJSON(songs)
		if err != nil {
			t.Fatalf("ExportToJSON failed: %v", err)
		}

		roundTrip := th.MustParseSeed(t, string(data))
		if len(roundTrip) != len(songs) {
			t.Fatalf("expected %d songs, got %d", len(songs), len(roundTrip))
		}
		for i := range songs {
			if !roundTrip[i].Equal(songs[i]) {
				t.Errorf("song %d changed in export", i)
			}
		}

		empty, _ := ExportToJSON(nil)
		if strings.TrimSpace(string(empty)) != "[]" {
			t.Errorf("expected empty array, got %s", empty)
		}
	})

	t.Run("ignores internal id", func(t *testing.T) {
		withOID := []models.Song{{"id": models.Int(1), models.InternalIDField: models.InternalID("abc")}}
		if got := strings.Join(Columns(withOID), ","); got != "id" {
			t.Errorf("expected only id column, got %s", got)
		}
	})
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		name string
		want Format
		ext  string
	}{
		{"", FormatJSON, "json"},
		{"JSON", FormatJSON, "json"},
		{"csv", FormatCSV, "csv"},
		{"md", FormatMarkdown, "md"},
		{"markdown", FormatMarkdown, "md"},
		{"txt", FormatText, "txt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseFormat(tt.name)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want || got.Extension() != tt.ext {
				t.Errorf("expected %s/%s, got %s/%s", tt.want, tt.ext, got, got.Extension())
			}
		})
	}

	t.Run("unknown", func(t *testing.T) {
		if _, err := ParseFormat("xml"); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})
}

func TestWriteExport(t *testing.T) {
	songs := th.MustParseSeed(t, th.SeedJSON)

	t.Run("WithCustomPath", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "out.csv")

		written, err := WriteExport(songs, FormatCSV, path)
		if err != nil {
			t.Fatalf("WriteExport failed: %v", err)
		}
		if written != path {
			t.Errorf("expected %s, got %s", path, written)
		}
		if !strings.Contains(th.MustReadFile(t, path), "Hey Jude") {
			t.Error("expected export to contain seeded songs")
		}
	})

	t.Run("WithDefaultPath", func(t *testing.T) {
		t.Chdir(t.TempDir())

		written, err := WriteExport(songs, FormatMarkdown, "")
		if err != nil {
			t.Fatalf("WriteExport failed: %v", err)
		}
		if written != "songs.md" {
			t.Errorf("expected songs.md, got %s", written)
		}
		th.AssertFileExists(t, written)
	})

	t.Run("unwritable path", func(t *testing.T) {
		_, err := WriteExport(songs, FormatText, filepath.Join(t.TempDir(), "missing", "dir", "out.txt"))
		if err == nil {
			t.Fatal("expected write error")
		}
		if !errors.Is(err, os.ErrNotExist) {
			t.Errorf("expected not-exist error, got %v", err)
		}
	})
}
