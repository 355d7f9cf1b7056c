// package formatter renders the song collection to export formats (JSON, CSV, Markdown, plain text)
package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/desertthunder/songs/internal/models"
	"github.com/desertthunder/songs/internal/shared"
	"github.com/samber/lo"
)

// Format names an export encoding.
type Format string

const (
	FormatJSON     Format = "json"
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "markdown"
	FormatText     Format = "text"
)

// ParseFormat resolves a format name, accepting the md and txt shorthands.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "json":
		return FormatJSON, nil
	case "csv":
		return FormatCSV, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "text", "txt":
		return FormatText, nil
	default:
		return "", fmt.Errorf("%w: unknown export format %q", shared.ErrInvalidArgument, name)
	}
}

// Extension returns the file extension used for default export filenames.
func (f Format) Extension() string {
	switch f {
	case FormatMarkdown:
		return "md"
	case FormatText:
		return "txt"
	default:
		return string(f)
	}
}

// Columns returns every field name present in songs, "id" first and the rest sorted.
func Columns(songs []models.Song) []string {
	fields := lo.Uniq(lo.FlatMap(songs, func(s models.Song, _ int) []string { return s.Fields() }))
	fields = lo.Without(fields, models.IDField, models.InternalIDField)
	slices.Sort(fields)
	return append([]string{models.IDField}, fields...)
}

func cell(s models.Song, field string) string {
	v, ok := s[field]
	if !ok || v.IsNull() {
		return ""
	}
	return v.String()
}

// ExportToJSON renders songs as an indented JSON array.
func ExportToJSON(songs []models.Song) ([]byte, error) {
	if songs == nil {
		songs = []models.Song{}
	}
	data, err := json.MarshalIndent(songs, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal songs: %w", err)
	}
	return append(data, '\n'), nil
}

// ExportToCSV renders songs as CSV with one column per field from [Columns].
//
// Missing and null fields are empty; arrays and objects are written as JSON.
func ExportToCSV(songs []models.Song) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := Columns(songs)
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, song := range songs {
		record := lo.Map(headers, func(field string, _ int) string { return cell(song, field) })
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown renders songs as a Markdown table.
func ExportToMarkdown(songs []models.Song) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString("# Songs\n\n")
	buf.WriteString(fmt.Sprintf("**Count**: %d\n\n", len(songs)))

	if len(songs) == 0 {
		return buf.Bytes(), nil
	}

	headers := Columns(songs)
	escape := strings.NewReplacer("|", `\|`, "\n", " ")

	buf.WriteString("| " + strings.Join(headers, " | ") + " |\n")
	buf.WriteString("|" + strings.Repeat(" --- |", len(headers)) + "\n")
	for _, song := range songs {
		row := lo.Map(headers, func(field string, _ int) string { return escape.Replace(cell(song, field)) })
		buf.WriteString("| " + strings.Join(row, " | ") + " |\n")
	}

	return buf.Bytes(), nil
}

// ExportToText renders one numbered line per song: the id followed by its other fields as key=value pairs.
func ExportToText(songs []models.Song) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Songs: %d\n\n", len(songs)))

	for i, song := range songs {
		pairs := lo.FilterMap(song.Fields(), func(field string, _ int) (string, bool) {
			if field == models.IDField || field == models.InternalIDField {
				return "", false
			}
			return fmt.Sprintf("%s=%s", field, song[field].String()), true
		})
		buf.WriteString(fmt.Sprintf("%d. [%s] %s\n", i+1, cell(song, models.IDField), strings.Join(pairs, " ")))
	}

	return buf.Bytes(), nil
}

// Export renders songs in the given format.
func Export(songs []models.Song, format Format) ([]byte, error) {
	switch format {
	case FormatJSON:
		return ExportToJSON(songs)
	case FormatCSV:
		return ExportToCSV(songs)
	case FormatMarkdown:
		return ExportToMarkdown(songs)
	case FormatText:
		return ExportToText(songs)
	default:
		return nil, fmt.Errorf("%w: unknown export format %q", shared.ErrInvalidArgument, format)
	}
}

// WriteExport renders songs and writes them to path, returning the path written.
//
// Defaults to songs.{ext} in the working directory.
func WriteExport(songs []models.Song, format Format, path string) (string, error) {
	if path == "" {
		path = "songs." + format.Extension()
	}

	data, err := Export(songs, format)
	if err != nil {
		return "", err
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write export file: %w", err)
	}

	return path, nil
}
