package services

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/desertthunder/songs/internal/models"
)

// LoadSeed reads a JSON array of song objects from path.
func LoadSeed(path string) ([]models.Song, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}

	return ParseSeed(data)
}

// ParseSeed decodes a JSON array of song objects.
func ParseSeed(data []byte) ([]models.Song, error) {
	var songs []models.Song
	if err := json.Unmarshal(data, &songs); err != nil {
		return nil, fmt.Errorf("failed to parse seed data: %w", err)
	}

	for i, song := range songs {
		if song == nil {
			return nil, fmt.Errorf("failed to parse seed data: entry %d is not an object", i)
		}
	}

	if songs == nil {
		songs = []models.Song{}
	}
	return songs, nil
}
