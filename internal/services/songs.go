package services

import (
	"context"
	"fmt"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/songs/internal/models"
	"github.com/desertthunder/songs/internal/shared"
)

// SongService implements the song operations on top of a [models.SongRepository].
type SongService struct {
	repo   models.SongRepository
	logger *log.Logger
}

// NewSongService creates a SongService. A nil logger falls back to [shared.NewLogger].
func NewSongService(repo models.SongRepository, logger *log.Logger) *SongService {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &SongService{repo: repo, logger: logger}
}

// Seed replaces the whole collection with songs.
func (s *SongService) Seed(ctx context.Context, songs []models.Song) error {
	if err := s.repo.Replace(ctx, songs); err != nil {
		return fmt.Errorf("failed to seed songs: %w", err)
	}
	s.logger.Info("seeded songs collection", "count", len(songs))
	return nil
}

// List returns every song. The result is never nil.
func (s *SongService) List(ctx context.Context) ([]models.Song, error) {
	songs, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	if songs == nil {
		songs = []models.Song{}
	}
	return songs, nil
}

// Get looks a song up by the raw id from the request path.
//
// The id matches a string-typed "id" and, when it parses as an integer, an integer-typed one as well.
func (s *SongService) Get(ctx context.Context, rawID string) (models.Song, error) {
	return s.repo.Find(ctx, lookupCandidates(rawID)...)
}

// Create inserts song and returns its internal identifier.
//
// Returns [shared.ErrInvalidInput] when song has no id and [shared.ErrDuplicateSong] when the id is taken.
func (s *SongService) Create(ctx context.Context, song models.Song) (string, error) {
	id, ok := song.ID()
	if !ok {
		return "", fmt.Errorf("%w: song id is required", shared.ErrInvalidInput)
	}

	exists, err := s.repo.Exists(ctx, id)
	if err != nil {
		return "", err
	}
	if exists {
		return "", fmt.Errorf("%w: %s", shared.ErrDuplicateSong, id)
	}

	oid, err := s.repo.Insert(ctx, song.Without(models.InternalIDField))
	if err != nil {
		return "", err
	}

	s.logger.Debug("created song", "id", id, "oid", oid)
	return oid, nil
}

// Update merges patch into the song with the given id, forcing the patch's id to match.
//
// Returns [shared.ErrSongNotFound] when no song has the id and [shared.ErrNotModified] when the merge changed nothing.
func (s *SongService) Update(ctx context.Context, id int64, patch models.Song) (models.Song, error) {
	key := models.Int(id)

	patch = patch.Without(models.InternalIDField)
	patch[models.IDField] = key

	updated, err := s.repo.Update(ctx, key, patch)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("updated song", "id", id)
	return updated, nil
}

// Delete removes the song with the given id.
func (s *SongService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, models.Int(id)); err != nil {
		return err
	}
	s.logger.Debug("deleted song", "id", id)
	return nil
}

// Ping checks that storage is reachable.
func (s *SongService) Ping(ctx context.Context) error {
	return s.repo.Ping(ctx)
}

// lookupCandidates returns the string form of rawID, plus its integer form when rawID is a canonical decimal integer.
func lookupCandidates(rawID string) []models.Value {
	candidates := []models.Value{models.String(rawID)}
	if i, err := strconv.ParseInt(rawID, 10, 64); err == nil && strconv.FormatInt(i, 10) == rawID {
		candidates = append(candidates, models.Int(i))
	}
	return candidates
}
