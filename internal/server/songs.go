package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/songs/internal/models"
	"github.com/desertthunder/songs/internal/services"
	"github.com/desertthunder/songs/internal/shared"
)

const maxBodyBytes = 1 << 20

// SongHandler serves the /song endpoints and a storage health check.
type SongHandler struct {
	svc    *services.SongService
	logger *log.Logger
}

// NewSongHandler creates a SongHandler over svc.
func NewSongHandler(svc *services.SongService, logger *log.Logger) *SongHandler {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &SongHandler{svc: svc, logger: logger}
}

// Routes returns the HTTP routes this handler serves.
func (h *SongHandler) Routes() []Route {
	return []Route{
		{Method: http.MethodGet, Path: "/song", Handler: h.List},
		{Method: http.MethodGet, Path: "/song/{id}", Handler: h.Get},
		{Method: http.MethodPost, Path: "/song", Handler: h.Create},
		{Method: http.MethodPut, Path: "/song/{id}", Handler: h.Update},
		{Method: http.MethodDelete, Path: "/song/{id}", Handler: h.Delete},
		{Method: http.MethodGet, Path: "/health", Handler: h.Health},
	}
}

// List handles GET /song.
func (h *SongHandler) List(w http.ResponseWriter, r *http.Request) {
	songs, err := h.svc.List(r.Context())
	if err != nil {
		h.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"songs": songs})
}

// Get handles GET /song/{id}.
func (h *SongHandler) Get(w http.ResponseWriter, r *http.Request) {
	song, err := h.svc.Get(r.Context(), r.PathValue("id"))
	switch {
	case errors.Is(err, shared.ErrSongNotFound):
		writeJSON(w, http.StatusNotFound, message("song with id not found"))
	case err != nil:
		h.internalError(w, r, err)
	default:
		writeJSON(w, http.StatusOK, song)
	}
}

// Create handles POST /song.
//
// 201 with the new internal id, or 302 when a song with the same id is already stored.
func (h *SongHandler) Create(w http.ResponseWriter, r *http.Request) {
	song, ok := h.readSong(w, r)
	if !ok {
		return
	}

	oid, err := h.svc.Create(r.Context(), song)
	switch {
	case errors.Is(err, shared.ErrDuplicateSong):
		id, _ := song.ID()
		writeJSON(w, http.StatusFound, map[string]string{
			"Message": fmt.Sprintf("song with id %s already present", id),
		})
	case errors.Is(err, shared.ErrInvalidInput):
		writeJSON(w, http.StatusBadRequest, message("song id is required"))
	case err != nil:
		h.internalError(w, r, err)
	default:
		writeJSON(w, http.StatusCreated, map[string]models.Value{"inserted id": models.InternalID(oid)})
	}
}

// Update handles PUT /song/{id}.
//
// 201 with the updated song, 200 when nothing changed, 404 when the song does not exist.
func (h *SongHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathInt(r)
	if !ok {
		writeJSON(w, http.StatusNotFound, message("song not found"))
		return
	}

	patch, ok := h.readSong(w, r)
	if !ok {
		return
	}

	updated, err := h.svc.Update(r.Context(), id, patch)
	switch {
	case errors.Is(err, shared.ErrSongNotFound):
		writeJSON(w, http.StatusNotFound, message("song not found"))
	case errors.Is(err, shared.ErrNotModified):
		writeJSON(w, http.StatusOK, message("song found, but nothing updated"))
	case err != nil:
		h.internalError(w, r, err)
	default:
		writeJSON(w, http.StatusCreated, updated)
	}
}

// Delete handles DELETE /song/{id}.
func (h *SongHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathInt(r)
	if !ok {
		writeJSON(w, http.StatusNotFound, message("song not found"))
		return
	}

	err := h.svc.Delete(r.Context(), id)
	switch {
	case errors.Is(err, shared.ErrSongNotFound):
		writeJSON(w, http.StatusNotFound, message("song not found"))
	case err != nil:
		h.internalError(w, r, err)
	default:
		w.WriteHeader(http.StatusNoContent)
	}
}

// Health handles GET /health.
func (h *SongHandler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Ping(r.Context()); err != nil {
		h.logger.Warn("health check failed", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "OK"})
}

// readSong decodes the request body as a song document, writing a 400 on failure.
func (h *SongHandler) readSong(w http.ResponseWriter, r *http.Request) (models.Song, bool) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, message("failed to read request body"))
		return nil, false
	}

	song, err := models.ParseSong(data)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, message("request body must be a JSON object"))
		return nil, false
	}
	return song, true
}

func (h *SongHandler) internalError(w http.ResponseWriter, r *http.Request, err error) {
	h.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "request_id", RequestIDFrom(r.Context()), "error", err)
	writeJSON(w, http.StatusInternalServerError, message("internal server error"))
}

// pathInt parses the {id} wildcard as an unsigned decimal integer.
func pathInt(r *http.Request) (int64, bool) {
	raw := r.PathValue("id")
	if raw == "" || raw[0] < '0' || raw[0] > '9' {
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	return id, err == nil
}

// NewSongRouter wires the song routes behind the standard middleware stack. A nil logger falls back to
// [shared.NewLogger].
func NewSongRouter(svc *services.SongService, logger *log.Logger, conf shared.ServerConfig) *BasicRouter {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	r := NewBasicRouter()
	r.Use(
		RequestID(),
		Logger(logger),
		Recoverer(logger),
		RateLimit(NewLimiter(conf.RateLimit, conf.RateBurst)),
	)
	r.Handler(NewSongHandler(svc, logger))
	return r
}
