// Package library serves the converted books: their records, locations,
// reading state, highlights, summaries and narration.
package library

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"epub-locations/api"
	"epub-locations/api/polly"
	"epub-locations/books"
	"epub-locations/locations"
	"epub-locations/storage"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Handler struct {
	repo     *storage.Repository
	state    *storage.StateStore
	narrator *polly.Narrator
	logger   *zap.Logger
}

// NewHandler builds the library API. narrator may be nil, in which case the
// audio route is not registered.
func NewHandler(repo *storage.Repository, state *storage.StateStore, narrator *polly.Narrator, logger *zap.Logger) *Handler {
	return &Handler{
		repo:     repo,
		state:    state,
		narrator: narrator,
		logger:   logger,
	}
}

func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /books", h.listBooks)
	mux.HandleFunc("GET /books/{id}", h.getBook)
	mux.HandleFunc("DELETE /books/{id}", h.deleteBook)
	mux.HandleFunc("GET /books/{id}/locations", h.locationAtOffset)
	mux.HandleFunc("GET /books/{id}/locations/{index}", h.getLocation)
	mux.HandleFunc("GET /books/{id}/state", h.getState)
	mux.HandleFunc("PUT /books/{id}/state", h.putState)
	mux.HandleFunc("GET /books/{id}/highlights", h.listHighlights)
	mux.HandleFunc("POST /books/{id}/highlights", h.addHighlight)
	mux.HandleFunc("DELETE /books/{id}/highlights/{highlightID}", h.deleteHighlight)
	mux.HandleFunc("GET /books/{id}/summaries/{key}", h.getSummary)
	mux.HandleFunc("PUT /books/{id}/summaries/{key}", h.putSummary)
	if h.narrator != nil {
		mux.HandleFunc("GET /books/{id}/locations/{index}/audio", h.getAudio)
	}
}

func (h *Handler) listBooks(w http.ResponseWriter, r *http.Request) {
	library, err := h.repo.GetAllBooks()
	if err != nil {
		api.WriteError(w, h.logger, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, library)
}

func (h *Handler) getBook(w http.ResponseWriter, r *http.Request) {
	record, err := h.repo.GetBook(r.PathValue("id"))
	if err != nil {
		api.WriteError(w, h.logger, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, record)
}

func (h *Handler) deleteBook(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	record, err := h.repo.GetBook(id)
	if err != nil {
		api.WriteError(w, h.logger, err)
		return
	}

	if err := h.repo.DeleteBook(id); err != nil {
		api.WriteError(w, h.logger, err)
		return
	}
	if err := h.state.DeleteBook(id); err != nil {
		api.WriteError(w, h.logger, err)
		return
	}
	if err := os.RemoveAll(filepath.Dir(record.LocationsPath)); err != nil {
		h.logger.Warn("failed to remove locations", zap.String("id", id), zap.Error(err))
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) getLocation(w http.ResponseWriter, r *http.Request) {
	_, loc, err := h.location(r)
	if err != nil {
		api.WriteError(w, h.logger, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, loc)
}

func (h *Handler) locationAtOffset(w http.ResponseWriter, r *http.Request) {
	offset, err := intParam(r.URL.Query().Get("offset"), "offset")
	if err != nil {
		api.WriteError(w, h.logger, err)
		return
	}

	_, doc, err := h.load(r.PathValue("id"))
	if err != nil {
		api.WriteError(w, h.logger, err)
		return
	}

	loc, err := locations.AtOffset(doc, offset)
	if err != nil {
		api.WriteError(w, h.logger, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, loc)
}

func (h *Handler) getState(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, err := h.repo.GetBook(id); err != nil {
		api.WriteError(w, h.logger, err)
		return
	}

	state, err := h.state.GetReadingState(id)
	if err != nil {
		api.WriteError(w, h.logger, err)
		return
	}
	if state == nil {
		state = &books.ReadingState{}
	}
	api.WriteJSON(w, http.StatusOK, state)
}

func (h *Handler) putState(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	record, err := h.repo.GetBook(id)
	if err != nil {
		api.WriteError(w, h.logger, err)
		return
	}

	var state books.ReadingState
	if err := decodeBody(r, &state); err != nil {
		api.WriteError(w, h.logger, err)
		return
	}
	if state.Location < 0 || state.Location >= record.TotalLocations {
		api.WriteError(w, h.logger, fmt.Errorf("%w: location %d of %d", books.ErrLocationOutOfRange, state.Location, record.TotalLocations))
		return
	}
	state.UpdatedAt = time.Now().UTC()

	if err := h.state.SaveReadingState(id, state); err != nil {
		api.WriteError(w, h.logger, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, state)
}

func (h *Handler) listHighlights(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, err := h.repo.GetBook(id); err != nil {
		api.WriteError(w, h.logger, err)
		return
	}

	highlights, err := h.state.GetHighlights(id)
	if err != nil {
		api.WriteError(w, h.logger, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, highlights)
}

func (h *Handler) addHighlight(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	record, err := h.repo.GetBook(id)
	if err != nil {
		api.WriteError(w, h.logger, err)
		return
	}

	var highlight books.Highlight
	if err := decodeBody(r, &highlight); err != nil {
		api.WriteError(w, h.logger, err)
		return
	}
	if strings.TrimSpace(highlight.Text) == "" {
		api.WriteError(w, h.logger, fmt.Errorf("%w: missing highlight text", api.ErrBadRequest))
		return
	}
	if highlight.Location < 0 || highlight.Location >= record.TotalLocations {
		api.WriteError(w, h.logger, fmt.Errorf("%w: location %d of %d", books.ErrLocationOutOfRange, highlight.Location, record.TotalLocations))
		return
	}
	highlight.ID = uuid.NewString()
	highlight.CreatedAt = time.Now().UTC()

	if err := h.state.SaveHighlight(id, highlight); err != nil {
		api.WriteError(w, h.logger, err)
		return
	}
	api.WriteJSON(w, http.StatusCreated, highlight)
}

func (h *Handler) deleteHighlight(w http.ResponseWriter, r *http.Request) {
	if err := h.state.DeleteHighlight(r.PathValue("id"), r.PathValue("highlightID")); err != nil {
		api.WriteError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) getSummary(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, err := h.repo.GetBook(id); err != nil {
		api.WriteError(w, h.logger, err)
		return
	}

	summary, err := h.state.GetSummary(id, r.PathValue("key"))
	if err != nil {
		api.WriteError(w, h.logger, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, summary)
}

func (h *Handler) putSummary(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, err := h.repo.GetBook(id); err != nil {
		api.WriteError(w, h.logger, err)
		return
	}

	var summary books.Summary
	if err := decodeBody(r, &summary); err != nil {
		api.WriteError(w, h.logger, err)
		return
	}
	if strings.TrimSpace(summary.Summary) == "" {
		api.WriteError(w, h.logger, fmt.Errorf("%w: missing summary", api.ErrBadRequest))
		return
	}
	summary.Key = r.PathValue("key")
	summary.UpdatedAt = time.Now().UTC()

	if err := h.state.SaveSummary(id, summary); err != nil {
		api.WriteError(w, h.logger, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, summary)
}

func (h *Handler) getAudio(w http.ResponseWriter, r *http.Request) {
	record, loc, err := h.location(r)
	if err != nil {
		api.WriteError(w, h.logger, err)
		return
	}

	path, err := h.narrator.SynthesizeLocation(r.Context(), record.ID, loc)
	if err != nil {
		api.WriteError(w, h.logger, err)
		return
	}

	w.Header().Set("Content-Type", "audio/mpeg")
	http.ServeFile(w, r, path)
}

func (h *Handler) load(id string) (*books.Record, *books.LocationsDocument, error) {
	record, err := h.repo.GetBook(id)
	if err != nil {
		return nil, nil, err
	}

	doc, err := storage.ReadLocations(record.LocationsPath)
	if err != nil {
		return nil, nil, err
	}
	return record, doc, nil
}

func (h *Handler) location(r *http.Request) (*books.Record, books.Location, error) {
	index, err := intParam(r.PathValue("index"), "index")
	if err != nil {
		return nil, books.Location{}, err
	}

	record, doc, err := h.load(r.PathValue("id"))
	if err != nil {
		return nil, books.Location{}, err
	}

	loc, err := locations.At(doc, index)
	if err != nil {
		return nil, books.Location{}, err
	}
	return record, loc, nil
}

func intParam(value, name string) (int, error) {
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid %s %q", api.ErrBadRequest, name, value)
	}
	return n, nil
}

func decodeBody(r *http.Request, v any) error {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: invalid request body: %w", api.ErrBadRequest, err)
	}
	return nil
}
