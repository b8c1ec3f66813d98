// Package api holds the helpers shared by the HTTP handlers.
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"epub-locations/api/polly"
	"epub-locations/books"

	"go.uber.org/zap"
)

var ErrBadRequest = errors.New("bad request")

func StatusFor(err error) int {
	switch {
	case errors.Is(err, books.ErrBookNotFound),
		errors.Is(err, books.ErrLocationOutOfRange),
		errors.Is(err, books.ErrHighlightNotFound),
		errors.Is(err, books.ErrSummaryNotFound):
		return http.StatusNotFound
	case errors.Is(err, books.ErrDuplicateBook):
		return http.StatusConflict
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, books.ErrInvalidArgument),
		errors.Is(err, books.ErrContainerParse),
		errors.Is(err, books.ErrMarkupParse):
		return http.StatusBadRequest
	case errors.Is(err, polly.ErrTextTooLong):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.Encode(v)
}

// WriteError maps err to a status code. Server errors are logged and their
// details kept out of the response.
func WriteError(w http.ResponseWriter, logger *zap.Logger, err error) {
	status := StatusFor(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		logger.Error("request failed", zap.Error(err))
		message = http.StatusText(status)
	}
	http.Error(w, message, status)
}
