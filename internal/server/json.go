package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/playperu/planetquest/internal/quiz"
)

const maxBodyBytes = 4 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func readJSON(w http.ResponseWriter, r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

// writeSessionError maps runner and quiz errors to HTTP statuses.
func writeSessionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, quiz.ErrUnknownObject):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, quiz.ErrInvalidAnswer):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, quiz.ErrNotPresenting), errors.Is(err, ErrSessionEnded):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, ErrSessionClosed):
		writeError(w, http.StatusGone, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
