package transport

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/skerrin/studylog/internal/domain/identity"
	"github.com/skerrin/studylog/internal/domain/lesson"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// writeError maps domain errors onto HTTP status codes. Remote-store failure
// messages are passed through so the dashboard can surface them.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, lesson.ErrLessonNotFound):
		status = http.StatusNotFound
	case errors.Is(err, lesson.ErrInvalidInput),
		errors.Is(err, lesson.ErrMalformedImport),
		errors.Is(err, lesson.ErrEmptyImport),
		errors.Is(err, identity.ErrInvalidEmail):
		status = http.StatusBadRequest
	case errors.Is(err, identity.ErrCodeExpired),
		errors.Is(err, identity.ErrNoPrincipal):
		status = http.StatusUnauthorized
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}
