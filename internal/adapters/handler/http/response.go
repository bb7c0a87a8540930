package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/pollbox/api/internal/core/domain"
)

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
	}
}

// respondError maps domain sentinels onto HTTP status codes. Unknown errors
// become opaque 500s so internals never leak to callers.
func respondError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	message := "internal server error"

	switch {
	case errors.Is(err, domain.ErrPollNotFound),
		errors.Is(err, domain.ErrVoteNotFound),
		errors.Is(err, domain.ErrUserNotFound):
		status = http.StatusNotFound
		message = err.Error()
	case errors.Is(err, domain.ErrForbidden):
		status = http.StatusForbidden
		message = err.Error()
	case errors.Is(err, domain.ErrAlreadyVoted),
		errors.Is(err, domain.ErrAlreadyListed),
		errors.Is(err, domain.ErrEmailTaken):
		status = http.StatusConflict
		message = err.Error()
	case errors.Is(err, domain.ErrPollExpired),
		errors.Is(err, domain.ErrInvalidOption),
		errors.Is(err, domain.ErrNotPrivate),
		errors.Is(err, domain.ErrInvalidInput):
		status = http.StatusBadRequest
		message = err.Error()
	case errors.Is(err, domain.ErrBadLogin):
		status = http.StatusUnauthorized
		message = err.Error()
	}

	respondJSON(w, status, map[string]string{"error": message})
}
