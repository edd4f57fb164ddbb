package api

import (
	"errors"
	"net/http"

	"github.com/snarg/eras-engine/internal/eras"
	"github.com/snarg/eras-engine/internal/session"
)

// writeDomainError maps the package-level error taxonomy onto HTTP status
// codes and the standard {"error": ...} body. NotReadyError additionally
// carries the session's current stage per the read-before-complete contract.
func writeDomainError(w http.ResponseWriter, err error) {
	var validationErr *eras.ValidationError
	var notFoundErr *session.NotFoundError
	var notReadyErr *session.NotReadyError

	switch {
	case errors.As(err, &validationErr):
		WriteError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &notFoundErr):
		WriteError(w, http.StatusNotFound, err.Error())
	case errors.As(err, &notReadyErr):
		WriteJSON(w, http.StatusTooEarly, map[string]string{
			"error": "Processing not complete",
			"stage": string(notReadyErr.Stage),
		})
	default:
		WriteError(w, http.StatusInternalServerError, err.Error())
	}
}
