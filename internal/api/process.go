package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// handleProcess acknowledges the request and drives the session to
// completion in the background. Pipeline errors never surface here; they
// are observed through the progress stream and read endpoints.
func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "session_id")

	if _, err := s.store.Get(id); err != nil {
		writeDomainError(w, err)
		return
	}

	go s.driver.Run(context.Background(), id)

	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
