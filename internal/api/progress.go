package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/hlog"

	"github.com/snarg/eras-engine/internal/metrics"
	"github.com/snarg/eras-engine/internal/session"
)

const (
	progressPollInterval = 500 * time.Millisecond
	progressKeepalive    = 15 * time.Second
	progressCeiling      = 5 * time.Minute
)

// handleProgress streams {stage, percent, message} snapshots until the
// session reaches a terminal stage, the client disconnects, or the
// hard ceiling elapses.
func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "session_id")

	if _, err := s.store.Get(id); err != nil {
		writeDomainError(w, err)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		WriteError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	metrics.SSESubscribersActive.Inc()
	defer metrics.SSESubscribersActive.Dec()

	poll := time.NewTicker(progressPollInterval)
	defer poll.Stop()
	keepalive := time.NewTicker(progressKeepalive)
	defer keepalive.Stop()
	ceiling := time.NewTimer(progressCeiling)
	defer ceiling.Stop()

	log := hlog.FromRequest(r)

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ceiling.C:
			return
		case <-keepalive.C:
			if _, err := fmt.Fprint(w, ": keepalive\n\n"); err != nil {
				return
			}
			flusher.Flush()
		case <-poll.C:
			sess, err := s.store.Get(id)
			if err != nil {
				return
			}
			payload, err := json.Marshal(newProgressView(sess.Progress))
			if err != nil {
				log.Error().Err(err).Msg("failed to marshal progress snapshot")
				continue
			}
			if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
				return
			}
			flusher.Flush()
			if sess.Progress.Stage == session.StageComplete || sess.Progress.Stage == session.StageError {
				return
			}
		}
	}
}
