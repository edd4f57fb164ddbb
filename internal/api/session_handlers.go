package api

import (
	"fmt"
	"net/http"
	"sort"

	"github.com/go-chi/chi/v5"

	"github.com/snarg/eras-engine/internal/eras"
	"github.com/snarg/eras-engine/internal/session"
)

// requireComplete fetches the session and rejects the read with 425 unless
// the pipeline has reached a terminal stage. A session that ended in the
// error stage is answered with 400 and its error message.
func (s *Server) requireComplete(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	id := chi.URLParam(r, "session_id")
	sess, err := s.store.Get(id)
	if err != nil {
		writeDomainError(w, err)
		return nil, false
	}
	if sess.Progress.Stage == session.StageError {
		WriteError(w, http.StatusBadRequest, sess.Progress.Message)
		return nil, false
	}
	if sess.Progress.Stage != session.StageComplete {
		writeDomainError(w, &session.NotReadyError{Stage: sess.Progress.Stage})
		return nil, false
	}
	return sess, true
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.requireComplete(w, r)
	if !ok {
		return
	}
	WriteJSON(w, http.StatusOK, newSummaryView(sess))
}

func (s *Server) handleEraList(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.requireComplete(w, r)
	if !ok {
		return
	}

	playlistTrackCounts := make(map[int]int, len(sess.Playlist))
	for _, p := range sess.Playlist {
		playlistTrackCounts[p.EraID] = len(p.Tracks)
	}

	views := make([]eraSummaryView, len(sess.Eras))
	for i, e := range sess.Eras {
		views[i] = newEraSummaryView(e, playlistTrackCounts[e.ID])
	}
	sort.Slice(views, func(i, j int) bool { return views[i].StartDate < views[j].StartDate })

	WriteJSON(w, http.StatusOK, views)
}

func (s *Server) handleEraDetail(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.requireComplete(w, r)
	if !ok {
		return
	}

	eraID, err := PathInt(r, "era_id")
	if err != nil {
		writeDomainError(w, eras.NewValidationError("era id must be an integer"))
		return
	}

	var found *eras.Era
	for i := range sess.Eras {
		if sess.Eras[i].ID == eraID {
			found = &sess.Eras[i]
			break
		}
	}
	if found == nil {
		WriteError(w, http.StatusNotFound, fmt.Sprintf("era %d not found", eraID))
		return
	}

	var playlist *playlistView
	for _, p := range sess.Playlist {
		if p.EraID == eraID {
			playlist = newPlaylistView(p)
			break
		}
	}

	WriteJSON(w, http.StatusOK, newEraDetailView(*found, playlist))
}
