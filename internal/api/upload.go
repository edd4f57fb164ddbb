package api

import (
	"io"
	"net/http"

	"github.com/snarg/eras-engine/internal/eras"
	"github.com/snarg/eras-engine/internal/metrics"
	"github.com/snarg/eras-engine/internal/session"
)

// maxInMemoryMultipart matches net/http's own defaultMaxMemory. Parts
// larger than this spill to a temp file on disk that must be cleaned up
// explicitly via r.MultipartForm.RemoveAll().
const maxInMemoryMultipart = 32 << 20

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxInMemoryMultipart); err != nil {
		writeDomainError(w, eras.NewValidationError("malformed multipart upload: "+err.Error()))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeDomainError(w, eras.NewValidationError("missing upload field \"file\""))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeDomainError(w, eras.NewValidationError("failed to read upload: "+err.Error()))
		return
	}

	kind := eras.DetectKind(data, header.Filename)
	events, err := eras.Parse(data, kind)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if len(events) == 0 {
		writeDomainError(w, eras.NewValidationError("upload contained no valid listening events"))
		return
	}

	metrics.UploadsTotal.WithLabelValues(string(kind)).Inc()

	sess := s.store.Create(events)
	if err := s.store.UpdateProgress(sess.ID, session.StageParsed, 20, ""); err != nil {
		writeDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{"session_id": sess.ID})
}
