// Package session tracks in-flight uploads as they move through the
// pipeline: a session holds the parsed events, the derived eras and
// playlists, and a progress snapshot the SSE endpoint polls.
package session

import (
	"time"

	"github.com/snarg/eras-engine/internal/eras"
)

// Stage is one position in the pipeline's state machine.
type Stage string

const (
	StageUploading  Stage = "uploading"
	StageParsed     Stage = "parsed"
	StageSegmenting Stage = "segmenting"
	StageSegmented  Stage = "segmented"
	StageNaming     Stage = "naming"
	StageNamed      Stage = "named"
	StagePlaylists  Stage = "playlists"
	StageComplete   Stage = "complete"
	StageError      Stage = "error"
)

// Progress is the snapshot the progress endpoint reports.
type Progress struct {
	Stage   Stage
	Percent int
	Message string
}

// Session is one uploaded listening history moving through the pipeline.
// Events are dropped once segmentation has consumed them; everything
// downstream operates on Eras and Playlists.
type Session struct {
	ID       string
	Events   []eras.Event
	Stats    eras.AggregateStats
	Eras     []eras.Era
	Playlist []eras.Playlist
	Progress Progress

	CreatedAt    time.Time
	LastAccessed time.Time
}

// New creates a session in the uploading stage with zero progress.
func New(id string, events []eras.Event, now time.Time) *Session {
	return &Session{
		ID:           id,
		Events:       events,
		Progress:     Progress{Stage: StageUploading, Percent: 0},
		CreatedAt:    now,
		LastAccessed: now,
	}
}

// clone returns a value copy safe to hand to a caller outside the store's
// lock. Slices are shared (read-only after being set) rather than deep
// copied, matching how the pipeline driver publishes finished results.
func (s *Session) clone() *Session {
	cp := *s
	return &cp
}
