// Package pipeline drives a session from parsed events to a finished
// set of named eras and playlists, publishing progress as it goes.
package pipeline

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/snarg/eras-engine/internal/eras"
	"github.com/snarg/eras-engine/internal/llm"
	"github.com/snarg/eras-engine/internal/metrics"
	"github.com/snarg/eras-engine/internal/session"
)

// SegmentOptions carries the segmenter's tunables through to Run.
type SegmentOptions struct {
	SimilarityThreshold float64
	MinWeeks            int
	MinMs               int64
}

// DefaultSegmentOptions matches the segmenter's own defaults.
func DefaultSegmentOptions() SegmentOptions {
	return SegmentOptions{
		SimilarityThreshold: eras.DefaultSimilarityThreshold,
		MinWeeks:            eras.DefaultMinWeeks,
		MinMs:               eras.DefaultMinMs,
	}
}

// Driver runs a session through segmentation, naming, and playlist
// building, writing progress through to the session store at each stage.
// Each Run call handles one session; runs for different sessions are not
// serialized and may proceed concurrently.
type Driver struct {
	store    *session.Store
	namer    *llm.Client
	segOpts  SegmentOptions
	log      zerolog.Logger
}

// NewDriver builds a pipeline driver bound to a session store and a
// naming client. namer may wrap a nil Provider, in which case every era
// is named by the deterministic fallback.
func NewDriver(store *session.Store, namer *llm.Client, segOpts SegmentOptions, log zerolog.Logger) *Driver {
	return &Driver{
		store:   store,
		namer:   namer,
		segOpts: segOpts,
		log:     log.With().Str("component", "pipeline").Logger(),
	}
}

// Run executes the full pipeline for one session: stats, segmentation,
// naming, and playlist construction. It is meant to be invoked from its
// own goroutine by the /process handler, which does not wait for it.
func (d *Driver) Run(ctx context.Context, sessionID string) {
	log := d.log.With().Str("session_id", sessionID).Logger()

	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("pipeline panicked, session moved to error")
			metrics.SessionsFailedTotal.Inc()
			_ = d.store.UpdateProgress(sessionID, session.StageError, 0, fmt.Sprintf("internal error: %v", r))
		}
	}()

	sess, err := d.store.Get(sessionID)
	if err != nil {
		log.Warn().Err(err).Msg("session vanished before pipeline could run")
		return
	}

	stats := eras.ComputeAggregateStats(sess.Events)
	events := sess.Events

	if err := d.store.UpdateProgress(sessionID, session.StageSegmenting, 30, ""); err != nil {
		log.Warn().Err(err).Msg("failed to publish segmenting progress")
		return
	}

	segmented := eras.Segment(events, d.segOpts.SimilarityThreshold, d.segOpts.MinWeeks, d.segOpts.MinMs)
	if len(segmented) == 0 {
		log.Info().Msg("no distinct eras found")
		metrics.SessionsFailedTotal.Inc()
		_ = d.store.UpdateProgress(sessionID, session.StageError, 30, "No distinct eras found")
		return
	}

	if _, err := d.store.Mutate(sessionID, func(sess *session.Session) {
		sess.Stats = stats
		sess.Eras = segmented
		sess.Events = nil // reclaim memory; nothing downstream needs raw events
	}); err != nil {
		log.Warn().Err(err).Msg("session vanished after segmentation")
		return
	}
	if err := d.store.UpdateProgress(sessionID, session.StageSegmented, 40, ""); err != nil {
		log.Warn().Err(err).Msg("failed to publish segmented progress")
		return
	}

	if err := d.store.UpdateProgress(sessionID, session.StageNaming, 40, ""); err != nil {
		log.Warn().Err(err).Msg("failed to publish naming progress")
		return
	}
	named := d.namer.NameAllEras(ctx, segmented, func(percent int) {
		_ = d.store.UpdateProgress(sessionID, session.StageNaming, percent, "")
	})

	if _, err := d.store.Mutate(sessionID, func(sess *session.Session) {
		sess.Eras = named
	}); err != nil {
		log.Warn().Err(err).Msg("session vanished after naming")
		return
	}
	if err := d.store.UpdateProgress(sessionID, session.StageNamed, 70, ""); err != nil {
		log.Warn().Err(err).Msg("failed to publish named progress")
		return
	}

	if err := d.store.UpdateProgress(sessionID, session.StagePlaylists, 80, ""); err != nil {
		log.Warn().Err(err).Msg("failed to publish playlists progress")
		return
	}
	playlists := eras.BuildPlaylists(named)
	if _, err := d.store.Mutate(sessionID, func(sess *session.Session) {
		sess.Playlist = playlists
	}); err != nil {
		log.Warn().Err(err).Msg("session vanished after playlist build")
		return
	}

	if err := d.store.UpdateProgress(sessionID, session.StageComplete, 100, ""); err != nil {
		log.Warn().Err(err).Msg("failed to publish complete progress")
		return
	}
	metrics.SessionsCompletedTotal.Inc()
	log.Info().Int("eras", len(named)).Msg("pipeline complete")
}
