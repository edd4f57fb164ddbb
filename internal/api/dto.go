package api

import (
	"time"

	"github.com/snarg/eras-engine/internal/eras"
	"github.com/snarg/eras-engine/internal/session"
)

const dateOnly = "2006-01-02"

type progressView struct {
	Stage   string `json:"stage"`
	Percent int    `json:"percent"`
	Message string `json:"message,omitempty"`
}

func newProgressView(p session.Progress) progressView {
	return progressView{Stage: string(p.Stage), Percent: p.Percent, Message: p.Message}
}

type summaryView struct {
	TotalEras            int                 `json:"total_eras"`
	DateRange            dateRangeView       `json:"date_range"`
	TotalListeningTimeMs int64               `json:"total_listening_time_ms"`
	TotalTracks          int                 `json:"total_tracks"`
	TotalArtists         int                 `json:"total_artists"`
}

type dateRangeView struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

func newSummaryView(sess *session.Session) summaryView {
	return summaryView{
		TotalEras: len(sess.Eras),
		DateRange: dateRangeView{
			Start: formatDateOnly(sess.Stats.DateRange.Start),
			End:   formatDateOnly(sess.Stats.DateRange.End),
		},
		TotalListeningTimeMs: sess.Stats.TotalMs,
		TotalTracks:          sess.Stats.TotalTracks,
		TotalArtists:         sess.Stats.TotalArtists,
	}
}

func formatDateOnly(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateOnly)
}

type artistView struct {
	Name  string `json:"name"`
	Plays int    `json:"plays"`
}

func newArtistViews(artists []eras.ArtistCount, limit int) []artistView {
	if limit > 0 && limit < len(artists) {
		artists = artists[:limit]
	}
	views := make([]artistView, len(artists))
	for i, a := range artists {
		views[i] = artistView{Name: a.Artist, Plays: a.Plays}
	}
	return views
}

type trackView struct {
	Track  string `json:"track"`
	Artist string `json:"artist"`
	Plays  int    `json:"plays"`
}

func newTrackViews(tracks []eras.TrackCount) []trackView {
	views := make([]trackView, len(tracks))
	for i, tr := range tracks {
		views[i] = trackView{Track: tr.Track, Artist: tr.Artist, Plays: tr.Plays}
	}
	return views
}

type eraSummaryView struct {
	ID                 int          `json:"id"`
	Title              string       `json:"title"`
	StartDate          string       `json:"start_date"`
	EndDate            string       `json:"end_date"`
	TopArtists         []artistView `json:"top_artists"`
	PlaylistTrackCount int          `json:"playlist_track_count"`
}

func newEraSummaryView(e eras.Era, playlistTrackCount int) eraSummaryView {
	return eraSummaryView{
		ID:                 e.ID,
		Title:              e.Title,
		StartDate:          formatDateOnly(e.StartDate),
		EndDate:            formatDateOnly(e.EndDate),
		TopArtists:         newArtistViews(e.TopArtists, 3),
		PlaylistTrackCount: playlistTrackCount,
	}
}

type playlistTrackView struct {
	TrackName  string  `json:"track_name"`
	ArtistName string  `json:"artist_name"`
	PlayCount  int     `json:"play_count"`
	URI        *string `json:"uri"`
}

type playlistView struct {
	EraID  int                 `json:"era_id"`
	Tracks []playlistTrackView `json:"tracks"`
}

func newPlaylistView(p eras.Playlist) *playlistView {
	tracks := make([]playlistTrackView, len(p.Tracks))
	for i, t := range p.Tracks {
		tracks[i] = playlistTrackView{TrackName: t.Track, ArtistName: t.Artist, PlayCount: t.Plays, URI: t.URI}
	}
	return &playlistView{EraID: p.EraID, Tracks: tracks}
}

type eraDetailView struct {
	ID            int           `json:"id"`
	Title         string        `json:"title"`
	Summary       string        `json:"summary"`
	StartDate     string        `json:"start_date"`
	EndDate       string        `json:"end_date"`
	TotalMsPlayed int64         `json:"total_ms_played"`
	TopArtists    []artistView  `json:"top_artists"`
	TopTracks     []trackView   `json:"top_tracks"`
	Playlist      *playlistView `json:"playlist"`
}

func newEraDetailView(e eras.Era, playlist *playlistView) eraDetailView {
	return eraDetailView{
		ID:            e.ID,
		Title:         e.Title,
		Summary:       e.Summary,
		StartDate:     formatDateOnly(e.StartDate),
		EndDate:       formatDateOnly(e.EndDate),
		TotalMsPlayed: e.TotalMsPlayed,
		TopArtists:    newArtistViews(e.TopArtists, 0),
		TopTracks:     newTrackViews(e.TopTracks),
		Playlist:      playlist,
	}
}
