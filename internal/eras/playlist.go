package eras

// BuildPlaylists projects each era's top tracks into a Playlist. Pure,
// no I/O: the only failure mode is running out of memory.
func BuildPlaylists(eras []Era) []Playlist {
	playlists := make([]Playlist, 0, len(eras))
	for _, e := range eras {
		tracks := make([]PlaylistTrack, 0, len(e.TopTracks))
		for _, t := range e.TopTracks {
			tracks = append(tracks, PlaylistTrack{
				Track:  t.Track,
				Artist: t.Artist,
				Plays:  t.Plays,
			})
		}
		playlists = append(playlists, Playlist{EraID: e.ID, Tracks: tracks})
	}
	return playlists
}
