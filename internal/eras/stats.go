package eras

import "time"

// ComputeAggregateStats does a single pass over the full validated event
// list, before the caller discards it, producing the summary record.
func ComputeAggregateStats(events []Event) AggregateStats {
	if len(events) == 0 {
		return AggregateStats{}
	}

	tracks := make(map[trackKey]struct{})
	artists := make(map[string]struct{})
	var totalMs int64
	minTS, maxTS := events[0].Timestamp, events[0].Timestamp

	for _, e := range events {
		tracks[trackKey{Track: e.Track, Artist: e.Artist}] = struct{}{}
		artists[e.Artist] = struct{}{}
		totalMs += e.MsPlayed
		if e.Timestamp.Before(minTS) {
			minTS = e.Timestamp
		}
		if e.Timestamp.After(maxTS) {
			maxTS = e.Timestamp
		}
	}

	return AggregateStats{
		TotalTracks:  len(tracks),
		TotalArtists: len(artists),
		TotalMs:      totalMs,
		DateRange: DateRange{
			Start: dateOnly(minTS),
			End:   dateOnly(maxTS),
		},
	}
}

// dateOnly truncates a timestamp to its UTC calendar date at midnight.
func dateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
