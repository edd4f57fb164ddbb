package eras

import (
	"sort"
	"time"
)

// Defaults for the significance filter and boundary threshold.
const (
	DefaultSimilarityThreshold = 0.3
	DefaultMinWeeks            = 2
	DefaultMinMs               = 3_600_000 // one hour
	gapBoundaryDays            = 28
	maxTopArtists              = 10
	maxTopTracks               = 20
	similarityTopN             = 20
)

// Segment runs the full week-aggregation -> boundary-detection ->
// assembly -> significance-filter pipeline over a sorted event list.
func Segment(events []Event, threshold float64, minWeeks int, minMs int64) []Era {
	weeks := AggregateWeeks(events)
	boundaries := DetectBoundaries(weeks, threshold)
	eras := AssembleEras(weeks, boundaries)
	return FilterSignificant(eras, minWeeks, minMs)
}

// AggregateWeeks groups events by ISO (year, week) and returns buckets
// sorted ascending by week_start.
func AggregateWeeks(events []Event) []WeekBucket {
	index := make(map[[2]int]*WeekBucket)
	for _, e := range events {
		y, w := e.Timestamp.ISOWeek()
		key := [2]int{y, w}
		b, ok := index[key]
		if !ok {
			b = &WeekBucket{
				ISOYear:      y,
				ISOWeek:      w,
				WeekStart:    mondayOfISOWeek(y, w),
				ArtistCounts: make(map[string]int),
				TrackCounts:  make(map[trackKey]int),
			}
			index[key] = b
		}
		b.ArtistCounts[e.Artist]++
		b.TrackCounts[trackKey{Track: e.Track, Artist: e.Artist}]++
		b.TotalMs += e.MsPlayed
	}

	out := make([]WeekBucket, 0, len(index))
	for _, b := range index {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].WeekStart.Before(out[j].WeekStart) })
	return out
}

// mondayOfISOWeek returns the Monday (UTC midnight) of the given ISO
// (year, week) pair, correctly handling year-boundary weeks.
func mondayOfISOWeek(isoYear, isoWeek int) time.Time {
	jan4 := time.Date(isoYear, time.January, 4, 0, 0, 0, 0, time.UTC)
	weekday := int(jan4.Weekday())
	if weekday == 0 {
		weekday = 7 // ISO: Monday=1 .. Sunday=7
	}
	mondayWeek1 := jan4.AddDate(0, 0, -(weekday - 1))
	return mondayWeek1.AddDate(0, 0, (isoWeek-1)*7)
}

// Similarity computes Jaccard similarity of the top-N artist sets of
// two WeekBuckets, N = min(20, min(|A.artists|, |B.artists|)).
func Similarity(a, b WeekBucket) float64 {
	if len(a.ArtistCounts) == 0 || len(b.ArtistCounts) == 0 {
		return 0
	}
	n := min(similarityTopN, min(len(a.ArtistCounts), len(b.ArtistCounts)))
	sa := topArtistSet(a, n)
	sb := topArtistSet(b, n)

	union := make(map[string]struct{}, len(sa)+len(sb))
	inter := 0
	for artist := range sa {
		union[artist] = struct{}{}
		if _, ok := sb[artist]; ok {
			inter++
		}
	}
	for artist := range sb {
		union[artist] = struct{}{}
	}
	if len(union) == 0 {
		return 0
	}
	return float64(inter) / float64(len(union))
}

// topArtistSet returns the set of the top-n artists of a bucket by play
// count, ties broken lexicographically by artist name.
func topArtistSet(b WeekBucket, n int) map[string]struct{} {
	ranked := rankArtists(b.ArtistCounts)
	if n > len(ranked) {
		n = len(ranked)
	}
	set := make(map[string]struct{}, n)
	for _, ac := range ranked[:n] {
		set[ac.Artist] = struct{}{}
	}
	return set
}

func rankArtists(counts map[string]int) []ArtistCount {
	ranked := make([]ArtistCount, 0, len(counts))
	for artist, plays := range counts {
		ranked = append(ranked, ArtistCount{Artist: artist, Plays: plays})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Plays != ranked[j].Plays {
			return ranked[i].Plays > ranked[j].Plays
		}
		return ranked[i].Artist < ranked[j].Artist
	})
	return ranked
}

func rankTracks(counts map[trackKey]int) []TrackCount {
	ranked := make([]TrackCount, 0, len(counts))
	for k, plays := range counts {
		ranked = append(ranked, TrackCount{Track: k.Track, Artist: k.Artist, Plays: plays})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Plays != ranked[j].Plays {
			return ranked[i].Plays > ranked[j].Plays
		}
		if ranked[i].Track != ranked[j].Track {
			return ranked[i].Track < ranked[j].Track
		}
		return ranked[i].Artist < ranked[j].Artist
	})
	return ranked
}

// DetectBoundaries returns the indices into weeks at which a new era
// begins. The first week is always a boundary.
func DetectBoundaries(weeks []WeekBucket, threshold float64) []int {
	if len(weeks) == 0 {
		return nil
	}
	boundaries := []int{0}
	for i := 1; i < len(weeks); i++ {
		gapDays := int(weeks[i].WeekStart.Sub(weeks[i-1].WeekStart).Hours() / 24)
		if gapDays > gapBoundaryDays {
			boundaries = append(boundaries, i)
			continue
		}
		if Similarity(weeks[i-1], weeks[i]) < threshold {
			boundaries = append(boundaries, i)
		}
	}
	return boundaries
}

// AssembleEras merges the weeks between consecutive boundaries into
// preliminary Era records, numbered sequentially from 1.
func AssembleEras(weeks []WeekBucket, boundaries []int) []Era {
	if len(boundaries) == 0 {
		return nil
	}
	eras := make([]Era, 0, len(boundaries))
	for k, start := range boundaries {
		end := len(weeks)
		if k+1 < len(boundaries) {
			end = boundaries[k+1]
		}
		eras = append(eras, mergeWeeks(weeks[start:end], k+1))
	}
	return eras
}

func mergeWeeks(weeks []WeekBucket, id int) Era {
	artistCounts := make(map[string]int)
	trackCounts := make(map[trackKey]int)
	var totalMs int64
	for _, w := range weeks {
		for artist, plays := range w.ArtistCounts {
			artistCounts[artist] += plays
		}
		for k, plays := range w.TrackCounts {
			trackCounts[k] += plays
		}
		totalMs += w.TotalMs
	}

	rankedArtists := rankArtists(artistCounts)
	if len(rankedArtists) > maxTopArtists {
		rankedArtists = rankedArtists[:maxTopArtists]
	}
	rankedTracks := rankTracks(trackCounts)
	if len(rankedTracks) > maxTopTracks {
		rankedTracks = rankedTracks[:maxTopTracks]
	}

	return Era{
		ID:            id,
		StartDate:     weeks[0].WeekStart,
		EndDate:       weeks[len(weeks)-1].WeekStart.AddDate(0, 0, 6),
		TopArtists:    rankedArtists,
		TopTracks:     rankedTracks,
		TotalMsPlayed: totalMs,
	}
}

// FilterSignificant drops eras below the minimum duration or listening
// time, then renumbers the survivors 1..N in chronological order.
func FilterSignificant(eras []Era, minWeeks int, minMs int64) []Era {
	kept := make([]Era, 0, len(eras))
	for _, e := range eras {
		weeks := int(e.EndDate.Sub(e.StartDate).Hours()/24)/7 + 1
		if weeks < minWeeks || e.TotalMsPlayed < minMs {
			continue
		}
		kept = append(kept, e)
	}
	for i := range kept {
		kept[i].ID = i + 1
	}
	return kept
}
