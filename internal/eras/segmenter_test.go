package eras

import (
	"testing"
	"time"
)

func event(ts string, artist, track string, ms int64) Event {
	t, err := time.Parse(time.RFC3339, ts)
	if err != nil {
		panic(err)
	}
	return Event{Timestamp: t, Artist: artist, Track: track, MsPlayed: ms}
}

// ── Similarity laws (testable property 5) ───────────────────────────

func TestSimilarityLaws(t *testing.T) {
	a := WeekBucket{ArtistCounts: map[string]int{"A": 5, "B": 3}}
	b := WeekBucket{ArtistCounts: map[string]int{"A": 2, "C": 7}}
	empty := WeekBucket{ArtistCounts: map[string]int{}}

	if got := Similarity(a, a); got != 1.0 {
		t.Errorf("Similarity(A, A) = %v, want 1.0", got)
	}
	if got1, got2 := Similarity(a, b), Similarity(b, a); got1 != got2 {
		t.Errorf("Similarity is not symmetric: %v vs %v", got1, got2)
	}
	if got := Similarity(a, b); got < 0 || got > 1 {
		t.Errorf("Similarity(A, B) = %v, want in [0,1]", got)
	}
	if got := Similarity(a, empty); got != 0.0 {
		t.Errorf("Similarity with empty bucket = %v, want 0.0", got)
	}
	disjoint := WeekBucket{ArtistCounts: map[string]int{"X": 1, "Y": 1}}
	if got := Similarity(a, disjoint); got != 0.0 {
		t.Errorf("Similarity of disjoint sets = %v, want 0.0", got)
	}
}

// ── S1 Tiny happy path ───────────────────────────────────────────────

func TestSegmentTinyHappyPath(t *testing.T) {
	events := []Event{
		event("2021-03-01T10:00:00Z", "A", "T1", 40000),
		event("2021-03-02T10:00:00Z", "A", "T1", 40000),
		event("2021-03-03T10:00:00Z", "A", "T1", 40000),
	}
	// three plays in one week, under an hour in total, won't clear the
	// default significance filter, so lower min_weeks and min_ms to 1.
	eras := Segment(events, DefaultSimilarityThreshold, 1, 1)
	if len(eras) != 1 {
		t.Fatalf("Segment() returned %d eras, want 1", len(eras))
	}
	era := eras[0]
	if era.ID != 1 {
		t.Errorf("era.ID = %d, want 1", era.ID)
	}
	if len(era.TopArtists) != 1 || era.TopArtists[0].Artist != "A" || era.TopArtists[0].Plays != 3 {
		t.Errorf("era.TopArtists = %+v, want [{A 3}]", era.TopArtists)
	}
}

// ── S3 Gap split ──────────────────────────────────────────────────────

func TestSegmentGapSplit(t *testing.T) {
	var events []Event
	// ISO week 2 of 2021 starts 2021-01-11; week 9 starts 2021-03-01 (49 days later).
	for i := 0; i < 4; i++ {
		events = append(events, event("2021-01-12T10:00:00Z", "A", "T", 900000))
	}
	for i := 0; i < 4; i++ {
		events = append(events, event("2021-03-02T10:00:00Z", "A", "T", 900000))
	}
	eras := Segment(events, DefaultSimilarityThreshold, 1, 1)
	if len(eras) != 2 {
		t.Fatalf("Segment() returned %d eras, want 2 (gap split)", len(eras))
	}
	for _, e := range eras {
		if e.TotalMsPlayed != 4*900000 {
			t.Errorf("era %+v total_ms_played = %d, want %d", e, e.TotalMsPlayed, int64(4*900000))
		}
	}
}

// ── S4 Similarity split ──────────────────────────────────────────────

func TestSegmentSimilaritySplit(t *testing.T) {
	var events []Event
	week1Artists := []string{"A", "B", "C", "D", "E"}
	week2Artists := []string{"F", "G", "H", "I", "J"}
	for _, a := range week1Artists {
		for i := 0; i < 10; i++ {
			events = append(events, event("2021-03-01T10:00:00Z", a, "T", 100000))
		}
	}
	for _, a := range week2Artists {
		for i := 0; i < 10; i++ {
			events = append(events, event("2021-03-08T10:00:00Z", a, "T", 100000))
		}
	}
	eras := Segment(events, DefaultSimilarityThreshold, 1, 1)
	if len(eras) != 2 {
		t.Fatalf("Segment() returned %d eras, want 2 (similarity split)", len(eras))
	}
}

// ── S5 Insignificance filter ───────────────────────────────────────────

func TestSegmentSignificanceFilter(t *testing.T) {
	small := []Era{
		{ID: 1, StartDate: mustDate("2021-01-04"), EndDate: mustDate("2021-01-10"), TotalMsPlayed: 30 * 60 * 1000},
		{ID: 2, StartDate: mustDate("2021-02-01"), EndDate: mustDate("2021-02-28"), TotalMsPlayed: 5 * 3600 * 1000},
	}
	kept := FilterSignificant(small, DefaultMinWeeks, DefaultMinMs)
	if len(kept) != 1 {
		t.Fatalf("FilterSignificant() kept %d eras, want 1", len(kept))
	}
	if kept[0].ID != 1 {
		t.Errorf("FilterSignificant() renumbered id = %d, want 1", kept[0].ID)
	}
}

func mustDate(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

// ── Era ids (testable property 7) and coverage (property 8) ──────────

func TestEraIdsAreSequentialAndOrdered(t *testing.T) {
	var events []Event
	for i := 0; i < 5; i++ {
		events = append(events, event("2021-01-04T10:00:00Z", "A", "T", 900000))
	}
	for i := 0; i < 5; i++ {
		events = append(events, event("2021-06-07T10:00:00Z", "B", "T", 900000))
	}
	eras := Segment(events, DefaultSimilarityThreshold, 1, 1)
	for i, e := range eras {
		if e.ID != i+1 {
			t.Errorf("eras[%d].ID = %d, want %d", i, e.ID, i+1)
		}
		if i > 0 && !eras[i-1].StartDate.Before(e.StartDate) {
			t.Errorf("eras not ordered ascending by start_date: %v then %v", eras[i-1].StartDate, e.StartDate)
		}
	}
}

func TestWeekCoverageBeforeFiltering(t *testing.T) {
	events := []Event{
		event("2021-01-04T10:00:00Z", "A", "T", 40000),
		event("2021-06-07T10:00:00Z", "B", "T", 40000),
	}
	weeks := AggregateWeeks(events)
	boundaries := DetectBoundaries(weeks, DefaultSimilarityThreshold)
	eras := AssembleEras(weeks, boundaries)

	covered := 0
	for _, e := range eras {
		weekCount := int(e.EndDate.Sub(e.StartDate).Hours()/24)/7 + 1
		covered += weekCount
	}
	if covered != len(weeks) {
		t.Errorf("assembled eras cover %d weeks, want %d", covered, len(weeks))
	}
}

// ── empty input edge cases ────────────────────────────────────────────

func TestSegmentEmptyInput(t *testing.T) {
	if eras := Segment(nil, DefaultSimilarityThreshold, DefaultMinWeeks, DefaultMinMs); len(eras) != 0 {
		t.Errorf("Segment(nil) = %v, want empty", eras)
	}
	if weeks := AggregateWeeks(nil); len(weeks) != 0 {
		t.Errorf("AggregateWeeks(nil) = %v, want empty", weeks)
	}
	if b := DetectBoundaries(nil, DefaultSimilarityThreshold); b != nil {
		t.Errorf("DetectBoundaries(nil) = %v, want nil", b)
	}
}
