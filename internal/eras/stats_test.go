package eras

import "testing"

func TestComputeAggregateStats(t *testing.T) {
	events := []Event{
		event("2021-01-04T10:00:00Z", "A", "T1", 40000),
		event("2021-01-05T10:00:00Z", "A", "T2", 40000),
		event("2021-06-07T10:00:00Z", "B", "T1", 60000),
	}
	stats := ComputeAggregateStats(events)
	if stats.TotalArtists != 2 {
		t.Errorf("TotalArtists = %d, want 2", stats.TotalArtists)
	}
	if stats.TotalTracks != 3 {
		t.Errorf("TotalTracks = %d, want 3 ((T1,A), (T2,A), (T1,B) are distinct pairs)", stats.TotalTracks)
	}
	if stats.TotalMs != 140000 {
		t.Errorf("TotalMs = %d, want 140000", stats.TotalMs)
	}
	wantStart := mustDate("2021-01-04")
	wantEnd := mustDate("2021-06-07")
	if !stats.DateRange.Start.Equal(wantStart) {
		t.Errorf("DateRange.Start = %v, want %v", stats.DateRange.Start, wantStart)
	}
	if !stats.DateRange.End.Equal(wantEnd) {
		t.Errorf("DateRange.End = %v, want %v", stats.DateRange.End, wantEnd)
	}
}

func TestComputeAggregateStatsEmpty(t *testing.T) {
	stats := ComputeAggregateStats(nil)
	if stats.TotalArtists != 0 || stats.TotalTracks != 0 || stats.TotalMs != 0 {
		t.Errorf("ComputeAggregateStats(nil) = %+v, want zero value", stats)
	}
}
