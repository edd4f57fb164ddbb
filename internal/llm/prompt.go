package llm

import (
	"fmt"
	"strings"
	"time"

	"github.com/snarg/eras-engine/internal/eras"
)

// BuildPrompt deterministically formats the era naming prompt.
func BuildPrompt(era eras.Era) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Listening period: %s\n", formatDateRange(era.StartDate, era.EndDate))
	fmt.Fprintf(&b, "Duration: %s\n", formatDuration(era.StartDate, era.EndDate))
	fmt.Fprintf(&b, "Total listening time: %.1f hours\n", float64(era.TotalMsPlayed)/3_600_000)

	b.WriteString("Top artists:\n")
	for i, a := range era.TopArtists {
		if i >= 5 {
			break
		}
		fmt.Fprintf(&b, "- %s (%d plays)\n", a.Artist, a.Plays)
	}

	b.WriteString("Top tracks:\n")
	for i, t := range era.TopTracks {
		if i >= 10 {
			break
		}
		fmt.Fprintf(&b, "- %q by %s (%d plays)\n", t.Track, t.Artist, t.Plays)
	}

	b.WriteString(
		"Based on this listening period, respond with a JSON object only, no other text, " +
			"with exactly two keys: \"title\" (2-5 evocative words capturing the period's mood, " +
			"avoiding cliches such as \"Musical Journey\") and \"summary\" (2-3 sentences describing " +
			"the period's character). Output JSON only.\n")
	return b.String()
}

// formatDateRange renders a human date range like "March 2021 – August 2021".
func formatDateRange(start, end time.Time) string {
	if start.Year() == end.Year() && start.Month() == end.Month() {
		return start.Format("January 2006")
	}
	return start.Format("January 2006") + " – " + end.Format("January 2006")
}

// formatDuration renders a span in weeks when short, months when longer.
func formatDuration(start, end time.Time) string {
	days := int(end.Sub(start).Hours()/24) + 1
	weeks := days / 7
	if weeks < 1 {
		weeks = 1
	}
	if weeks <= 8 {
		if weeks == 1 {
			return "1 week"
		}
		return fmt.Sprintf("%d weeks", weeks)
	}
	months := weeks / 4
	if months < 1 {
		months = 1
	}
	if months == 1 {
		return "1 month"
	}
	return fmt.Sprintf("%d months", months)
}
