package llm

import (
	"fmt"

	"github.com/snarg/eras-engine/internal/eras"
)

// Fallback deterministically derives a {title, summary} from the era
// alone. It is a total function: it never raises and always returns
// non-empty, bounded fields.
func Fallback(era eras.Era) NamedEra {
	title := fmt.Sprintf("Era %d: %s", era.ID, era.StartDate.Format("January 2006"))
	if len(title) > maxTitleLen {
		title = title[:maxTitleLen]
	}

	topArtist := "a mix of artists"
	if len(era.TopArtists) > 0 {
		topArtist = era.TopArtists[0].Artist
	}
	summary := fmt.Sprintf("A %s period featuring %s and more.", formatDuration(era.StartDate, era.EndDate), topArtist)
	if len(summary) > maxSummaryLen {
		summary = summary[:maxSummaryLen]
	}
	return NamedEra{Title: title, Summary: summary}
}
