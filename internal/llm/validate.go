package llm

import (
	"strings"
	"unicode"

	json "github.com/goccy/go-json"
)

// NamedEra is the cleaned {title, summary} candidate.
type NamedEra struct {
	Title   string
	Summary string
}

type rawNamedEra struct {
	Title   string `json:"title"`
	Summary string `json:"summary"`
}

const (
	maxTitleLen   = 50
	maxSummaryLen = 500
	minSummaryLen = 20
)

// ParseModelResponse attempts a strict JSON decode of the model's
// content; on failure it extracts the first greedy {...} substring and
// retries the decode once.
func ParseModelResponse(content string) (rawNamedEra, bool) {
	var out rawNamedEra
	if err := json.Unmarshal([]byte(content), &out); err == nil {
		return out, true
	}

	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end <= start {
		return rawNamedEra{}, false
	}
	if err := json.Unmarshal([]byte(content[start:end+1]), &out); err != nil {
		return rawNamedEra{}, false
	}
	return out, true
}

// CleanAndValidate trims, dequotes, and bounds a candidate. It returns
// ok=false when the cleaned fields don't meet the minimum bar, in which
// case the caller falls back to a deterministic name.
func CleanAndValidate(candidate rawNamedEra) (NamedEra, bool) {
	title := cleanTitle(candidate.Title)
	if title == "" {
		return NamedEra{}, false
	}
	summary := cleanSummary(candidate.Summary)
	if len(summary) < minSummaryLen {
		return NamedEra{}, false
	}
	return NamedEra{Title: title, Summary: summary}, true
}

func cleanTitle(s string) string {
	s = dequote(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\r", " ")
	s = strings.TrimSpace(s)
	if len(s) > maxTitleLen {
		s = s[:maxTitleLen]
	}
	return s
}

func cleanSummary(s string) string {
	s = dequote(strings.TrimSpace(s))
	s = collapseWhitespace(s)
	if len(s) > maxSummaryLen {
		s = s[:maxSummaryLen]
	}
	return s
}

func dequote(s string) string {
	s = strings.Trim(s, `"'`)
	return strings.TrimSpace(s)
}

func collapseWhitespace(s string) string {
	var b strings.Builder
	lastWasSpace := false
	for _, r := range s {
		if unicode.IsSpace(r) {
			if !lastWasSpace {
				b.WriteRune(' ')
			}
			lastWasSpace = true
			continue
		}
		lastWasSpace = false
		b.WriteRune(r)
	}
	return strings.TrimSpace(b.String())
}
