package eras

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"
	"time"

	json "github.com/goccy/go-json"
)

// Kind identifies the shape of an uploaded file.
type Kind string

const (
	KindJSON Kind = "json"
	KindZIP  Kind = "zip"
)

const (
	minMsPlayed        = 30_000
	maxZipUncompressed = 1 << 30 // 1 GiB, zip-bomb guard
)

var zipMagic = []byte{'P', 'K', 0x03, 0x04}

// DetectKind inspects magic bytes first, falling back to the filename
// extension. ZIP archives begin with the four bytes 50 4B 03 04.
func DetectKind(data []byte, filename string) Kind {
	if len(data) >= 4 && bytes.Equal(data[:4], zipMagic) {
		return KindZIP
	}
	lower := strings.ToLower(filename)
	switch {
	case strings.HasSuffix(lower, ".zip"):
		return KindZIP
	case strings.HasSuffix(lower, ".json"):
		return KindJSON
	default:
		return KindJSON
	}
}

// rawEntry mirrors one element of the extended streaming history format.
// Required fields missing or null cause the entry to be skipped rather
// than the whole parse to fail.
type rawEntry struct {
	TS         string  `json:"ts"`
	TrackName  *string `json:"master_metadata_track_name"`
	ArtistName *string `json:"master_metadata_album_artist_name"`
	MsPlayed   int64   `json:"ms_played"`
	URI        *string `json:"spotify_track_uri"`
}

// Parse decodes raw bytes of the declared kind into a deduplicated,
// timestamp-sorted event list.
func Parse(data []byte, kind Kind) ([]Event, error) {
	switch kind {
	case KindJSON:
		events, err := parseJSONBytes(data)
		if err != nil {
			return nil, err
		}
		return finalize(events), nil
	case KindZIP:
		events, err := parseZipBytes(data)
		if err != nil {
			return nil, err
		}
		return finalize(events), nil
	default:
		return nil, NewValidationError("unrecognized file kind")
	}
}

func parseJSONBytes(data []byte) ([]Event, error) {
	var raw []rawEntry
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, NewValidationError(fmt.Sprintf("malformed JSON: %v", err))
	}

	events := make([]Event, 0, len(raw))
	for _, e := range raw {
		if e.TrackName == nil || e.ArtistName == nil {
			continue
		}
		track := strings.TrimSpace(*e.TrackName)
		artist := strings.TrimSpace(*e.ArtistName)
		if track == "" || artist == "" {
			continue
		}
		if e.MsPlayed < minMsPlayed {
			continue
		}
		ts, err := time.Parse(time.RFC3339, e.TS)
		if err != nil {
			continue
		}
		events = append(events, Event{
			Timestamp: ts.UTC(),
			Artist:    artist,
			Track:     track,
			MsPlayed:  e.MsPlayed,
		})
	}
	return events, nil
}

// parseZipBytes walks an in-memory archive, rejecting hostile member
// names and enforcing the uncompressed-size cap before selecting and
// decoding streaming-history JSON members. The archive is never
// extracted to disk.
func parseZipBytes(data []byte) ([]Event, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, NewValidationError(fmt.Sprintf("invalid zip archive: %v", err))
	}

	var total uint64
	var matches []*zip.File
	for _, f := range zr.File {
		if strings.Contains(f.Name, "..") || path.IsAbs(f.Name) || strings.HasPrefix(f.Name, "/") {
			return nil, NewValidationError("archive contains unsafe member path: " + f.Name)
		}
		total += f.UncompressedSize64
		if total > maxZipUncompressed {
			return nil, NewValidationError("archive exceeds maximum uncompressed size")
		}
		if matchesStreamingHistoryName(path.Base(f.Name)) {
			matches = append(matches, f)
		}
	}

	var events []Event
	for _, f := range matches {
		rc, err := f.Open()
		if err != nil {
			return nil, NewValidationError(fmt.Sprintf("failed to open archive member %s: %v", f.Name, err))
		}
		body, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, NewValidationError(fmt.Sprintf("failed to read archive member %s: %v", f.Name, err))
		}
		memberEvents, err := parseJSONBytes(body)
		if err != nil {
			return nil, err
		}
		events = append(events, memberEvents...)
	}
	return events, nil
}

// matchesStreamingHistoryName reports whether basename matches the glob
// *Streaming_History_Audio_*.json.
func matchesStreamingHistoryName(basename string) bool {
	ok, err := path.Match("*Streaming_History_Audio_*.json", basename)
	return err == nil && ok
}

// finalize deduplicates by (timestamp, track, artist), keeping the
// first occurrence, then sorts ascending by timestamp.
func finalize(events []Event) []Event {
	seen := make(map[string]struct{}, len(events))
	out := make([]Event, 0, len(events))
	for _, e := range events {
		key := e.Timestamp.Format(time.RFC3339Nano) + "\x00" + e.Track + "\x00" + e.Artist
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, e)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out
}
