package pipeline

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/tunescout/tunescout-server/internal/domain"
)

// schemaValidate normalizes a batch against the suggestion schema: items
// without an artist are dropped, whitespace is trimmed, over-long fields are
// cut to their limits, and confidence is clamped into [0, 1]. Malformed
// input is data, not an error; everything observed lands in the report.
func schemaValidate(items []domain.Suggestion, albumMode bool, report *domain.ValidationReport) []domain.Suggestion {
	out := make([]domain.Suggestion, 0, len(items))
	for _, item := range items {
		trimmed := 0
		item.Artist = trimField(item.Artist, &trimmed)
		item.Album = trimField(item.Album, &trimmed)
		item.Genre = trimField(item.Genre, &trimmed)
		item.Reason = trimField(item.Reason, &trimmed)
		report.TrimmedFields += trimmed

		if item.Artist == "" {
			report.DroppedItems++
			report.Warn("dropped suggestion with missing artist")
			continue
		}
		if albumMode && item.Album == "" {
			report.DroppedItems++
			report.Warn(fmt.Sprintf("dropped %q: album required", item.Artist))
			continue
		}

		if utf8.RuneCountInString(item.Artist) > domain.MaxArtistLen {
			item.Artist = truncateRunes(item.Artist, domain.MaxArtistLen)
			report.TrimmedFields++
			report.Warn("truncated over-long artist name")
		}
		if utf8.RuneCountInString(item.Album) > domain.MaxAlbumLen {
			item.Album = truncateRunes(item.Album, domain.MaxAlbumLen)
			report.TrimmedFields++
			report.Warn("truncated over-long album title")
		}

		if item.Confidence < 0 {
			item.Confidence = 0
			report.ClampedConfidences++
		} else if item.Confidence > 1 {
			item.Confidence = 1
			report.ClampedConfidences++
		}

		out = append(out, item)
	}
	return out
}

// truncateRunes cuts s to at most max runes. Field limits are character
// counts; a byte-index cut could split a multi-byte rune and emit invalid
// UTF-8.
func truncateRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}

// trimField trims surrounding whitespace, counting fields that changed.
func trimField(s string, trimmed *int) string {
	t := strings.TrimSpace(s)
	if t != s {
		*trimmed++
	}
	return t
}
