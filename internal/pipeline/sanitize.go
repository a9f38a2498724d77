package pipeline

import (
	"regexp"
	"strings"

	"github.com/tunescout/tunescout-server/internal/domain"
)

// Provider output is untrusted free text. The sanitize stage strips payloads
// that could reach a UI, a shell, or a query downstream; an item whose
// essential fields are reduced to nothing is dropped rather than passed
// through empty.

var (
	scriptRe    = regexp.MustCompile(`(?is)<\s*script[^>]*>.*?<\s*/\s*script\s*>`)
	markupRe    = regexp.MustCompile(`<[^>]*>`)
	traversalRe = regexp.MustCompile(`(\.\./|\.\.\\)+`)
	sqlMetaRe   = regexp.MustCompile(`(?i)(--|/\*|\*/|;\s*(drop|delete|insert|update|alter)\b)`)
)

// cleanText removes dangerous sequences from one free-text field.
func cleanText(s string) string {
	s = strings.ReplaceAll(s, "\x00", "")
	s = scriptRe.ReplaceAllString(s, "")
	s = markupRe.ReplaceAllString(s, "")
	s = traversalRe.ReplaceAllString(s, "")
	s = sqlMetaRe.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

// sanitize cleans every free-text field of each suggestion and drops items
// that are invalid at ingestion: empty-after-cleaning artists and raw
// confidence values outside [0, 1]. Returns the surviving items and the
// number dropped.
func sanitize(items []domain.Suggestion) (clean []domain.Suggestion, dropped int) {
	clean = make([]domain.Suggestion, 0, len(items))
	for _, item := range items {
		// Out-of-range raw confidence before validation means the provider
		// payload is malformed, not merely imprecise.
		if item.Confidence < 0 || item.Confidence > 1 {
			dropped++
			continue
		}

		item.Artist = cleanText(item.Artist)
		item.Album = cleanText(item.Album)
		item.Genre = cleanText(item.Genre)
		item.Reason = cleanText(item.Reason)

		if item.Artist == "" {
			dropped++
			continue
		}
		clean = append(clean, item)
	}
	return clean, dropped
}
