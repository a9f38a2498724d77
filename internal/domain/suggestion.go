// Package domain defines the core types for the TuneScout recommendation engine.
package domain

import (
	"strings"

	"golang.org/x/text/cases"
)

// Field length limits enforced during schema validation.
const (
	MaxArtistLen = 500
	MaxAlbumLen  = 500
)

// Suggestion is a single artist/album candidate produced by a generative
// provider. Free-text fields arrive untrusted and pass through the
// sanitize/validate stages before anything else touches them.
type Suggestion struct {
	Artist     string  `json:"artist"`
	Album      string  `json:"album,omitempty"`
	Genre      string  `json:"genre,omitempty"`
	Reason     string  `json:"reason,omitempty"`
	Confidence float64 `json:"confidence"`
}

// folder performs Unicode case folding for key normalization.
// Folding is stricter than lowercasing and stable across locales.
var folder = cases.Fold()

// NormalizeKey produces the canonical (artist, album) key used by the review
// queue, history ledger, and dedup stage. Two suggestions that differ only in
// case or surrounding whitespace map to the same key.
func NormalizeKey(artist, album string) string {
	a := folder.String(strings.TrimSpace(artist))
	b := folder.String(strings.TrimSpace(album))
	return a + "|" + b
}

// Key returns the suggestion's canonical key.
func (s *Suggestion) Key() string {
	return NormalizeKey(s.Artist, s.Album)
}

// IsArtistOnly reports whether this suggestion names an artist without a
// specific album (artist-mode recommendations).
func (s *Suggestion) IsArtistOnly() bool {
	return strings.TrimSpace(s.Album) == ""
}
