// Package library provides the collection oracle consulted by the
// recommendation pipeline: membership checks and a stable fingerprint of
// library state for cache keys.
package library

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"

	"github.com/tunescout/tunescout-server/internal/domain"
)

// Library answers "is this already in the collection" and provides a stable
// digest of collection state. The pipeline treats it as an opaque oracle.
type Library interface {
	// Contains reports whether the (artist, album) pair is already in the
	// collection. With an empty album, it checks the artist alone.
	Contains(artist, album string) bool

	// Fingerprint returns a stable digest of library state. It changes when
	// and only when the collection content changes.
	Fingerprint() string
}

// Entry is one owned item in the collection.
type Entry struct {
	Artist string `json:"artist"`
	Album  string `json:"album,omitempty"`
}

// index is an immutable membership snapshot. Lookups run lock-free against
// whichever index was current when the caller fetched it.
type index struct {
	pairs       map[string]struct{}
	artists     map[string]struct{}
	fingerprint string
}

func buildIndex(entries []Entry) *index {
	idx := &index{
		pairs:   make(map[string]struct{}, len(entries)),
		artists: make(map[string]struct{}, len(entries)),
	}

	keys := make([]string, 0, len(entries))
	for _, e := range entries {
		key := domain.NormalizeKey(e.Artist, e.Album)
		if _, seen := idx.pairs[key]; seen {
			continue
		}
		idx.pairs[key] = struct{}{}
		idx.artists[domain.NormalizeKey(e.Artist, "")] = struct{}{}
		keys = append(keys, key)
	}

	// Sort so the digest is independent of entry order in the source file.
	sort.Strings(keys)
	h := sha256.New()
	for _, k := range keys {
		h.Write([]byte(k))
		h.Write([]byte{0})
	}
	idx.fingerprint = hex.EncodeToString(h.Sum(nil))

	return idx
}

func (idx *index) contains(artist, album string) bool {
	if strings.TrimSpace(album) == "" {
		_, ok := idx.artists[domain.NormalizeKey(artist, "")]
		return ok
	}
	_, ok := idx.pairs[domain.NormalizeKey(artist, album)]
	return ok
}
