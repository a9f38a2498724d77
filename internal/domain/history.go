package domain

import "time"

// HistoryEvent classifies an entry in the suggestion history ledger.
type HistoryEvent string

// History events. Suggested marks first exposure; Rejected and Disliked are
// user outcomes that suppress resuggestion.
const (
	HistorySuggested HistoryEvent = "Suggested"
	HistoryRejected  HistoryEvent = "Rejected"
	HistoryDisliked  HistoryEvent = "Disliked"
)

// HistoryRecord is one append-only ledger entry. Records are never mutated
// after write.
type HistoryRecord struct {
	Artist    string       `json:"artist"`
	Album     string       `json:"album,omitempty"`
	Event     HistoryEvent `json:"event"`
	Timestamp time.Time    `json:"timestamp"`
}

// Key returns the record's canonical (artist, album) key.
func (h *HistoryRecord) Key() string {
	return NormalizeKey(h.Artist, h.Album)
}
