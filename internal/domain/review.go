package domain

import "time"

// ReviewStatus is the state of a queued suggestion awaiting (or past) a
// human decision.
type ReviewStatus string

// Review statuses. Pending is the only non-terminal state; Accepted items
// leave the queue through an explicit apply, Rejected and NeverAgain stand
// until cleared by maintenance.
const (
	ReviewPending    ReviewStatus = "Pending"
	ReviewAccepted   ReviewStatus = "Accepted"
	ReviewRejected   ReviewStatus = "Rejected"
	ReviewNeverAgain ReviewStatus = "NeverAgain"
)

// Valid reports whether s is a known review status.
func (s ReviewStatus) Valid() bool {
	switch s {
	case ReviewPending, ReviewAccepted, ReviewRejected, ReviewNeverAgain:
		return true
	}
	return false
}

// ReviewItem is a suggestion parked in the review queue. At most one live
// item exists per normalized (artist, album) key.
type ReviewItem struct {
	ID         string       `json:"id"`
	Artist     string       `json:"artist"`
	Album      string       `json:"album,omitempty"`
	Genre      string       `json:"genre,omitempty"`
	Reason     string       `json:"reason,omitempty"`
	Confidence float64      `json:"confidence"`
	Status     ReviewStatus `json:"status"`
	Notes      string       `json:"notes,omitempty"`
	CreatedAt  time.Time    `json:"created_at"`
	UpdatedAt  time.Time    `json:"updated_at"`
}

// Key returns the item's canonical (artist, album) key.
func (r *ReviewItem) Key() string {
	return NormalizeKey(r.Artist, r.Album)
}

// Suggestion converts the review item back into a pipeline suggestion,
// used when accepted items are released for import.
func (r *ReviewItem) Suggestion() Suggestion {
	return Suggestion{
		Artist:     r.Artist,
		Album:      r.Album,
		Genre:      r.Genre,
		Reason:     r.Reason,
		Confidence: r.Confidence,
	}
}

// ReviewCounts summarizes the queue by status.
type ReviewCounts struct {
	Pending  int `json:"pending"`
	Accepted int `json:"accepted"`
	Rejected int `json:"rejected"`
	Never    int `json:"never"`
}
