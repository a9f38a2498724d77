package domain

import "strings"

// BackfillMode controls top-up behavior when too few suggestions survive
// filtering.
type BackfillMode string

// Backfill modes. Off disables top-up entirely; Standard allows a small
// bounded number of extra provider calls; Aggressive allows more attempts
// and larger over-requests.
const (
	BackfillOff        BackfillMode = "off"
	BackfillStandard   BackfillMode = "standard"
	BackfillAggressive BackfillMode = "aggressive"
)

// ParseBackfillMode maps a config string to a BackfillMode, defaulting to
// Standard for unknown values.
func ParseBackfillMode(s string) BackfillMode {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "off", "none", "disabled":
		return BackfillOff
	case "aggressive":
		return BackfillAggressive
	default:
		return BackfillStandard
	}
}

// Attempts returns the maximum number of top-up provider calls for the mode.
func (m BackfillMode) Attempts() int {
	switch m {
	case BackfillOff:
		return 0
	case BackfillAggressive:
		return 3
	default:
		return 1
	}
}
