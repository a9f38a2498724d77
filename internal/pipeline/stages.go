package pipeline

import (
	"context"
	"strings"

	"github.com/tunescout/tunescout-server/internal/domain"
)

// HistoryChecker is the dedup stage's view of the suggestion history.
type HistoryChecker interface {
	WasRejectedOrDisliked(ctx context.Context, artist, album string) bool
}

// ReviewSink receives filtered items and answers standing-exclusion checks.
type ReviewSink interface {
	Enqueue(ctx context.Context, items []domain.Suggestion) int
	IsNeverAgain(artist, album string) bool
}

// LibraryOracle answers membership queries against the target collection.
type LibraryOracle interface {
	Contains(artist, album string) bool
	Fingerprint() string
}

// SafetyGate is a pluggable policy check that can veto individual items.
type SafetyGate interface {
	Check(ctx context.Context, s *domain.Suggestion) Decision
}

// Decision is a safety gate verdict.
type Decision struct {
	Allowed bool
	Reason  string
}

// Allow is the verdict that passes an item through.
var Allow = Decision{Allowed: true}

// Veto rejects an item with a reason.
func Veto(reason string) Decision {
	return Decision{Reason: reason}
}

// AllowAll is the default SafetyGate: no policy restrictions.
type AllowAll struct{}

// Check implements SafetyGate.
func (AllowAll) Check(context.Context, *domain.Suggestion) Decision { return Allow }

// deduplicate drops items already in the library, items with a standing
// Rejected/Disliked history record, items under a NeverAgain decision, and
// repeats within the run itself (seen tracks keys across top-up batches).
func (p *Pipeline) deduplicate(ctx context.Context, items []domain.Suggestion, seen map[string]struct{}) (kept, filtered []domain.Suggestion) {
	for _, item := range items {
		key := item.Key()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		switch {
		case p.library.Contains(item.Artist, item.Album):
			// Already owned; nothing to review.
			continue
		case p.queue.IsNeverAgain(item.Artist, item.Album),
			p.history.WasRejectedOrDisliked(ctx, item.Artist, item.Album):
			filtered = append(filtered, item)
		default:
			kept = append(kept, item)
		}
	}
	return kept, filtered
}

// styleGuard drops items whose genre shares no case-insensitive token with
// the configured style filters. With relaxed matching enabled, non-matching
// items are kept unranked; see DESIGN.md for the rationale.
func styleGuard(items []domain.Suggestion, filters []string, relaxed bool) (kept, filtered []domain.Suggestion) {
	if len(filters) == 0 || relaxed {
		return items, nil
	}

	want := make(map[string]struct{}, len(filters))
	for _, f := range filters {
		if tag := normalizeStyle(f); tag != "" {
			want[tag] = struct{}{}
		}
	}

	for _, item := range items {
		matched := false
		for _, tag := range splitStyles(item.Genre) {
			if _, ok := want[tag]; ok {
				matched = true
				break
			}
		}
		if matched {
			kept = append(kept, item)
		} else {
			filtered = append(filtered, item)
		}
	}
	return kept, filtered
}

// splitStyles breaks a genre field into normalized tags. Providers return
// anything from "Progressive Rock" to "prog-rock, jazz fusion".
func splitStyles(s string) []string {
	parts := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == '/' || r == ';'
	})
	tags := make([]string, 0, len(parts))
	for _, p := range parts {
		if tag := normalizeStyle(p); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}

// normalizeStyle lowercases a tag and collapses separators, so
// "Progressive Rock" and "progressive-rock" compare equal.
func normalizeStyle(s string) string {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return r == ' ' || r == '-' || r == '_'
	})
	return strings.Join(fields, "-")
}

// safetyGate routes vetoed items to the filtered bucket.
func (p *Pipeline) safetyGate(ctx context.Context, items []domain.Suggestion) (kept, filtered []domain.Suggestion) {
	for _, item := range items {
		d := p.safety.Check(ctx, &item)
		if d.Allowed {
			kept = append(kept, item)
			continue
		}
		p.logger.Debug("suggestion vetoed by safety gate",
			"artist", item.Artist, "album", item.Album, "reason", d.Reason)
		filtered = append(filtered, item)
	}
	return kept, filtered
}
