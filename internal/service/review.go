package service

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/tunescout/tunescout-server/internal/domain"
	"github.com/tunescout/tunescout-server/internal/errors"
	"github.com/tunescout/tunescout-server/internal/id"
	"github.com/tunescout/tunescout-server/internal/store"
)

// OutcomeRecorder receives review decisions for the history ledger.
type OutcomeRecorder interface {
	RecordRejected(ctx context.Context, artist, album string)
	RecordDisliked(ctx context.Context, artist, album string)
}

// ReviewQueueService is the single source of truth for suggestions awaiting
// a human decision. In-memory state is authoritative; every mutation is
// written through to Badger; a write failure is logged and rolled into the
// dirty set for retry on the next mutation rather than aborting the caller.
type ReviewQueueService struct {
	store   *store.Store
	history OutcomeRecorder
	logger  *slog.Logger

	mu        sync.RWMutex
	items     map[string]*domain.ReviewItem
	selection map[string]struct{}
	dirty     map[string]struct{}
}

// NewReviewQueueService creates the review queue and loads persisted items.
// Store, history recorder, and logger are required.
func NewReviewQueueService(s *store.Store, history OutcomeRecorder, logger *slog.Logger) (*ReviewQueueService, error) {
	if s == nil {
		return nil, errors.Internal("review queue requires a store")
	}
	if history == nil {
		return nil, errors.Internal("review queue requires a history recorder")
	}
	if logger == nil {
		return nil, errors.Internal("review queue requires a logger")
	}

	q := &ReviewQueueService{
		store:     s,
		history:   history,
		logger:    logger,
		items:     make(map[string]*domain.ReviewItem),
		selection: make(map[string]struct{}),
		dirty:     make(map[string]struct{}),
	}

	persisted, err := s.ReviewItems.All(context.Background())
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "load review queue")
	}
	for _, item := range persisted {
		q.items[item.Key()] = item
	}

	logger.Info("review queue loaded", "items", len(q.items))
	return q, nil
}

// Enqueue adds suggestions as Pending items. It is idempotent per
// normalized (artist, album) key: keys already present, in any status, are
// left untouched. Returns how many items were newly queued.
func (q *ReviewQueueService) Enqueue(ctx context.Context, items []domain.Suggestion) int {
	q.mu.Lock()
	defer q.mu.Unlock()

	added := 0
	now := time.Now()
	for i := range items {
		sg := &items[i]
		key := sg.Key()
		if _, exists := q.items[key]; exists {
			continue
		}

		item := &domain.ReviewItem{
			ID:         id.MustGenerate("rev"),
			Artist:     sg.Artist,
			Album:      sg.Album,
			Genre:      sg.Genre,
			Reason:     sg.Reason,
			Confidence: sg.Confidence,
			Status:     domain.ReviewPending,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		q.items[key] = item
		q.persistLocked(ctx, key, item)
		added++
	}

	q.retryDirtyLocked(ctx)
	return added
}

// SetStatus applies a review decision to the item with the given key.
// Rejected and NeverAgain decisions are forwarded to the history ledger.
func (q *ReviewQueueService) SetStatus(ctx context.Context, artist, album string, status domain.ReviewStatus, notes string) error {
	if !status.Valid() {
		return errors.Validationf("unknown review status %q", status)
	}

	key := domain.NormalizeKey(artist, album)

	q.mu.Lock()
	item, ok := q.items[key]
	if !ok {
		q.mu.Unlock()
		return errors.NotFoundf("no review item for %s / %s", artist, album)
	}

	item.Status = status
	if notes != "" {
		item.Notes = notes
	}
	item.UpdatedAt = time.Now()
	q.persistLocked(ctx, key, item)
	q.retryDirtyLocked(ctx)
	q.mu.Unlock()

	switch status {
	case domain.ReviewRejected:
		q.history.RecordRejected(ctx, item.Artist, item.Album)
	case domain.ReviewNeverAgain:
		q.history.RecordDisliked(ctx, item.Artist, item.Album)
	}
	return nil
}

// DequeueAccepted removes all Accepted items from the queue and returns
// them for import. This is the only path by which Accepted items leave.
func (q *ReviewQueueService) DequeueAccepted(ctx context.Context) []*domain.ReviewItem {
	q.mu.Lock()
	defer q.mu.Unlock()

	var released []*domain.ReviewItem
	for key, item := range q.items {
		if item.Status != domain.ReviewAccepted {
			continue
		}
		released = append(released, item)
		delete(q.items, key)
		delete(q.selection, key)
		delete(q.dirty, key)
		if err := q.store.ReviewItems.Delete(ctx, key); err != nil {
			q.logger.Warn("review item delete failed", "key", key, "error", err)
		}
	}

	slices.SortFunc(released, func(a, b *domain.ReviewItem) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return released
}

// GetPending returns Pending items in enqueue order.
func (q *ReviewQueueService) GetPending() []*domain.ReviewItem {
	q.mu.RLock()
	defer q.mu.RUnlock()

	var pending []*domain.ReviewItem
	for _, item := range q.items {
		if item.Status == domain.ReviewPending {
			pending = append(pending, item)
		}
	}
	slices.SortFunc(pending, func(a, b *domain.ReviewItem) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return pending
}

// GetCounts summarizes the queue by status.
func (q *ReviewQueueService) GetCounts() domain.ReviewCounts {
	q.mu.RLock()
	defer q.mu.RUnlock()

	var c domain.ReviewCounts
	for _, item := range q.items {
		switch item.Status {
		case domain.ReviewPending:
			c.Pending++
		case domain.ReviewAccepted:
			c.Accepted++
		case domain.ReviewRejected:
			c.Rejected++
		case domain.ReviewNeverAgain:
			c.Never++
		}
	}
	return c
}

// IsNeverAgain reports whether the pair carries a standing NeverAgain
// decision. Consulted by the pipeline's dedup stage.
func (q *ReviewQueueService) IsNeverAgain(artist, album string) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()

	item, ok := q.items[domain.NormalizeKey(artist, album)]
	return ok && item.Status == domain.ReviewNeverAgain
}

// Select marks keys for a subsequent bulk decision.
func (q *ReviewQueueService) Select(keys []string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, key := range keys {
		q.selection[key] = struct{}{}
	}
}

// ClearSelection empties the externally-tracked selection without touching
// item statuses.
func (q *ReviewQueueService) ClearSelection() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	n := len(q.selection)
	q.selection = make(map[string]struct{})
	return n
}

// SelectedKeys returns the current selection.
func (q *ReviewQueueService) SelectedKeys() []string {
	q.mu.RLock()
	defer q.mu.RUnlock()

	keys := make([]string, 0, len(q.selection))
	for key := range q.selection {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	return keys
}

// ApplySelected applies status to every selected Pending item, then clears
// the selection. Returns how many items changed.
func (q *ReviewQueueService) ApplySelected(ctx context.Context, status domain.ReviewStatus) (int, error) {
	if !status.Valid() {
		return 0, errors.Validationf("unknown review status %q", status)
	}

	q.mu.Lock()
	var decided []*domain.ReviewItem
	now := time.Now()
	for key := range q.selection {
		item, ok := q.items[key]
		if !ok || item.Status != domain.ReviewPending {
			continue
		}
		item.Status = status
		item.UpdatedAt = now
		q.persistLocked(ctx, key, item)
		decided = append(decided, item)
	}
	q.selection = make(map[string]struct{})
	q.retryDirtyLocked(ctx)
	q.mu.Unlock()

	for _, item := range decided {
		switch status {
		case domain.ReviewRejected:
			q.history.RecordRejected(ctx, item.Artist, item.Album)
		case domain.ReviewNeverAgain:
			q.history.RecordDisliked(ctx, item.Artist, item.Album)
		}
	}
	return len(decided), nil
}

// persistLocked writes one item through to Badger. Failures are logged and
// the key is marked dirty for a later retry; the in-memory transition
// stands either way.
func (q *ReviewQueueService) persistLocked(ctx context.Context, key string, item *domain.ReviewItem) {
	if err := q.store.ReviewItems.Put(ctx, key, item); err != nil {
		q.logger.Warn("review item write failed, state kept in memory",
			"key", key, "error", err)
		q.dirty[key] = struct{}{}
		return
	}
	delete(q.dirty, key)
}

// retryDirtyLocked re-attempts writes that failed earlier.
func (q *ReviewQueueService) retryDirtyLocked(ctx context.Context) {
	for key := range q.dirty {
		item, ok := q.items[key]
		if !ok {
			delete(q.dirty, key)
			continue
		}
		if err := q.store.ReviewItems.Put(ctx, key, item); err != nil {
			continue
		}
		delete(q.dirty, key)
	}
}
