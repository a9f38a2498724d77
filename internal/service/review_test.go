package service

import (
	"context"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tunescout/tunescout-server/internal/domain"
	"github.com/tunescout/tunescout-server/internal/store"
)

// recorderSpy captures outcomes forwarded to the history ledger.
type recorderSpy struct {
	mu       sync.Mutex
	rejected []string
	disliked []string
}

func (r *recorderSpy) RecordRejected(_ context.Context, artist, album string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rejected = append(r.rejected, domain.NormalizeKey(artist, album))
}

func (r *recorderSpy) RecordDisliked(_ context.Context, artist, album string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.disliked = append(r.disliked, domain.NormalizeKey(artist, album))
}

func setupTestQueue(t *testing.T) (*ReviewQueueService, *recorderSpy, *store.Store) {
	t.Helper()

	s, err := store.New(t.TempDir(), nil)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = s.Close() //nolint:errcheck // Test cleanup
	})

	spy := &recorderSpy{}
	q, err := NewReviewQueueService(s, spy, slog.New(slog.DiscardHandler))
	require.NoError(t, err)
	return q, spy, s
}

func TestEnqueueIdempotent(t *testing.T) {
	q, _, _ := setupTestQueue(t)
	ctx := context.Background()

	added := q.Enqueue(ctx, []domain.Suggestion{
		{Artist: "Yes", Album: "Fragile", Confidence: 0.9},
		{Artist: "Camel", Album: "Mirage", Confidence: 0.8},
	})
	assert.Equal(t, 2, added)

	// Same pairs again, plus one new; case differences collapse to the
	// same key.
	added = q.Enqueue(ctx, []domain.Suggestion{
		{Artist: "YES", Album: "fragile", Confidence: 0.5},
		{Artist: "Focus", Album: "Moving Waves", Confidence: 0.7},
	})
	assert.Equal(t, 1, added)
	assert.Equal(t, 3, q.GetCounts().Pending)
}

func TestEnqueueLeavesDecidedItemsUntouched(t *testing.T) {
	q, _, _ := setupTestQueue(t)
	ctx := context.Background()

	q.Enqueue(ctx, []domain.Suggestion{{Artist: "Yes", Album: "Fragile"}})
	require.NoError(t, q.SetStatus(ctx, "Yes", "Fragile", domain.ReviewNeverAgain, ""))

	added := q.Enqueue(ctx, []domain.Suggestion{{Artist: "Yes", Album: "Fragile"}})
	assert.Zero(t, added)
	assert.True(t, q.IsNeverAgain("Yes", "Fragile"),
		"re-enqueue must not resurrect a decided item")
}

func TestSetStatus(t *testing.T) {
	q, spy, _ := setupTestQueue(t)
	ctx := context.Background()

	q.Enqueue(ctx, []domain.Suggestion{{Artist: "Yes", Album: "Fragile"}})

	require.NoError(t, q.SetStatus(ctx, "Yes", "Fragile", domain.ReviewRejected, "not our thing"))

	counts := q.GetCounts()
	assert.Equal(t, 1, counts.Rejected)
	assert.Zero(t, counts.Pending)
	assert.Equal(t, []string{domain.NormalizeKey("Yes", "Fragile")}, spy.rejected)

	err := q.SetStatus(ctx, "Nobody", "Nothing", domain.ReviewAccepted, "")
	assert.Error(t, err)

	err = q.SetStatus(ctx, "Yes", "Fragile", domain.ReviewStatus("Maybe"), "")
	assert.Error(t, err)
}

func TestSetStatusNeverAgainRecordsDisliked(t *testing.T) {
	q, spy, _ := setupTestQueue(t)
	ctx := context.Background()

	q.Enqueue(ctx, []domain.Suggestion{{Artist: "Yes", Album: "Fragile"}})
	require.NoError(t, q.SetStatus(ctx, "Yes", "Fragile", domain.ReviewNeverAgain, ""))

	assert.Equal(t, []string{domain.NormalizeKey("Yes", "Fragile")}, spy.disliked)
	assert.Empty(t, spy.rejected)
}

func TestDequeueAccepted(t *testing.T) {
	q, _, _ := setupTestQueue(t)
	ctx := context.Background()

	q.Enqueue(ctx, []domain.Suggestion{{Artist: "Yes", Album: "Fragile"}})
	q.Enqueue(ctx, []domain.Suggestion{{Artist: "Camel", Album: "Mirage"}})
	q.Enqueue(ctx, []domain.Suggestion{{Artist: "Focus", Album: "Moving Waves"}})

	require.NoError(t, q.SetStatus(ctx, "Yes", "Fragile", domain.ReviewAccepted, ""))
	require.NoError(t, q.SetStatus(ctx, "Focus", "Moving Waves", domain.ReviewAccepted, ""))

	released := q.DequeueAccepted(ctx)
	require.Len(t, released, 2)
	assert.Equal(t, "Yes", released[0].Artist, "release order follows enqueue order")
	assert.Equal(t, "Focus", released[1].Artist)

	assert.Equal(t, 1, q.GetCounts().Pending)
	assert.Empty(t, q.DequeueAccepted(ctx), "accepted items leave the queue exactly once")
}

func TestSelectionApply(t *testing.T) {
	q, spy, _ := setupTestQueue(t)
	ctx := context.Background()

	q.Enqueue(ctx, []domain.Suggestion{
		{Artist: "Yes", Album: "Fragile"},
		{Artist: "Camel", Album: "Mirage"},
		{Artist: "Focus", Album: "Moving Waves"},
	})

	q.Select([]string{
		domain.NormalizeKey("Yes", "Fragile"),
		domain.NormalizeKey("Camel", "Mirage"),
	})
	assert.Len(t, q.SelectedKeys(), 2)

	changed, err := q.ApplySelected(ctx, domain.ReviewRejected)
	require.NoError(t, err)
	assert.Equal(t, 2, changed)
	assert.Empty(t, q.SelectedKeys(), "bulk apply consumes the selection")
	assert.Len(t, spy.rejected, 2)
	assert.Equal(t, 1, q.GetCounts().Pending)
}

func TestApplySelectedSkipsDecidedItems(t *testing.T) {
	q, _, _ := setupTestQueue(t)
	ctx := context.Background()

	q.Enqueue(ctx, []domain.Suggestion{{Artist: "Yes", Album: "Fragile"}})
	key := domain.NormalizeKey("Yes", "Fragile")
	require.NoError(t, q.SetStatus(ctx, "Yes", "Fragile", domain.ReviewAccepted, ""))

	q.Select([]string{key, "ghost|key"})
	changed, err := q.ApplySelected(ctx, domain.ReviewRejected)
	require.NoError(t, err)
	assert.Zero(t, changed)
	assert.Equal(t, 1, q.GetCounts().Accepted, "accepted decision survives a bulk apply")
}

func TestClearSelection(t *testing.T) {
	q, _, _ := setupTestQueue(t)
	ctx := context.Background()

	q.Enqueue(ctx, []domain.Suggestion{
		{Artist: "Yes", Album: "Fragile"},
		{Artist: "Camel", Album: "Mirage"},
	})
	q.Select([]string{domain.NormalizeKey("Yes", "Fragile")})

	assert.Equal(t, 1, q.ClearSelection())
	assert.Empty(t, q.SelectedKeys())
	assert.Equal(t, 2, q.GetCounts().Pending, "clearing a selection never touches statuses")
}

func TestQueueSurvivesRestart(t *testing.T) {
	q, spy, s := setupTestQueue(t)
	ctx := context.Background()

	q.Enqueue(ctx, []domain.Suggestion{
		{Artist: "Yes", Album: "Fragile", Genre: "Progressive Rock", Confidence: 0.9},
	})
	require.NoError(t, q.SetStatus(ctx, "Yes", "Fragile", domain.ReviewNeverAgain, "never"))

	// A fresh service over the same store sees the persisted state.
	q2, err := NewReviewQueueService(s, spy, slog.New(slog.DiscardHandler))
	require.NoError(t, err)

	assert.True(t, q2.IsNeverAgain("Yes", "Fragile"))
	assert.Equal(t, 1, q2.GetCounts().Never)
}

func TestNewReviewQueueServiceValidation(t *testing.T) {
	_, err := NewReviewQueueService(nil, &recorderSpy{}, slog.New(slog.DiscardHandler))
	require.Error(t, err)
}
