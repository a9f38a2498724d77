package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tunescout/tunescout-server/internal/domain"
)

// setupTestStore creates a store over a temp database.
func setupTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := New(t.TempDir(), nil)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = s.Close() //nolint:errcheck // Test cleanup
	})
	return s
}

func testReviewItem(artist, album string) *domain.ReviewItem {
	now := time.Now()
	return &domain.ReviewItem{
		ID:         "rev-" + artist,
		Artist:     artist,
		Album:      album,
		Confidence: 0.8,
		Status:     domain.ReviewPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

func TestEntityCRUD(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	item := testReviewItem("Yes", "Close to the Edge")
	key := item.Key()

	require.NoError(t, s.ReviewItems.Create(ctx, key, item))

	// Create is first-writer-wins.
	err := s.ReviewItems.Create(ctx, key, item)
	assert.ErrorIs(t, err, ErrAlreadyExists)

	got, err := s.ReviewItems.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "Yes", got.Artist)
	assert.Equal(t, domain.ReviewPending, got.Status)

	got.Status = domain.ReviewAccepted
	require.NoError(t, s.ReviewItems.Put(ctx, key, got))

	got, err = s.ReviewItems.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, domain.ReviewAccepted, got.Status)

	require.NoError(t, s.ReviewItems.Delete(ctx, key))
	_, err = s.ReviewItems.Get(ctx, key)
	assert.ErrorIs(t, err, ErrNotFound)

	// Deleting a missing key is not an error.
	require.NoError(t, s.ReviewItems.Delete(ctx, key))
}

func TestEntityAllAndCount(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	artists := []string{"Camel", "Genesis", "Rush"}
	for _, artist := range artists {
		item := testReviewItem(artist, "Album")
		require.NoError(t, s.ReviewItems.Put(ctx, item.Key(), item))
	}

	all, err := s.ReviewItems.All(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	count, err := s.ReviewItems.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestEntitySurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	s, err := New(dir, nil)
	require.NoError(t, err)

	item := testReviewItem("King Crimson", "Red")
	require.NoError(t, s.ReviewItems.Put(ctx, item.Key(), item))
	require.NoError(t, s.Close())

	s, err = New(dir, nil)
	require.NoError(t, err)
	defer s.Close() //nolint:errcheck // Test cleanup

	got, err := s.ReviewItems.Get(ctx, item.Key())
	require.NoError(t, err)
	assert.Equal(t, "King Crimson", got.Artist)
}

func TestEntityContextCancellation(t *testing.T) {
	s := setupTestStore(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	item := testReviewItem("Yes", "Relayer")
	assert.ErrorIs(t, s.ReviewItems.Put(ctx, item.Key(), item), context.Canceled)
	_, err := s.ReviewItems.All(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
