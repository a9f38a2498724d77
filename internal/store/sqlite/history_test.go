package sqlite

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tunescout/tunescout-server/internal/domain"
	"github.com/tunescout/tunescout-server/internal/store"
)

// setupTestHistory creates a history store over a temp database.
func setupTestHistory(t *testing.T) *Store {
	t.Helper()

	s, err := Open(filepath.Join(t.TempDir(), "history.db"), nil)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = s.Close() //nolint:errcheck // Test cleanup
	})
	return s
}

func record(artist, album string, event domain.HistoryEvent, at time.Time) *domain.HistoryRecord {
	return &domain.HistoryRecord{
		Artist:    artist,
		Album:     album,
		Event:     event,
		Timestamp: at,
	}
}

func TestAppendAndReadBack(t *testing.T) {
	s := setupTestHistory(t)
	ctx := context.Background()

	now := time.Now()
	require.NoError(t, s.AppendHistory(ctx, record("Yes", "Relayer", domain.HistorySuggested, now)))
	require.NoError(t, s.AppendHistory(ctx, record("Yes", "Relayer", domain.HistoryRejected, now.Add(time.Minute))))

	key := domain.NormalizeKey("Yes", "Relayer")
	records, err := s.HistoryForKey(ctx, key)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, domain.HistorySuggested, records[0].Event)
	assert.Equal(t, domain.HistoryRejected, records[1].Event)
}

func TestLastEvent(t *testing.T) {
	s := setupTestHistory(t)
	ctx := context.Background()

	now := time.Now()
	require.NoError(t, s.AppendHistory(ctx, record("Camel", "Mirage", domain.HistorySuggested, now)))
	require.NoError(t, s.AppendHistory(ctx, record("Camel", "Mirage", domain.HistoryRejected, now.Add(time.Minute))))
	require.NoError(t, s.AppendHistory(ctx, record("Camel", "Mirage", domain.HistorySuggested, now.Add(2*time.Minute))))

	key := domain.NormalizeKey("Camel", "Mirage")

	last, err := s.LastEvent(ctx, key, domain.HistoryRejected, domain.HistoryDisliked)
	require.NoError(t, err)
	assert.Equal(t, domain.HistoryRejected, last.Event)

	last, err = s.LastEvent(ctx, key, domain.HistorySuggested)
	require.NoError(t, err)
	assert.WithinDuration(t, now.Add(2*time.Minute), last.Timestamp, time.Second)

	_, err = s.LastEvent(ctx, "unknown|key", domain.HistoryRejected)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestKeyNormalization(t *testing.T) {
	s := setupTestHistory(t)
	ctx := context.Background()

	require.NoError(t, s.AppendHistory(ctx, record("  YES ", "RELAYER", domain.HistoryDisliked, time.Now())))

	// Case and whitespace variants resolve to the same ledger key.
	last, err := s.LastEvent(ctx, domain.NormalizeKey("yes", "relayer"), domain.HistoryDisliked)
	require.NoError(t, err)
	assert.Equal(t, domain.HistoryDisliked, last.Event)
}

func TestCountByEvent(t *testing.T) {
	s := setupTestHistory(t)
	ctx := context.Background()

	now := time.Now()
	for i, artist := range []string{"Rush", "Genesis", "Focus"} {
		require.NoError(t, s.AppendHistory(ctx, record(artist, "", domain.HistorySuggested, now.Add(time.Duration(i)*time.Second))))
	}
	require.NoError(t, s.AppendHistory(ctx, record("Rush", "", domain.HistoryDisliked, now.Add(time.Minute))))

	count, err := s.CountByEvent(ctx, domain.HistorySuggested)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	count, err = s.CountByEvent(ctx, domain.HistoryDisliked)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestConcurrentAppends(t *testing.T) {
	s := setupTestHistory(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 25 {
				rec := record("Artist", "Album", domain.HistorySuggested, time.Now())
				assert.NoError(t, s.AppendHistory(ctx, rec))
			}
		}()
	}
	wg.Wait()

	count, err := s.CountByEvent(ctx, domain.HistorySuggested)
	require.NoError(t, err)
	assert.Equal(t, 100, count)
}
