package service

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tunescout/tunescout-server/internal/domain"
	"github.com/tunescout/tunescout-server/internal/errors"
	"github.com/tunescout/tunescout-server/internal/store"
)

// fakeHistoryStore is an in-memory HistoryStore with switchable failure
// modes.
type fakeHistoryStore struct {
	mu         sync.Mutex
	records    []domain.HistoryRecord
	failWrites bool
	lookupErr  error
}

func (f *fakeHistoryStore) AppendHistory(_ context.Context, rec *domain.HistoryRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWrites {
		return errors.Unavailable("disk full")
	}
	f.records = append(f.records, *rec)
	return nil
}

func (f *fakeHistoryStore) LastEvent(_ context.Context, key string, events ...domain.HistoryEvent) (*domain.HistoryRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.lookupErr != nil {
		return nil, f.lookupErr
	}
	for i := len(f.records) - 1; i >= 0; i-- {
		rec := f.records[i]
		if rec.Key() != key {
			continue
		}
		for _, ev := range events {
			if rec.Event == ev {
				return &rec, nil
			}
		}
	}
	return nil, store.ErrNotFound
}

func (f *fakeHistoryStore) count(event domain.HistoryEvent) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, rec := range f.records {
		if rec.Event == event {
			n++
		}
	}
	return n
}

func setupTestHistory(t *testing.T) (*HistoryService, *fakeHistoryStore) {
	t.Helper()

	fs := &fakeHistoryStore{}
	s, err := NewHistoryService(fs, slog.New(slog.DiscardHandler), DefaultHistoryGuard)
	require.NoError(t, err)
	return s, fs
}

func TestRecordSuggestions(t *testing.T) {
	s, fs := setupTestHistory(t)

	s.RecordSuggestions(context.Background(), []domain.Suggestion{
		{Artist: "Yes", Album: "Fragile"},
		{Artist: "Camel", Album: "Mirage"},
	})

	assert.Equal(t, 2, fs.count(domain.HistorySuggested))
}

func TestOutcomeHeldInsideGuardWindow(t *testing.T) {
	s, fs := setupTestHistory(t)
	ctx := context.Background()

	base := time.Now()
	s.now = func() time.Time { return base }

	s.RecordSuggestions(ctx, []domain.Suggestion{{Artist: "Yes", Album: "Fragile"}})

	// One second later, well inside the five second guard.
	s.now = func() time.Time { return base.Add(time.Second) }
	s.RecordRejected(ctx, "Yes", "Fragile")

	assert.Zero(t, fs.count(domain.HistoryRejected), "outcome must not land before the guard elapses")
	assert.True(t, s.WasRejectedOrDisliked(ctx, "Yes", "Fragile"),
		"held outcome still answers the dedup predicate")

	// Past the window, the next mutation flushes the held record.
	s.now = func() time.Time { return base.Add(6 * time.Second) }
	s.RecordSuggestions(ctx, []domain.Suggestion{{Artist: "Camel", Album: "Mirage"}})

	assert.Equal(t, 1, fs.count(domain.HistoryRejected))
}

func TestOutcomeAfterGuardWritesImmediately(t *testing.T) {
	s, fs := setupTestHistory(t)
	ctx := context.Background()

	base := time.Now()
	s.now = func() time.Time { return base }
	s.RecordSuggestions(ctx, []domain.Suggestion{{Artist: "Yes", Album: "Fragile"}})

	s.now = func() time.Time { return base.Add(time.Minute) }
	s.RecordDisliked(ctx, "Yes", "Fragile")

	assert.Equal(t, 1, fs.count(domain.HistoryDisliked))
}

func TestOutcomeWithoutPriorSuggestion(t *testing.T) {
	s, fs := setupTestHistory(t)

	s.RecordRejected(context.Background(), "Yes", "Fragile")
	assert.Equal(t, 1, fs.count(domain.HistoryRejected))
}

func TestWriteFailureParksAndRetries(t *testing.T) {
	s, fs := setupTestHistory(t)
	ctx := context.Background()

	fs.mu.Lock()
	fs.failWrites = true
	fs.mu.Unlock()

	s.RecordRejected(ctx, "Yes", "Fragile")
	assert.Zero(t, fs.count(domain.HistoryRejected))
	assert.True(t, s.WasRejectedOrDisliked(ctx, "Yes", "Fragile"),
		"parked record answers the predicate while unwritten")

	fs.mu.Lock()
	fs.failWrites = false
	fs.mu.Unlock()

	// Any later mutation retries the overlay.
	s.RecordSuggestions(ctx, []domain.Suggestion{{Artist: "Camel", Album: "Mirage"}})
	assert.Equal(t, 1, fs.count(domain.HistoryRejected))
}

func TestPredicateDegradesOnLookupFailure(t *testing.T) {
	s, fs := setupTestHistory(t)
	ctx := context.Background()

	s.RecordRejected(ctx, "Yes", "Fragile")

	fs.mu.Lock()
	fs.lookupErr = errors.Unavailable("disk error")
	fs.mu.Unlock()

	assert.False(t, s.WasRejectedOrDisliked(ctx, "Yes", "Fragile"),
		"a flaky store must not suppress fresh suggestions")
}

func TestPredicateKeyNormalization(t *testing.T) {
	s, _ := setupTestHistory(t)
	ctx := context.Background()

	s.RecordRejected(ctx, "Yes", "Fragile")
	assert.True(t, s.WasRejectedOrDisliked(ctx, "  YES ", "fragile"))
	assert.False(t, s.WasRejectedOrDisliked(ctx, "Yes", "Relayer"))
}

func TestNewHistoryServiceValidation(t *testing.T) {
	_, err := NewHistoryService(nil, slog.New(slog.DiscardHandler), 0)
	require.Error(t, err)

	_, err = NewHistoryService(&fakeHistoryStore{}, nil, 0)
	require.Error(t, err)
}
