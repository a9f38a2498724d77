// Package service implements the TuneScout business services: the
// suggestion history ledger, the review queue, and the recommendation
// workflow around the pipeline.
package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/tunescout/tunescout-server/internal/domain"
	"github.com/tunescout/tunescout-server/internal/errors"
	"github.com/tunescout/tunescout-server/internal/store"
)

// DefaultHistoryGuard is the minimum elapsed time between a Suggested event
// and a recorded outcome. Outcomes arriving inside the window are held back
// so a rejection can never land in the ledger before its suggestion is
// durably visible.
const DefaultHistoryGuard = 5 * time.Second

// HistoryStore is the persistence boundary for the ledger.
type HistoryStore interface {
	AppendHistory(ctx context.Context, rec *domain.HistoryRecord) error
	LastEvent(ctx context.Context, key string, events ...domain.HistoryEvent) (*domain.HistoryRecord, error)
}

// pendingRecord is a ledger entry not yet durably written: either its write
// failed (soft durability) or it is held by the elapsed-time guard.
type pendingRecord struct {
	rec        domain.HistoryRecord
	eligibleAt time.Time
}

// HistoryService maintains the append-only suggestion history. Writes
// degrade to an in-memory overlay when the store fails; the overlay is
// flushed on the next mutation, so a transient persistence failure never
// aborts a caller.
type HistoryService struct {
	store  HistoryStore
	logger *slog.Logger
	guard  time.Duration
	now    func() time.Time

	mu      sync.Mutex
	pending []pendingRecord
}

// NewHistoryService creates the history service. Store and logger are
// required.
func NewHistoryService(historyStore HistoryStore, logger *slog.Logger, guard time.Duration) (*HistoryService, error) {
	if historyStore == nil {
		return nil, errors.Internal("history service requires a store")
	}
	if logger == nil {
		return nil, errors.Internal("history service requires a logger")
	}
	if guard <= 0 {
		guard = DefaultHistoryGuard
	}
	return &HistoryService{
		store:  historyStore,
		logger: logger,
		guard:  guard,
		now:    time.Now,
	}, nil
}

// RecordSuggestions appends Suggested events for each item.
func (s *HistoryService) RecordSuggestions(ctx context.Context, items []domain.Suggestion) {
	now := s.now()
	for i := range items {
		s.append(ctx, domain.HistoryRecord{
			Artist:    items[i].Artist,
			Album:     items[i].Album,
			Event:     domain.HistorySuggested,
			Timestamp: now,
		}, now)
	}
	s.flushPending(ctx)
}

// RecordRejected appends a Rejected outcome for the pair. If the matching
// Suggested event is younger than the guard window, the outcome is held
// until the window elapses.
func (s *HistoryService) RecordRejected(ctx context.Context, artist, album string) {
	s.recordOutcome(ctx, artist, album, domain.HistoryRejected)
}

// RecordDisliked appends a Disliked outcome for the pair, with the same
// guard as RecordRejected.
func (s *HistoryService) RecordDisliked(ctx context.Context, artist, album string) {
	s.recordOutcome(ctx, artist, album, domain.HistoryDisliked)
}

func (s *HistoryService) recordOutcome(ctx context.Context, artist, album string, event domain.HistoryEvent) {
	now := s.now()
	rec := domain.HistoryRecord{
		Artist:    artist,
		Album:     album,
		Event:     event,
		Timestamp: now,
	}

	eligibleAt := now
	last, err := s.store.LastEvent(ctx, rec.Key(), domain.HistorySuggested)
	if err == nil {
		if held := last.Timestamp.Add(s.guard); held.After(now) {
			eligibleAt = held
		}
	} else if !errors.Is(err, store.ErrNotFound) {
		s.logger.Warn("history lookup failed, recording outcome without guard",
			"artist", artist, "error", err)
	}

	s.append(ctx, rec, eligibleAt)
	s.flushPending(ctx)
}

// WasRejectedOrDisliked is the predicate consulted by the dedup stage.
// Store failures log and report false so a flaky disk never suppresses a
// fresh suggestion.
func (s *HistoryService) WasRejectedOrDisliked(ctx context.Context, artist, album string) bool {
	key := domain.NormalizeKey(artist, album)

	s.mu.Lock()
	for i := range s.pending {
		p := &s.pending[i]
		if p.rec.Event != domain.HistorySuggested && p.rec.Key() == key {
			s.mu.Unlock()
			return true
		}
	}
	s.mu.Unlock()

	_, err := s.store.LastEvent(ctx, key, domain.HistoryRejected, domain.HistoryDisliked)
	if err == nil {
		return true
	}
	if !errors.Is(err, store.ErrNotFound) {
		s.logger.Warn("history predicate lookup failed", "artist", artist, "error", err)
	}
	return false
}

// append writes a record, or parks it in the pending overlay when the write
// fails or the guard holds it back.
func (s *HistoryService) append(ctx context.Context, rec domain.HistoryRecord, eligibleAt time.Time) {
	if eligibleAt.After(s.now()) {
		s.park(rec, eligibleAt)
		return
	}

	if err := s.store.AppendHistory(ctx, &rec); err != nil {
		s.logger.Warn("history write failed, keeping record in memory",
			"artist", rec.Artist, "event", rec.Event, "error", err)
		s.park(rec, eligibleAt)
	}
}

func (s *HistoryService) park(rec domain.HistoryRecord, eligibleAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = append(s.pending, pendingRecord{rec: rec, eligibleAt: eligibleAt})
}

// flushPending retries parked records whose guard window has elapsed.
func (s *HistoryService) flushPending(ctx context.Context) {
	now := s.now()

	s.mu.Lock()
	var ready []pendingRecord
	var held []pendingRecord
	for _, p := range s.pending {
		if p.eligibleAt.After(now) {
			held = append(held, p)
		} else {
			ready = append(ready, p)
		}
	}
	s.pending = held
	s.mu.Unlock()

	for _, p := range ready {
		rec := p.rec
		if err := s.store.AppendHistory(ctx, &rec); err != nil {
			s.logger.Warn("history flush failed, record stays in memory",
				"artist", rec.Artist, "event", rec.Event, "error", err)
			s.park(rec, p.eligibleAt)
		}
	}
}
