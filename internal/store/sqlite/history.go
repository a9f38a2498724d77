package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/tunescout/tunescout-server/internal/domain"
	storepkg "github.com/tunescout/tunescout-server/internal/store"
)

// historyColumns is the ordered list of columns selected in history queries.
// Must match the scan order in scanHistoryRecord.
const historyColumns = `artist, album, event, timestamp`

// scanHistoryRecord scans a sql.Row (or sql.Rows via its Scan method) into a
// domain.HistoryRecord.
func scanHistoryRecord(scanner interface{ Scan(dest ...any) error }) (*domain.HistoryRecord, error) {
	var (
		rec   domain.HistoryRecord
		event string
		ts    string
	)

	if err := scanner.Scan(&rec.Artist, &rec.Album, &event, &ts); err != nil {
		return nil, err
	}
	rec.Event = domain.HistoryEvent(event)

	var err error
	rec.Timestamp, err = parseTime(ts)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// AppendHistory inserts one ledger record. Records are never updated after
// this write.
func (s *Store) AppendHistory(ctx context.Context, rec *domain.HistoryRecord) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO suggestion_history (key, artist, album, event, timestamp)
		 VALUES (?, ?, ?, ?, ?)`,
		rec.Key(), rec.Artist, rec.Album, string(rec.Event), formatTime(rec.Timestamp),
	)
	if err != nil {
		return fmt.Errorf("append history: %w", err)
	}
	return nil
}

// LastEvent returns the most recent record for key matching any of the given
// events. Returns store.ErrNotFound when no such record exists.
func (s *Store) LastEvent(ctx context.Context, key string, events ...domain.HistoryEvent) (*domain.HistoryRecord, error) {
	if len(events) == 0 {
		return nil, fmt.Errorf("last event: no events given")
	}

	placeholders := make([]string, len(events))
	args := make([]any, 0, len(events)+1)
	args = append(args, key)
	for i, ev := range events {
		placeholders[i] = "?"
		args = append(args, string(ev))
	}

	query := fmt.Sprintf(
		`SELECT %s FROM suggestion_history
		 WHERE key = ? AND event IN (%s)
		 ORDER BY timestamp DESC, id DESC
		 LIMIT 1`,
		historyColumns, strings.Join(placeholders, ", "),
	)

	rec, err := scanHistoryRecord(s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storepkg.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("last event: %w", err)
	}
	return rec, nil
}

// HistoryForKey returns all records for key in append order.
func (s *Store) HistoryForKey(ctx context.Context, key string) ([]*domain.HistoryRecord, error) {
	query := fmt.Sprintf(
		`SELECT %s FROM suggestion_history WHERE key = ? ORDER BY id ASC`,
		historyColumns,
	)

	rows, err := s.db.QueryContext(ctx, query, key)
	if err != nil {
		return nil, fmt.Errorf("history for key: %w", err)
	}
	defer rows.Close()

	var out []*domain.HistoryRecord
	for rows.Next() {
		rec, err := scanHistoryRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("history for key: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("history for key: %w", err)
	}
	return out, nil
}

// CountByEvent returns how many records exist for the given event.
func (s *Store) CountByEvent(ctx context.Context, event domain.HistoryEvent) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM suggestion_history WHERE event = ?`,
		string(event),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count by event: %w", err)
	}
	return count, nil
}
