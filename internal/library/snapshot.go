package library

import (
	"encoding/json/v2"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
)

// Snapshot is a file-backed Library. The collection lives in a JSON document
// under the data directory; a watcher reloads it when the file changes, so
// the fingerprint (and therefore the recommendation cache key) tracks the
// real collection without restarts.
type Snapshot struct {
	path   string
	logger *slog.Logger

	idx atomic.Pointer[index]

	watcher  *fsnotify.Watcher
	stopOnce sync.Once
	done     chan struct{}
}

// LoadSnapshot reads the collection file at path. A missing file yields an
// empty collection rather than an error, matching first-run behavior.
func LoadSnapshot(path string, logger *slog.Logger) (*Snapshot, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	s := &Snapshot{
		path:   path,
		logger: logger,
		done:   make(chan struct{}),
	}

	if err := s.reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Contains implements Library.
func (s *Snapshot) Contains(artist, album string) bool {
	return s.idx.Load().contains(artist, album)
}

// Fingerprint implements Library.
func (s *Snapshot) Fingerprint() string {
	return s.idx.Load().fingerprint
}

// Size returns the number of distinct entries.
func (s *Snapshot) Size() int {
	return len(s.idx.Load().pairs)
}

// Watch starts a background watcher that reloads the snapshot when the
// collection file changes. Close stops it.
func (s *Snapshot) Watch() error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}

	// Watch the directory, not the file: editors and atomic writers replace
	// the file by rename, which drops a direct file watch.
	if err := w.Add(filepath.Dir(s.path)); err != nil {
		w.Close()
		return fmt.Errorf("watch %s: %w", filepath.Dir(s.path), err)
	}

	s.watcher = w
	go s.watchLoop()
	return nil
}

// Close stops the watcher, if running.
func (s *Snapshot) Close() error {
	var err error
	s.stopOnce.Do(func() {
		close(s.done)
		if s.watcher != nil {
			err = s.watcher.Close()
		}
	})
	return err
}

func (s *Snapshot) watchLoop() {
	base := filepath.Base(s.path)
	for {
		select {
		case event, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != base {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if err := s.reload(); err != nil {
				s.logger.Warn("library snapshot reload failed", "path", s.path, "error", err)
				continue
			}
			s.logger.Info("library snapshot reloaded",
				"path", s.path,
				"entries", s.Size(),
				"fingerprint", s.Fingerprint()[:12],
			)
		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			s.logger.Warn("library watcher error", "error", err)
		case <-s.done:
			return
		}
	}
}

// reload reads and re-indexes the collection file.
func (s *Snapshot) reload() error {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		s.idx.Store(buildIndex(nil))
		return nil
	}
	if err != nil {
		return fmt.Errorf("read library snapshot: %w", err)
	}

	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return fmt.Errorf("parse library snapshot: %w", err)
	}

	s.idx.Store(buildIndex(entries))
	return nil
}
