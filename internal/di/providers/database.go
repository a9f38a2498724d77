package providers

import (
	"os"

	"github.com/samber/do/v2"

	"github.com/tunescout/tunescout-server/internal/config"
	"github.com/tunescout/tunescout-server/internal/library"
	"github.com/tunescout/tunescout-server/internal/logger"
	"github.com/tunescout/tunescout-server/internal/store"
	"github.com/tunescout/tunescout-server/internal/store/sqlite"
)

// StoreHandle wraps the review queue store with shutdown capability.
type StoreHandle struct {
	*store.Store
}

// Shutdown implements do.Shutdownable.
func (h *StoreHandle) Shutdown() error {
	return h.Close()
}

// ProvideStore provides the review queue database.
func ProvideStore(i do.Injector) (*StoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if err := os.MkdirAll(cfg.Data.BasePath, 0o750); err != nil {
		return nil, err
	}

	db, err := store.New(cfg.Data.ReviewDBPath(), log.Logger)
	if err != nil {
		return nil, err
	}

	log.Info("Review queue database initialized", "path", cfg.Data.ReviewDBPath())
	return &StoreHandle{Store: db}, nil
}

// HistoryStoreHandle wraps the history ledger with shutdown capability.
type HistoryStoreHandle struct {
	*sqlite.Store
}

// Shutdown implements do.Shutdownable.
func (h *HistoryStoreHandle) Shutdown() error {
	return h.Close()
}

// ProvideHistoryStore provides the suggestion history ledger database.
func ProvideHistoryStore(i do.Injector) (*HistoryStoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	db, err := sqlite.Open(cfg.Data.HistoryDBPath(), log.Logger)
	if err != nil {
		return nil, err
	}

	log.Info("History ledger initialized", "path", cfg.Data.HistoryDBPath())
	return &HistoryStoreHandle{Store: db}, nil
}

// LibraryHandle wraps the library snapshot with shutdown capability.
type LibraryHandle struct {
	*library.Snapshot
}

// Shutdown implements do.Shutdownable.
func (h *LibraryHandle) Shutdown() error {
	return h.Close()
}

// ProvideLibrary provides the library snapshot, watching the backing file
// for changes.
func ProvideLibrary(i do.Injector) (*LibraryHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	snapshot, err := library.LoadSnapshot(cfg.Data.LibraryPath(), log.Logger)
	if err != nil {
		return nil, err
	}

	if err := snapshot.Watch(); err != nil {
		log.Warn("Library snapshot watcher unavailable, reload on restart only",
			"path", cfg.Data.LibraryPath(), "error", err)
	}

	log.Info("Library snapshot loaded",
		"path", cfg.Data.LibraryPath(),
		"entries", snapshot.Size(),
	)
	return &LibraryHandle{Snapshot: snapshot}, nil
}
