// Package main provides the entry point for the TuneScout server.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/samber/do/v2"

	"github.com/tunescout/tunescout-server/internal/di"
	"github.com/tunescout/tunescout-server/internal/di/providers"
	"github.com/tunescout/tunescout-server/internal/logger"
)

func main() {
	injector := di.NewContainer()

	if err := di.Bootstrap(injector); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to bootstrap server: %v\n", err)
		os.Exit(1)
	}

	log := do.MustInvoke[*logger.Logger](injector)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server gracefully...")

	if err := injector.Shutdown(); err != nil {
		log.Error("Shutdown error", "error", err)
	}

	// The databases use wrapper types, so close them explicitly in case the
	// container missed them.
	if storeHandle, err := do.Invoke[*providers.StoreHandle](injector); err == nil {
		if err := storeHandle.Shutdown(); err != nil {
			log.Error("Failed to close review queue database", "error", err)
		}
	}
	if historyHandle, err := do.Invoke[*providers.HistoryStoreHandle](injector); err == nil {
		if err := historyHandle.Shutdown(); err != nil {
			log.Error("Failed to close history ledger", "error", err)
		}
	}

	log.Info("Goodbye")
}
