// Package di provides dependency injection configuration for the TuneScout
// server.
package di

import (
	"log/slog"

	"github.com/samber/do/v2"

	"github.com/tunescout/tunescout-server/internal/config"
	"github.com/tunescout/tunescout-server/internal/di/providers"
	"github.com/tunescout/tunescout-server/internal/logger"
	"github.com/tunescout/tunescout-server/internal/pipeline"
	"github.com/tunescout/tunescout-server/internal/provider"
	"github.com/tunescout/tunescout-server/internal/ratelimit"
	"github.com/tunescout/tunescout-server/internal/service"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)
	do.Provide(injector, providers.ProvideSlogLogger)

	// Storage layer
	do.Provide(injector, providers.ProvideStore)
	do.Provide(injector, providers.ProvideHistoryStore)
	do.Provide(injector, providers.ProvideLibrary)

	// Business services
	do.Provide(injector, providers.ProvideHistoryService)
	do.Provide(injector, providers.ProvideReviewQueue)

	// Pipeline layer
	do.Provide(injector, providers.ProvideProvider)
	do.Provide(injector, providers.ProvideRateLimiter)
	do.Provide(injector, providers.ProvideCache)
	do.Provide(injector, providers.ProvidePipeline)

	// Server
	do.Provide(injector, providers.ProvideHTTPServer)

	return injector
}

// Bootstrap initializes all services and returns once the server is up.
// This triggers lazy initialization of every provider in dependency order.
func Bootstrap(injector *do.RootScope) error {
	_ = do.MustInvoke[*config.Config](injector)
	_ = do.MustInvoke[*logger.Logger](injector)
	_ = do.MustInvoke[*slog.Logger](injector)
	_ = do.MustInvoke[*providers.StoreHandle](injector)
	_ = do.MustInvoke[*providers.HistoryStoreHandle](injector)
	_ = do.MustInvoke[*providers.LibraryHandle](injector)
	_ = do.MustInvoke[*service.HistoryService](injector)
	_ = do.MustInvoke[*service.ReviewQueueService](injector)
	_ = do.MustInvoke[provider.Provider](injector)
	_ = do.MustInvoke[*ratelimit.KeyedRateLimiter](injector)
	_ = do.MustInvoke[*providers.CacheHandle](injector)
	_ = do.MustInvoke[*pipeline.Pipeline](injector)
	_ = do.MustInvoke[*providers.HTTPServerHandle](injector)

	return nil
}
