package providers

import (
	"log/slog"

	"github.com/samber/do/v2"

	"github.com/tunescout/tunescout-server/internal/cache"
	"github.com/tunescout/tunescout-server/internal/config"
	"github.com/tunescout/tunescout-server/internal/pipeline"
	"github.com/tunescout/tunescout-server/internal/provider"
	"github.com/tunescout/tunescout-server/internal/ratelimit"
	"github.com/tunescout/tunescout-server/internal/service"
)

// ProvideProvider provides the generative recommendation backend. With no
// generative backend wired, the static provider serves empty batches and the
// review queue and history remain fully usable.
func ProvideProvider(i do.Injector) (provider.Provider, error) {
	cfg := do.MustInvoke[*config.Config](i)
	return provider.NewStatic(cfg.Provider.Name), nil
}

// ProvideRateLimiter provides the keyed limiter guarding provider calls.
func ProvideRateLimiter(i do.Injector) (*ratelimit.KeyedRateLimiter, error) {
	cfg := do.MustInvoke[*config.Config](i)
	return ratelimit.New(cfg.Provider.RateLimit, cfg.Provider.RateBurst), nil
}

// CacheHandle wraps the batch cache with its sweeper lifecycle.
type CacheHandle struct {
	*cache.Cache[string, pipeline.Result]
}

// Shutdown implements do.Shutdownable.
func (h *CacheHandle) Shutdown() error {
	h.Stop()
	return nil
}

// ProvideCache provides the recommendation batch cache.
func ProvideCache(i do.Injector) (*CacheHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)

	c := cache.New[string, pipeline.Result](cfg.Recommend.CacheSize)
	c.StartSweeper(cacheSweepInterval)
	return &CacheHandle{Cache: c}, nil
}

// ProvidePipeline provides the recommendation pipeline.
func ProvidePipeline(i do.Injector) (*pipeline.Pipeline, error) {
	cfg := do.MustInvoke[*config.Config](i)

	return pipeline.New(pipeline.Config{
		Provider: do.MustInvoke[provider.Provider](i),
		Library:  do.MustInvoke[*LibraryHandle](i).Snapshot,
		History:  do.MustInvoke[*service.HistoryService](i),
		Queue:    do.MustInvoke[*service.ReviewQueueService](i),
		Cache:    do.MustInvoke[*CacheHandle](i).Cache,
		Version:  cache.StaticVersion(cfg.Recommend.Version()),
		Limiter:  do.MustInvoke[*ratelimit.KeyedRateLimiter](i),
		Logger:   do.MustInvoke[*slog.Logger](i),
		CacheTTL: cfg.Recommend.CacheTTL,
	})
}
