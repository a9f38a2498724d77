package providers

import (
	"github.com/samber/do/v2"

	"github.com/tunescout/tunescout-server/internal/config"
	"github.com/tunescout/tunescout-server/internal/logger"
	"github.com/tunescout/tunescout-server/internal/service"
)

// ProvideHistoryService provides the suggestion history service.
func ProvideHistoryService(i do.Injector) (*service.HistoryService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	historyStore := do.MustInvoke[*HistoryStoreHandle](i)

	return service.NewHistoryService(historyStore.Store, log.Logger, cfg.Recommend.HistoryGuard)
}

// ProvideReviewQueue provides the review queue service.
func ProvideReviewQueue(i do.Injector) (*service.ReviewQueueService, error) {
	log := do.MustInvoke[*logger.Logger](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	history := do.MustInvoke[*service.HistoryService](i)

	return service.NewReviewQueueService(storeHandle.Store, history, log.Logger)
}
