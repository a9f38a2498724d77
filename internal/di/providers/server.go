package providers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/samber/do/v2"

	"github.com/tunescout/tunescout-server/internal/api"
	"github.com/tunescout/tunescout-server/internal/config"
	"github.com/tunescout/tunescout-server/internal/logger"
	"github.com/tunescout/tunescout-server/internal/pipeline"
	"github.com/tunescout/tunescout-server/internal/provider"
	"github.com/tunescout/tunescout-server/internal/service"
)

// HTTPServerHandle wraps http.Server with Shutdownable.
type HTTPServerHandle struct {
	*http.Server
}

// Shutdown implements do.Shutdownable.
func (h *HTTPServerHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return h.Server.Shutdown(ctx)
}

// ProvideHTTPServer provides the HTTP server.
func ProvideHTTPServer(i do.Injector) (*HTTPServerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	handler := api.NewServer(&api.Services{
		Store:    do.MustInvoke[*StoreHandle](i).Store,
		Queue:    do.MustInvoke[*service.ReviewQueueService](i),
		Pipeline: do.MustInvoke[*pipeline.Pipeline](i),
		Provider: do.MustInvoke[provider.Provider](i),
		Library:  do.MustInvoke[*LibraryHandle](i).Snapshot,
	}, do.MustInvoke[*slog.Logger](i))

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("HTTP server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server error", "error", err)
		}
	}()

	log.Info("Server running", "addr", srv.Addr)
	return &HTTPServerHandle{Server: srv}, nil
}
