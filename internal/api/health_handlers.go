package api

import (
	"context"
	"net/http"
	"time"

	"github.com/tunescout/tunescout-server/internal/http/response"
)

// ComponentHealth describes the health of a single component.
type ComponentHealth struct {
	Status  string `json:"status"`
	Latency string `json:"latency,omitempty"`
	Message string `json:"message,omitempty"`
}

// HealthResponse contains health check data in API responses.
type HealthResponse struct {
	Status     string                     `json:"status"`
	Components map[string]ComponentHealth `json:"components"`
}

func (s *Server) handleHealthCheck(w http.ResponseWriter, r *http.Request) {
	components := make(map[string]ComponentHealth)
	overall := "healthy"

	dbHealth := s.checkDatabase(r.Context())
	components["database"] = dbHealth
	if dbHealth.Status != "healthy" {
		overall = "unhealthy"
	}

	providerHealth := s.checkProvider(r.Context())
	components["provider"] = providerHealth
	if providerHealth.Status == "degraded" && overall == "healthy" {
		overall = "degraded"
	}

	components["library"] = s.checkLibrary()

	response.Success(w, HealthResponse{
		Status:     overall,
		Components: components,
	}, s.logger)
}

// checkDatabase verifies Badger is readable.
func (s *Server) checkDatabase(ctx context.Context) ComponentHealth {
	if s.services.Store == nil {
		return ComponentHealth{Status: "degraded", Message: "database not configured"}
	}

	start := time.Now()
	_, err := s.services.Store.ReviewItems.Count(ctx)
	latency := time.Since(start)

	if err != nil {
		return ComponentHealth{
			Status:  "unhealthy",
			Latency: latency.String(),
			Message: "database read failed",
		}
	}
	return ComponentHealth{Status: "healthy", Latency: latency.String()}
}

// checkProvider reports whether the generative backend answers. An offline
// provider degrades the service; cached and queued data still serve.
func (s *Server) checkProvider(ctx context.Context) ComponentHealth {
	if s.services.Provider == nil {
		return ComponentHealth{Status: "degraded", Message: "provider not configured"}
	}

	start := time.Now()
	ok := s.services.Provider.TestConnection(ctx)
	latency := time.Since(start)

	if !ok {
		return ComponentHealth{
			Status:  "degraded",
			Latency: latency.String(),
			Message: "provider offline",
		}
	}
	return ComponentHealth{Status: "healthy", Latency: latency.String()}
}

// checkLibrary reports whether a library snapshot is loaded.
func (s *Server) checkLibrary() ComponentHealth {
	if s.services.Library == nil {
		return ComponentHealth{Status: "degraded", Message: "library snapshot not configured"}
	}
	return ComponentHealth{Status: "healthy", Message: "fingerprint " + s.services.Library.Fingerprint()[:12]}
}
