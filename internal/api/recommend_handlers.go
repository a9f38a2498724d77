package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/tunescout/tunescout-server/internal/domain"
	"github.com/tunescout/tunescout-server/internal/pipeline"
	"github.com/tunescout/tunescout-server/internal/provider"
)

// RecommendRequest is the body of the recommendation run endpoint.
type RecommendRequest struct {
	MaxItems  int      `json:"max_items,omitempty" validate:"gte=0,lte=100" doc:"Maximum suggestions to deliver"`
	Styles    []string `json:"styles,omitempty" doc:"Style tags to restrict results to"`
	Relaxed   bool     `json:"relaxed,omitempty" doc:"Keep items that match no style filter"`
	AlbumMode bool     `json:"album_mode,omitempty" doc:"Require a specific album per suggestion"`
	Backfill  string   `json:"backfill,omitempty" validate:"omitempty,oneof=off standard aggressive" doc:"Top-up behavior when under target"`
}

// RecommendResponse summarizes one pipeline run.
type RecommendResponse struct {
	RunID     string                  `json:"run_id"`
	Items     []domain.Suggestion     `json:"items"`
	Report    domain.ValidationReport `json:"report"`
	Filtered  int                     `json:"filtered" doc:"Items routed to the review queue"`
	Queued    int                     `json:"queued" doc:"Items newly added to the review queue"`
	FromCache bool                    `json:"from_cache"`
}

// RecommendInput wraps the request body for huma.
type RecommendInput struct {
	Body RecommendRequest
}

// RecommendOutput wraps the response for huma.
type RecommendOutput struct {
	Body RecommendResponse
}

// ModelsOutput lists the provider model options.
type ModelsOutput struct {
	Body struct {
		Provider string                 `json:"provider"`
		Models   []provider.ModelOption `json:"models"`
	}
}

func (s *Server) registerRecommendRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "runRecommendations",
		Method:      http.MethodPost,
		Path:        "/api/v1/recommendations",
		Summary:     "Run the recommendation pipeline",
		Description: "Fetches, validates, and filters fresh suggestions; filtered items land in the review queue",
		Tags:        []string{"Recommendations"},
	}, s.handleRecommend)

	huma.Register(s.api, huma.Operation{
		OperationID: "listModels",
		Method:      http.MethodGet,
		Path:        "/api/v1/models",
		Summary:     "List provider model options",
		Description: "Returns the provider's models, falling back to defaults when the provider is offline",
		Tags:        []string{"Recommendations"},
	}, s.handleListModels)
}

func (s *Server) handleRecommend(ctx context.Context, in *RecommendInput) (*RecommendOutput, error) {
	req := in.Body
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	res, err := s.services.Pipeline.Run(ctx, pipeline.Request{
		MaxItems:  req.MaxItems,
		Styles:    req.Styles,
		Relaxed:   req.Relaxed,
		AlbumMode: req.AlbumMode,
		Backfill:  domain.ParseBackfillMode(req.Backfill),
	})
	if err != nil {
		return nil, err
	}

	return &RecommendOutput{Body: RecommendResponse{
		RunID:     res.RunID,
		Items:     res.Items,
		Report:    res.Report,
		Filtered:  res.Filtered,
		Queued:    res.Queued,
		FromCache: res.FromCache,
	}}, nil
}

func (s *Server) handleListModels(ctx context.Context, _ *struct{}) (*ModelsOutput, error) {
	out := &ModelsOutput{}
	out.Body.Provider = s.services.Provider.Name()
	out.Body.Models = provider.ModelOptions(ctx, s.services.Provider)
	return out, nil
}
