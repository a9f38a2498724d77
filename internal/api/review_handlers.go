package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/tunescout/tunescout-server/internal/domain"
	"github.com/tunescout/tunescout-server/internal/errors"
)

// Review queue action names. The action surface is a single dispatch
// endpoint with flat parameters, so front-ends drive the queue with one
// request shape.
const (
	ActionGetQueue       = "review/getqueue"
	ActionAccept         = "review/accept"
	ActionReject         = "review/reject"
	ActionNever          = "review/never"
	ActionApply          = "review/apply"
	ActionClear          = "review/clear"
	ActionRejectSelected = "review/rejectselected"
	ActionNeverSelected  = "review/neverselected"
)

// ActionRequest is the body of the review action endpoint.
type ActionRequest struct {
	Action string   `json:"action,omitempty" validate:"required" doc:"Action name, e.g. review/accept"`
	Artist string   `json:"artist,omitempty" validate:"omitempty,max=500" doc:"Artist for per-item actions"`
	Album  string   `json:"album,omitempty" validate:"omitempty,max=500" doc:"Album for per-item actions"`
	Notes  string   `json:"notes,omitempty" validate:"omitempty,max=2000" doc:"Optional reviewer notes"`
	Keys   []string `json:"keys,omitempty" doc:"Item keys for bulk actions"`
}

// ActionResult is the structured result shared by all actions. Fields not
// relevant to the dispatched action are omitted.
type ActionResult struct {
	OK       bool                 `json:"ok"`
	Items    []*domain.ReviewItem `json:"items,omitempty" doc:"Pending items (getqueue)"`
	Counts   *domain.ReviewCounts `json:"counts,omitempty" doc:"Queue counts by status (getqueue)"`
	Released []*domain.ReviewItem `json:"released,omitempty" doc:"Accepted items released for import (apply)"`
	Changed  int                  `json:"changed,omitempty" doc:"Items changed by a bulk action"`
	Cleared  int                  `json:"cleared,omitempty" doc:"Selection entries cleared"`
}

// ActionInput wraps the request body for huma.
type ActionInput struct {
	Body ActionRequest
}

// ActionOutput wraps the result for huma.
type ActionOutput struct {
	Body ActionResult
}

func (s *Server) registerReviewRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "reviewAction",
		Method:      http.MethodPost,
		Path:        "/api/v1/review/actions",
		Summary:     "Dispatch a review queue action",
		Description: "Executes a named review action against the suggestion queue",
		Tags:        []string{"Review"},
	}, s.handleReviewAction)
}

// handleReviewAction is the single dispatch point for the review queue. An
// unknown action returns a structured validation error.
func (s *Server) handleReviewAction(ctx context.Context, in *ActionInput) (*ActionOutput, error) {
	req := in.Body
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	queue := s.services.Queue

	switch req.Action {
	case ActionGetQueue:
		counts := queue.GetCounts()
		return &ActionOutput{Body: ActionResult{
			OK:     true,
			Items:  queue.GetPending(),
			Counts: &counts,
		}}, nil

	case ActionAccept:
		return s.decide(ctx, req, domain.ReviewAccepted)
	case ActionReject:
		return s.decide(ctx, req, domain.ReviewRejected)
	case ActionNever:
		return s.decide(ctx, req, domain.ReviewNeverAgain)

	case ActionApply:
		released := queue.DequeueAccepted(ctx)
		return &ActionOutput{Body: ActionResult{OK: true, Released: released}}, nil

	case ActionClear:
		return &ActionOutput{Body: ActionResult{OK: true, Cleared: queue.ClearSelection()}}, nil

	case ActionRejectSelected:
		return s.decideSelected(ctx, req.Keys, domain.ReviewRejected)
	case ActionNeverSelected:
		return s.decideSelected(ctx, req.Keys, domain.ReviewNeverAgain)

	default:
		return nil, errors.Validationf("unknown action %q", req.Action)
	}
}

// decide applies a per-item review decision.
func (s *Server) decide(ctx context.Context, req ActionRequest, status domain.ReviewStatus) (*ActionOutput, error) {
	if req.Artist == "" {
		return nil, errors.Validationf("%s requires an artist", req.Action)
	}
	if err := s.services.Queue.SetStatus(ctx, req.Artist, req.Album, status, req.Notes); err != nil {
		return nil, err
	}
	return &ActionOutput{Body: ActionResult{OK: true, Changed: 1}}, nil
}

// decideSelected applies a bulk decision to the current selection, extended
// by any keys carried on the request.
func (s *Server) decideSelected(ctx context.Context, keys []string, status domain.ReviewStatus) (*ActionOutput, error) {
	if len(keys) > 0 {
		s.services.Queue.Select(keys)
	}
	changed, err := s.services.Queue.ApplySelected(ctx, status)
	if err != nil {
		return nil, err
	}
	return &ActionOutput{Body: ActionResult{OK: true, Changed: changed}}, nil
}
