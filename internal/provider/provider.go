// Package provider defines the boundary to the external generative
// recommendation provider. The generative call itself lives outside this
// server; the pipeline only depends on the interfaces here.
package provider

import (
	"context"

	"github.com/tunescout/tunescout-server/internal/domain"
)

// Request describes one batch of recommendations to ask the provider for.
type Request struct {
	// MaxItems is how many suggestions the caller wants back.
	MaxItems int
	// Styles restricts suggestions to musical styles, if the provider
	// supports steering.
	Styles []string
	// AlbumMode asks for specific albums rather than just artists.
	AlbumMode bool
	// Exclude lists normalized (artist, album) keys the provider should not
	// resuggest. Advisory only; the dedup stage enforces it regardless.
	Exclude []string
}

// Provider produces raw recommendation candidates.
type Provider interface {
	// Name identifies the provider (e.g. "openai/gpt-4o-mini") and is folded
	// into cache keys.
	Name() string

	// Recommend returns raw candidates. Candidates are untrusted input and
	// pass through the full pipeline before anything else sees them.
	Recommend(ctx context.Context, req Request) ([]domain.Suggestion, error)

	// TestConnection reports whether the provider is reachable.
	TestConnection(ctx context.Context) bool
}

// ModelLister is implemented by providers that can enumerate their models.
type ModelLister interface {
	Models(ctx context.Context) ([]ModelOption, error)
}

// ModelOption is one selectable model in settings UIs.
type ModelOption struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// DefaultModelOptions is the fallback option list used when a provider is
// unreachable. Settings surfaces always get options, never an error.
func DefaultModelOptions() []ModelOption {
	return []ModelOption{
		{ID: "gpt-4o-mini", Label: "GPT-4o Mini (default)"},
		{ID: "gpt-4o", Label: "GPT-4o"},
		{ID: "llama3", Label: "Llama 3 (local)"},
	}
}

// ModelOptions returns the provider's model list, degrading to
// DefaultModelOptions if the provider is nil, unreachable, cannot enumerate
// models, or returns an empty list.
func ModelOptions(ctx context.Context, p Provider) []ModelOption {
	if p == nil || !p.TestConnection(ctx) {
		return DefaultModelOptions()
	}

	lister, ok := p.(ModelLister)
	if !ok {
		return DefaultModelOptions()
	}

	opts, err := lister.Models(ctx)
	if err != nil || len(opts) == 0 {
		return DefaultModelOptions()
	}
	return opts
}
