// Package pipeline implements the multi-stage recommendation pipeline:
// sanitize, schema-validate, deduplicate, style-guard, safety-gate, cache,
// top-up, truncate. Stage order is fixed; an item that fails an early stage
// never reaches a later one.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tunescout/tunescout-server/internal/cache"
	"github.com/tunescout/tunescout-server/internal/domain"
	"github.com/tunescout/tunescout-server/internal/errors"
	"github.com/tunescout/tunescout-server/internal/provider"
	"github.com/tunescout/tunescout-server/internal/ratelimit"
)

// Defaults applied when a request leaves fields unset.
const (
	DefaultMaxItems = 20
	DefaultCacheTTL = time.Hour
)

// History is the pipeline's view of the suggestion history service.
type History interface {
	HistoryChecker
	RecordSuggestions(ctx context.Context, items []domain.Suggestion)
}

// Request carries per-run settings.
type Request struct {
	// MaxItems caps the delivered batch. Zero means DefaultMaxItems.
	MaxItems int
	// Styles restricts results to these style tags when non-empty.
	Styles []string
	// Relaxed keeps non-matching items instead of dropping them when style
	// filters are set.
	Relaxed bool
	// AlbumMode requires every suggestion to name a specific album.
	AlbumMode bool
	// Backfill controls top-up behavior.
	Backfill domain.BackfillMode
}

// settingsKey canonically encodes the per-run settings that shape the batch,
// so two runs differing only in settings never share a cache entry. Styles
// are folded and sorted before encoding.
func (r Request) settingsKey() string {
	styles := make([]string, len(r.Styles))
	for i, s := range r.Styles {
		styles[i] = normalizeStyle(s)
	}
	sort.Strings(styles)
	return fmt.Sprintf("styles=%s;relaxed=%t;album=%t;backfill=%s",
		strings.Join(styles, ","), r.Relaxed, r.AlbumMode, r.Backfill)
}

// Result is the externally-visible outcome of one pipeline run. This is the
// unit cached per (provider, max items, fingerprint, settings, config
// version) key.
type Result struct {
	RunID     string                  `json:"run_id"`
	Items     []domain.Suggestion     `json:"items"`
	Report    domain.ValidationReport `json:"report"`
	Filtered  int                     `json:"filtered"`
	Queued    int                     `json:"queued"`
	FromCache bool                    `json:"from_cache"`
}

// Pipeline orchestrates the stages. All collaborators are injected at
// construction; nothing is swapped afterwards.
type Pipeline struct {
	provider provider.Provider
	library  LibraryOracle
	history  History
	queue    ReviewSink
	safety   SafetyGate
	cache    *cache.Cache[string, Result]
	version  cache.ConfigVersionProvider
	limiter  *ratelimit.KeyedRateLimiter
	logger   *slog.Logger
	cacheTTL time.Duration
}

// Config assembles a Pipeline.
type Config struct {
	Provider provider.Provider
	Library  LibraryOracle
	History  History
	Queue    ReviewSink
	Safety   SafetyGate // optional; defaults to AllowAll
	Cache    *cache.Cache[string, Result]
	Version  cache.ConfigVersionProvider
	Limiter  *ratelimit.KeyedRateLimiter // optional
	Logger   *slog.Logger
	CacheTTL time.Duration
}

// New creates a pipeline, failing fast on missing required collaborators.
func New(cfg Config) (*Pipeline, error) {
	switch {
	case cfg.Provider == nil:
		return nil, errors.Internal("pipeline requires a provider")
	case cfg.Library == nil:
		return nil, errors.Internal("pipeline requires a library oracle")
	case cfg.History == nil:
		return nil, errors.Internal("pipeline requires a history service")
	case cfg.Queue == nil:
		return nil, errors.Internal("pipeline requires a review queue")
	case cfg.Cache == nil:
		return nil, errors.Internal("pipeline requires a cache")
	case cfg.Version == nil:
		return nil, errors.Internal("pipeline requires a config version provider")
	case cfg.Logger == nil:
		return nil, errors.Internal("pipeline requires a logger")
	}

	if cfg.Safety == nil {
		cfg.Safety = AllowAll{}
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = DefaultCacheTTL
	}

	return &Pipeline{
		provider: cfg.Provider,
		library:  cfg.Library,
		history:  cfg.History,
		queue:    cfg.Queue,
		safety:   cfg.Safety,
		cache:    cfg.Cache,
		version:  cfg.Version,
		limiter:  cfg.Limiter,
		logger:   cfg.Logger,
		cacheTTL: cfg.CacheTTL,
	}, nil
}

// partialError carries the survivors of a canceled run out of the cache
// factory without caching them.
type partialError struct {
	result Result
	cause  error
}

func (e *partialError) Error() string { return "pipeline run canceled: " + e.cause.Error() }
func (e *partialError) Unwrap() error { return e.cause }

// Run executes the pipeline, consulting the batch cache first. Concurrent
// runs with the same key share one computation. On cancellation mid-run the
// already-validated survivors are returned rather than an error, and
// nothing is cached.
func (p *Pipeline) Run(ctx context.Context, req Request) (Result, error) {
	if req.MaxItems <= 0 {
		req.MaxItems = DefaultMaxItems
	}

	kb, err := cache.NewKeyBuilder(p.provider.Name(), req.MaxItems, p.version)
	if err != nil {
		return Result{}, err
	}
	key := kb.Key(p.library.Fingerprint(), req.settingsKey())

	fresh := false
	res, err := p.cache.GetOrCompute(ctx, key, p.cacheTTL, func(ctx context.Context) (Result, error) {
		fresh = true
		return p.produce(ctx, req)
	})
	if err != nil {
		var partial *partialError
		if errors.As(err, &partial) {
			return partial.result, nil
		}
		return Result{}, err
	}

	res.FromCache = !fresh
	return res, nil
}

// produce runs the full stage sequence against fresh provider batches.
func (p *Pipeline) produce(ctx context.Context, req Request) (Result, error) {
	res := Result{RunID: uuid.NewString()}
	log := p.logger.With("run_id", res.RunID, "provider", p.provider.Name())

	seen := make(map[string]struct{})
	var accepted, filtered []domain.Suggestion

	batch, err := p.fetch(ctx, req, req.MaxItems, seen)
	if err != nil {
		if ctx.Err() != nil {
			return Result{}, &partialError{result: p.finalize(ctx, res, accepted, filtered, req.MaxItems), cause: ctx.Err()}
		}
		return Result{}, errors.Wrap(err, errors.CodeProvider, "fetch recommendations")
	}
	accepted, filtered = p.runStages(ctx, batch, req, seen, &res.Report, accepted, filtered)

	// Top-up: bounded extra fetches while under target, re-running the
	// stages on new candidates only. Skipped when the first pass produced
	// nothing at all (a dry provider will not improve on retry) or when
	// backfill is off.
	for attempt := 1; attempt <= req.Backfill.Attempts(); attempt++ {
		if len(accepted) == 0 || len(accepted) >= req.MaxItems {
			break
		}

		more, err := p.fetch(ctx, req, req.MaxItems-len(accepted), seen)
		if err != nil {
			if ctx.Err() != nil {
				log.Info("run canceled during top-up, returning validated survivors",
					"survivors", len(accepted))
				return Result{}, &partialError{result: p.finalize(ctx, res, accepted, filtered, req.MaxItems), cause: ctx.Err()}
			}
			return Result{}, errors.Wrapf(err, errors.CodeProvider, "top-up attempt %d", attempt)
		}
		if len(more) == 0 {
			break
		}
		accepted, filtered = p.runStages(ctx, more, req, seen, &res.Report, accepted, filtered)
	}

	res = p.finalize(ctx, res, accepted, filtered, req.MaxItems)
	log.Info("pipeline run complete",
		"delivered", len(res.Items),
		"filtered", res.Filtered,
		"queued", res.Queued,
		"dropped", res.Report.DroppedItems,
	)
	return res, nil
}

// runStages applies sanitize through safety-gate to one batch, appending to
// the run's accepted and filtered accumulators.
func (p *Pipeline) runStages(ctx context.Context, raw []domain.Suggestion, req Request, seen map[string]struct{}, report *domain.ValidationReport, accepted, filtered []domain.Suggestion) ([]domain.Suggestion, []domain.Suggestion) {
	report.TotalItems += len(raw)

	clean, dropped := sanitize(raw)
	if dropped > 0 {
		report.DroppedItems += dropped
		report.Warn("dropped unsafe or malformed suggestions during sanitization")
	}

	valid := schemaValidate(clean, req.AlbumMode, report)

	kept, dupFiltered := p.deduplicate(ctx, valid, seen)
	kept, styleFiltered := styleGuard(kept, req.Styles, req.Relaxed)
	kept, vetoed := p.safetyGate(ctx, kept)

	accepted = append(accepted, kept...)
	filtered = append(filtered, dupFiltered...)
	filtered = append(filtered, styleFiltered...)
	filtered = append(filtered, vetoed...)
	return accepted, filtered
}

// fetch asks the provider for one batch, respecting the per-provider rate
// limit.
func (p *Pipeline) fetch(ctx context.Context, req Request, count int, seen map[string]struct{}) ([]domain.Suggestion, error) {
	if p.limiter != nil {
		if err := p.limiter.Wait(ctx, p.provider.Name()); err != nil {
			return nil, err
		}
	}

	exclude := make([]string, 0, len(seen))
	for key := range seen {
		exclude = append(exclude, key)
	}

	return p.provider.Recommend(ctx, provider.Request{
		MaxItems:  count,
		Styles:    req.Styles,
		AlbumMode: req.AlbumMode,
		Exclude:   exclude,
	})
}

// finalize truncates to the requested maximum, offers filtered items to the
// review queue, and records delivered suggestions in the history ledger.
// Ordering is first-validated-first-kept.
func (p *Pipeline) finalize(ctx context.Context, res Result, accepted, filtered []domain.Suggestion, maxItems int) Result {
	if len(accepted) > maxItems {
		accepted = accepted[:maxItems]
	}
	res.Items = accepted
	res.Filtered = len(filtered)

	if len(filtered) > 0 {
		res.Queued = p.queue.Enqueue(ctx, filtered)
	}
	if len(accepted) > 0 {
		p.history.RecordSuggestions(ctx, accepted)
	}
	return res
}
