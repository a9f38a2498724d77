package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"

	"github.com/tunescout/tunescout-server/internal/errors"
)

// ConfigVersionProvider supplies the planner/config version folded into
// recommendation cache keys. Bumping the version invalidates all prior
// entries without an explicit cache clear.
type ConfigVersionProvider interface {
	ConfigVersion() string
}

// StaticVersion is a fixed-string ConfigVersionProvider.
type StaticVersion string

// ConfigVersion implements ConfigVersionProvider.
func (v StaticVersion) ConfigVersion() string { return string(v) }

// KeyBuilder derives deterministic cache keys for recommendation batches
// from provider identity, requested count, library fingerprint, per-run
// settings, and config version. Any component change produces a different
// key.
type KeyBuilder struct {
	provider string
	maxItems int
	version  ConfigVersionProvider
}

// NewKeyBuilder creates a key builder. The version provider is required.
func NewKeyBuilder(provider string, maxItems int, version ConfigVersionProvider) (*KeyBuilder, error) {
	if provider == "" {
		return nil, errors.Validation("key builder requires a provider identity")
	}
	if version == nil {
		return nil, errors.Validation("key builder requires a config version provider")
	}
	return &KeyBuilder{
		provider: provider,
		maxItems: maxItems,
		version:  version,
	}, nil
}

// Key builds the cache key for a library fingerprint and a canonical
// encoding of the per-run settings that shape the batch. Components are
// length-prefixed before hashing so no two component sequences collide by
// concatenation.
func (b *KeyBuilder) Key(fingerprint, settings string) string {
	h := sha256.New()
	for _, part := range []string{
		b.provider,
		strconv.Itoa(b.maxItems),
		fingerprint,
		settings,
		b.version.ConfigVersion(),
	} {
		fmt.Fprintf(h, "%d:%s", len(part), part)
	}
	return hex.EncodeToString(h.Sum(nil))
}
