package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyBuilderDeterministic(t *testing.T) {
	a, err := NewKeyBuilder("openai/gpt-4o-mini", 20, StaticVersion("v3"))
	require.NoError(t, err)
	b, err := NewKeyBuilder("openai/gpt-4o-mini", 20, StaticVersion("v3"))
	require.NoError(t, err)

	assert.Equal(t, a.Key("fp-1", "styles=jazz"), b.Key("fp-1", "styles=jazz"))
}

func TestKeyBuilderComponentSensitivity(t *testing.T) {
	base, err := NewKeyBuilder("openai/gpt-4o-mini", 20, StaticVersion("v3"))
	require.NoError(t, err)
	baseKey := base.Key("fp-1", "styles=jazz")

	tests := []struct {
		name     string
		provider string
		maxItems int
		version  string
		fp       string
		settings string
	}{
		{"provider", "ollama/llama3", 20, "v3", "fp-1", "styles=jazz"},
		{"max items", "openai/gpt-4o-mini", 21, "v3", "fp-1", "styles=jazz"},
		{"config version", "openai/gpt-4o-mini", 20, "v4", "fp-1", "styles=jazz"},
		{"fingerprint", "openai/gpt-4o-mini", 20, "v3", "fp-2", "styles=jazz"},
		{"settings", "openai/gpt-4o-mini", 20, "v3", "fp-1", "styles=rock"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kb, err := NewKeyBuilder(tt.provider, tt.maxItems, StaticVersion(tt.version))
			require.NoError(t, err)
			assert.NotEqual(t, baseKey, kb.Key(tt.fp, tt.settings))
		})
	}
}

func TestKeyBuilderNoConcatenationCollisions(t *testing.T) {
	// "ab"+"c" and "a"+"bc" must not hash identically.
	a, err := NewKeyBuilder("ab", 1, StaticVersion("c"))
	require.NoError(t, err)
	b, err := NewKeyBuilder("a", 1, StaticVersion("bc"))
	require.NoError(t, err)

	assert.NotEqual(t, a.Key("", ""), b.Key("", ""))
}

func TestKeyBuilderValidation(t *testing.T) {
	_, err := NewKeyBuilder("", 20, StaticVersion("v1"))
	assert.Error(t, err)

	_, err = NewKeyBuilder("openai/gpt-4o-mini", 20, nil)
	assert.Error(t, err)
}
