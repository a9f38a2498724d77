package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllowWithinBurst(t *testing.T) {
	krl := New(1, 3)

	for i := range 3 {
		assert.True(t, krl.Allow("openai"), "request %d within burst should pass", i)
	}
	assert.False(t, krl.Allow("openai"), "request beyond burst should be denied")
}

func TestKeysAreIndependent(t *testing.T) {
	krl := New(1, 1)

	assert.True(t, krl.Allow("openai"))
	assert.False(t, krl.Allow("openai"))

	// A different provider has its own bucket.
	assert.True(t, krl.Allow("ollama"))
}

func TestWaitHonorsCancellation(t *testing.T) {
	krl := New(0.001, 1)
	require.True(t, krl.Allow("slow"))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := krl.Wait(ctx, "slow")
	assert.Error(t, err)
}
