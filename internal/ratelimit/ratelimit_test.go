package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllow_BurstThenBlocked(t *testing.T) {
	l := New(60, 3)

	for i := 0; i < 3; i++ {
		assert.True(t, l.Allow("openai"), "call %d should fit the burst", i)
	}
	assert.False(t, l.Allow("openai"), "burst exhausted")
}

func TestLimitsArePerProvider(t *testing.T) {
	l := New(60, 1)

	assert.True(t, l.Allow("openai"))
	assert.False(t, l.Allow("openai"))
	// A different provider keeps its own bucket.
	assert.True(t, l.Allow("cohere"))
}

func TestWait_RespectsContext(t *testing.T) {
	l := New(1, 1)
	require.NoError(t, l.Wait(context.Background(), "p"))

	// The next slot is a minute away; a short deadline must abort.
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := l.Wait(ctx, "p")
	require.Error(t, err)
}

func TestNew_Defaults(t *testing.T) {
	l := New(0, 0)
	assert.Equal(t, 600, l.rpm)
	assert.Equal(t, 20, l.burst)
}
