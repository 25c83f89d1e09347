package util

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLimiterBurstAndRefill(t *testing.T) {
	l := NewLimiter(10, 2)

	assert.True(t, l.Allow(1))
	assert.True(t, l.Allow(1))
	assert.False(t, l.Allow(1), "burst should be exhausted")

	time.Sleep(150 * time.Millisecond)
	assert.True(t, l.Allow(1), "a token should refill after 100ms")
}

func TestLimiterWait(t *testing.T) {
	l := NewLimiter(100, 1)
	require.True(t, l.Allow(1))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	start := time.Now()
	require.NoError(t, l.Wait(ctx, 1))
	assert.GreaterOrEqual(t, time.Since(start), 5*time.Millisecond)
}

func TestLimiterWaitCanceled(t *testing.T) {
	l := NewLimiter(0.1, 1)
	require.True(t, l.Allow(1))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, l.Wait(ctx, 1))
}

func TestLimiterUnlimited(t *testing.T) {
	l := NewLimiter(0, 0)
	for i := 0; i < 100; i++ {
		require.True(t, l.Allow(1))
	}
}
