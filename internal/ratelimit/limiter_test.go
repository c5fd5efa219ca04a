package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLimiterAllowsWithinBurst(t *testing.T) {
	l := New(Config{RequestsPerSecond: 100, Burst: 5})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	for i := 0; i < 5; i++ {
		require.NoError(t, l.Wait(ctx))
	}
}

func TestLimiterHonorsContextCancellation(t *testing.T) {
	l := New(Config{RequestsPerSecond: 0.001, Burst: 1})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	// First request drains the bucket, the second cannot refill in time.
	require.NoError(t, l.Wait(ctx))
	err := l.Wait(ctx)
	assert.Error(t, err)
}

func TestUnlimitedWhenRateNotSet(t *testing.T) {
	l := New(Config{})

	ctx := context.Background()
	for i := 0; i < 100; i++ {
		require.NoError(t, l.Wait(ctx))
	}
}
