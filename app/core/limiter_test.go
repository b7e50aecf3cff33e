package core

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLimiterPerKey(t *testing.T) {
	l := NewLimiters()

	a := l.Use("login:1.1.1.1", WithLimit(2))
	assert.True(t, a.Allow())
	assert.True(t, a.Allow())
	assert.False(t, a.Allow())

	assert.Same(t, a, l.Use("login:1.1.1.1", WithLimit(2)))
	assert.True(t, l.Use("login:2.2.2.2", WithLimit(2)).Allow())
}

func TestMemoryCache(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()

	v, err := c.Get(ctx, "missing")
	require.NoError(t, err)
	assert.Empty(t, v)

	require.NoError(t, c.SetEx(ctx, "k", "v", time.Hour))
	v, _ = c.Get(ctx, "k")
	assert.Equal(t, "v", v)

	require.NoError(t, c.Expire(ctx, "k", -time.Second))
	v, _ = c.Get(ctx, "k")
	assert.Empty(t, v)

	require.NoError(t, c.SetEx(ctx, "old", "v", -time.Second))
	require.NoError(t, c.SetEx(ctx, "fresh", "v", time.Hour))
	assert.Equal(t, 1, c.Sweep())
	v, _ = c.Get(ctx, "fresh")
	assert.Equal(t, "v", v)
}
