package core

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLocalLock(t *testing.T) {
	ctx := context.Background()
	l := &LocalLock{}

	assert.True(t, l.TryAcquire(ctx))
	assert.False(t, l.TryAcquire(ctx))
	l.Release(ctx)
	assert.True(t, l.TryAcquire(ctx))
}

func TestLockManagerFallsBackToLocal(t *testing.T) {
	m := NewLockManager(&Core{})
	_, ok := m.Repair().(*LocalLock)
	assert.True(t, ok)
	assert.Same(t, m.Repair(), m.Repair())
}
