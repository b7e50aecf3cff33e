package errors

import (
	stderrors "errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

var errSentinel = stderrors.New("sentinel")

func TestTraceKeepsCode(t *testing.T) {
	err := New("store.Get", "error.notfound", errSentinel).Code(http.StatusNotFound)
	traced := Trace("logic.Get", err)

	assert.Equal(t, http.StatusNotFound, traced.GetCode())
	assert.Contains(t, traced.Error(), "store.Get->logic.Get")
	assert.Equal(t, "error.notfound", traced.Message())
}

func TestUnwrapReachesCause(t *testing.T) {
	err := New("a", "error.internal", errSentinel)
	assert.True(t, Is(err, errSentinel))

	wrapped := Wrap(err, "b", "error.internal")
	assert.True(t, Is(wrapped, errSentinel))
	assert.Equal(t, http.StatusInternalServerError, wrapped.GetCode())
}

func TestTracePlainError(t *testing.T) {
	traced := Trace("x", errSentinel)
	assert.Equal(t, "sentinel", traced.Message())
	assert.True(t, Is(traced, errSentinel))
	assert.Nil(t, Trace("y", nil))
}
