package register

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type testKey struct{}

type otherKey struct{}

func TestResolveFuncHandlers(t *testing.T) {
	var calls []string
	RegisterFunc[*[]string](testKey{}, func(s *[]string) { *s = append(*s, "first") })
	RegisterFunc[*[]string](testKey{}, func(s *[]string) { *s = append(*s, "second") })
	RegisterFunc[int](testKey{}, func(int) { t.Fatal("handler of another type must be skipped") })

	handlers := ResolveFuncHandlers[*[]string](testKey{})
	assert.Len(t, handlers, 2)
	for _, h := range handlers {
		h(&calls)
	}
	assert.Equal(t, []string{"first", "second"}, calls)

	assert.Empty(t, ResolveFuncHandlers[*[]string](otherKey{}))
}
