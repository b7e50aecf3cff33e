package register

import "sync"

// funcRegister collects init time hooks keyed by an arbitrary comparable key, e.g. the
// store providers and the background process jobs.
type funcRegister struct {
	handlers map[any][]any
	locker   sync.RWMutex
}

var fr = &funcRegister{
	handlers: make(map[any][]any),
}

type Handler[T any] func(T)

func RegisterFunc[T any](key any, handler Handler[T]) {
	fr.locker.Lock()
	defer fr.locker.Unlock()
	fr.handlers[key] = append(fr.handlers[key], handler)
}

// ResolveFuncHandlers returns the handlers of key in registration order. Handlers
// registered with another type parameter are skipped.
func ResolveFuncHandlers[T any](key any) []Handler[T] {
	fr.locker.RLock()
	defer fr.locker.RUnlock()

	result := make([]Handler[T], 0, len(fr.handlers[key]))
	for _, v := range fr.handlers[key] {
		if h, ok := v.(Handler[T]); ok {
			result = append(result, h)
		}
	}
	return result
}
