package session

import "sync"

// lazyValue provides thread-safe lazy initialization for any type, using
// double-check locking to keep the hot path on a read lock.
type lazyValue[T any] struct {
	mu    sync.RWMutex
	value T
	set   bool
}

// Get returns the cached value if set, otherwise calls initFn to create it.
// initFn runs at most once per successful initialization; if it returns an
// error the value is not cached and the next call retries.
func (l *lazyValue[T]) Get(initFn func() (T, error)) (T, error) {
	l.mu.RLock()
	if l.set {
		v := l.value
		l.mu.RUnlock()
		return v, nil
	}
	l.mu.RUnlock()

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.set {
		return l.value, nil
	}

	v, err := initFn()
	if err != nil {
		var zero T
		return zero, err
	}

	l.value = v
	l.set = true
	return v, nil
}

// Peek returns the value without initializing it.
func (l *lazyValue[T]) Peek() (T, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.value, l.set
}
