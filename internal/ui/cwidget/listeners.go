package cwidget

import "sync"

// Listeners is a list of change callbacks. Unlike the single OnChanged
// field of the stock widgets, any number of panels can subscribe.
type Listeners[T any] struct {
	mu  sync.Mutex
	fns []func(T)
}

func (l *Listeners[T]) Add(fn func(T)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.fns = append(l.fns, fn)
}

// Notify calls every listener in subscription order.
func (l *Listeners[T]) Notify(v T) {
	l.mu.Lock()
	fns := make([]func(T), len(l.fns))
	copy(fns, l.fns)
	l.mu.Unlock()

	for _, fn := range fns {
		fn(v)
	}
}

func (l *Listeners[T]) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.fns)
}
