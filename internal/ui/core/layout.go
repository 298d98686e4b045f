package core

import (
	"errors"
	"fmt"
	"reflect"
	"slices"
	"sync"

	"fyne.io/fyne/v2"
)

var (
	ErrLayoutNotFound       = errors.New("could not be loaded")
	ErrLayoutNotImplemented = errors.New("not implemented correctly")
)

// Panel is a self-contained section of the window. Render builds the
// widgets and publishes shared ones to the registry; Listen wires
// callbacks and runs only after every panel has rendered.
type Panel interface {
	Render() fyne.CanvasObject
	Listen()
}

// Layout arranges panels and has the same two entry points.
type Layout interface {
	Render() fyne.CanvasObject
	Listen()
}

type LayoutFactory func(env *Env) Layout

var (
	layoutsMu sync.RWMutex
	layouts   = map[string]LayoutFactory{}
)

func RegisterLayout(name string, f LayoutFactory) {
	layoutsMu.Lock()
	defer layoutsMu.Unlock()

	if f == nil {
		panic("core: RegisterLayout factory is nil")
	}
	if _, dup := layouts[name]; dup {
		panic("core: RegisterLayout called twice for " + name)
	}
	layouts[name] = f
}

func ListLayoutNames() []string {
	layoutsMu.RLock()
	defer layoutsMu.RUnlock()

	names := make([]string, 0, len(layouts))
	for name := range layouts {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func LoadLayout(name string, env *Env) (Layout, error) {
	layoutsMu.RLock()
	f, ok := layouts[name]
	layoutsMu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("UI layout %s %w", name, ErrLayoutNotFound)
	}

	l := f(env)
	if isNil(l) {
		return nil, fmt.Errorf("UI layout %s %w", name, ErrLayoutNotImplemented)
	}
	return l, nil
}

func isNil(l Layout) bool {
	if l == nil {
		return true
	}
	v := reflect.ValueOf(l)
	return v.Kind() == reflect.Pointer && v.IsNil()
}
