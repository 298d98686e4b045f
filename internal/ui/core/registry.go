// Package core holds what every panel shares: the component registry, the
// environment of services and the layout loader.
package core

import (
	"slices"
	"sync"

	"fyne.io/fyne/v2"
)

// ComponentName is the symbolic name a panel publishes a widget under.
type ComponentName string

const (
	SourceImage                  ComponentName = "source_image"
	TargetFile                   ComponentName = "target_file"
	FrameProcessorsCheckboxGroup ComponentName = "frame_processors_checkbox_group"
	ManyFacesCheckbox            ComponentName = "many_faces_checkbox"
	PreviewFrameSlider           ComponentName = "preview_frame_slider"
	TrimFrameStartNumber         ComponentName = "trim_frame_start_number"
	TrimFrameEndNumber           ComponentName = "trim_frame_end_number"
)

// Registry maps component names to widgets so panels can react to each
// other without knowing about each other.
type Registry struct {
	mu         sync.RWMutex
	components map[ComponentName]fyne.CanvasObject
}

func NewRegistry() *Registry {
	return &Registry{components: make(map[ComponentName]fyne.CanvasObject)}
}

// Register stores c under name, replacing any previous widget.
func (r *Registry) Register(name ComponentName, c fyne.CanvasObject) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.components[name] = c
}

func (r *Registry) Get(name ComponentName) (fyne.CanvasObject, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.components[name]
	return c, ok
}

func (r *Registry) Names() []ComponentName {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]ComponentName, 0, len(r.components))
	for name := range r.components {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	clear(r.components)
}

// Lookup returns the widget registered under name if it has type T.
func Lookup[T fyne.CanvasObject](r *Registry, name ComponentName) (T, bool) {
	var zero T
	if r == nil {
		return zero, false
	}

	c, ok := r.Get(name)
	if !ok {
		return zero, false
	}
	typed, ok := c.(T)
	return typed, ok
}

var defaultRegistry = NewRegistry()

// DefaultRegistry is the process-wide registry used by the application.
func DefaultRegistry() *Registry {
	return defaultRegistry
}

func RegisterComponent(name ComponentName, c fyne.CanvasObject) {
	defaultRegistry.Register(name, c)
}

func GetComponent(name ComponentName) (fyne.CanvasObject, bool) {
	return defaultRegistry.Get(name)
}
