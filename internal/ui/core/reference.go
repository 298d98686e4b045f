package core

import (
	"slices"
	"sync"

	"swapstudio/internal/models"
	"swapstudio/internal/ui/cwidget"
)

// FaceReference caches the faces detected on the current reference frame.
type FaceReference struct {
	mu    sync.RWMutex
	faces []models.Face
	frame int
	set   bool

	listeners cwidget.Listeners[[]models.Face]
}

func NewFaceReference() *FaceReference {
	return &FaceReference{}
}

func (r *FaceReference) Set(frame int, faces []models.Face) {
	r.mu.Lock()
	r.faces = slices.Clone(faces)
	r.frame = frame
	r.set = true
	r.mu.Unlock()

	r.listeners.Notify(slices.Clone(faces))
}

// Get returns the cached faces and the frame they were found on.
func (r *FaceReference) Get() ([]models.Face, int, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.faces), r.frame, r.set
}

func (r *FaceReference) Clear() {
	r.mu.Lock()
	r.faces, r.frame, r.set = nil, 0, false
	r.mu.Unlock()

	r.listeners.Notify(nil)
}

func (r *FaceReference) AddListener(fn func([]models.Face)) {
	r.listeners.Add(fn)
}
