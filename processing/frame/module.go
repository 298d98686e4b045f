// Package frame loads frame processors: the named stages (face swapping,
// enhancing, ...) the inference service applies to each frame. Built-in
// processors are compiled in; others are Go scripts in the plugin directory,
// interpreted at load time.
package frame

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"swapstudio/internal/config"
	"swapstudio/internal/media"
)

var (
	ErrModuleNotFound       = errors.New("could not be loaded")
	ErrModuleNotImplemented = errors.New("not implemented correctly")
)

// Module is the set of entry points every frame processor exposes to the UI.
type Module interface {
	Name() string
	PreCheck(ctx context.Context) error
	PreStart(ctx context.Context, s config.Settings) error
	PostProcess(ctx context.Context)
}

type Options struct {
	ModelsDir string
	PluginDir string
}

type Factory func(opts Options) Module

var (
	builtinsMu sync.RWMutex
	builtins   = map[string]Factory{}
)

// Register makes a compiled-in frame processor available by name.
func Register(name string, f Factory) {
	builtinsMu.Lock()
	defer builtinsMu.Unlock()

	if f == nil {
		panic("frame: Register factory is nil")
	}
	if _, dup := builtins[name]; dup {
		panic("frame: Register called twice for " + name)
	}
	builtins[name] = f
}

func builtin(name string) (Factory, bool) {
	builtinsMu.RLock()
	defer builtinsMu.RUnlock()
	f, ok := builtins[name]
	return f, ok
}

func builtinNames() []string {
	builtinsMu.RLock()
	defer builtinsMu.RUnlock()

	names := make([]string, 0, len(builtins))
	for name := range builtins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func init() {
	Register("face_swapper", func(opts Options) Module {
		return &modelModule{
			name:          "face_swapper",
			model:         filepath.Join(opts.ModelsDir, "inswapper_128.onnx"),
			requireSource: true,
		}
	})
	Register("face_enhancer", func(opts Options) Module {
		return &modelModule{
			name:  "face_enhancer",
			model: filepath.Join(opts.ModelsDir, "GFPGANv1.4.pth"),
		}
	})
}

// modelModule is a processor backed by a model file the inference service
// reads from the shared models directory.
type modelModule struct {
	name          string
	model         string
	requireSource bool
}

func (m *modelModule) Name() string { return m.name }

func (m *modelModule) PreCheck(ctx context.Context) error {
	info, err := os.Stat(m.model)
	if err != nil {
		return fmt.Errorf("%s: model %s is missing: %w", m.name, m.model, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%s: model %s is a directory", m.name, m.model)
	}
	return nil
}

func (m *modelModule) PreStart(ctx context.Context, s config.Settings) error {
	if m.requireSource && !media.IsImage(s.SourcePath) {
		return fmt.Errorf("%s: select an image for source path", m.name)
	}
	if media.Detect(s.TargetPath) == media.KindNone {
		return fmt.Errorf("%s: select an image or video for target path", m.name)
	}
	return nil
}

func (m *modelModule) PostProcess(ctx context.Context) {}
