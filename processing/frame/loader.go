package frame

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Loader resolves frame processor names to modules and caches them until
// Clear.
type Loader struct {
	opts Options
	log  *zap.Logger

	mu      sync.Mutex
	modules map[string]Module
}

func NewLoader(opts Options, log *zap.Logger) *Loader {
	if log == nil {
		log = zap.NewNop()
	}
	return &Loader{
		opts:    opts,
		log:     log,
		modules: make(map[string]Module),
	}
}

func (l *Loader) PluginDir() string {
	return l.opts.PluginDir
}

// ListNames returns every available processor: built-ins and scripts found
// in the plugin directory, sorted and without duplicates.
func (l *Loader) ListNames() []string {
	names := builtinNames()

	if l.opts.PluginDir != "" {
		entries, err := os.ReadDir(l.opts.PluginDir)
		if err != nil && !os.IsNotExist(err) {
			l.log.Warn("failed to list plugin dir", zap.String("dir", l.opts.PluginDir), zap.Error(err))
		}
		for _, e := range entries {
			if e.IsDir() || filepath.Ext(e.Name()) != scriptExt || strings.HasSuffix(e.Name(), "_test.go") {
				continue
			}
			names = append(names, strings.TrimSuffix(e.Name(), scriptExt))
		}
	}

	sort.Strings(names)
	return slices.Compact(names)
}

func (l *Loader) Load(name string) (Module, error) {
	l.mu.Lock()
	if m, ok := l.modules[name]; ok {
		l.mu.Unlock()
		return m, nil
	}
	l.mu.Unlock()

	m, err := l.resolve(name)
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if cached, ok := l.modules[name]; ok {
		return cached, nil
	}
	l.modules[name] = m
	l.log.Debug("frame processor loaded", zap.String("name", name))

	return m, nil
}

func (l *Loader) resolve(name string) (Module, error) {
	if name == "" || strings.ContainsAny(name, `/\.`) {
		return nil, fmt.Errorf("frame processor %q %w", name, ErrModuleNotFound)
	}

	if f, ok := builtin(name); ok {
		m := f(l.opts)
		if m == nil {
			return nil, fmt.Errorf("frame processor %s %w", name, ErrModuleNotImplemented)
		}
		return m, nil
	}

	if l.opts.PluginDir != "" {
		path := filepath.Join(l.opts.PluginDir, name+scriptExt)
		if _, err := os.Stat(path); err == nil {
			return loadScript(name, path)
		}
	}

	return nil, fmt.Errorf("frame processor %s %w", name, ErrModuleNotFound)
}

// LoadAll loads every named processor and runs its PreCheck concurrently.
// Modules are returned in the order of names.
func (l *Loader) LoadAll(ctx context.Context, names []string) ([]Module, error) {
	modules := make([]Module, len(names))

	g, ctx := errgroup.WithContext(ctx)
	for idx, name := range names {
		g.Go(func() error {
			m, err := l.Load(name)
			if err != nil {
				return err
			}
			if err := m.PreCheck(ctx); err != nil {
				return fmt.Errorf("pre-check %s: %w", name, err)
			}
			modules[idx] = m
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return modules, nil
}

// Loaded lists the cached module names.
func (l *Loader) Loaded() []string {
	l.mu.Lock()
	defer l.mu.Unlock()

	names := make([]string, 0, len(l.modules))
	for name := range l.modules {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (l *Loader) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	clear(l.modules)
}

// Sort orders all processor names for the selection checklist: selected
// names first in selection order, the rest after in their listing order.
func Sort(all, selected []string) []string {
	rank := func(name string) int {
		if i := slices.Index(selected, name); i >= 0 {
			return i
		}
		return len(selected)
	}

	sorted := slices.Clone(all)
	sort.SliceStable(sorted, func(i, j int) bool {
		return rank(sorted[i]) < rank(sorted[j])
	})
	return sorted
}
