package frame

import (
	"context"
	"fmt"
	"go/parser"
	"go/token"
	"os"

	"swapstudio/internal/config"

	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"
)

const scriptExt = ".go"

// scriptModule is a frame processor interpreted from a Go source file. The
// file must export:
//
//	func PreCheck() error
//	func PreStart(source, target string) error
//	func PostProcess()
type scriptModule struct {
	name string

	preCheck    func() error
	preStart    func(string, string) error
	postProcess func()
}

func loadScript(name, path string) (*scriptModule, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("frame processor %s %w: %v", name, ErrModuleNotFound, err)
	}

	f, err := parser.ParseFile(token.NewFileSet(), path, src, parser.PackageClauseOnly)
	if err != nil {
		return nil, fmt.Errorf("frame processor %s %w: %v", name, ErrModuleNotImplemented, err)
	}
	pkg := f.Name.Name

	i := interp.New(interp.Options{})
	if err := i.Use(stdlib.Symbols); err != nil {
		return nil, fmt.Errorf("failed to load stdlib: %w", err)
	}

	if _, err := i.Eval(string(src)); err != nil {
		return nil, fmt.Errorf("frame processor %s %w: %v", name, ErrModuleNotImplemented, err)
	}

	m := &scriptModule{name: name}
	var ok bool

	if m.preCheck, ok = lookup[func() error](i, pkg, "PreCheck"); !ok {
		return nil, missingEntry(name, "PreCheck", "func() error")
	}
	if m.preStart, ok = lookup[func(string, string) error](i, pkg, "PreStart"); !ok {
		return nil, missingEntry(name, "PreStart", "func(source, target string) error")
	}
	if m.postProcess, ok = lookup[func()](i, pkg, "PostProcess"); !ok {
		return nil, missingEntry(name, "PostProcess", "func()")
	}

	return m, nil
}

func lookup[T any](i *interp.Interpreter, pkg, symbol string) (T, bool) {
	var zero T

	v, err := i.Eval(pkg + "." + symbol)
	if err != nil || !v.IsValid() || !v.CanInterface() {
		return zero, false
	}

	fn, ok := v.Interface().(T)
	return fn, ok
}

func missingEntry(name, symbol, signature string) error {
	return fmt.Errorf("frame processor %s %w: expected %s %s", name, ErrModuleNotImplemented, symbol, signature)
}

func (m *scriptModule) Name() string { return m.name }

func (m *scriptModule) PreCheck(ctx context.Context) error {
	return call(ctx, m.preCheck)
}

func (m *scriptModule) PreStart(ctx context.Context, s config.Settings) error {
	return call(ctx, func() error {
		return m.preStart(s.SourcePath, s.TargetPath)
	})
}

func (m *scriptModule) PostProcess(ctx context.Context) {
	_ = call(ctx, func() error {
		m.postProcess()
		return nil
	})
}

// call runs interpreted code, giving up when ctx ends. The interpreted call
// itself cannot be interrupted.
func call(ctx context.Context, fn func() error) error {
	errChan := make(chan error, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				errChan <- fmt.Errorf("script panic: %v", r)
			}
		}()
		errChan <- fn()
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		return fmt.Errorf("script call: %w", ctx.Err())
	}
}
