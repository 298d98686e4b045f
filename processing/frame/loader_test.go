package frame

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"swapstudio/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const validScript = `package blur

import "errors"

func PreCheck() error { return nil }

func PreStart(source, target string) error {
	if target == "" {
		return errors.New("no target")
	}
	return nil
}

func PostProcess() {}
`

const missingPostProcess = `package broken

func PreCheck() error { return nil }

func PreStart(source, target string) error { return nil }
`

const wrongSignature = `package odd

func PreCheck() bool { return true }

func PreStart(source, target string) error { return nil }

func PostProcess() {}
`

const failingPreCheck = `package grumpy

import "errors"

func PreCheck() error { return errors.New("not today") }

func PreStart(source, target string) error { return nil }

func PostProcess() {}
`

type fixture struct {
	models  string
	plugins string
	loader  *Loader
}

func newFixture(t *testing.T) fixture {
	t.Helper()

	root := t.TempDir()
	f := fixture{
		models:  filepath.Join(root, "models"),
		plugins: filepath.Join(root, "plugins"),
	}
	require.NoError(t, os.MkdirAll(f.models, 0755))
	require.NoError(t, os.MkdirAll(f.plugins, 0755))

	f.loader = NewLoader(Options{ModelsDir: f.models, PluginDir: f.plugins}, zaptest.NewLogger(t))
	return f
}

func (f fixture) writePlugin(t *testing.T, name, src string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(f.plugins, name+".go"), []byte(src), 0644))
}

func (f fixture) writeModel(t *testing.T, name string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(f.models, name), []byte("weights"), 0644))
}

func TestListNames(t *testing.T) {
	f := newFixture(t)
	f.writePlugin(t, "blur", validScript)
	f.writePlugin(t, "face_swapper", validScript)
	require.NoError(t, os.WriteFile(filepath.Join(f.plugins, "README.md"), []byte("docs"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(f.plugins, "blur_test.go"), []byte("package blur"), 0644))

	assert.Equal(t, []string{"blur", "face_enhancer", "face_swapper"}, f.loader.ListNames())
}

func TestListNamesWithoutPluginDir(t *testing.T) {
	l := NewLoader(Options{PluginDir: filepath.Join(t.TempDir(), "absent")}, nil)
	assert.Equal(t, []string{"face_enhancer", "face_swapper"}, l.ListNames())
}

func TestLoadBuiltinCaches(t *testing.T) {
	f := newFixture(t)

	m1, err := f.loader.Load("face_swapper")
	require.NoError(t, err)
	m2, err := f.loader.Load("face_swapper")
	require.NoError(t, err)

	assert.Same(t, m1, m2)
	assert.Equal(t, []string{"face_swapper"}, f.loader.Loaded())

	f.loader.Clear()
	assert.Empty(t, f.loader.Loaded())
}

func TestLoadNotFound(t *testing.T) {
	f := newFixture(t)

	for _, name := range []string{"nope", "", "../etc/passwd", "a.b"} {
		_, err := f.loader.Load(name)
		assert.ErrorIs(t, err, ErrModuleNotFound, name)
	}
}

func TestLoadScript(t *testing.T) {
	f := newFixture(t)
	f.writePlugin(t, "blur", validScript)

	m, err := f.loader.Load("blur")
	require.NoError(t, err)
	assert.Equal(t, "blur", m.Name())

	ctx := context.Background()
	require.NoError(t, m.PreCheck(ctx))

	s := config.DefaultSettings()
	assert.Error(t, m.PreStart(ctx, s))

	s.TargetPath = "clip.mp4"
	assert.NoError(t, m.PreStart(ctx, s))

	m.PostProcess(ctx)
}

func TestLoadScriptMissingEntryPoints(t *testing.T) {
	f := newFixture(t)
	f.writePlugin(t, "broken", missingPostProcess)
	f.writePlugin(t, "odd", wrongSignature)
	f.writePlugin(t, "garbage", "this is not go")

	for _, name := range []string{"broken", "odd", "garbage"} {
		_, err := f.loader.Load(name)
		assert.ErrorIs(t, err, ErrModuleNotImplemented, name)
	}
	assert.Empty(t, f.loader.Loaded())
}

func TestBuiltinPreCheckNeedsModel(t *testing.T) {
	f := newFixture(t)

	m, err := f.loader.Load("face_swapper")
	require.NoError(t, err)
	assert.Error(t, m.PreCheck(context.Background()))

	f.writeModel(t, "inswapper_128.onnx")
	assert.NoError(t, m.PreCheck(context.Background()))
}

func TestBuiltinPreStart(t *testing.T) {
	dir := t.TempDir()
	img := filepath.Join(dir, "me.png")
	vid := filepath.Join(dir, "clip.mp4")
	require.NoError(t, os.WriteFile(img, []byte("x"), 0644))
	require.NoError(t, os.WriteFile(vid, []byte("x"), 0644))

	f := newFixture(t)
	swapper, err := f.loader.Load("face_swapper")
	require.NoError(t, err)
	enhancer, err := f.loader.Load("face_enhancer")
	require.NoError(t, err)

	ctx := context.Background()
	s := config.DefaultSettings()
	s.TargetPath = vid

	assert.Error(t, swapper.PreStart(ctx, s), "swapper needs a source image")
	assert.NoError(t, enhancer.PreStart(ctx, s))

	s.SourcePath = img
	assert.NoError(t, swapper.PreStart(ctx, s))

	s.TargetPath = filepath.Join(dir, "missing.mp4")
	assert.Error(t, swapper.PreStart(ctx, s))
	assert.Error(t, enhancer.PreStart(ctx, s))
}

func TestLoadAll(t *testing.T) {
	f := newFixture(t)
	f.writeModel(t, "inswapper_128.onnx")
	f.writePlugin(t, "blur", validScript)
	f.writePlugin(t, "grumpy", failingPreCheck)

	modules, err := f.loader.LoadAll(context.Background(), []string{"blur", "face_swapper"})
	require.NoError(t, err)
	require.Len(t, modules, 2)
	assert.Equal(t, "blur", modules[0].Name())
	assert.Equal(t, "face_swapper", modules[1].Name())

	_, err = f.loader.LoadAll(context.Background(), []string{"blur", "grumpy"})
	assert.ErrorContains(t, err, "not today")

	_, err = f.loader.LoadAll(context.Background(), []string{"missing"})
	assert.ErrorIs(t, err, ErrModuleNotFound)
}

func TestSort(t *testing.T) {
	all := []string{"a", "b", "c", "d"}

	assert.Equal(t, []string{"c", "a", "b", "d"}, Sort(all, []string{"c", "a"}))
	assert.Equal(t, all, Sort(all, nil))
	assert.Equal(t, []string{"d", "a", "b", "c"}, Sort(all, []string{"d", "zzz"}))
	assert.Equal(t, []string{"a", "b", "c", "d"}, all, "input is not mutated")
}
