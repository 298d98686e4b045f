package ui

import (
	"path/filepath"
	"testing"

	"swapstudio/internal/config"
	"swapstudio/internal/ui/core"

	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestApp(t *testing.T, layouts ...string) (*SwapApp, *core.Env, string) {
	cfg := config.NewDefaultConfig()
	cfg.SetUILayouts(layouts)

	env := &core.Env{
		Config:        cfg,
		Registry:      core.NewRegistry(),
		Log:           zaptest.NewLogger(t),
		FaceReference: core.NewFaceReference(),
		Synchronous:   true,
	}
	path := filepath.Join(t.TempDir(), "config.yaml")

	return NewWithApp(test.NewTempApp(t), env, path), env, path
}

func TestBuildSingleLayout(t *testing.T) {
	a, env, _ := newTestApp(t, "default")
	require.NoError(t, a.Build())

	_, isTabs := a.Window().Content().(*container.AppTabs)
	assert.False(t, isTabs)

	_, ok := env.Registry.Get(core.TargetFile)
	assert.True(t, ok)
}

func TestBuildSeveralLayoutsUsesTabs(t *testing.T) {
	a, _, _ := newTestApp(t, "default", "simple")
	require.NoError(t, a.Build())

	tabs, ok := a.Window().Content().(*container.AppTabs)
	require.True(t, ok)
	assert.Len(t, tabs.Items, 2)
	assert.Equal(t, "simple", tabs.Items[1].Text)
}

func TestBuildUnknownLayout(t *testing.T) {
	a, _, _ := newTestApp(t, "fancy")

	err := a.Build()
	assert.ErrorIs(t, err, core.ErrLayoutNotFound)
}

func TestShutdownSavesConfig(t *testing.T) {
	a, env, path := newTestApp(t, "simple")
	require.NoError(t, a.Build())

	env.Config.SetExecutionThreadCount(12)
	closed := false
	env.OnClose(func() { closed = true })

	a.shutdown()
	assert.True(t, closed)

	loaded, err := config.LoadConfigFile(path)
	require.NoError(t, err)
	assert.Equal(t, 12, loaded.GetExecutionThreadCount())
}
