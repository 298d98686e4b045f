package layouts

import (
	"testing"

	"swapstudio/internal/config"
	"swapstudio/internal/ui/core"

	"fyne.io/fyne/v2/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newEnv(t *testing.T) *core.Env {
	test.NewTempApp(t)

	env := &core.Env{
		Config:        config.NewDefaultConfig(),
		Registry:      core.NewRegistry(),
		Log:           zaptest.NewLogger(t),
		FaceReference: core.NewFaceReference(),
		Synchronous:   true,
	}
	t.Cleanup(env.Close)
	return env
}

func TestLayoutsAreRegistered(t *testing.T) {
	assert.Equal(t, []string{"default", "simple"}, core.ListLayoutNames())
}

func TestDefaultLayoutRegistersSharedComponents(t *testing.T) {
	env := newEnv(t)

	l, err := core.LoadLayout("default", env)
	require.NoError(t, err)

	content := l.Render()
	l.Listen()
	test.NewTempWindow(t, content)

	assert.Equal(t, []core.ComponentName{
		core.FrameProcessorsCheckboxGroup,
		core.ManyFacesCheckbox,
		core.PreviewFrameSlider,
		core.SourceImage,
		core.TargetFile,
		core.TrimFrameEndNumber,
		core.TrimFrameStartNumber,
	}, env.Registry.Names())
}

func TestSimpleLayout(t *testing.T) {
	env := newEnv(t)

	l, err := core.LoadLayout("simple", env)
	require.NoError(t, err)

	test.NewTempWindow(t, l.Render())
	l.Listen()

	assert.Equal(t, []core.ComponentName{core.SourceImage, core.TargetFile}, env.Registry.Names())
}
