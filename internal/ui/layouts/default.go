// Package layouts arranges panels into window content. Layouts register
// themselves by name at init.
package layouts

import (
	"swapstudio/internal/ui/core"
	"swapstudio/internal/ui/panels"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
)

func init() {
	core.RegisterLayout("default", NewDefault)
	core.RegisterLayout("simple", NewSimple)
}

// Default is the full studio: settings, inputs and preview side by side
// above the output row.
type Default struct {
	settings     *panels.Settings
	source       *panels.Source
	target       *panels.Target
	preview      *panels.Preview
	trimFrame    *panels.TrimFrame
	faceSelector *panels.FaceSelector
	output       *panels.Output
}

func NewDefault(env *core.Env) core.Layout {
	return &Default{
		settings:     panels.NewSettings(env),
		source:       panels.NewSource(env),
		target:       panels.NewTarget(env),
		preview:      panels.NewPreview(env),
		trimFrame:    panels.NewTrimFrame(env),
		faceSelector: panels.NewFaceSelector(env),
		output:       panels.NewOutput(env),
	}
}

func (l *Default) Render() fyne.CanvasObject {
	settings := l.settings.Render()
	source := l.source.Render()
	target := l.target.Render()
	preview := l.preview.Render()
	trimFrame := l.trimFrame.Render()
	faceSelector := l.faceSelector.Render()
	output := l.output.Render()

	inputs := container.NewVBox(source, target)
	previewColumn := container.NewVBox(preview, trimFrame, faceSelector)

	right := container.NewHSplit(container.NewVScroll(inputs), container.NewVScroll(previewColumn))
	right.SetOffset(0.25)

	columns := container.NewHSplit(container.NewVScroll(settings), right)
	columns.SetOffset(0.3)

	return container.NewBorder(nil, output, nil, nil, columns)
}

func (l *Default) Listen() {
	l.settings.Listen()
	l.source.Listen()
	l.target.Listen()
	l.preview.Listen()
	l.trimFrame.Listen()
	l.faceSelector.Listen()
	l.output.Listen()
}
