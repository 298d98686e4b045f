package layouts

import (
	"swapstudio/internal/ui/core"
	"swapstudio/internal/ui/panels"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
)

// Simple swaps without preview: pick source and target, press start.
type Simple struct {
	source *panels.Source
	target *panels.Target
	output *panels.Output
}

func NewSimple(env *core.Env) core.Layout {
	return &Simple{
		source: panels.NewSource(env),
		target: panels.NewTarget(env),
		output: panels.NewOutput(env),
	}
}

func (l *Simple) Render() fyne.CanvasObject {
	inputs := container.NewGridWithColumns(2, l.source.Render(), l.target.Render())
	return container.NewVBox(inputs, l.output.Render())
}

func (l *Simple) Listen() {
	l.source.Listen()
	l.target.Listen()
	l.output.Listen()
}
