package panels

import (
	"swapstudio/internal/media"
	"swapstudio/internal/ui/core"
	"swapstudio/internal/ui/cwidget"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
)

type Source struct {
	env *core.Env

	file  *cwidget.FilePicker
	image *canvas.Image
}

func NewSource(env *core.Env) *Source {
	return &Source{env: env}
}

func (p *Source) Render() fyne.CanvasObject {
	path := p.env.Config.GetSourcePath()

	p.file = cwidget.NewFilePicker("SOURCE", media.SourceFileTypes, p.env.Window)
	p.image = newImage(previewSize)
	p.image.Hide()

	if media.IsImage(path) {
		p.file.SetInitial(path)
		showFile(p.image, path)
	}

	p.env.Registry.Register(core.SourceImage, p.file)
	return container.NewVBox(p.file, p.image)
}

func (p *Source) Listen() {
	p.file.AddListener(p.update)
}

func (p *Source) update(path string) {
	if media.IsImage(path) {
		p.env.Config.SetSourcePath(path)
		showFile(p.image, path)
		return
	}

	p.env.Config.SetSourcePath("")
	p.image.Hide()
}
