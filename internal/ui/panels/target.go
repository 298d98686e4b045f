package panels

import (
	"context"
	"image"
	"path/filepath"

	"swapstudio/internal/media"
	"swapstudio/internal/ui/core"
	"swapstudio/internal/ui/cwidget"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
	"go.uber.org/zap"
)

type Target struct {
	env *core.Env

	file  *cwidget.FilePicker
	image *canvas.Image
	video *videoView
}

func NewTarget(env *core.Env) *Target {
	return &Target{env: env}
}

func (p *Target) Render() fyne.CanvasObject {
	path := p.env.Config.GetTargetPath()

	p.file = cwidget.NewFilePicker("TARGET", media.TargetFileTypes, p.env.Window)
	p.image = newImage(previewSize)
	p.image.Hide()
	p.video = newVideoView(p.env)

	switch media.Detect(path) {
	case media.KindImage:
		p.file.SetInitial(path)
		showFile(p.image, path)
	case media.KindVideo:
		p.file.SetInitial(path)
		p.video.Show(path)
	}

	p.env.Registry.Register(core.TargetFile, p.file)
	return container.NewVBox(p.file, p.image, p.video.box)
}

func (p *Target) Listen() {
	p.file.AddListener(p.update)
}

func (p *Target) update(path string) {
	if p.env.FaceReference != nil {
		p.env.FaceReference.Clear()
	}

	switch media.Detect(path) {
	case media.KindImage:
		p.env.Config.SetTargetPath(path)
		showFile(p.image, path)
		p.video.Hide()
	case media.KindVideo:
		p.env.Config.SetTargetPath(path)
		p.image.Hide()
		p.video.Show(path)
	default:
		p.env.Config.SetTargetPath("")
		p.image.Hide()
		p.video.Hide()
	}
}

// videoView stands in for a player: the first frame and the file name.
type videoView struct {
	env *core.Env

	box   *fyne.Container
	thumb *canvas.Image
	name  *widget.Label
	path  string
}

func newVideoView(env *core.Env) *videoView {
	v := &videoView{
		env:   env,
		thumb: newImage(previewSize),
		name:  widget.NewLabel(""),
	}
	v.box = container.NewVBox(v.thumb, v.name)
	v.box.Hide()
	return v
}

func (v *videoView) Show(path string) {
	v.path = path
	v.name.SetText(filepath.Base(path))
	v.box.Show()

	if v.env.Video == nil {
		v.thumb.Hide()
		return
	}

	v.env.Background(func(ctx context.Context) func() {
		img, err := v.env.Video.Frame(ctx, path, 0)
		if err != nil {
			v.env.Logger().Warn("thumbnail failed", zap.String("path", path), zap.Error(err))
		}
		return func() {
			if v.path != path {
				return
			}
			v.setThumb(img)
		}
	})
}

func (v *videoView) setThumb(img image.Image) {
	if img == nil {
		v.thumb.Hide()
		return
	}
	showImage(v.thumb, img)
}

func (v *videoView) Hide() {
	v.path = ""
	v.box.Hide()
}

func (v *videoView) Visible() bool {
	return v.box.Visible()
}
