package panels

import (
	"fmt"

	"swapstudio/internal/config"
	"swapstudio/internal/models"
	"swapstudio/internal/ui/core"
	"swapstudio/internal/ui/cwidget"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
)

const noFaceOption = "No face detected"

type FaceSelector struct {
	env *core.Env

	box      *fyne.Container
	position *widget.Select
	distance *cwidget.Slider
	frame    *widget.Label
}

func NewFaceSelector(env *core.Env) *FaceSelector {
	return &FaceSelector{env: env}
}

func (p *FaceSelector) Render() fyne.CanvasObject {
	cfg := p.env.Config

	p.position = widget.NewSelect(nil, nil)
	p.setFaces(0)

	p.distance = cwidget.NewSlider("SIMILAR FACE DISTANCE",
		config.MinSimilarFaceDistance, config.MaxSimilarFaceDistance, 0.05, cfg.GetSimilarFaceDistance())

	p.frame = widget.NewLabel("")
	p.setFrame(cfg.GetReferenceFrameNumber())

	title := widget.NewLabel("REFERENCE FACE")
	title.TextStyle = fyne.TextStyle{Bold: true}

	p.box = container.NewVBox(title, p.position, p.frame, p.distance)
	if cfg.IsManyFaces() {
		p.box.Hide()
	}
	return p.box
}

func (p *FaceSelector) Listen() {
	cfg := p.env.Config

	p.position.OnChanged = func(string) {
		if idx := p.position.SelectedIndex(); idx >= 0 && p.position.Options[idx] != noFaceOption {
			cfg.SetReferenceFacePosition(idx)
		}
	}
	p.distance.AddListener(cfg.SetSimilarFaceDistance)

	if mf, ok := core.Lookup[*cwidget.Toggle](p.env.Registry, core.ManyFacesCheckbox); ok {
		mf.AddListener(p.toggleVisibility)
	}
	if slider, ok := core.Lookup[*cwidget.Slider](p.env.Registry, core.PreviewFrameSlider); ok {
		slider.AddListener(func(v float64) {
			cfg.SetReferenceFrameNumber(int(v))
			p.setFrame(int(v))
		})
	}
	if p.env.FaceReference != nil {
		p.env.FaceReference.AddListener(func(faces []models.Face) { p.setFaces(len(faces)) })
	}
}

func (p *FaceSelector) toggleVisibility(manyFaces bool) {
	if manyFaces {
		p.box.Hide()
		return
	}
	p.box.Show()
}

func (p *FaceSelector) setFrame(n int) {
	p.frame.SetText(fmt.Sprintf("REFERENCE FRAME: %d", n))
}

// setFaces offers one option per detected face and keeps the configured
// position when it still exists.
func (p *FaceSelector) setFaces(n int) {
	if n == 0 {
		p.position.Options = []string{noFaceOption}
		p.position.Selected = noFaceOption
		p.position.Disable()
		p.position.Refresh()
		return
	}

	options := make([]string, n)
	for i := range options {
		options[i] = fmt.Sprintf("Face %d", i+1)
	}

	pos := max(0, min(p.env.Config.GetReferenceFacePosition(), n-1))
	p.position.Options = options
	p.position.Selected = options[pos]
	p.position.Enable()
	p.position.Refresh()
}
