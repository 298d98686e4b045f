package panels

import (
	"context"

	"swapstudio/internal/media"
	"swapstudio/internal/ui/core"
	"swapstudio/internal/ui/cwidget"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
)

type TrimFrame struct {
	env *core.Env

	start *cwidget.Input[int]
	end   *cwidget.Input[int]
}

func NewTrimFrame(env *core.Env) *TrimFrame {
	return &TrimFrame{env: env}
}

func (p *TrimFrame) Render() fyne.CanvasObject {
	cfg := p.env.Config

	p.start = cwidget.NewIntInput("TRIM FRAME START", "first frame", 0, 0, cwidget.Unbounded, nil)
	p.end = cwidget.NewIntInput("TRIM FRAME END", "last frame", 0, 0, cwidget.Unbounded, nil)

	start, startOK, end, endOK := cfg.GetTrimFrame()
	if startOK {
		p.start.SetValue(start)
	}
	if endOK {
		p.end.SetValue(end)
	}

	if !media.IsVideo(cfg.GetTargetPath()) {
		p.start.Hide()
		p.end.Hide()
	}

	p.env.Registry.Register(core.TrimFrameStartNumber, p.start)
	p.env.Registry.Register(core.TrimFrameEndNumber, p.end)

	return container.NewGridWithColumns(2, p.start, p.end)
}

func (p *TrimFrame) Listen() {
	p.start.OnChanged = p.env.Config.SetTrimFrameStart
	p.start.OnCleared = p.env.Config.ClearTrimFrameStart
	p.end.OnChanged = p.env.Config.SetTrimFrameEnd
	p.end.OnCleared = p.env.Config.ClearTrimFrameEnd

	if target, ok := core.Lookup[*cwidget.FilePicker](p.env.Registry, core.TargetFile); ok {
		target.AddListener(func(string) { p.remoteUpdate() })
	}
}

// remoteUpdate follows the target: a video spans the trim range over all
// its frames, anything else hides the inputs.
func (p *TrimFrame) remoteUpdate() {
	cfg := p.env.Config
	target := cfg.GetTargetPath()

	if !media.IsVideo(target) || p.env.Video == nil {
		cfg.ClearTrimFrame()
		p.reset()
		return
	}

	p.env.Background(func(ctx context.Context) func() {
		total, err := p.env.Video.FrameTotal(ctx, target)
		return func() {
			if cfg.GetTargetPath() != target {
				return
			}
			if err != nil {
				cfg.ClearTrimFrame()
				p.reset()
				p.env.ShowError(err)
				return
			}

			cfg.SetTrimFrameStart(0)
			cfg.SetTrimFrameEnd(total)
			for _, in := range []*cwidget.Input[int]{p.start, p.end} {
				in.SetRange(0, total)
				in.Show()
			}
			p.start.SetValue(0)
			p.end.SetValue(total)
		}
	})
}

func (p *TrimFrame) reset() {
	for _, in := range []*cwidget.Input[int]{p.start, p.end} {
		in.Clear()
		in.SetRange(0, cwidget.Unbounded)
		in.Hide()
	}
}
