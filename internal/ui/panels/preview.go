package panels

import (
	"context"
	"fmt"
	"image"
	"time"

	"swapstudio/internal/media"
	"swapstudio/internal/models"
	"swapstudio/internal/ui/core"
	"swapstudio/internal/ui/cwidget"
	"swapstudio/processing/pipeline"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
	"go.uber.org/zap"
)

const (
	detectTimeout = 10 * time.Second
	statInterval  = 200 * time.Millisecond
)

type Preview struct {
	env *core.Env

	image  *canvas.Image
	frame  *cwidget.Slider
	play   *widget.Button
	fps    *widget.Label
	lat    *widget.Label
	status *widget.Label

	previewer *pipeline.Previewer
	stopStats chan struct{}
	seq       int
}

func NewPreview(env *core.Env) *Preview {
	return &Preview{env: env}
}

func (p *Preview) Render() fyne.CanvasObject {
	p.image = newImage(fyne.NewSize(480, 360))
	p.image.Hide()

	p.frame = cwidget.NewSlider("PREVIEW FRAME", 0, 0, 1, 0)
	p.frame.Hide()

	p.play = widget.NewButton("Play", nil)
	p.play.Hide()
	p.fps = widget.NewLabel("FPS: -")
	p.lat = widget.NewLabel("Latency: -")
	p.status = widget.NewLabel("")

	p.env.Registry.Register(core.PreviewFrameSlider, p.frame)
	p.refreshTarget()

	stats := container.NewHBox(p.play, p.fps, p.lat)
	return container.NewVBox(p.image, p.frame, stats, p.status)
}

func (p *Preview) Listen() {
	p.play.OnTapped = p.togglePlay
	p.frame.AddListener(func(v float64) { p.update(int(v)) })

	if target, ok := core.Lookup[*cwidget.FilePicker](p.env.Registry, core.TargetFile); ok {
		target.AddListener(func(string) { p.refreshTarget() })
	}
	if fp, ok := core.Lookup[*cwidget.Choices](p.env.Registry, core.FrameProcessorsCheckboxGroup); ok {
		fp.AddListener(func([]string) { p.update(int(p.frame.Value())) })
	}
	if mf, ok := core.Lookup[*cwidget.Toggle](p.env.Registry, core.ManyFacesCheckbox); ok {
		mf.AddListener(func(bool) { p.update(int(p.frame.Value())) })
	}

	p.env.OnClose(p.stopPlayback)
}

// refreshTarget resets the slider for a new target and shows its first frame.
func (p *Preview) refreshTarget() {
	p.stopPlayback()
	target := p.env.Config.GetTargetPath()

	if !media.IsVideo(target) || p.env.Video == nil {
		p.frame.SetRange(0, 0, 0)
		p.frame.Hide()
		p.play.Hide()
		p.update(0)
		return
	}

	p.env.Background(func(ctx context.Context) func() {
		total, err := p.env.Video.FrameTotal(ctx, target)
		return func() {
			if p.env.Config.GetTargetPath() != target {
				return
			}
			if err != nil {
				p.env.ShowError(err)
				p.frame.Hide()
				p.play.Hide()
				return
			}
			p.frame.SetRange(0, float64(total), 0)
			p.frame.Show()
			p.play.Show()
			p.update(0)
		}
	})
}

func (p *Preview) highlight() int {
	if p.env.Config.IsManyFaces() {
		return -1
	}
	return p.env.Config.GetReferenceFacePosition()
}

// update shows frame n of the target with its detected faces. Results of
// superseded requests are dropped.
func (p *Preview) update(n int) {
	target := p.env.Config.GetTargetPath()
	kind := media.Detect(target)

	if kind == media.KindNone || (kind == media.KindVideo && p.env.Video == nil) {
		p.image.Hide()
		p.status.SetText("")
		return
	}

	p.seq++
	seq := p.seq
	highlight := p.highlight()

	p.env.Background(func(ctx context.Context) func() {
		var (
			img image.Image
			err error
		)
		if kind == media.KindVideo {
			img, err = p.env.Video.Frame(ctx, target, n)
		} else {
			img, err = decodeFile(target)
		}
		if err != nil {
			return func() {
				if seq == p.seq {
					p.image.Hide()
					p.status.SetText(err.Error())
				}
			}
		}

		faces := p.detect(ctx, img)
		annotated := pipeline.Annotate(img, faces, highlight)

		return func() {
			if seq != p.seq {
				return
			}
			if p.env.FaceReference != nil {
				p.env.FaceReference.Set(n, faces)
			}
			p.status.SetText(fmt.Sprintf("%d face(s) on frame %d", len(faces), n))
			showImage(p.image, annotated)
		}
	})
}

func (p *Preview) detect(ctx context.Context, img image.Image) []models.Face {
	if p.env.Detector == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, detectTimeout)
	defer cancel()

	faces, err := p.env.Detector.Detect(ctx, img)
	if err != nil {
		p.env.Logger().Warn("face detection failed", zap.Error(err))
		return nil
	}
	return faces
}

func (p *Preview) togglePlay() {
	if p.previewer != nil {
		p.stopPlayback()
		return
	}
	if err := p.startPlayback(); err != nil {
		p.env.ShowError(err)
	}
}

func (p *Preview) startPlayback() error {
	if p.env.Video == nil || p.env.Detector == nil {
		return fmt.Errorf("playback needs a video backend and an inference service")
	}

	streamer, err := p.env.Video.PreviewStream(p.env.Context(), p.env.Config.Snapshot())
	if err != nil {
		return err
	}
	if err := streamer.Start(); err != nil {
		return err
	}

	previewer := pipeline.NewPreviewer(p.env.Detector, p.highlight, 2, p.env.Logger())
	previewer.Start(streamer)

	p.previewer = previewer
	p.stopStats = make(chan struct{})
	p.play.SetText("Stop")

	go p.runStatLoop(previewer, p.stopStats)
	go p.runPlayerLoop(previewer)

	return nil
}

func (p *Preview) stopPlayback() {
	if p.previewer == nil {
		return
	}

	p.previewer.Stop()
	close(p.stopStats)
	p.previewer = nil
	p.play.SetText("Play")
}

func (p *Preview) runStatLoop(previewer *pipeline.Previewer, stop chan struct{}) {
	ticker := time.NewTicker(statInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			stats := previewer.Stats()
			p.env.UI(func() {
				p.fps.SetText(fmt.Sprintf("FPS: %d", stats.FPS))
				p.lat.SetText(fmt.Sprintf("Latency: %v", stats.Latency.Round(time.Millisecond)))
			})
		}
	}
}

func (p *Preview) runPlayerLoop(previewer *pipeline.Previewer) {
	for frame := range previewer.OutImageStream {
		p.env.UI(func() { showImage(p.image, frame) })
	}

	select {
	case err := <-previewer.ErrChan:
		p.env.Logger().Warn("playback ended", zap.Error(err))
	default:
	}

	p.env.UI(func() {
		if p.previewer == previewer {
			p.stopPlayback()
		}
	})
}
