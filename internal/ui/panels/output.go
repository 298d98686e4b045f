package panels

import (
	"context"
	"fmt"
	"os"
	"time"

	"swapstudio/internal/media"
	"swapstudio/internal/models"
	"swapstudio/internal/ui/core"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const historySize = 10

type Output struct {
	env *core.Env

	start     *widget.Button
	clear     *widget.Button
	outputDir *widget.Entry
	progress  *widget.ProgressBar
	image     *canvas.Image
	video     *videoView
	history   *widget.List

	entries []models.HistoryEntry
	running bool
}

func NewOutput(env *core.Env) *Output {
	return &Output{env: env}
}

func (p *Output) Render() fyne.CanvasObject {
	p.start = widget.NewButton("Start", nil)
	p.start.Importance = widget.HighImportance
	p.clear = widget.NewButton("Clear", nil)

	p.outputDir = widget.NewEntry()
	p.outputDir.SetPlaceHolder("output directory")
	p.outputDir.SetText(p.env.Config.GetOutputDir())

	p.progress = widget.NewProgressBar()
	p.progress.Hide()

	p.image = newImage(previewSize)
	p.image.Hide()
	p.video = newVideoView(p.env)

	p.history = widget.NewList(
		func() int { return len(p.entries) },
		func() fyne.CanvasObject { return widget.NewLabel("") },
		func(id widget.ListItemID, o fyne.CanvasObject) {
			o.(*widget.Label).SetText(formatEntry(p.entries[id], time.Now()))
		},
	)
	p.refreshHistory()

	controls := container.NewBorder(nil, nil, widget.NewLabel("OUTPUT"), container.NewHBox(p.start, p.clear), p.outputDir)
	results := container.NewGridWithColumns(2, container.NewVBox(p.image, p.video.box), p.history)
	return container.NewVBox(controls, p.progress, results)
}

func (p *Output) Listen() {
	p.start.OnTapped = p.Start
	p.clear.OnTapped = p.Clear
	p.outputDir.OnChanged = p.env.Config.SetOutputDir
}

// Start runs the pipeline for the current source and target and shows the
// result once it finishes.
func (p *Output) Start() {
	if p.running {
		return
	}
	p.running = true
	p.start.Disable()
	p.progress.SetValue(0)
	p.progress.Show()

	p.env.Background(func(ctx context.Context) func() {
		path, err := p.run(ctx, func(pr models.Progress) {
			p.env.UI(func() { p.progress.SetValue(pr.Fraction()) })
		})

		return func() {
			p.running = false
			p.start.Enable()
			p.progress.Hide()
			p.show(path, err)
			p.refreshHistory()
		}
	})
}

func (p *Output) Clear() {
	p.image.Hide()
	p.video.Hide()
}

func (p *Output) run(ctx context.Context, onProgress func(models.Progress)) (string, error) {
	cfg := p.env.Config
	log := p.env.Logger()

	output := media.NormalizeOutputPath(cfg.GetSourcePath(), cfg.GetTargetPath(), cfg.GetOutputDir())
	cfg.SetOutputPath(output)
	if output == "" {
		return "", nil
	}
	if p.env.Runner == nil {
		return "", fmt.Errorf("no inference service configured")
	}

	if p.env.Processors != nil {
		modules, err := p.env.Processors.LoadAll(ctx, cfg.GetFrameProcessors())
		if err != nil {
			return "", err
		}

		s := cfg.Snapshot()
		for _, m := range modules {
			if err := m.PreStart(ctx, s); err != nil {
				return "", fmt.Errorf("%s: %w", m.Name(), err)
			}
		}
		defer func() {
			for _, m := range modules {
				m.PostProcess(ctx)
			}
		}()
	}

	job := cfg.Job(uuid.NewString())
	started := time.Now()
	log.Info("starting job", zap.String("id", job.ID), zap.String("output", job.OutputPath))

	res, err := p.env.Runner.Run(ctx, job, onProgress)
	if res.OutputPath == "" {
		res.OutputPath = output
	}
	p.record(ctx, job, res, started, err)

	if err != nil {
		return "", err
	}
	return res.OutputPath, nil
}

func (p *Output) record(ctx context.Context, job models.Job, res models.Result, started time.Time, runErr error) {
	if p.env.History == nil {
		return
	}

	e := models.HistoryEntry{
		ID:         job.ID,
		SourcePath: job.SourcePath,
		TargetPath: job.TargetPath,
		OutputPath: res.OutputPath,
		Status:     models.RunSucceeded,
		StartedAt:  started,
		Duration:   time.Since(started),
	}
	if runErr != nil {
		e.Status = models.RunFailed
		e.Error = runErr.Error()
	} else if fi, err := os.Stat(res.OutputPath); err == nil {
		e.OutputSize = fi.Size()
	}

	if err := p.env.History.Record(ctx, e); err != nil {
		p.env.Logger().Warn("failed to record run", zap.Error(err))
	}
}

func (p *Output) show(path string, err error) {
	if err != nil {
		p.Clear()
		p.env.ShowError(err)
		return
	}

	switch {
	case path != "" && media.HasImageExtension(path):
		showFile(p.image, path)
		p.video.Hide()
	case path != "" && media.HasVideoExtension(path):
		p.image.Hide()
		p.video.Show(path)
	default:
		p.Clear()
	}
}

func (p *Output) refreshHistory() {
	if p.env.History == nil {
		return
	}

	p.env.Background(func(ctx context.Context) func() {
		entries, err := p.env.History.Recent(ctx, historySize)
		if err != nil {
			p.env.Logger().Warn("failed to read history", zap.Error(err))
			return nil
		}
		return func() {
			p.entries = entries
			p.history.Refresh()
		}
	})
}

func formatEntry(e models.HistoryEntry, now time.Time) string {
	name := e.OutputPath
	if name == "" {
		name = e.TargetPath
	}

	if e.Status == models.RunFailed {
		return fmt.Sprintf("failed  %s  %s: %s", humanize.RelTime(e.StartedAt, now, "ago", "from now"), name, e.Error)
	}
	return fmt.Sprintf("done  %s  %s  %s in %s",
		humanize.RelTime(e.StartedAt, now, "ago", "from now"), name,
		humanize.Bytes(uint64(e.OutputSize)), e.Duration.Round(time.Second))
}
