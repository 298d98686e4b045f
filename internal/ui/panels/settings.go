package panels

import (
	"context"
	"slices"
	"time"

	"swapstudio/internal/config"
	"swapstudio/internal/ui/core"
	"swapstudio/internal/ui/cwidget"
	"swapstudio/processing/frame"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
	"go.uber.org/zap"
)

const (
	preCheckTimeout  = 30 * time.Second
	providersTimeout = 3 * time.Second
	watchDebounce    = 300 * time.Millisecond
)

type Settings struct {
	env *core.Env

	frameProcessors *cwidget.Choices
	providers       *cwidget.Choices
	threadCount     *cwidget.Slider
	queueCount      *cwidget.Slider

	keepFPS   *cwidget.Toggle
	keepTemp  *cwidget.Toggle
	skipAudio *cwidget.Toggle
	manyFaces *cwidget.Toggle

	loadSeq int
}

func NewSettings(env *core.Env) *Settings {
	return &Settings{env: env}
}

func (p *Settings) Render() fyne.CanvasObject {
	cfg := p.env.Config
	s := cfg.Snapshot()

	p.frameProcessors = cwidget.NewChoices(p.processorChoices(s.FrameProcessors), s.FrameProcessors)
	p.providers = cwidget.NewChoices(s.ExecutionProviders, s.ExecutionProviders)
	p.loadProviders()

	p.threadCount = cwidget.NewSlider("EXECUTION THREAD COUNT",
		config.MinExecutionThreadCount, config.MaxExecutionThreadCount, 1, float64(s.ExecutionThreadCount))
	p.queueCount = cwidget.NewSlider("EXECUTION QUEUE COUNT",
		config.MinExecutionQueueCount, config.MaxExecutionQueueCount, 1, float64(s.ExecutionQueueCount))

	p.keepFPS = cwidget.NewToggle("KEEP FPS", s.KeepFPS)
	p.keepTemp = cwidget.NewToggle("KEEP TEMP", s.KeepTemp)
	p.skipAudio = cwidget.NewToggle("SKIP AUDIO", s.SkipAudio)
	p.manyFaces = cwidget.NewToggle("MANY FACES", s.ManyFaces)

	p.env.Registry.Register(core.FrameProcessorsCheckboxGroup, p.frameProcessors)
	p.env.Registry.Register(core.ManyFacesCheckbox, p.manyFaces)

	return container.NewVBox(
		widget.NewCard("FRAME PROCESSORS", "", p.frameProcessors),
		widget.NewCard("EXECUTION PROVIDERS", "", p.providers),
		p.threadCount,
		p.queueCount,
		container.NewGridWithColumns(2, p.keepFPS, p.keepTemp, p.skipAudio, p.manyFaces),
	)
}

func (p *Settings) Listen() {
	cfg := p.env.Config

	p.frameProcessors.AddListener(p.updateFrameProcessors)
	p.providers.AddListener(cfg.SetExecutionProviders)
	p.threadCount.AddListener(func(v float64) { cfg.SetExecutionThreadCount(int(v)) })
	p.queueCount.AddListener(func(v float64) { cfg.SetExecutionQueueCount(int(v)) })

	p.keepFPS.AddListener(p.updateFlag(config.FlagKeepFPS))
	p.keepTemp.AddListener(p.updateFlag(config.FlagKeepTemp))
	p.skipAudio.AddListener(p.updateFlag(config.FlagSkipAudio))
	p.manyFaces.AddListener(p.updateFlag(config.FlagManyFaces))

	p.watchPlugins()
}

func (p *Settings) processorChoices(selected []string) []string {
	if p.env.Processors == nil {
		return slices.Clone(selected)
	}
	return frame.Sort(p.env.Processors.ListNames(), selected)
}

// updateFrameProcessors reloads the selected modules off the UI goroutine
// and re-sorts the checklist so the selection stays on top. Results of a
// superseded selection are dropped.
func (p *Settings) updateFrameProcessors(selected []string) {
	p.env.Config.SetFrameProcessors(selected)
	p.loadSeq++
	seq := p.loadSeq

	p.env.Background(func(ctx context.Context) func() {
		err := p.loadFrameProcessors(ctx, selected)
		return func() {
			if seq != p.loadSeq {
				return
			}
			if err != nil {
				p.env.ShowError(err)
			}
			p.frameProcessors.Update(p.processorChoices(selected), selected)
		}
	})
}

func (p *Settings) loadFrameProcessors(ctx context.Context, selected []string) error {
	if p.env.Processors == nil {
		return nil
	}
	p.env.Processors.Clear()

	ctx, cancel := context.WithTimeout(ctx, preCheckTimeout)
	defer cancel()
	_, err := p.env.Processors.LoadAll(ctx, selected)
	return err
}

func (p *Settings) updateFlag(name config.Flag) func(bool) {
	return func(v bool) {
		if err := p.env.Config.SetFlag(name, v); err != nil {
			p.env.ShowError(err)
		}
	}
}

// loadProviders asks the inference service for its execution providers and
// keeps the configured ones when it cannot answer.
func (p *Settings) loadProviders() {
	if p.env.Runner == nil {
		return
	}

	p.env.Background(func(ctx context.Context) func() {
		ctx, cancel := context.WithTimeout(ctx, providersTimeout)
		defer cancel()

		available, err := p.env.Runner.Providers(ctx)
		if err != nil {
			p.env.Logger().Warn("execution providers unavailable", zap.Error(err))
			return nil
		}

		return func() {
			selected := p.env.Config.GetExecutionProviders()
			options := slices.Clone(available)
			for _, name := range selected {
				if !slices.Contains(options, name) {
					options = append(options, name)
				}
			}
			p.providers.Update(options, selected)
		}
	})
}

func (p *Settings) refreshFrameProcessors() {
	if p.env.Processors != nil {
		p.env.Processors.Clear()
	}
	selected := p.env.Config.GetFrameProcessors()
	p.frameProcessors.Update(p.processorChoices(selected), selected)
}

func (p *Settings) watchPlugins() {
	if p.env.Processors == nil || p.env.Processors.PluginDir() == "" {
		return
	}

	log := p.env.Logger()
	w, err := frame.NewWatcher(p.env.Processors.PluginDir(), watchDebounce, func() {
		p.env.UI(p.refreshFrameProcessors)
	}, log)
	if err == nil {
		err = w.Start()
	}
	if err != nil {
		log.Warn("plugin dir not watched", zap.String("dir", p.env.Processors.PluginDir()), zap.Error(err))
		return
	}
	p.env.OnClose(w.Stop)
}
