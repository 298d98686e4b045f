package core

import (
	"context"
	"image"
	"sync"

	"swapstudio/internal/config"
	"swapstudio/internal/models"
	"swapstudio/processing/capture"
	"swapstudio/processing/frame"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/dialog"
	"go.uber.org/zap"
)

// Runner executes jobs on the inference service.
type Runner interface {
	Run(ctx context.Context, job models.Job, onProgress func(models.Progress)) (models.Result, error)
	Providers(ctx context.Context) ([]string, error)
}

type FaceDetector interface {
	Detect(ctx context.Context, img image.Image) ([]models.Face, error)
}

// VideoBackend reads frames and metadata of video files.
type VideoBackend interface {
	FrameTotal(ctx context.Context, path string) (int, error)
	Frame(ctx context.Context, path string, n int) (image.Image, error)
	PreviewStream(ctx context.Context, s config.Settings) (capture.VideoStreamer, error)
}

type History interface {
	Record(ctx context.Context, e models.HistoryEntry) error
	Recent(ctx context.Context, limit int) ([]models.HistoryEntry, error)
}

// Env is handed to every layout and panel. Optional services may be nil;
// panels skip what they cannot do.
type Env struct {
	Config        *config.Config
	Registry      *Registry
	Window        fyne.Window
	Log           *zap.Logger
	Processors    *frame.Loader
	Runner        Runner
	Detector      FaceDetector
	Video         VideoBackend
	History       History
	FaceReference *FaceReference

	// Ctx bounds background work. Nil means context.Background.
	Ctx context.Context

	// Synchronous runs background work inline, for tests.
	Synchronous bool

	mu      sync.Mutex
	closers []func()
}

func (e *Env) Context() context.Context {
	if e.Ctx == nil {
		return context.Background()
	}
	return e.Ctx
}

func (e *Env) Logger() *zap.Logger {
	if e.Log == nil {
		return zap.NewNop()
	}
	return e.Log
}

// Background runs work off the UI goroutine and applies the returned
// function, if any, on it.
func (e *Env) Background(work func(ctx context.Context) func()) {
	if e.Synchronous {
		if apply := work(e.Context()); apply != nil {
			apply()
		}
		return
	}

	go func() {
		if apply := work(e.Context()); apply != nil {
			fyne.Do(apply)
		}
	}()
}

// UI runs fn on the UI goroutine.
func (e *Env) UI(fn func()) {
	if e.Synchronous {
		fn()
		return
	}
	fyne.Do(fn)
}

func (e *Env) ShowError(err error) {
	if err == nil {
		return
	}
	e.Logger().Error("ui error", zap.Error(err))
	if e.Window != nil {
		dialog.ShowError(err, e.Window)
	}
}

// OnClose registers fn to run when the application shuts down.
func (e *Env) OnClose(fn func()) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closers = append(e.closers, fn)
}

// Close runs the shutdown hooks in reverse registration order.
func (e *Env) Close() {
	e.mu.Lock()
	closers := e.closers
	e.closers = nil
	e.mu.Unlock()

	for i := len(closers) - 1; i >= 0; i-- {
		closers[i]()
	}
}
