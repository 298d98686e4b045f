package panels

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"swapstudio/internal/config"
	"swapstudio/internal/models"
	"swapstudio/internal/ui/core"
	"swapstudio/processing/capture"
	"swapstudio/processing/frame"

	"fyne.io/fyne/v2/test"
	"fyne.io/fyne/v2/widget"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type fakeVideo struct {
	total  int
	frames []int
}

func (v *fakeVideo) FrameTotal(ctx context.Context, path string) (int, error) {
	return v.total, nil
}

func (v *fakeVideo) Frame(ctx context.Context, path string, n int) (image.Image, error) {
	v.frames = append(v.frames, n)
	return solid(40, 40), nil
}

func (v *fakeVideo) PreviewStream(ctx context.Context, s config.Settings) (capture.VideoStreamer, error) {
	return nil, errors.New("no streaming in tests")
}

type fakeDetector struct {
	faces []models.Face
}

func (d *fakeDetector) Detect(ctx context.Context, img image.Image) ([]models.Face, error) {
	return d.faces, nil
}

type fakeRunner struct {
	mu   sync.Mutex
	jobs []models.Job
	err  error
}

func (r *fakeRunner) Run(ctx context.Context, job models.Job, onProgress func(models.Progress)) (models.Result, error) {
	r.mu.Lock()
	r.jobs = append(r.jobs, job)
	r.mu.Unlock()

	if r.err != nil {
		return models.Result{}, r.err
	}

	onProgress(models.Progress{Stage: "swap", Done: 1, Total: 2})
	if err := os.WriteFile(job.OutputPath, []byte("result"), 0644); err != nil {
		return models.Result{}, err
	}
	return models.Result{OutputPath: job.OutputPath}, nil
}

func (r *fakeRunner) Providers(ctx context.Context) ([]string, error) {
	return []string{"cuda", "cpu"}, nil
}

type fakeHistory struct {
	entries []models.HistoryEntry
}

func (h *fakeHistory) Record(ctx context.Context, e models.HistoryEntry) error {
	h.entries = append([]models.HistoryEntry{e}, h.entries...)
	return nil
}

func (h *fakeHistory) Recent(ctx context.Context, limit int) ([]models.HistoryEntry, error) {
	return h.entries[:min(limit, len(h.entries))], nil
}

type fixture struct {
	env     *core.Env
	dir     string
	image   string
	image2  string
	video   string
	videos  *fakeVideo
	runner  *fakeRunner
	history *fakeHistory
}

func newFixture(t *testing.T) *fixture {
	test.NewTempApp(t)

	dir := t.TempDir()
	modelsDir := filepath.Join(dir, "models")
	require.NoError(t, os.MkdirAll(modelsDir, 0755))
	for _, name := range []string{"inswapper_128.onnx", "GFPGANv1.4.pth"} {
		require.NoError(t, os.WriteFile(filepath.Join(modelsDir, name), []byte("model"), 0644))
	}

	f := &fixture{
		dir:     dir,
		image:   writePNG(t, filepath.Join(dir, "face.png")),
		image2:  writePNG(t, filepath.Join(dir, "crowd.png")),
		video:   filepath.Join(dir, "clip.mp4"),
		videos:  &fakeVideo{total: 120},
		runner:  &fakeRunner{},
		history: &fakeHistory{},
	}
	require.NoError(t, os.WriteFile(f.video, []byte("not really a video"), 0644))

	cfg := config.NewDefaultConfig()
	cfg.SetOutputDir(filepath.Join(dir, "out"))
	require.NoError(t, os.MkdirAll(cfg.GetOutputDir(), 0755))

	f.env = &core.Env{
		Config:        cfg,
		Registry:      core.NewRegistry(),
		Window:        test.NewTempWindow(t, widget.NewLabel("")),
		Log:           zaptest.NewLogger(t),
		Processors:    frame.NewLoader(frame.Options{ModelsDir: modelsDir}, nil),
		Runner:        f.runner,
		Detector:      &fakeDetector{faces: []models.Face{{Score: 0.9, Box: []float32{0.1, 0.1, 0.5, 0.5}}}},
		Video:         f.videos,
		History:       f.history,
		FaceReference: core.NewFaceReference(),
		Synchronous:   true,
	}
	t.Cleanup(f.env.Close)

	return f
}

// mount renders every panel before wiring any of them, the way layouts do.
func mount(panels ...core.Panel) {
	for _, p := range panels {
		p.Render()
	}
	for _, p := range panels {
		p.Listen()
	}
}

func solid(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.Set(x, y, color.RGBA{R: 90, G: 90, B: 200, A: 255})
		}
	}
	return img
}

func writePNG(t *testing.T, path string) string {
	t.Helper()

	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, solid(16, 16)))
	return path
}
