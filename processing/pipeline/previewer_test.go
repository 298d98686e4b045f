package pipeline

import (
	"context"
	"image"
	"image/color"
	"sync/atomic"
	"testing"
	"time"

	"swapstudio/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

type fakeStreamer struct {
	frames  chan image.Image
	errs    chan error
	stopped atomic.Bool
}

func newFakeStreamer() *fakeStreamer {
	return &fakeStreamer{frames: make(chan image.Image), errs: make(chan error, 1)}
}

func (f *fakeStreamer) Start() error                  { return nil }
func (f *fakeStreamer) Stop()                         { f.stopped.Store(true) }
func (f *fakeStreamer) FrameChan() <-chan image.Image { return f.frames }
func (f *fakeStreamer) ErrorChan() <-chan error       { return f.errs }

type fakeDetector struct {
	faces []models.Face
	calls atomic.Int32
}

func (d *fakeDetector) Detect(ctx context.Context, img image.Image) ([]models.Face, error) {
	d.calls.Add(1)
	return d.faces, nil
}

func TestPreviewerAnnotatesFrames(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	det := &fakeDetector{faces: []models.Face{{Score: 1, Box: []float32{0.25, 0.25, 0.75, 0.75}}}}
	in := newFakeStreamer()

	p := NewPreviewer(det, func() int { return 0 }, 1, nil)
	p.Start(in)
	assert.True(t, p.Stats().Active)

	deadline := time.After(3 * time.Second)
	found := false
	for !found {
		select {
		case in.frames <- image.NewRGBA(image.Rect(0, 0, 40, 40)):
		case <-deadline:
			t.Fatal("no annotated frame")
		}

		out := <-p.OutImageStream
		found = out.At(10, 10) == color.Color(referenceColor)
	}

	close(in.frames)
	for range p.OutImageStream {
	}

	p.Stop()
	assert.False(t, p.Stats().Active)
	assert.True(t, in.stopped.Load())
	assert.GreaterOrEqual(t, det.calls.Load(), int32(1))
}

func TestPreviewerStopsOnStreamError(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	in := newFakeStreamer()
	p := NewPreviewer(&fakeDetector{}, nil, 1, nil)
	p.Start(in)

	in.errs <- assert.AnError

	select {
	case err := <-p.ErrChan:
		assert.ErrorIs(t, err, assert.AnError)
	case <-time.After(2 * time.Second):
		t.Fatal("stream error not forwarded")
	}

	p.Stop()
	assert.False(t, p.Stats().Active)
}

func TestAnnotate(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 20, 20))
	faces := []models.Face{
		{Box: []float32{0, 0, 0.5, 0.5}},
		{Box: []float32{0.5, 0.5, 0.95, 0.95}},
		{Box: []float32{0.1}},
	}

	out := Annotate(src, faces, 1)

	assert.Equal(t, color.RGBA(faceColor), out.RGBAAt(0, 0))
	assert.Equal(t, color.RGBA(referenceColor), out.RGBAAt(10, 10))
	assert.Equal(t, color.RGBA{}, src.RGBAAt(0, 0), "source is left untouched")
}

func TestFaceScale(t *testing.T) {
	box, ok := models.Face{Box: []float32{0.5, 0.25, 1, 0.75}}.Scale(100, 200)
	require.True(t, ok)
	assert.Equal(t, models.Box{X1: 25, Y1: 100, X2: 75, Y2: 200}, box)

	_, ok = models.Face{}.Scale(10, 10)
	assert.False(t, ok)
}
