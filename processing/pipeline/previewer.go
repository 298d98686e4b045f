package pipeline

import (
	"context"
	"image"
	"sync"
	"time"

	"swapstudio/internal/models"
	stream "swapstudio/processing/capture"

	"go.uber.org/zap"
)

type FaceDetector interface {
	Detect(ctx context.Context, img image.Image) ([]models.Face, error)
}

// Previewer plays frames from a streamer, detecting faces in the background
// and drawing the most recent detections onto every frame it emits.
type Previewer struct {
	InImageStream  stream.VideoStreamer
	OutImageStream chan image.Image
	ErrChan        chan error

	det       FaceDetector
	highlight func() int
	log       *zap.Logger

	mu        sync.RWMutex
	latency   time.Duration
	fps       uint
	active    bool
	lastFaces []models.Face

	stopOnce sync.Once
	stopChan chan struct{}
	wg       sync.WaitGroup
}

// NewPreviewer creates a previewer. highlight returns the index of the face
// to mark as the reference; it may be nil.
func NewPreviewer(det FaceDetector, highlight func() int, buffer int, log *zap.Logger) *Previewer {
	if highlight == nil {
		highlight = func() int { return -1 }
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &Previewer{
		OutImageStream: make(chan image.Image, max(buffer, 1)),
		ErrChan:        make(chan error, 1),
		det:            det,
		highlight:      highlight,
		log:            log,
		stopChan:       make(chan struct{}),
	}
}

type Stats struct {
	Latency time.Duration
	FPS     uint
	Active  bool
}

func (p *Previewer) Stats() Stats {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return Stats{Latency: p.latency, FPS: p.fps, Active: p.active}
}

func (p *Previewer) Faces() []models.Face {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.lastFaces
}

// Start consumes in until it ends or Stop is called. A previewer runs once.
func (p *Previewer) Start(in stream.VideoStreamer) {
	p.InImageStream = in

	ctx, cancel := context.WithCancel(context.Background())
	detectChan := make(chan image.Image, 1)

	p.mu.Lock()
	p.active = true
	p.mu.Unlock()

	p.wg.Add(2)

	go func() {
		defer p.wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case frame := <-detectChan:
				faces, err := p.det.Detect(ctx, frame)
				if err != nil {
					if ctx.Err() == nil {
						p.log.Debug("preview detection failed", zap.Error(err))
					}
					continue
				}
				p.mu.Lock()
				p.lastFaces = faces
				p.mu.Unlock()
			}
		}
	}()

	go func() {
		defer p.wg.Done()
		defer cancel()
		defer close(p.OutImageStream)
		defer func() {
			p.mu.Lock()
			p.active = false
			p.mu.Unlock()
		}()

		frames := p.InImageStream.FrameChan()
		errs := p.InImageStream.ErrorChan()

		var frameCount uint = 0
		lastFpsUpdate := time.Now()

		for {
			select {
			case frame, ok := <-frames:
				if !ok {
					return
				}
				if frame == nil {
					continue
				}

				start := time.Now()

				select {
				case detectChan <- frame:
				default:
				}

				annotated := Annotate(frame, p.Faces(), p.highlight())

				p.mu.Lock()
				p.latency = time.Since(start)
				p.mu.Unlock()

				select {
				case p.OutImageStream <- annotated:
				case <-p.stopChan:
					return
				}

				frameCount++
				if time.Since(lastFpsUpdate) >= time.Second {
					p.mu.Lock()
					p.fps = frameCount
					p.mu.Unlock()
					frameCount = 0
					lastFpsUpdate = time.Now()
				}

			case err, ok := <-errs:
				if !ok {
					errs = nil
					continue
				}
				if err != nil {
					p.log.Warn("preview stream error", zap.Error(err))
					select {
					case p.ErrChan <- err:
					default:
					}
					return
				}

			case <-p.stopChan:
				return
			}
		}
	}()
}

// Stop halts the loops and the underlying streamer and waits for both loops
// to exit.
func (p *Previewer) Stop() {
	p.stopOnce.Do(func() {
		close(p.stopChan)
		if p.InImageStream != nil {
			p.InImageStream.Stop()
		}
	})
	p.wg.Wait()
}
