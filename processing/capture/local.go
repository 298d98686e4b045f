package capture

import (
	"context"
	"fmt"
	"image"
	"io"
	"os/exec"
	"sync"
	"time"
)

// StreamOptions selects the part of a video to stream and its output size.
// EndFrame <= 0 streams to the end of the file. Height <= 0 keeps the aspect
// ratio of the source.
type StreamOptions struct {
	Path       string
	StartFrame int
	EndFrame   int
	FPS        uint
	Width      int
	Height     int
}

type LocalFileStreamer struct {
	stopOnce sync.Once

	bin  string
	opts StreamOptions

	cmd       *exec.Cmd
	frameChan chan image.Image
	errChan   chan error
	stopChan  chan struct{}
}

func NewLocalStreamer(ctx context.Context, ff *FFmpeg, opts StreamOptions) (*LocalFileStreamer, error) {
	info, err := ff.Probe(ctx, opts.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to probe video: %w", err)
	}

	if opts.FPS == 0 {
		opts.FPS = standartFps
	}
	if opts.Width <= 0 {
		opts.Width = info.Width
	}
	if opts.Height <= 0 {
		opts.Height = scaledHeight(info.Width, info.Height, opts.Width)
	}
	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, fmt.Errorf("invalid frame size %dx%d", opts.Width, opts.Height)
	}

	return &LocalFileStreamer{
		bin:       ff.FFmpegPath,
		opts:      opts,
		frameChan: make(chan image.Image, 10),
		errChan:   make(chan error, 1),
		stopChan:  make(chan struct{}),
	}, nil
}

// scaledHeight keeps the aspect ratio and rounds to an even number, which
// most encoders require.
func scaledHeight(srcWidth, srcHeight, width int) int {
	if srcWidth <= 0 || srcHeight <= 0 {
		return 0
	}
	h := width * srcHeight / srcWidth
	return max(h-h%2, 2)
}

func streamArgs(opts StreamOptions) []string {
	trim := fmt.Sprintf("trim=start_frame=%d", max(opts.StartFrame, 0))
	if opts.EndFrame > 0 {
		trim += fmt.Sprintf(":end_frame=%d", opts.EndFrame)
	}

	return []string{
		"-v", "error",
		"-i", opts.Path,
		"-vf", fmt.Sprintf("%s,setpts=PTS-STARTPTS,fps=%d,scale=%d:%d:flags=neighbor",
			trim, opts.FPS, opts.Width, opts.Height),
		"-an",
		"-f", "image2pipe",
		"-pix_fmt", "rgba",
		"-vcodec", "rawvideo",
		"-",
	}
}

func (ls *LocalFileStreamer) Start() error {
	ls.cmd = exec.Command(ls.bin, streamArgs(ls.opts)...)

	stdout, err := ls.cmd.StdoutPipe()
	if err != nil {
		return err
	}

	if err := ls.cmd.Start(); err != nil {
		return err
	}

	go ls.readFrames(stdout)

	return nil
}

const (
	bytePerPixel int  = 4
	standartFps  uint = 30
)

func (ls *LocalFileStreamer) readFrames(stdout io.ReadCloser) {
	defer close(ls.frameChan)
	defer close(ls.errChan)
	defer stdout.Close()
	defer ls.stopCmdOut()

	width := ls.opts.Width
	height := ls.opts.Height
	frameSize := width * height * bytePerPixel
	buffer := make([]byte, frameSize)

	frameDuration := time.Second / time.Duration(ls.opts.FPS)
	ticker := time.NewTicker(frameDuration)
	defer ticker.Stop()

	for {
		select {
		case <-ls.stopChan:
			return

		case <-ticker.C:
			_, err := io.ReadFull(stdout, buffer)
			if err == io.EOF {
				return
			}
			if err != nil {
				select {
				case <-ls.stopChan:
					return
				default:
					ls.errChan <- fmt.Errorf("read error: %w", err)
					return
				}
			}

			pixelData := make([]byte, len(buffer))
			copy(pixelData, buffer)

			img := &image.RGBA{
				Pix:    pixelData,
				Stride: width * bytePerPixel,
				Rect:   image.Rect(0, 0, width, height),
			}

			select {
			case ls.frameChan <- img:
			case <-ls.stopChan:
				return
			}
		}
	}
}

func (ls *LocalFileStreamer) stopCmdOut() {
	if ls.cmd != nil && ls.cmd.Process != nil {
		ls.cmd.Process.Kill()
		ls.cmd.Wait()
	}
}

func (ls *LocalFileStreamer) Stop() {
	ls.stopOnce.Do(func() {
		close(ls.stopChan)
		if ls.cmd != nil && ls.cmd.Process != nil {
			ls.cmd.Process.Kill()
		}
	})
}

func (ls *LocalFileStreamer) FrameChan() <-chan image.Image {
	return ls.frameChan
}

func (ls *LocalFileStreamer) ErrorChan() <-chan error {
	return ls.errChan
}
