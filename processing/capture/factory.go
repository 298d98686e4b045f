package capture

import (
	"context"
	"fmt"

	"swapstudio/internal/config"
	"swapstudio/internal/media"
)

// NewPreviewStreamer streams the trimmed range of the target video.
func NewPreviewStreamer(ctx context.Context, ff *FFmpeg, s config.Settings, fps uint, width int) (VideoStreamer, error) {
	if !media.IsVideo(s.TargetPath) {
		return nil, fmt.Errorf("target is not a video: %q", s.TargetPath)
	}

	return NewLocalStreamer(ctx, ff, previewOptions(s, fps, width))
}

func previewOptions(s config.Settings, fps uint, width int) StreamOptions {
	opts := StreamOptions{
		Path:  s.TargetPath,
		FPS:   fps,
		Width: width,
	}
	if s.TrimFrameStart != nil {
		opts.StartFrame = *s.TrimFrameStart
	}
	if s.TrimFrameEnd != nil {
		opts.EndFrame = *s.TrimFrameEnd
	}
	return opts
}

const (
	PreviewFPS   uint = 15
	PreviewWidth      = 640
)

// PreviewStream streams the target of s at preview size and rate.
func (f *FFmpeg) PreviewStream(ctx context.Context, s config.Settings) (VideoStreamer, error) {
	return NewPreviewStreamer(ctx, f, s, PreviewFPS, PreviewWidth)
}
