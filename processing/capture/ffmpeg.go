package capture

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"os/exec"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// FFmpeg runs the ffmpeg and ffprobe binaries for probing and decoding.
type FFmpeg struct {
	FFmpegPath  string
	FFprobePath string

	log *zap.Logger
}

func NewFFmpeg(ffmpegPath, ffprobePath string, log *zap.Logger) *FFmpeg {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &FFmpeg{FFmpegPath: ffmpegPath, FFprobePath: ffprobePath, log: log}
}

type VideoInfo struct {
	Width      int
	Height     int
	FrameTotal int
	FPS        float64
}

type probeData struct {
	Streams []struct {
		Width         int    `json:"width"`
		Height        int    `json:"height"`
		NbFrames      string `json:"nb_frames"`
		NbReadPackets string `json:"nb_read_packets"`
		RFrameRate    string `json:"r_frame_rate"`
	} `json:"streams"`
}

func (f *FFmpeg) Probe(ctx context.Context, path string) (VideoInfo, error) {
	cmd := exec.CommandContext(ctx, f.FFprobePath,
		"-v", "error",
		"-select_streams", "v:0",
		"-count_packets",
		"-show_entries", "stream=width,height,nb_frames,nb_read_packets,r_frame_rate",
		"-of", "json",
		path,
	)

	f.log.Debug("probing video", zap.String("path", path))

	output, err := cmd.Output()
	if err != nil {
		return VideoInfo{}, fmt.Errorf("ffprobe %s: %w", path, err)
	}

	return parseProbe(output)
}

func parseProbe(output []byte) (VideoInfo, error) {
	var data probeData
	if err := json.Unmarshal(output, &data); err != nil {
		return VideoInfo{}, err
	}

	if len(data.Streams) == 0 {
		return VideoInfo{}, fmt.Errorf("no video streams found")
	}

	s := data.Streams[0]
	info := VideoInfo{
		Width:  s.Width,
		Height: s.Height,
		FPS:    parseRate(s.RFrameRate),
	}

	if n, err := strconv.Atoi(s.NbFrames); err == nil && n > 0 {
		info.FrameTotal = n
	} else if n, err := strconv.Atoi(s.NbReadPackets); err == nil {
		info.FrameTotal = n
	}

	return info, nil
}

func parseRate(rate string) float64 {
	num, den, found := strings.Cut(rate, "/")
	n, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0
	}
	if !found {
		return n
	}
	d, err := strconv.ParseFloat(den, 64)
	if err != nil || d == 0 {
		return 0
	}
	return n / d
}

// FrameTotal reports the number of frames of the video at path.
func (f *FFmpeg) FrameTotal(ctx context.Context, path string) (int, error) {
	info, err := f.Probe(ctx, path)
	if err != nil {
		return 0, err
	}
	return info.FrameTotal, nil
}

// Frame decodes frame number n of the video at path.
func (f *FFmpeg) Frame(ctx context.Context, path string, n int) (image.Image, error) {
	cmd := exec.CommandContext(ctx, f.FFmpegPath, frameArgs(path, n)...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("ffmpeg frame %d of %s: %w. Details: %s", n, path, err, stderr.String())
	}

	img, err := png.Decode(&stdout)
	if err != nil {
		return nil, fmt.Errorf("decode frame %d of %s: %w", n, path, err)
	}

	return img, nil
}

func frameArgs(path string, n int) []string {
	return []string{
		"-v", "error",
		"-i", path,
		"-vf", fmt.Sprintf(`select=eq(n\,%d)`, max(n, 0)),
		"-vsync", "0",
		"-frames:v", "1",
		"-f", "image2pipe",
		"-vcodec", "png",
		"-",
	}
}
