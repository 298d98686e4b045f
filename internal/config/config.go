package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"swapstudio/internal/models"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

const (
	DefaultConfigPath   string = "config.json"
	DefaultPipelineAddr string = "localhost:8080"

	MinExecutionThreadCount = 1
	MaxExecutionThreadCount = 128
	MinExecutionQueueCount  = 1
	MaxExecutionQueueCount  = 16

	MinSimilarFaceDistance = 0.0
	MaxSimilarFaceDistance = 1.5
)

type Flag string

const (
	FlagKeepFPS   Flag = "keep_fps"
	FlagKeepTemp  Flag = "keep_temp"
	FlagSkipAudio Flag = "skip_audio"
	FlagManyFaces Flag = "many_faces"
)

var ErrUnknownFlag = errors.New("unknown flag")

// Settings is the plain, copyable form of the session state.
type Settings struct {
	SourcePath string `json:"source_path" toml:"source_path" yaml:"source_path"`
	TargetPath string `json:"target_path" toml:"target_path" yaml:"target_path"`
	OutputPath string `json:"output_path" toml:"output_path" yaml:"output_path"`
	OutputDir  string `json:"output_dir" toml:"output_dir" yaml:"output_dir"`

	FrameProcessors    []string `json:"frame_processors" toml:"frame_processors" yaml:"frame_processors"`
	UILayouts          []string `json:"ui_layouts" toml:"ui_layouts" yaml:"ui_layouts"`
	ExecutionProviders []string `json:"execution_providers" toml:"execution_providers" yaml:"execution_providers"`

	ExecutionThreadCount int `json:"execution_thread_count" toml:"execution_thread_count" yaml:"execution_thread_count"`
	ExecutionQueueCount  int `json:"execution_queue_count" toml:"execution_queue_count" yaml:"execution_queue_count"`

	KeepFPS   bool `json:"keep_fps" toml:"keep_fps" yaml:"keep_fps"`
	KeepTemp  bool `json:"keep_temp" toml:"keep_temp" yaml:"keep_temp"`
	SkipAudio bool `json:"skip_audio" toml:"skip_audio" yaml:"skip_audio"`
	ManyFaces bool `json:"many_faces" toml:"many_faces" yaml:"many_faces"`

	TrimFrameStart *int `json:"trim_frame_start,omitempty" toml:"trim_frame_start,omitempty" yaml:"trim_frame_start,omitempty"`
	TrimFrameEnd   *int `json:"trim_frame_end,omitempty" toml:"trim_frame_end,omitempty" yaml:"trim_frame_end,omitempty"`

	ReferenceFacePosition int     `json:"reference_face_position" toml:"reference_face_position" yaml:"reference_face_position"`
	ReferenceFrameNumber  int     `json:"reference_frame_number" toml:"reference_frame_number" yaml:"reference_frame_number"`
	SimilarFaceDistance   float64 `json:"similar_face_distance" toml:"similar_face_distance" yaml:"similar_face_distance"`

	PipelineAddr string `json:"pipeline_addr" toml:"pipeline_addr" yaml:"pipeline_addr"`
	PluginDir    string `json:"plugin_dir" toml:"plugin_dir" yaml:"plugin_dir"`
	ModelsDir    string `json:"models_dir" toml:"models_dir" yaml:"models_dir"`
	HistoryPath  string `json:"history_path" toml:"history_path" yaml:"history_path"`
	FFmpegPath   string `json:"ffmpeg_path" toml:"ffmpeg_path" yaml:"ffmpeg_path"`
	FFprobePath  string `json:"ffprobe_path" toml:"ffprobe_path" yaml:"ffprobe_path"`
}

// Config is the shared session state. Every panel reads and writes it through
// the accessors below.
type Config struct {
	mu sync.RWMutex
	s  Settings
}

func DefaultSettings() Settings {
	return Settings{
		OutputDir:            ".",
		FrameProcessors:      []string{"face_swapper"},
		UILayouts:            []string{"default"},
		ExecutionProviders:   []string{"cpu"},
		ExecutionThreadCount: 8,
		ExecutionQueueCount:  1,
		SimilarFaceDistance:  0.85,
		PipelineAddr:         DefaultPipelineAddr,
		PluginDir:            "plugins",
		ModelsDir:            "models",
		HistoryPath:          filepath.Join("data", "history.db"),
		FFmpegPath:           "ffmpeg",
		FFprobePath:          "ffprobe",
	}
}

func NewDefaultConfig() *Config {
	return New(DefaultSettings())
}

func New(s Settings) *Config {
	c := &Config{}
	c.Replace(s)
	return c
}

// Replace swaps the whole state, clamping numeric fields into range.
func (c *Config) Replace(s Settings) {
	s = s.clone()
	s.ExecutionThreadCount = clamp(s.ExecutionThreadCount, MinExecutionThreadCount, MaxExecutionThreadCount)
	s.ExecutionQueueCount = clamp(s.ExecutionQueueCount, MinExecutionQueueCount, MaxExecutionQueueCount)
	s.SimilarFaceDistance = clamp(s.SimilarFaceDistance, MinSimilarFaceDistance, MaxSimilarFaceDistance)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.s = s
}

func (c *Config) Snapshot() Settings {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.s.clone()
}

// Job converts the current state into a pipeline request.
func (c *Config) Job(id string) models.Job {
	s := c.Snapshot()
	return models.Job{
		ID:                    id,
		SourcePath:            s.SourcePath,
		TargetPath:            s.TargetPath,
		OutputPath:            s.OutputPath,
		FrameProcessors:       s.FrameProcessors,
		ExecutionProviders:    s.ExecutionProviders,
		ExecutionThreadCount:  s.ExecutionThreadCount,
		ExecutionQueueCount:   s.ExecutionQueueCount,
		KeepFPS:               s.KeepFPS,
		KeepTemp:              s.KeepTemp,
		SkipAudio:             s.SkipAudio,
		ManyFaces:             s.ManyFaces,
		ReferenceFacePosition: s.ReferenceFacePosition,
		ReferenceFrameNumber:  s.ReferenceFrameNumber,
		SimilarFaceDistance:   s.SimilarFaceDistance,
		TrimFrameStart:        s.TrimFrameStart,
		TrimFrameEnd:          s.TrimFrameEnd,
	}
}

func (c *Config) GetSourcePath() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.s.SourcePath
}

func (c *Config) SetSourcePath(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.s.SourcePath = path
}

func (c *Config) GetTargetPath() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.s.TargetPath
}

func (c *Config) SetTargetPath(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.s.TargetPath = path
}

func (c *Config) GetOutputPath() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.s.OutputPath
}

func (c *Config) SetOutputPath(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.s.OutputPath = path
}

func (c *Config) GetOutputDir() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.s.OutputDir
}

func (c *Config) SetOutputDir(dir string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.s.OutputDir = dir
}

func (c *Config) GetFrameProcessors() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.s.FrameProcessors)
}

func (c *Config) SetFrameProcessors(names []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.s.FrameProcessors = slices.Clone(names)
}

func (c *Config) GetUILayouts() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.s.UILayouts)
}

func (c *Config) SetUILayouts(names []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.s.UILayouts = slices.Clone(names)
}

func (c *Config) GetExecutionProviders() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.s.ExecutionProviders)
}

func (c *Config) SetExecutionProviders(providers []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.s.ExecutionProviders = slices.Clone(providers)
}

func (c *Config) GetExecutionThreadCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.s.ExecutionThreadCount
}

func (c *Config) SetExecutionThreadCount(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.s.ExecutionThreadCount = clamp(n, MinExecutionThreadCount, MaxExecutionThreadCount)
}

func (c *Config) GetExecutionQueueCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.s.ExecutionQueueCount
}

func (c *Config) SetExecutionQueueCount(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.s.ExecutionQueueCount = clamp(n, MinExecutionQueueCount, MaxExecutionQueueCount)
}

func (c *Config) GetFlag(name Flag) (bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	p, err := c.flagField(name)
	if err != nil {
		return false, err
	}
	return *p, nil
}

// SetFlag sets one of the boolean switches by name.
func (c *Config) SetFlag(name Flag, value bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	p, err := c.flagField(name)
	if err != nil {
		return err
	}
	*p = value
	return nil
}

func (c *Config) flagField(name Flag) (*bool, error) {
	switch name {
	case FlagKeepFPS:
		return &c.s.KeepFPS, nil
	case FlagKeepTemp:
		return &c.s.KeepTemp, nil
	case FlagSkipAudio:
		return &c.s.SkipAudio, nil
	case FlagManyFaces:
		return &c.s.ManyFaces, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownFlag, name)
	}
}

func (c *Config) IsManyFaces() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.s.ManyFaces
}

// GetTrimFrame returns the trim range; ok is false for either bound that is
// unset.
func (c *Config) GetTrimFrame() (start int, startOK bool, end int, endOK bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.s.TrimFrameStart != nil {
		start, startOK = *c.s.TrimFrameStart, true
	}
	if c.s.TrimFrameEnd != nil {
		end, endOK = *c.s.TrimFrameEnd, true
	}
	return
}

func (c *Config) SetTrimFrameStart(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.s.TrimFrameStart = &n
}

func (c *Config) SetTrimFrameEnd(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.s.TrimFrameEnd = &n
}

func (c *Config) ClearTrimFrameStart() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.s.TrimFrameStart = nil
}

func (c *Config) ClearTrimFrameEnd() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.s.TrimFrameEnd = nil
}

func (c *Config) ClearTrimFrame() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.s.TrimFrameStart = nil
	c.s.TrimFrameEnd = nil
}

func (c *Config) GetReferenceFacePosition() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.s.ReferenceFacePosition
}

func (c *Config) SetReferenceFacePosition(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.s.ReferenceFacePosition = max(n, 0)
}

func (c *Config) GetReferenceFrameNumber() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.s.ReferenceFrameNumber
}

func (c *Config) SetReferenceFrameNumber(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.s.ReferenceFrameNumber = max(n, 0)
}

func (c *Config) GetSimilarFaceDistance() float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.s.SimilarFaceDistance
}

func (c *Config) SetSimilarFaceDistance(d float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.s.SimilarFaceDistance = clamp(d, MinSimilarFaceDistance, MaxSimilarFaceDistance)
}

// Save writes the state to path, picking the encoding from the extension.
func (c *Config) Save(path string) error {
	s := c.Snapshot()

	var buf bytes.Buffer
	switch format(path) {
	case ".json":
		enc := json.NewEncoder(&buf)
		enc.SetIndent("", "  ")
		if err := enc.Encode(s); err != nil {
			return fmt.Errorf("encode config: %w", err)
		}
	case ".toml":
		if err := toml.NewEncoder(&buf).Encode(s); err != nil {
			return fmt.Errorf("encode config: %w", err)
		}
	case ".yaml", ".yml":
		data, err := yaml.Marshal(s)
		if err != nil {
			return fmt.Errorf("encode config: %w", err)
		}
		buf.Write(data)
	default:
		return fmt.Errorf("unsupported config format: %s", path)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create config dir: %w", err)
		}
	}

	return os.WriteFile(path, buf.Bytes(), 0644)
}

func (c *Config) SaveByDefault() error {
	return c.Save(DefaultConfigPath)
}

// LoadConfigFile reads path over the defaults. A missing file is not an
// error.
func LoadConfigFile(path string) (*Config, error) {
	s := DefaultSettings()

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return New(s), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	switch format(path) {
	case ".json":
		err = json.Unmarshal(data, &s)
	case ".toml":
		_, err = toml.Decode(string(data), &s)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &s)
	default:
		return nil, fmt.Errorf("unsupported config format: %s", path)
	}
	if err != nil {
		return nil, fmt.Errorf("decode config %s: %w", path, err)
	}

	return New(s), nil
}

func format(path string) string {
	return strings.ToLower(filepath.Ext(path))
}

func (s Settings) clone() Settings {
	s.FrameProcessors = slices.Clone(s.FrameProcessors)
	s.UILayouts = slices.Clone(s.UILayouts)
	s.ExecutionProviders = slices.Clone(s.ExecutionProviders)
	if s.TrimFrameStart != nil {
		v := *s.TrimFrameStart
		s.TrimFrameStart = &v
	}
	if s.TrimFrameEnd != nil {
		v := *s.TrimFrameEnd
		s.TrimFrameEnd = &v
	}
	return s
}

func clamp[T int | float64](v, lo, hi T) T {
	return min(max(v, lo), hi)
}
