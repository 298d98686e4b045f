package models

import "time"

// Job is everything the inference service needs to run one swap.
type Job struct {
	ID string `json:"id"`

	SourcePath string `json:"source_path"`
	TargetPath string `json:"target_path"`
	OutputPath string `json:"output_path"`

	FrameProcessors      []string `json:"frame_processors"`
	ExecutionProviders   []string `json:"execution_providers"`
	ExecutionThreadCount int      `json:"execution_thread_count"`
	ExecutionQueueCount  int      `json:"execution_queue_count"`

	KeepFPS   bool `json:"keep_fps"`
	KeepTemp  bool `json:"keep_temp"`
	SkipAudio bool `json:"skip_audio"`
	ManyFaces bool `json:"many_faces"`

	ReferenceFacePosition int     `json:"reference_face_position"`
	ReferenceFrameNumber  int     `json:"reference_frame_number"`
	SimilarFaceDistance   float64 `json:"similar_face_distance"`

	TrimFrameStart *int `json:"trim_frame_start,omitempty"`
	TrimFrameEnd   *int `json:"trim_frame_end,omitempty"`
}

type Progress struct {
	Stage string `json:"stage"`
	Done  int    `json:"done"`
	Total int    `json:"total"`
}

// Fraction reports progress in [0,1]; an unknown total counts as zero.
func (p Progress) Fraction() float64 {
	if p.Total <= 0 {
		return 0
	}
	f := float64(p.Done) / float64(p.Total)
	if f > 1 {
		return 1
	}
	return f
}

type Result struct {
	OutputPath string        `json:"output_path"`
	Elapsed    time.Duration `json:"elapsed"`
}
