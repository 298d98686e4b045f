package config

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigFileMissingReturnsDefaults(t *testing.T) {
	cfg, err := LoadConfigFile(filepath.Join(t.TempDir(), "nope.json"))
	require.NoError(t, err)

	if diff := cmp.Diff(DefaultSettings(), cfg.Snapshot()); diff != "" {
		t.Fatalf("defaults mismatch (-want +got):\n%s", diff)
	}
}

func TestSaveLoadFormats(t *testing.T) {
	for _, ext := range []string{".json", ".toml", ".yaml", ".yml"} {
		t.Run(ext, func(t *testing.T) {
			cfg := NewDefaultConfig()
			cfg.SetSourcePath("/tmp/face.png")
			cfg.SetTargetPath("/tmp/clip.mp4")
			cfg.SetFrameProcessors([]string{"face_enhancer", "face_swapper"})
			cfg.SetExecutionThreadCount(16)
			cfg.SetTrimFrameStart(3)
			cfg.SetTrimFrameEnd(90)
			require.NoError(t, cfg.SetFlag(FlagManyFaces, true))

			path := filepath.Join(t.TempDir(), "nested", "config"+ext)
			require.NoError(t, cfg.Save(path))

			loaded, err := LoadConfigFile(path)
			require.NoError(t, err)

			if diff := cmp.Diff(cfg.Snapshot(), loaded.Snapshot()); diff != "" {
				t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestLoadConfigFileRejectsUnknownFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.ini")
	require.NoError(t, os.WriteFile(path, []byte("a=b"), 0644))

	_, err := LoadConfigFile(path)
	assert.Error(t, err)
}

func TestLoadConfigFileReportsDecodeErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	_, err := LoadConfigFile(path)
	assert.Error(t, err)
}

func TestLoadConfigFileClampsRanges(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	body := "execution_thread_count = 500\nexecution_queue_count = 0\nsimilar_face_distance = 4.0\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))

	cfg, err := LoadConfigFile(path)
	require.NoError(t, err)

	assert.Equal(t, MaxExecutionThreadCount, cfg.GetExecutionThreadCount())
	assert.Equal(t, MinExecutionQueueCount, cfg.GetExecutionQueueCount())
	assert.Equal(t, MaxSimilarFaceDistance, cfg.GetSimilarFaceDistance())
}

func TestSetFlag(t *testing.T) {
	cfg := NewDefaultConfig()

	for _, f := range []Flag{FlagKeepFPS, FlagKeepTemp, FlagSkipAudio, FlagManyFaces} {
		require.NoError(t, cfg.SetFlag(f, true))
		v, err := cfg.GetFlag(f)
		require.NoError(t, err)
		assert.True(t, v, f)
	}

	err := cfg.SetFlag("keep_everything", true)
	assert.ErrorIs(t, err, ErrUnknownFlag)
}

func TestTrimFrame(t *testing.T) {
	cfg := NewDefaultConfig()

	_, startOK, _, endOK := cfg.GetTrimFrame()
	assert.False(t, startOK)
	assert.False(t, endOK)

	cfg.SetTrimFrameStart(0)
	cfg.SetTrimFrameEnd(120)
	start, startOK, end, endOK := cfg.GetTrimFrame()
	assert.True(t, startOK)
	assert.True(t, endOK)
	assert.Equal(t, 0, start)
	assert.Equal(t, 120, end)

	cfg.ClearTrimFrameEnd()
	start, startOK, _, endOK = cfg.GetTrimFrame()
	assert.True(t, startOK)
	assert.Equal(t, 0, start)
	assert.False(t, endOK)

	cfg.SetTrimFrameEnd(120)
	cfg.ClearTrimFrameStart()
	_, startOK, _, endOK = cfg.GetTrimFrame()
	assert.False(t, startOK)
	assert.True(t, endOK)

	cfg.ClearTrimFrame()
	_, startOK, _, endOK = cfg.GetTrimFrame()
	assert.False(t, startOK)
	assert.False(t, endOK)
}

func TestSnapshotIsDetached(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.SetTrimFrameEnd(10)

	s := cfg.Snapshot()
	s.FrameProcessors[0] = "mutated"
	*s.TrimFrameEnd = 99

	assert.Equal(t, []string{"face_swapper"}, cfg.GetFrameProcessors())
	_, _, end, _ := cfg.GetTrimFrame()
	assert.Equal(t, 10, end)
}

func TestJobCarriesSettings(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.SetSourcePath("a.png")
	cfg.SetTargetPath("b.mp4")
	cfg.SetOutputPath("out/a-b.mp4")
	cfg.SetTrimFrameStart(5)

	job := cfg.Job("job-1")
	assert.Equal(t, "job-1", job.ID)
	assert.Equal(t, "a.png", job.SourcePath)
	assert.Equal(t, "b.mp4", job.TargetPath)
	assert.Equal(t, "out/a-b.mp4", job.OutputPath)
	require.NotNil(t, job.TrimFrameStart)
	assert.Equal(t, 5, *job.TrimFrameStart)
	assert.Nil(t, job.TrimFrameEnd)
}

func TestConcurrentAccess(t *testing.T) {
	cfg := NewDefaultConfig()

	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			cfg.SetExecutionThreadCount(i + 1)
			cfg.SetFrameProcessors([]string{"face_swapper"})
		}()
		go func() {
			defer wg.Done()
			_ = cfg.Snapshot()
			_ = cfg.GetExecutionThreadCount()
		}()
	}
	wg.Wait()

	assert.GreaterOrEqual(t, cfg.GetExecutionThreadCount(), 1)
}
