package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"swapstudio/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "data", "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRecordAndRecent(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	base := time.UnixMilli(1_700_000_000_000)

	for i, id := range []string{"a", "b", "c"} {
		require.NoError(t, s.Record(ctx, models.HistoryEntry{
			ID:         id,
			SourcePath: "me.png",
			TargetPath: "clip.mp4",
			OutputPath: "out/me-clip.mp4",
			Status:     models.RunSucceeded,
			StartedAt:  base.Add(time.Duration(i) * time.Minute),
			Duration:   1500 * time.Millisecond,
			OutputSize: 2048,
		}))
	}

	entries, err := s.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, "c", entries[0].ID)
	assert.Equal(t, "b", entries[1].ID)
	assert.Equal(t, models.RunSucceeded, entries[0].Status)
	assert.Equal(t, 1500*time.Millisecond, entries[0].Duration)
	assert.Equal(t, int64(2048), entries[0].OutputSize)
	assert.True(t, entries[0].StartedAt.Equal(base.Add(2*time.Minute)))
}

func TestRecordReplacesSameID(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	e := models.HistoryEntry{ID: "x", Status: models.RunFailed, Error: "boom", StartedAt: time.Now()}
	require.NoError(t, s.Record(ctx, e))

	e.Status = models.RunSucceeded
	e.Error = ""
	require.NoError(t, s.Record(ctx, e))

	entries, err := s.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, models.RunSucceeded, entries[0].Status)
	assert.Empty(t, entries[0].Error)
}

func TestRecentEmpty(t *testing.T) {
	entries, err := openStore(t).Recent(context.Background(), 5)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
