package frame

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestWatcherReportsScriptChanges(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	dir := filepath.Join(t.TempDir(), "plugins")
	changed := make(chan struct{}, 4)

	w, err := NewWatcher(dir, 20*time.Millisecond, func() {
		select {
		case changed <- struct{}{}:
		default:
		}
	}, nil)
	require.NoError(t, err)
	require.NoError(t, w.Start())
	defer w.Stop()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "blur.go"), []byte(validScript), 0644))

	select {
	case <-changed:
	case <-time.After(2 * time.Second):
		t.Fatal("no change reported for new script")
	}

	require.NoError(t, os.Remove(filepath.Join(dir, "blur.go")))

	select {
	case <-changed:
	case <-time.After(2 * time.Second):
		t.Fatal("no change reported for removed script")
	}

	w.Stop()
}

func TestWatcherStopWithoutStart(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	w, err := NewWatcher(t.TempDir(), 20*time.Millisecond, func() {}, nil)
	require.NoError(t, err)

	stopped := make(chan struct{})
	go func() {
		w.Stop()
		close(stopped)
	}()

	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop blocked on a watcher that never started")
	}
}
