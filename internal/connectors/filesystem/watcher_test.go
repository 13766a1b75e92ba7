package filesystem

import (
	"context"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcher_TriggersOnWrite(t *testing.T) {
	dir := t.TempDir()
	var calls atomic.Int32

	w, err := NewWatcher(dir, 20*time.Millisecond, func() { calls.Add(1) })
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	go w.Run(ctx)
	t.Cleanup(func() {
		cancel()
		<-w.Done()
		w.Close()
	})

	writeFile(t, dir, "a.txt", "one")
	writeFile(t, dir, "b.txt", "two")

	assert.Eventually(t, func() bool { return calls.Load() >= 1 }, 2*time.Second, 10*time.Millisecond)
}

func TestWatcher_IgnoresHiddenFiles(t *testing.T) {
	dir := t.TempDir()
	var calls atomic.Int32

	w, err := NewWatcher(dir, 20*time.Millisecond, func() { calls.Add(1) })
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	go w.Run(ctx)
	t.Cleanup(func() {
		cancel()
		<-w.Done()
		w.Close()
	})

	writeFile(t, dir, ".swap", "tmp")

	time.Sleep(150 * time.Millisecond)
	assert.Equal(t, int32(0), calls.Load())
}

func TestNewWatcher_MissingDirectory(t *testing.T) {
	_, err := NewWatcher(filepath.Join(t.TempDir(), "missing"), 0, func() {})
	assert.Error(t, err)
}

func TestIsRelevant(t *testing.T) {
	assert.True(t, isRelevant(fsnotify.Event{Name: "/data/a.txt", Op: fsnotify.Write}))
	assert.True(t, isRelevant(fsnotify.Event{Name: "/data/a.txt", Op: fsnotify.Remove}))
	assert.False(t, isRelevant(fsnotify.Event{Name: "/data/a.txt", Op: fsnotify.Chmod}))
	assert.False(t, isRelevant(fsnotify.Event{Name: "/data/.a.swp", Op: fsnotify.Write}))
}
