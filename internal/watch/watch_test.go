package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPairerRenameThenCreate(t *testing.T) {
	p := pairer{window: time.Second}
	now := time.Now()
	assert.Empty(t, p.observe(fsnotify.Rename, "/d/old.md", now))
	got := p.observe(fsnotify.Create, "/d/new.md", now.Add(10*time.Millisecond))
	assert.Equal(t, []Event{{Kind: EventRename, OldPath: "/d/old.md", Path: "/d/new.md"}}, got)
	assert.Empty(t, p.pending)
}

func TestPairerUnpairedRenameExpiresAsDelete(t *testing.T) {
	p := pairer{window: 100 * time.Millisecond}
	now := time.Now()
	p.observe(fsnotify.Rename, "/d/gone.md", now)
	assert.Empty(t, p.expire(now.Add(50*time.Millisecond)))
	assert.Equal(t, []Event{{Kind: EventDelete, Path: "/d/gone.md"}}, p.expire(now.Add(200*time.Millisecond)))
}

func TestPairerLateCreateIsNotARename(t *testing.T) {
	p := pairer{window: 100 * time.Millisecond}
	now := time.Now()
	p.observe(fsnotify.Rename, "/d/a.md", now)
	got := p.observe(fsnotify.Create, "/d/b.md", now.Add(time.Second))
	assert.Equal(t, []Event{{Kind: EventDelete, Path: "/d/a.md"}}, got)
}

func TestPairerRemoveAndPlainCreate(t *testing.T) {
	p := pairer{window: time.Second}
	now := time.Now()
	assert.Empty(t, p.observe(fsnotify.Create, "/d/new.md", now))
	assert.Equal(t, []Event{{Kind: EventDelete, Path: "/d/x.md"}}, p.observe(fsnotify.Remove, "/d/x.md", now))
}

func TestWatcherReportsRenameAndDelete(t *testing.T) {
	root := t.TempDir()
	oldPath := filepath.Join(root, "old.md")
	require.NoError(t, os.WriteFile(oldPath, []byte("x"), 0o644))
	gonePath := filepath.Join(root, "gone.md")
	require.NoError(t, os.WriteFile(gonePath, []byte("x"), 0o644))

	w, err := New(root, Options{PairWindow: 200 * time.Millisecond})
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = w.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		_ = w.Close()
		<-done
	})

	newPath := filepath.Join(root, "new.md")
	require.NoError(t, os.Rename(oldPath, newPath))
	require.NoError(t, os.Remove(gonePath))

	var got []Event
	timeout := time.After(5 * time.Second)
	for len(got) < 2 {
		select {
		case ev := <-w.Events():
			got = append(got, ev)
		case <-timeout:
			t.Fatalf("timed out, got %+v", got)
		}
	}
	assert.Contains(t, got, Event{Kind: EventRename, OldPath: oldPath, Path: newPath})
	assert.Contains(t, got, Event{Kind: EventDelete, Path: gonePath})
}
