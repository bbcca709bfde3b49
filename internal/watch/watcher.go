// Package watch reports file renames and deletions below a directory so
// per-document enablement can follow files moved outside an editor.
package watch

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"

	"writegood/internal/batch"
)

const (
	// eventChannelBuffer is the size of the output channel.
	eventChannelBuffer = 256
	// DefaultPairWindow is how long a Rename waits for its Create.
	DefaultPairWindow = 250 * time.Millisecond
)

// Options configures a Watcher.
type Options struct {
	Include    []string
	Exclude    []string
	PairWindow time.Duration
	Logger     *slog.Logger
}

// Watcher watches a directory tree.
type Watcher struct {
	root    string
	fsw     *fsnotify.Watcher
	match   batch.Matcher
	logger  *slog.Logger
	events  chan Event
	pairMu  sync.Mutex
	pair    pairer
	dropped atomic.Int64
}

// New watches root and every directory below it that is not excluded.
func New(root string, opts Options) (*Watcher, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	match, err := batch.NewMatcher(opts.Include, opts.Exclude)
	if err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	window := opts.PairWindow
	if window <= 0 {
		window = DefaultPairWindow
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{
		root:   abs,
		fsw:    fsw,
		match:  match,
		logger: logger.With(slog.String("component", "watch")),
		events: make(chan Event, eventChannelBuffer),
		pair:   pairer{window: window},
	}
	if err := w.addRecursive(abs); err != nil {
		_ = fsw.Close()
		return nil, err
	}
	return w, nil
}

// Events returns the output channel. It is closed when Run returns.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Dropped reports events lost because the consumer fell behind.
func (w *Watcher) Dropped() int64 {
	return w.dropped.Load()
}

// Close stops the underlying watcher; Run returns afterwards.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}

// Run processes filesystem events until ctx is done or the watcher is
// closed.
func (w *Watcher) Run(ctx context.Context) error {
	defer close(w.events)
	ticker := time.NewTicker(w.pair.window)
	defer ticker.Stop()
	w.logger.Info("watching", slog.String("root", w.root))
	for {
		select {
		case <-ctx.Done():
			w.emit(w.flush(time.Now().Add(w.pair.window + time.Nanosecond)))
			return ctx.Err()
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			w.handle(ev)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("watcher error", slog.String("error", err.Error()))
		case now := <-ticker.C:
			w.emit(w.flush(now))
		}
	}
}

func (w *Watcher) handle(ev fsnotify.Event) {
	path := ev.Name
	if ev.Has(fsnotify.Create) {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			// TODO: pair a moved directory with its old path and emit renames
			// for the files below it.
			if err := w.addRecursive(path); err != nil {
				w.logger.Warn("failed to watch new directory", slog.String("path", path), slog.String("error", err.Error()))
			}
		}
	}
	if !ev.Has(fsnotify.Rename) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Remove) {
		return
	}
	w.pairMu.Lock()
	out := w.pair.observe(ev.Op, path, time.Now())
	w.pairMu.Unlock()
	w.emit(out)
}

func (w *Watcher) flush(now time.Time) []Event {
	w.pairMu.Lock()
	defer w.pairMu.Unlock()
	return w.pair.expire(now)
}

func (w *Watcher) emit(events []Event) {
	for _, ev := range events {
		if !w.relevant(ev) {
			continue
		}
		w.logger.Debug("file event", slog.String("kind", ev.Kind.String()), slog.String("path", ev.Path), slog.String("from", ev.OldPath))
		select {
		case w.events <- ev:
		default:
			w.dropped.Add(1)
			w.logger.Warn("event channel full, dropping", slog.String("path", ev.Path))
		}
	}
}

// relevant keeps events for files the include/exclude patterns select. A
// rename counts when either side is selected.
func (w *Watcher) relevant(ev Event) bool {
	if w.selected(ev.Path) {
		return true
	}
	return ev.OldPath != "" && w.selected(ev.OldPath)
}

func (w *Watcher) selected(path string) bool {
	rel, err := filepath.Rel(w.root, path)
	if err != nil {
		return false
	}
	return w.match.Match(rel)
}

func (w *Watcher) addRecursive(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if rel, relErr := filepath.Rel(w.root, path); relErr == nil && rel != "." && w.match.Excluded(rel, true) {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			w.logger.Warn("failed to watch directory", slog.String("path", path), slog.String("error", err.Error()))
			return nil
		}
		w.logger.Debug("watching directory", slog.String("path", path))
		return nil
	})
}
