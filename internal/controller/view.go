// Package controller decides when a view's decorations are rebuilt and runs
// the analyze → normalize → build pipeline.
package controller

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"writegood/internal/analysis"
	"writegood/internal/decor"
	"writegood/internal/enablement"
	"writegood/internal/source"
)

// Document is the editor buffer behind a view.
type Document interface {
	Identity() string
	Text() string
}

// Surface renders a decoration set. An empty set clears the view.
type Surface interface {
	Render(entries []decor.Entry)
}

// SurfaceFunc adapts a function to Surface.
type SurfaceFunc func(entries []decor.Entry)

func (fn SurfaceFunc) Render(entries []decor.Entry) { fn(entries) }

// EventKind classifies what triggered a rebuild.
type EventKind uint8

const (
	EventTextChanged EventKind = iota
	EventFocusChanged
	// EventReevaluate re-reads the enabled flag before rebuilding.
	EventReevaluate
)

func (k EventKind) String() string {
	switch k {
	case EventTextChanged:
		return "text"
	case EventFocusChanged:
		return "focus"
	case EventReevaluate:
		return "reevaluate"
	}
	return "unknown"
}

// State is the rebuild state of a view.
type State uint8

const (
	StateIdle State = iota
	StateRebuilding
)

func (s State) String() string {
	if s == StateRebuilding {
		return "rebuilding"
	}
	return "idle"
}

// Rebuild captures everything a rebuild needs at the moment of the event.
// Compute may run on any goroutine; Apply decides whether the result is
// still the newest.
type Rebuild struct {
	Seq      uint64
	Kind     EventKind
	Identity string
	Enabled  bool

	file     *source.File
	checks   analysis.Checks
	analyzer analysis.Analyzer
	logger   *slog.Logger
}

// Result is the outcome of Compute.
type Result struct {
	Seq      uint64
	Entries  []decor.Entry
	Findings []decor.Resolved
	Err      error
	Skipped  bool
	Duration time.Duration
}

// Compute runs the pipeline. A disabled rebuild returns an empty set without
// calling the analyzer; an analyzer error or panic also yields an empty set,
// with the failure recorded in Result.Err.
func (r Rebuild) Compute(ctx context.Context) (res Result) {
	res.Seq = r.Seq
	if !r.Enabled {
		res.Skipped = true
		return res
	}
	start := time.Now()
	defer func() {
		if rec := recover(); rec != nil {
			res.Entries = nil
			res.Findings = nil
			res.Err = fmt.Errorf("%w: panic: %v", analysis.ErrAnalyzerFailed, rec)
		}
		res.Duration = time.Since(start)
		if res.Err != nil {
			r.logger.Warn("analysis failed, clearing decorations",
				slog.String("doc", r.Identity),
				slog.Uint64("seq", r.Seq),
				slog.String("error", res.Err.Error()))
		}
	}()
	resolved, err := decor.Analyze(ctx, r.file, r.analyzer, r.checks)
	if err != nil {
		res.Err = err
		return res
	}
	res.Findings = resolved
	res.Entries = decor.Build(resolved)
	return res
}

// File returns the snapshot the rebuild analyzes. Offsets in its Result
// refer to this snapshot.
func (r Rebuild) File() *source.File {
	return r.file
}

// View holds the decoration state of one open editor.
type View struct {
	plugin  *Plugin
	doc     Document
	surface Surface
	logger  *slog.Logger

	mu       sync.Mutex
	identity string
	enabled  bool
	state    State
	entries  []decor.Entry
	seq      uint64
	applied  uint64
	lastErr  error
	closed   bool
}

// Document returns the buffer behind the view.
func (v *View) Document() Document {
	return v.doc
}

// Identity returns the normalized identity the view is tracked under.
func (v *View) Identity() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.identity
}

func (v *View) rename(identity string) {
	v.mu.Lock()
	v.identity = enablement.NormalizeIdentity(identity)
	v.mu.Unlock()
}

// Enabled reports the flag used by the latest rebuild.
func (v *View) Enabled() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.enabled
}

// State returns the current rebuild state.
func (v *View) State() State {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state
}

// Decorations returns the current decoration set.
func (v *View) Decorations() []decor.Entry {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]decor.Entry(nil), v.entries...)
}

// LastError returns the failure of the latest applied rebuild, if any.
func (v *View) LastError() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.lastErr
}

// Update handles an editor event synchronously and returns the new set.
func (v *View) Update(ctx context.Context, kind EventKind) []decor.Entry {
	r := v.Begin(kind)
	v.Apply(r.Compute(ctx))
	return v.Decorations()
}

// BuildDecorations rebuilds from the current text without re-reading the
// enabled flag.
func (v *View) BuildDecorations(ctx context.Context) []decor.Entry {
	return v.Update(ctx, EventTextChanged)
}

// Begin snapshots the document for a rebuild and assigns it the next
// sequence number.
func (v *View) Begin(kind EventKind) Rebuild {
	text := v.doc.Text()

	v.mu.Lock()
	defer v.mu.Unlock()
	identity := v.identity
	if kind == EventReevaluate {
		v.enabled = v.plugin.store.IsEnabled(identity)
	}
	v.seq++
	v.state = StateRebuilding
	return Rebuild{
		Seq:      v.seq,
		Kind:     kind,
		Identity: identity,
		Enabled:  v.enabled,
		file:     source.NewFile(identity, text),
		checks:   v.plugin.Checks(),
		analyzer: v.plugin.analyzer,
		logger:   v.logger,
	}
}

// Apply installs res unless a newer rebuild has already been applied, and
// renders it. It reports whether res was applied.
func (v *View) Apply(res Result) bool {
	v.mu.Lock()
	if v.closed || res.Seq <= v.applied {
		v.mu.Unlock()
		v.logger.Debug("discard stale rebuild", slog.String("doc", v.Identity()), slog.Uint64("seq", res.Seq))
		return false
	}
	v.applied = res.Seq
	v.entries = res.Entries
	v.lastErr = res.Err
	if v.applied == v.seq {
		v.state = StateIdle
	}
	entries := append([]decor.Entry(nil), res.Entries...)
	v.mu.Unlock()

	if v.surface != nil {
		v.surface.Render(entries)
	}
	return true
}

// Discard settles a rebuild whose result will never be applied. The view
// returns to Idle unless a newer rebuild has started since.
func (v *View) Discard(seq uint64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if seq == v.seq {
		v.state = StateIdle
	}
}

// IsLatest reports whether seq is the newest rebuild started for the view.
func (v *View) IsLatest(seq uint64) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return seq == v.seq
}
