package controller

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"writegood/internal/analysis"
	"writegood/internal/enablement"
	"writegood/internal/settings"
)

// Saver receives settings snapshots to persist. settings.Persister is the
// production implementation.
type Saver interface {
	Save(st settings.Settings)
}

// Scheduler runs a rebuild for v. The default runs it synchronously.
type Scheduler func(v *View, kind EventKind)

// Options configures a Plugin.
type Options struct {
	Analyzer analysis.Analyzer
	Settings settings.Settings
	Saver    Saver
	Logger   *slog.Logger
	// Context bounds rebuilds started by the plugin itself.
	Context  context.Context
	Schedule Scheduler
}

// Plugin owns the shared state of all views: check selection, per-document
// enablement and persistence.
type Plugin struct {
	analyzer analysis.Analyzer
	store    *enablement.Store
	saver    Saver
	logger   *slog.Logger
	ctx      context.Context
	schedule Scheduler

	mu     sync.Mutex
	checks analysis.Checks
	views  map[*View]struct{}
	active *View

	unsubscribe func()
}

// New builds a plugin from persisted settings.
func New(opts Options) *Plugin {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	st := opts.Settings.Clone()
	if st.Checks == nil {
		st.Checks = analysis.DefaultChecks()
	}
	p := &Plugin{
		analyzer: opts.Analyzer,
		store:    enablement.NewStore(st.EnableChecksByDefault, st.FileChecksState),
		saver:    opts.Saver,
		logger:   logger,
		ctx:      ctx,
		checks:   st.Checks,
		views:    make(map[*View]struct{}),
	}
	p.schedule = opts.Schedule
	if p.schedule == nil {
		p.schedule = func(v *View, kind EventKind) { v.Update(p.ctx, kind) }
	}
	p.unsubscribe = p.store.Subscribe(p.onStoreChange)
	return p
}

// Close detaches the plugin from its store.
func (p *Plugin) Close() {
	if p.unsubscribe != nil {
		p.unsubscribe()
		p.unsubscribe = nil
	}
}

// Store exposes the enablement store.
func (p *Plugin) Store() *enablement.Store {
	return p.store
}

// Checks returns a copy of the check selection.
func (p *Plugin) Checks() analysis.Checks {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.checks.Clone()
}

// Settings returns the persisted form of the current state.
func (p *Plugin) Settings() settings.Settings {
	return settings.Settings{
		Checks:                p.Checks(),
		FileChecksState:       p.store.Snapshot(),
		EnableChecksByDefault: p.store.Default(),
	}
}

// NewView registers a view for doc and performs the initial rebuild.
func (p *Plugin) NewView(doc Document, surface Surface) *View {
	identity := enablement.NormalizeIdentity(doc.Identity())
	v := &View{
		plugin:   p,
		doc:      doc,
		surface:  surface,
		logger:   p.logger,
		identity: identity,
		enabled:  p.store.IsEnabled(identity),
	}
	p.mu.Lock()
	p.views[v] = struct{}{}
	p.mu.Unlock()
	p.schedule(v, EventReevaluate)
	return v
}

// CloseView unregisters v. Later results for it are discarded.
func (p *Plugin) CloseView(v *View) {
	p.mu.Lock()
	delete(p.views, v)
	if p.active == v {
		p.active = nil
	}
	p.mu.Unlock()
	v.mu.Lock()
	v.closed = true
	v.mu.Unlock()
}

// Views returns the registered views ordered by identity.
func (p *Plugin) Views() []*View {
	p.mu.Lock()
	out := make([]*View, 0, len(p.views))
	for v := range p.views {
		out = append(out, v)
	}
	p.mu.Unlock()
	sort.SliceStable(out, func(i, j int) bool { return out[i].Identity() < out[j].Identity() })
	return out
}

// SetActive marks v as the focused view. A nil v clears focus.
func (p *Plugin) SetActive(v *View) {
	p.mu.Lock()
	changed := p.active != v
	p.active = v
	p.mu.Unlock()
	if changed && v != nil {
		p.schedule(v, EventFocusChanged)
	}
}

// Active returns the focused view, or nil.
func (p *Plugin) Active() *View {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.active
}

// ToggleActive flips enablement for the focused document. ok is false when
// no document is focused.
func (p *Plugin) ToggleActive() (enabled, ok bool) {
	v := p.Active()
	if v == nil {
		return false, false
	}
	return p.Toggle(v.Identity()), true
}

// Toggle flips enablement for identity and returns the new value.
func (p *Plugin) Toggle(identity string) bool {
	enabled := p.store.Toggle(identity)
	p.save()
	return enabled
}

// SetEnabled records an explicit enablement for identity.
func (p *Plugin) SetEnabled(identity string, enabled bool) {
	p.store.SetEnabled(identity, enabled)
	p.save()
}

// SetCheck enables or disables one named check and rebuilds every view.
func (p *Plugin) SetCheck(name string, on bool) error {
	if !analysis.IsKnownCheck(name) {
		return fmt.Errorf("unknown check %q", name)
	}
	p.mu.Lock()
	changed := p.checks[name] != on
	p.checks[name] = on
	p.mu.Unlock()
	if !changed {
		return nil
	}
	p.save()
	p.rebuildAll(EventReevaluate)
	return nil
}

// SetChecks replaces the check selection; unknown names are ignored.
func (p *Plugin) SetChecks(checks analysis.Checks) {
	next := analysis.DefaultChecks()
	for name, on := range checks {
		if analysis.IsKnownCheck(name) {
			next[name] = on
		}
	}
	p.mu.Lock()
	p.checks = next
	p.mu.Unlock()
	p.save()
	p.rebuildAll(EventReevaluate)
}

// SetDefaultEnabled changes the flag used for documents with no entry.
func (p *Plugin) SetDefaultEnabled(on bool) {
	if p.store.Default() == on {
		return
	}
	p.store.SetDefault(on)
	p.save()
}

// HandleRename carries enablement from oldIdentity to newIdentity and
// retargets open views.
func (p *Plugin) HandleRename(oldIdentity, newIdentity string) {
	oldKey := enablement.NormalizeIdentity(oldIdentity)
	for _, v := range p.Views() {
		if v.Identity() == oldKey {
			v.rename(newIdentity)
		}
	}
	p.store.Rename(oldIdentity, newIdentity)
	p.save()
}

// HandleDelete forgets identity.
func (p *Plugin) HandleDelete(identity string) {
	p.store.Delete(identity)
	p.save()
}

// Flush is a convenience for hosts that hold a settings.Persister.
func (p *Plugin) Flush() error {
	if f, ok := p.saver.(interface{ Flush() error }); ok {
		return f.Flush()
	}
	return nil
}

func (p *Plugin) save() {
	if p.saver == nil {
		return
	}
	p.saver.Save(p.Settings())
}

func (p *Plugin) onStoreChange(c enablement.Change) {
	for _, v := range p.Views() {
		if c.Kind == enablement.ChangeDefault || v.Identity() == c.Identity || v.Identity() == c.Previous {
			p.schedule(v, EventReevaluate)
		}
	}
}

func (p *Plugin) rebuildAll(kind EventKind) {
	for _, v := range p.Views() {
		p.schedule(v, kind)
	}
}
