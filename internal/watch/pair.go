package watch

import (
	"time"

	"github.com/fsnotify/fsnotify"
)

// EventKind is the kind of identity change a watcher reports.
type EventKind uint8

const (
	EventRename EventKind = iota + 1
	EventDelete
)

func (k EventKind) String() string {
	switch k {
	case EventRename:
		return "rename"
	case EventDelete:
		return "delete"
	}
	return "unknown"
}

// Event is one rename or delete. OldPath is only set for renames.
type Event struct {
	Kind    EventKind
	Path    string
	OldPath string
}

type pendingRename struct {
	path string
	at   time.Time
}

// pairer turns raw fsnotify operations into rename/delete events. A Rename
// is held for window; a Create inside the window completes it, otherwise it
// expires as a delete.
type pairer struct {
	window  time.Duration
	pending []pendingRename
}

func (p *pairer) observe(op fsnotify.Op, path string, now time.Time) []Event {
	out := p.expire(now)
	switch {
	case op.Has(fsnotify.Rename):
		p.pending = append(p.pending, pendingRename{path: path, at: now})
	case op.Has(fsnotify.Create):
		if len(p.pending) == 0 {
			return out
		}
		old := p.pending[0]
		p.pending = p.pending[1:]
		if old.path != path {
			out = append(out, Event{Kind: EventRename, OldPath: old.path, Path: path})
		}
	case op.Has(fsnotify.Remove):
		out = append(out, Event{Kind: EventDelete, Path: path})
	}
	return out
}

// expire flushes renames older than the window as deletes.
func (p *pairer) expire(now time.Time) []Event {
	var out []Event
	kept := p.pending[:0]
	for _, r := range p.pending {
		if now.Sub(r.at) > p.window {
			out = append(out, Event{Kind: EventDelete, Path: r.path})
			continue
		}
		kept = append(kept, r)
	}
	p.pending = kept
	return out
}
