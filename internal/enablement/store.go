// Package enablement tracks which documents have linting turned on.
package enablement

import (
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/text/unicode/norm"
)

// NormalizeIdentity maps a document path to its stable key: NFC, forward
// slashes, lowercase. "Notes\Draft.md" and "notes/draft.md" share a key.
func NormalizeIdentity(path string) string {
	id := norm.NFC.String(path)
	id = strings.ReplaceAll(id, `\`, "/")
	return strings.ToLower(id)
}

// PathIdentity is the identity of a file on disk: its absolute path,
// normalized.
func PathIdentity(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return NormalizeIdentity(filepath.ToSlash(path))
}

// ChangeKind tells listeners what happened.
type ChangeKind uint8

const (
	ChangeSet ChangeKind = iota
	ChangeRename
	ChangeDelete
	ChangeDefault
)

// Change describes one store mutation. Identity is the affected key (the
// new key for renames); Previous is only set for renames.
type Change struct {
	Kind     ChangeKind
	Identity string
	Previous string
}

// Listener observes store mutations. Listeners run after the mutation is
// visible and must not block.
type Listener func(Change)

// Store maps document identities to an explicit enabled flag. A missing
// entry resolves to the global default.
type Store struct {
	mu        sync.RWMutex
	entries   map[string]bool
	def       bool
	listeners map[int]Listener
	nextID    int
}

// NewStore builds a store from persisted entries. Keys are normalized; when
// two keys collapse to one identity the later one in iteration order wins,
// so callers should persist normalized keys only.
func NewStore(def bool, entries map[string]bool) *Store {
	s := &Store{
		entries:   make(map[string]bool, len(entries)),
		def:       def,
		listeners: make(map[int]Listener),
	}
	for id, on := range entries {
		s.entries[NormalizeIdentity(id)] = on
	}
	return s
}

// IsEnabled returns the stored flag for identity or the global default.
func (s *Store) IsEnabled(identity string) bool {
	id := NormalizeIdentity(identity)
	s.mu.RLock()
	defer s.mu.RUnlock()
	if on, ok := s.entries[id]; ok {
		return on
	}
	return s.def
}

// Lookup returns the explicit flag for identity, if any.
func (s *Store) Lookup(identity string) (enabled, ok bool) {
	id := NormalizeIdentity(identity)
	s.mu.RLock()
	defer s.mu.RUnlock()
	enabled, ok = s.entries[id]
	return enabled, ok
}

// SetEnabled upserts an explicit flag. Persisting it is the caller's job.
func (s *Store) SetEnabled(identity string, enabled bool) {
	id := NormalizeIdentity(identity)
	s.mu.Lock()
	s.entries[id] = enabled
	s.mu.Unlock()
	s.notify(Change{Kind: ChangeSet, Identity: id})
}

// Toggle flips the effective flag for identity and returns the new value.
func (s *Store) Toggle(identity string) bool {
	id := NormalizeIdentity(identity)
	s.mu.Lock()
	on, ok := s.entries[id]
	if !ok {
		on = s.def
	}
	s.entries[id] = !on
	s.mu.Unlock()
	s.notify(Change{Kind: ChangeSet, Identity: id})
	return !on
}

// Rename moves the explicit flag of oldIdentity to newIdentity under a
// single lock. When oldIdentity has no entry, any entry under newIdentity is
// dropped so the renamed document keeps resolving to the default.
func (s *Store) Rename(oldIdentity, newIdentity string) {
	oldID := NormalizeIdentity(oldIdentity)
	newID := NormalizeIdentity(newIdentity)
	if oldID == newID {
		return
	}
	s.mu.Lock()
	on, ok := s.entries[oldID]
	_, hadNew := s.entries[newID]
	if ok {
		s.entries[newID] = on
		delete(s.entries, oldID)
	} else {
		delete(s.entries, newID)
	}
	s.mu.Unlock()
	if ok || hadNew {
		s.notify(Change{Kind: ChangeRename, Identity: newID, Previous: oldID})
	}
}

// Delete drops the entry for identity; a no-op when absent.
func (s *Store) Delete(identity string) {
	id := NormalizeIdentity(identity)
	s.mu.Lock()
	_, ok := s.entries[id]
	delete(s.entries, id)
	s.mu.Unlock()
	if ok {
		s.notify(Change{Kind: ChangeDelete, Identity: id})
	}
}

// Default returns the global default.
func (s *Store) Default() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.def
}

// SetDefault changes the global default.
func (s *Store) SetDefault(enabled bool) {
	s.mu.Lock()
	changed := s.def != enabled
	s.def = enabled
	s.mu.Unlock()
	if changed {
		s.notify(Change{Kind: ChangeDefault})
	}
}

// Snapshot returns a copy of the explicit entries.
func (s *Store) Snapshot() map[string]bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]bool, len(s.entries))
	for id, on := range s.entries {
		out[id] = on
	}
	return out
}

// Len returns the number of explicit entries.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Subscribe registers l and returns a function that removes it.
func (s *Store) Subscribe(l Listener) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = l
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

func (s *Store) notify(c Change) {
	s.mu.RLock()
	listeners := make([]Listener, 0, len(s.listeners))
	// registration order
	for id := 0; id < s.nextID; id++ {
		if l, ok := s.listeners[id]; ok {
			listeners = append(listeners, l)
		}
	}
	s.mu.RUnlock()
	for _, l := range listeners {
		l(c)
	}
}
