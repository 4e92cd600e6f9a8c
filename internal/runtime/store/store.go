// Package store keeps surface state in memory and notifies subscribers when it
// changes.
//
// Every write replaces the affected Surface with a new value, so a *Surface or
// Snapshot obtained earlier never changes underneath its holder. Reads may run
// concurrently with the single writer. Listeners run synchronously on the
// writer's goroutine after the write is committed, in registration order.
// A listener that writes to the store re-enters it; the resulting order of
// notifications is not defined.
package store

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/drblury/surfaceflow/internal/runtime/datapath"
	errspkg "github.com/drblury/surfaceflow/internal/runtime/errors"
)

// Listener is invoked after each committed change. It receives no payload and
// should read whatever state it needs from the store.
type Listener func()

// Snapshot is a point-in-time view of every surface. Timestamp strictly
// increases across calls to GetSnapshot on the same Store.
type Snapshot struct {
	Surfaces  map[string]*Surface `json:"surfaces"`
	Timestamp int64               `json:"timestamp"`
}

// DataWrite is one entry of a batched data update.
type DataWrite struct {
	Path   string
	Value  any
	Remove bool
}

type listenerEntry struct {
	id uint64
	fn Listener
}

// Store maps surface ids to their current state.
type Store struct {
	mu       sync.RWMutex
	surfaces map[string]*Surface

	listenersMu  sync.Mutex
	listeners    []listenerEntry
	nextListener uint64

	clockMu       sync.Mutex
	lastTimestamp int64
	now           func() time.Time
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		surfaces: make(map[string]*Surface),
		now:      time.Now,
	}
}

// GetSurface returns the current state of a surface.
func (s *Store) GetSurface(id string) (*Surface, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	surface, ok := s.surfaces[id]
	return surface, ok
}

// SetSurface stores surface under id and notifies listeners. The caller must
// not modify surface afterwards.
func (s *Store) SetSurface(id string, surface *Surface) {
	s.mu.Lock()
	s.surfaces[id] = surface
	s.mu.Unlock()
	s.notify()
}

// DeleteSurface removes a surface. Deleting an unknown id changes nothing and
// notifies no one.
func (s *Store) DeleteSurface(id string) {
	s.mu.Lock()
	_, ok := s.surfaces[id]
	delete(s.surfaces, id)
	s.mu.Unlock()
	if ok {
		s.notify()
	}
}

// GetData reads a surface's data model at path. An empty path returns the
// whole model. The second result is false when the surface or path is missing.
func (s *Store) GetData(surfaceID, path string) (any, bool) {
	surface, ok := s.GetSurface(surfaceID)
	if !ok {
		return nil, false
	}
	return surface.DataAt(path)
}

// SetData writes value at path in a surface's data model.
func (s *Store) SetData(surfaceID, path string, value any) error {
	return s.ApplyData(surfaceID, DataWrite{Path: path, Value: value})
}

// RemoveData deletes the value at path in a surface's data model.
func (s *Store) RemoveData(surfaceID, path string) error {
	return s.ApplyData(surfaceID, DataWrite{Path: path, Remove: true})
}

// ApplyData commits writes to a surface's data model as one change with a
// single notification. It fails without touching anything when the surface
// does not exist or any write is rejected by datapath.
func (s *Store) ApplyData(surfaceID string, writes ...DataWrite) error {
	s.mu.Lock()
	surface, ok := s.surfaces[surfaceID]
	if !ok {
		s.mu.Unlock()
		return errspkg.SurfaceNotFound(surfaceID)
	}

	data := surface.Data
	for _, w := range writes {
		if w.Remove {
			data = datapath.Without(data, w.Path)
			continue
		}
		next, err := datapath.With(data, w.Path, w.Value)
		if err != nil {
			s.mu.Unlock()
			return fmt.Errorf("write %q: %w", w.Path, err)
		}
		data = next
	}
	s.surfaces[surfaceID] = surface.WithData(data)
	s.mu.Unlock()

	s.notify()
	return nil
}

// Subscribe registers a listener and returns a function that removes it.
// The returned function may be called more than once.
func (s *Store) Subscribe(listener Listener) func() {
	s.listenersMu.Lock()
	defer s.listenersMu.Unlock()

	s.nextListener++
	id := s.nextListener
	s.listeners = append(s.listeners, listenerEntry{id: id, fn: listener})

	return func() {
		s.listenersMu.Lock()
		defer s.listenersMu.Unlock()
		for i, entry := range s.listeners {
			if entry.id == id {
				s.listeners = append(s.listeners[:i:i], s.listeners[i+1:]...)
				return
			}
		}
	}
}

// GetSnapshot returns every surface together with a strictly increasing
// millisecond timestamp.
func (s *Store) GetSnapshot() Snapshot {
	s.mu.RLock()
	surfaces := make(map[string]*Surface, len(s.surfaces))
	for id, surface := range s.surfaces {
		surfaces[id] = surface
	}
	s.mu.RUnlock()

	return Snapshot{Surfaces: surfaces, Timestamp: s.nextTimestamp()}
}

// SurfaceIDs returns the ids of all stored surfaces in sorted order.
func (s *Store) SurfaceIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.surfaces))
	for id := range s.surfaces {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Len returns the number of stored surfaces.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.surfaces)
}

func (s *Store) nextTimestamp() int64 {
	s.clockMu.Lock()
	defer s.clockMu.Unlock()

	ts := s.now().UnixMilli()
	if ts <= s.lastTimestamp {
		ts = s.lastTimestamp + 1
	}
	s.lastTimestamp = ts
	return ts
}

func (s *Store) notify() {
	s.listenersMu.Lock()
	listeners := make([]Listener, len(s.listeners))
	for i, entry := range s.listeners {
		listeners[i] = entry.fn
	}
	s.listenersMu.Unlock()

	for _, fn := range listeners {
		fn()
	}
}
