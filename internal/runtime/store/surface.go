package store

import (
	"github.com/drblury/surfaceflow/internal/runtime/component"
	"github.com/drblury/surfaceflow/internal/runtime/datapath"
)

// Surface is the state of one independently addressable UI region. A Surface
// held by the Store is never modified; every change produces a new value via
// the With* methods.
type Surface struct {
	ID              string                         `json:"id"`
	RootComponentID string                         `json:"rootComponentId"`
	CatalogID       string                         `json:"catalogId,omitempty"`
	StyleOverrides  map[string]any                 `json:"styleOverrides,omitempty"`
	Components      map[string]component.Component `json:"components"`
	Data            map[string]any                 `json:"data"`
}

// NewSurface returns an empty surface rooted at rootID.
func NewSurface(id, rootID, catalogID string, style map[string]any) *Surface {
	return &Surface{
		ID:              id,
		RootComponentID: rootID,
		CatalogID:       catalogID,
		StyleOverrides:  style,
		Components:      map[string]component.Component{},
		Data:            map[string]any{},
	}
}

// Component looks up a component by id.
func (s *Surface) Component(id string) (component.Component, bool) {
	c, ok := s.Components[id]
	return c, ok
}

// WithComponents returns a copy whose catalog has cs merged in by id.
func (s *Surface) WithComponents(cs ...component.Component) *Surface {
	next := *s
	next.Components = make(map[string]component.Component, len(s.Components)+len(cs))
	for id, c := range s.Components {
		next.Components[id] = c
	}
	for _, c := range cs {
		next.Components[c.ID] = c
	}
	return &next
}

// WithoutComponents returns a copy whose catalog no longer holds ids.
func (s *Surface) WithoutComponents(ids ...string) *Surface {
	next := *s
	next.Components = make(map[string]component.Component, len(s.Components))
	for id, c := range s.Components {
		next.Components[id] = c
	}
	for _, id := range ids {
		delete(next.Components, id)
	}
	return &next
}

// WithData returns a copy carrying data as its data model.
func (s *Surface) WithData(data map[string]any) *Surface {
	next := *s
	if data == nil {
		data = map[string]any{}
	}
	next.Data = data
	return &next
}

// DataAt reads the data model. An empty path returns the whole model.
func (s *Surface) DataAt(path string) (any, bool) {
	return datapath.Get(s.Data, path)
}
