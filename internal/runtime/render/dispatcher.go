// Package render walks a surface's component tree and hands each node to the
// renderer registered for its type.
package render

import (
	"fmt"

	"github.com/drblury/surfaceflow/internal/runtime/component"
	errspkg "github.com/drblury/surfaceflow/internal/runtime/errors"
	"github.com/drblury/surfaceflow/internal/runtime/store"
)

// ErrorMarker is rendered in place of a component whose type has no renderer.
type ErrorMarker struct {
	ComponentID string `json:"componentId"`
	Type        string `json:"type"`
	Message     string `json:"message"`
}

func (m ErrorMarker) String() string {
	return m.Message
}

// MissingRenderer builds the marker for a component of an unregistered type.
func MissingRenderer(c component.Component) ErrorMarker {
	return ErrorMarker{
		ComponentID: c.ID,
		Type:        c.Type,
		Message:     fmt.Sprintf("No renderer for type: %s", c.Type),
	}
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithMissingRendererHook calls fn with the component type each time a
// component is rendered as an ErrorMarker.
func WithMissingRendererHook(fn func(componentType string)) DispatcherOption {
	return func(d *Dispatcher) {
		d.onMissing = fn
	}
}

// Dispatcher renders component trees. It is safe for concurrent use as long as
// the registered renderers are.
type Dispatcher struct {
	registry  *Registry
	data      DataStore
	emitter   ActionEmitter
	onMissing func(componentType string)
}

// NewDispatcher creates a dispatcher. defaultEmitter receives actions from
// subtrees that have no scoped emitter; nil discards them.
func NewDispatcher(registry *Registry, data DataStore, defaultEmitter ActionEmitter, opts ...DispatcherOption) (*Dispatcher, error) {
	if registry == nil {
		return nil, errspkg.ErrRegistryRequired
	}
	if data == nil {
		return nil, errspkg.ErrStoreRequired
	}
	if defaultEmitter == nil {
		defaultEmitter = DiscardActions
	}
	d := &Dispatcher{registry: registry, data: data, emitter: defaultEmitter}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// Render renders the component componentID of surface and, recursively, its
// children depth first. A nil emitter selects the default one. The second
// result is false when the component is not in the surface catalog.
func (d *Dispatcher) Render(componentID string, surface *store.Surface, emitter ActionEmitter) (any, bool) {
	if surface == nil {
		return nil, false
	}
	if emitter == nil {
		emitter = d.emitter
	}
	emitter = surfaceEmitter{surfaceID: surface.ID, next: emitter}
	return d.render(componentID, surface, emitter, map[string]bool{})
}

// RenderSurface renders surface from its root component.
func (d *Dispatcher) RenderSurface(surface *store.Surface, emitter ActionEmitter) (any, bool) {
	if surface == nil {
		return nil, false
	}
	return d.Render(surface.RootComponentID, surface, emitter)
}

// render tracks the ids on the current path; a component that refers back
// to one of its ancestors renders as nothing at that position.
func (d *Dispatcher) render(id string, surface *store.Surface, emitter ActionEmitter, path map[string]bool) (any, bool) {
	c, ok := surface.Component(id)
	if !ok || path[id] {
		return nil, false
	}

	renderer, ok := d.registry.Get(c.Type)
	if !ok {
		if d.onMissing != nil {
			d.onMissing(c.Type)
		}
		return MissingRenderer(c), true
	}
	if scoped, ok := renderer.(ScopedRenderer); ok {
		if next := scoped.Scope(c, emitter); next != nil {
			emitter = surfaceEmitter{surfaceID: surface.ID, next: next}
		}
	}

	path[id] = true
	childIDs := component.ChildIDs(c)
	children := make([]any, 0, len(childIDs))
	for _, childID := range childIDs {
		if result, ok := d.render(childID, surface, emitter, path); ok {
			children = append(children, result)
		}
	}
	delete(path, id)

	return renderer.Render(Node{
		Component: c,
		ID:        id,
		Children:  children,
		Data:      NewDataAccessor(d.data, surface.ID),
		Actions:   emitter,
	}), true
}
