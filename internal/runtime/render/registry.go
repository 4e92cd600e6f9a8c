package render

import (
	"sort"
	"sync"

	"github.com/drblury/surfaceflow/internal/runtime/component"
	errspkg "github.com/drblury/surfaceflow/internal/runtime/errors"
)

// Node is everything a renderer receives for one component.
type Node struct {
	Component component.Component
	ID        string
	// Children holds the render results of the component's children in
	// order. Children that could not be resolved are left out.
	Children []any
	Data     DataAccessor
	Actions  ActionEmitter
}

// Renderer turns a component and its rendered children into a displayable
// value. The result is opaque to the runtime.
type Renderer interface {
	Render(node Node) any
}

// RenderFunc adapts a plain function to Renderer.
type RenderFunc func(node Node) any

// Render calls f(node).
func (f RenderFunc) Render(node Node) any {
	return f(node)
}

// ScopedRenderer is implemented by renderers that install their own action
// emitter for the subtree below them, for example a form that collects the
// actions of its fields. Scope receives the emitter in effect for the
// component and returns the one its descendants and itself should use.
type ScopedRenderer interface {
	Renderer
	Scope(c component.Component, parent ActionEmitter) ActionEmitter
}

// Registry maps component types to renderers. Registering a type again
// replaces the earlier renderer.
type Registry struct {
	mu        sync.RWMutex
	renderers map[string]Renderer
}

// NewRegistry creates an empty renderer registry.
func NewRegistry() *Registry {
	return &Registry{renderers: make(map[string]Renderer)}
}

// Register installs r for componentType.
func (r *Registry) Register(componentType string, renderer Renderer) error {
	if componentType == "" {
		return errspkg.ErrComponentTypeRequired
	}
	if renderer == nil {
		return errspkg.ErrRendererRequired
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.renderers[componentType] = renderer
	return nil
}

// RegisterFunc installs fn for componentType.
func (r *Registry) RegisterFunc(componentType string, fn func(Node) any) error {
	if fn == nil {
		return errspkg.ErrRendererRequired
	}
	return r.Register(componentType, RenderFunc(fn))
}

// Get returns the renderer for componentType.
func (r *Registry) Get(componentType string) (Renderer, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	renderer, ok := r.renderers[componentType]
	return renderer, ok
}

// All returns a copy of every registration.
func (r *Registry) All() map[string]Renderer {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]Renderer, len(r.renderers))
	for t, renderer := range r.renderers {
		out[t] = renderer
	}
	return out
}

// Types returns the registered component types in sorted order.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	types := make([]string, 0, len(r.renderers))
	for t := range r.renderers {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}
