// Package router applies parsed protocol messages to the surface store.
//
// Messages are applied one at a time in the order Apply is called. Each
// message results in at most one store write, so its effects become visible
// to readers all at once.
package router

import (
	"fmt"

	"github.com/drblury/surfaceflow/internal/runtime/component"
	"github.com/drblury/surfaceflow/internal/runtime/datapath"
	errspkg "github.com/drblury/surfaceflow/internal/runtime/errors"
	"github.com/drblury/surfaceflow/internal/runtime/logging"
	"github.com/drblury/surfaceflow/internal/runtime/protocol"
	"github.com/drblury/surfaceflow/internal/runtime/store"
)

// SurfaceStore is the part of the surface store the router writes to.
type SurfaceStore interface {
	GetSurface(id string) (*store.Surface, bool)
	SetSurface(id string, surface *store.Surface)
	DeleteSurface(id string)
	ApplyData(surfaceID string, writes ...store.DataWrite) error
}

// ComponentValidator checks a component against the catalog its surface
// declares.
type ComponentValidator interface {
	Validate(catalogID string, c component.Component) error
}

// Warning describes a message, or part of one, that was skipped.
type Warning struct {
	Kind        protocol.Kind
	SurfaceID   string
	ComponentID string
	Reason      string
	Err         error
}

// Option configures a Router.
type Option func(*Router)

// WithValidator rejects components that fail v. Rejected components are
// skipped with a warning while the rest of the update still applies.
func WithValidator(v ComponentValidator) Option {
	return func(r *Router) {
		r.validator = v
	}
}

// WithWarningHook calls fn for every warning after it is logged.
func WithWarningHook(fn func(Warning)) Option {
	return func(r *Router) {
		r.onWarning = fn
	}
}

// WithAppliedHook calls fn with the kind of every message that changed the
// store.
func WithAppliedHook(fn func(protocol.Kind)) Option {
	return func(r *Router) {
		r.onApplied = fn
	}
}

// Router is the single writer of a surface store.
type Router struct {
	store     SurfaceStore
	logger    logging.ServiceLogger
	validator ComponentValidator
	onWarning func(Warning)
	onApplied func(protocol.Kind)
}

// New creates a router writing to st.
func New(st SurfaceStore, logger logging.ServiceLogger, opts ...Option) (*Router, error) {
	if st == nil {
		return nil, errspkg.ErrStoreRequired
	}
	if logger == nil {
		return nil, errspkg.ErrLoggerRequired
	}
	r := &Router{store: st, logger: logger}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Apply commits the effects of msg. Updates that target an unknown surface are
// logged as warnings and skipped; they are not errors.
func (r *Router) Apply(msg protocol.Message) error {
	switch m := msg.(type) {
	case protocol.CreateSurface:
		r.open(m.Kind(), m.SurfaceID, m.Root, m.CatalogID, m.Style)
	case protocol.BeginRendering:
		r.open(m.Kind(), m.SurfaceID, m.Root, m.CatalogID, m.Style)
	case protocol.UpdateComponents, protocol.SurfaceUpdate:
		r.mergeComponents(msg)
	case protocol.DataModelUpdate:
		writes := make([]store.DataWrite, 0, len(m.Values))
		for _, v := range m.Values {
			writes = append(writes, store.DataWrite{Path: datapath.Join(m.Path, v.Path), Value: v.Value})
		}
		r.writeData(m.Kind(), m.SurfaceID, writes)
	case protocol.UpdateDataModel:
		write := store.DataWrite{Path: m.Path, Value: m.Value}
		if m.Op == protocol.OpRemove {
			write = store.DataWrite{Path: m.Path, Remove: true}
		}
		r.writeData(m.Kind(), m.SurfaceID, []store.DataWrite{write})
	case protocol.DeleteSurface:
		r.store.DeleteSurface(m.SurfaceID)
		r.applied(m.Kind())
	case nil:
		return fmt.Errorf("surfaceflow: nil message")
	default:
		return fmt.Errorf("surfaceflow: unsupported message kind %q", msg.Kind())
	}
	return nil
}

func (r *Router) open(kind protocol.Kind, id, root, catalogID string, style map[string]any) {
	r.store.SetSurface(id, store.NewSurface(id, root, catalogID, style))
	r.applied(kind)
}

func (r *Router) mergeComponents(msg protocol.Message) {
	surface, ok := r.store.GetSurface(msg.Surface())
	if !ok {
		r.warn(Warning{Kind: msg.Kind(), SurfaceID: msg.Surface(), Reason: "surface not found"})
		return
	}

	updates := component.UpdatesOf(msg)
	merged := make([]component.Component, 0, len(updates))
	for _, update := range updates {
		c := component.Normalize(update)
		if r.validator != nil {
			if err := r.validator.Validate(surface.CatalogID, c); err != nil {
				r.warn(Warning{
					Kind:        msg.Kind(),
					SurfaceID:   surface.ID,
					ComponentID: c.ID,
					Reason:      "component rejected by catalog",
					Err:         err,
				})
				continue
			}
		}
		merged = append(merged, c)
	}

	r.store.SetSurface(msg.Surface(), surface.WithComponents(merged...))
	r.applied(msg.Kind())
}

func (r *Router) writeData(kind protocol.Kind, surfaceID string, writes []store.DataWrite) {
	if _, ok := r.store.GetSurface(surfaceID); !ok {
		r.warn(Warning{Kind: kind, SurfaceID: surfaceID, Reason: "surface not found"})
		return
	}
	if err := r.store.ApplyData(surfaceID, writes...); err != nil {
		r.warn(Warning{Kind: kind, SurfaceID: surfaceID, Reason: "data update failed", Err: err})
		return
	}
	r.applied(kind)
}

func (r *Router) warn(w Warning) {
	fields := logging.LogFields{
		"message_kind": string(w.Kind),
		"surface_id":   w.SurfaceID,
	}
	if w.ComponentID != "" {
		fields["component_id"] = w.ComponentID
	}
	if w.Err != nil {
		fields["error"] = w.Err.Error()
	}
	r.logger.Warn(string(w.Kind)+" skipped: "+w.Reason, fields)
	if r.onWarning != nil {
		r.onWarning(w)
	}
}

func (r *Router) applied(kind protocol.Kind) {
	if r.onApplied != nil {
		r.onApplied(kind)
	}
}
