package render

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drblury/surfaceflow/internal/runtime/component"
	errspkg "github.com/drblury/surfaceflow/internal/runtime/errors"
	"github.com/drblury/surfaceflow/internal/runtime/store"
)

// tag renders a component as "Type(id)[child,child]".
func tag(node Node) any {
	parts := make([]string, 0, len(node.Children))
	for _, child := range node.Children {
		switch v := child.(type) {
		case string:
			parts = append(parts, v)
		case ErrorMarker:
			parts = append(parts, "!"+v.Message)
		}
	}
	out := node.Component.Type + "(" + node.ID + ")"
	if len(parts) > 0 {
		out += "[" + strings.Join(parts, ",") + "]"
	}
	return out
}

func newRegistry(t *testing.T, types ...string) *Registry {
	t.Helper()
	r := NewRegistry()
	for _, typ := range types {
		require.NoError(t, r.RegisterFunc(typ, tag))
	}
	return r
}

func newSurface(st *store.Store, cs ...component.Component) *store.Surface {
	surface := store.NewSurface("s1", "A", "", nil).WithComponents(cs...)
	st.SetSurface("s1", surface)
	return surface
}

func TestDispatcherRendersTreeInChildOrder(t *testing.T) {
	st := store.New()
	surface := newSurface(st,
		component.Component{ID: "A", Type: "Column", Props: map[string]any{"children": []any{"B", "C"}}},
		component.Component{ID: "B", Type: "Text"},
		component.Component{ID: "C", Type: "Card", Props: map[string]any{"child": "D"}},
		component.Component{ID: "D", Type: "Text"},
	)

	d, err := NewDispatcher(newRegistry(t, "Column", "Text", "Card"), st, nil)
	require.NoError(t, err)

	out, ok := d.RenderSurface(surface, nil)
	require.True(t, ok)
	assert.Equal(t, "Column(A)[Text(B),Card(C)[Text(D)]]", out)
}

func TestDispatcherToleratesRemovedChild(t *testing.T) {
	st := store.New()
	newSurface(st,
		component.Component{ID: "A", Type: "Column", Props: map[string]any{"children": []any{"B", "C"}}},
		component.Component{ID: "B", Type: "Text"},
		component.Component{ID: "C", Type: "Text"},
	)
	current, _ := st.GetSurface("s1")
	st.SetSurface("s1", current.WithoutComponents("C"))
	current, _ = st.GetSurface("s1")

	d, err := NewDispatcher(newRegistry(t, "Column", "Text"), st, nil)
	require.NoError(t, err)

	out, ok := d.Render("A", current, nil)
	require.True(t, ok)
	assert.Equal(t, "Column(A)[Text(B)]", out)

	out, ok = d.Render("C", current, nil)
	assert.False(t, ok)
	assert.Nil(t, out)
}

func TestDispatcherMissingRenderer(t *testing.T) {
	st := store.New()
	surface := newSurface(st,
		component.Component{ID: "A", Type: "Column", Props: map[string]any{"children": []any{"B", "C"}}},
		component.Component{ID: "B", Type: "Chart"},
		component.Component{ID: "C", Type: "Text"},
	)

	var missing []string
	d, err := NewDispatcher(newRegistry(t, "Column", "Text"), st, nil,
		WithMissingRendererHook(func(typ string) { missing = append(missing, typ) }))
	require.NoError(t, err)

	out, ok := d.RenderSurface(surface, nil)
	require.True(t, ok)
	assert.Equal(t, "Column(A)[!No renderer for type: Chart,Text(C)]", out)
	assert.Equal(t, []string{"Chart"}, missing)

	marker, ok := d.Render("B", surface, nil)
	require.True(t, ok)
	assert.Equal(t, ErrorMarker{ComponentID: "B", Type: "Chart", Message: "No renderer for type: Chart"}, marker)
}

func TestDispatcherStopsAtCycles(t *testing.T) {
	st := store.New()
	surface := newSurface(st,
		component.Component{ID: "A", Type: "Card", Props: map[string]any{"child": "B"}},
		component.Component{ID: "B", Type: "Card", Props: map[string]any{"child": "A"}},
	)
	d, err := NewDispatcher(newRegistry(t, "Card"), st, nil)
	require.NoError(t, err)

	out, ok := d.RenderSurface(surface, nil)
	require.True(t, ok)
	assert.Equal(t, "Card(A)[Card(B)]", out)
}

func TestDispatcherRendersSharedChildTwice(t *testing.T) {
	st := store.New()
	surface := newSurface(st,
		component.Component{ID: "A", Type: "Row", Props: map[string]any{"children": []any{"B", "B"}}},
		component.Component{ID: "B", Type: "Text"},
	)
	d, err := NewDispatcher(newRegistry(t, "Row", "Text"), st, nil)
	require.NoError(t, err)

	out, _ := d.RenderSurface(surface, nil)
	assert.Equal(t, "Row(A)[Text(B),Text(B)]", out)
}

func TestDispatcherDataAccessorIsScopedToSurface(t *testing.T) {
	st := store.New()
	surface := newSurface(st, component.Component{ID: "A", Type: "Field"})
	st.SetSurface("other", store.NewSurface("other", "x", "", nil))

	r := NewRegistry()
	require.NoError(t, r.RegisterFunc("Field", func(node Node) any {
		require.NoError(t, node.Data.Set("form.name", "Ada"))
		name, _ := DataAs[string](node.Data, "form.name")
		return name
	}))
	d, err := NewDispatcher(r, st, nil)
	require.NoError(t, err)

	out, _ := d.RenderSurface(surface, nil)
	assert.Equal(t, "Ada", out)

	_, ok := st.GetData("other", "form.name")
	assert.False(t, ok)
	v, _ := st.GetData("s1", "form.name")
	assert.Equal(t, "Ada", v)
}

type formRenderer struct {
	captured *[]Action
}

func (f formRenderer) Render(node Node) any {
	return tag(node)
}

func (f formRenderer) Scope(_ component.Component, parent ActionEmitter) ActionEmitter {
	return ActionEmitterFunc(func(a Action) {
		*f.captured = append(*f.captured, a)
	})
}

func TestDispatcherActionEmitters(t *testing.T) {
	st := store.New()
	surface := newSurface(st,
		component.Component{ID: "A", Type: "Column", Props: map[string]any{"children": []any{"btn", "form"}}},
		component.Component{ID: "btn", Type: "Button"},
		component.Component{ID: "form", Type: "Form", Props: map[string]any{"child": "submit"}},
		component.Component{ID: "submit", Type: "Button"},
	)

	var defaults, scoped []Action
	r := newRegistry(t, "Column")
	require.NoError(t, r.RegisterFunc("Button", func(node Node) any {
		node.Actions.Emit(Action{Type: "click", Payload: map[string]any{"id": node.ID}})
		return node.ID
	}))
	require.NoError(t, r.Register("Form", formRenderer{captured: &scoped}))

	d, err := NewDispatcher(r, st, ActionEmitterFunc(func(a Action) { defaults = append(defaults, a) }))
	require.NoError(t, err)
	d.RenderSurface(surface, nil)

	require.Len(t, defaults, 1)
	assert.Equal(t, Action{Type: "click", SurfaceID: "s1", Payload: map[string]any{"id": "btn"}}, defaults[0])
	require.Len(t, scoped, 1)
	assert.Equal(t, Action{Type: "click", SurfaceID: "s1", Payload: map[string]any{"id": "submit"}}, scoped[0])

	var explicit []Action
	d.Render("btn", surface, ActionEmitterFunc(func(a Action) { explicit = append(explicit, a) }))
	assert.Len(t, explicit, 1)
	assert.Len(t, defaults, 1)
}

func TestNewDispatcherRequiresDependencies(t *testing.T) {
	_, err := NewDispatcher(nil, store.New(), nil)
	assert.True(t, errors.Is(err, errspkg.ErrRegistryRequired))

	_, err = NewDispatcher(NewRegistry(), nil, nil)
	assert.True(t, errors.Is(err, errspkg.ErrStoreRequired))
}

func TestRenderNilSurface(t *testing.T) {
	d, err := NewDispatcher(NewRegistry(), store.New(), nil)
	require.NoError(t, err)

	_, ok := d.RenderSurface(nil, nil)
	assert.False(t, ok)
}
