// Package protocol defines the surface protocol messages and parses them from
// their JSON wire form.
//
// Two schema generations share the wire. The legacy generation uses
// beginRendering, surfaceUpdate and dataModelUpdate; the current one uses
// createSurface, updateComponents and updateDataModel. deleteSurface is common
// to both. Every message is a JSON object with exactly one of these keys.
package protocol

// Kind names the top-level key that identifies a message.
type Kind string

const (
	KindCreateSurface    Kind = "createSurface"
	KindUpdateComponents Kind = "updateComponents"
	KindUpdateDataModel  Kind = "updateDataModel"
	KindDeleteSurface    Kind = "deleteSurface"
	KindBeginRendering   Kind = "beginRendering"
	KindSurfaceUpdate    Kind = "surfaceUpdate"
	KindDataModelUpdate  Kind = "dataModelUpdate"
)

// Kinds lists the accepted message keys in the order they are probed.
var Kinds = []Kind{
	KindCreateSurface,
	KindUpdateComponents,
	KindUpdateDataModel,
	KindDeleteSurface,
	KindBeginRendering,
	KindSurfaceUpdate,
	KindDataModelUpdate,
}

// Op is the mutation requested by updateDataModel.
type Op string

const (
	OpAdd     Op = "add"
	OpReplace Op = "replace"
	OpRemove  Op = "remove"
)

// Message is implemented by every parsed protocol message.
type Message interface {
	Kind() Kind
	Surface() string
}

// ComponentUpdate is one entry of a component update list as it appeared on
// the wire. Component is either a type name (flat form) or an object holding
// the component body (nested form). Fields carries every other key of the
// entry.
type ComponentUpdate struct {
	ID        string
	Component any
	Fields    map[string]any
}

// DataValue is a legacy path/value pair applied under DataModelUpdate.Path.
type DataValue struct {
	Path  string
	Value any
}

// BeginRendering opens a surface (legacy generation).
type BeginRendering struct {
	SurfaceID string
	Root      string
	CatalogID string
	Style     map[string]any
}

// CreateSurface opens a surface.
type CreateSurface struct {
	SurfaceID string
	Root      string
	CatalogID string
	Style     map[string]any
}

// SurfaceUpdate merges components into a surface (legacy generation).
type SurfaceUpdate struct {
	SurfaceID string
	Updates   []ComponentUpdate
}

// UpdateComponents merges components into a surface.
type UpdateComponents struct {
	SurfaceID  string
	Components []ComponentUpdate
}

// DataModelUpdate writes a batch of values below Path (legacy generation).
type DataModelUpdate struct {
	SurfaceID string
	Path      string
	Values    []DataValue
}

// UpdateDataModel writes or removes a single value at Path. HasValue reports
// whether the value key was present on the wire.
type UpdateDataModel struct {
	SurfaceID string
	Path      string
	Op        Op
	Value     any
	HasValue  bool
}

// DeleteSurface removes a surface.
type DeleteSurface struct {
	SurfaceID string
}

func (BeginRendering) Kind() Kind   { return KindBeginRendering }
func (CreateSurface) Kind() Kind    { return KindCreateSurface }
func (SurfaceUpdate) Kind() Kind    { return KindSurfaceUpdate }
func (UpdateComponents) Kind() Kind { return KindUpdateComponents }
func (DataModelUpdate) Kind() Kind  { return KindDataModelUpdate }
func (UpdateDataModel) Kind() Kind  { return KindUpdateDataModel }
func (DeleteSurface) Kind() Kind    { return KindDeleteSurface }

func (m BeginRendering) Surface() string   { return m.SurfaceID }
func (m CreateSurface) Surface() string    { return m.SurfaceID }
func (m SurfaceUpdate) Surface() string    { return m.SurfaceID }
func (m UpdateComponents) Surface() string { return m.SurfaceID }
func (m DataModelUpdate) Surface() string  { return m.SurfaceID }
func (m UpdateDataModel) Surface() string  { return m.SurfaceID }
func (m DeleteSurface) Surface() string    { return m.SurfaceID }
