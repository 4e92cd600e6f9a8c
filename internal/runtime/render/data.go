package render

import errspkg "github.com/drblury/surfaceflow/internal/runtime/errors"

// DataStore is the part of the surface store a DataAccessor needs.
type DataStore interface {
	GetData(surfaceID, path string) (any, bool)
	SetData(surfaceID, path string, value any) error
}

// DataAccessor reads and writes the data model of one surface.
type DataAccessor struct {
	surfaceID string
	store     DataStore
}

// NewDataAccessor scopes store to surfaceID.
func NewDataAccessor(store DataStore, surfaceID string) DataAccessor {
	return DataAccessor{surfaceID: surfaceID, store: store}
}

// SurfaceID returns the surface the accessor is bound to.
func (d DataAccessor) SurfaceID() string {
	return d.surfaceID
}

// Get reads the value at path.
func (d DataAccessor) Get(path string) (any, bool) {
	if d.store == nil {
		return nil, false
	}
	return d.store.GetData(d.surfaceID, path)
}

// Set writes value at path.
func (d DataAccessor) Set(path string, value any) error {
	if d.store == nil {
		return errspkg.ErrStoreRequired
	}
	return d.store.SetData(d.surfaceID, path, value)
}

// DataAs reads the value at path and asserts it to T. The second result is
// false when the path is missing or holds a value of another type.
func DataAs[T any](d DataAccessor, path string) (T, bool) {
	var zero T
	v, ok := d.Get(path)
	if !ok {
		return zero, false
	}
	typed, ok := v.(T)
	if !ok {
		return zero, false
	}
	return typed, true
}
