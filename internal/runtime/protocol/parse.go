package protocol

import (
	"fmt"
	"strings"

	"github.com/drblury/surfaceflow/internal/runtime/jsoncodec"
)

// ParseError reports a message that is not valid JSON or violates the schema
// of its kind. Reason is human readable and names the offending field.
type ParseError struct {
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	return e.Reason
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

func parseErrorf(format string, args ...any) *ParseError {
	return &ParseError{Reason: fmt.Sprintf(format, args...)}
}

// Parse decodes and validates a single JSON message.
func Parse(text string) (Message, error) {
	var decoded any
	if err := jsoncodec.UnmarshalString(text, &decoded); err != nil {
		return nil, &ParseError{Reason: "Invalid JSON: " + err.Error(), Err: err}
	}

	obj, ok := decoded.(map[string]any)
	if !ok {
		return nil, parseErrorf("Message must be a JSON object")
	}

	for _, kind := range Kinds {
		raw, present := obj[string(kind)]
		if !present {
			continue
		}
		body, ok := raw.(map[string]any)
		if !ok {
			return nil, parseErrorf("%s must be an object", kind)
		}
		return parseKind(kind, body)
	}

	return nil, parseErrorf("Unknown message type: expected one of %s", acceptedKeys())
}

func parseKind(kind Kind, body map[string]any) (Message, error) {
	f := fields{kind: kind, body: body}

	switch kind {
	case KindBeginRendering, KindCreateSurface:
		surfaceID, err := f.requiredString("surfaceId")
		if err != nil {
			return nil, err
		}
		root, err := f.requiredString("root")
		if err != nil {
			return nil, err
		}
		catalogID, err := f.optionalString("catalogId")
		if err != nil {
			return nil, err
		}
		style, err := f.optionalObject("style")
		if err != nil {
			return nil, err
		}
		if kind == KindBeginRendering {
			return BeginRendering{SurfaceID: surfaceID, Root: root, CatalogID: catalogID, Style: style}, nil
		}
		return CreateSurface{SurfaceID: surfaceID, Root: root, CatalogID: catalogID, Style: style}, nil

	case KindSurfaceUpdate:
		surfaceID, updates, err := f.componentList("updates")
		if err != nil {
			return nil, err
		}
		return SurfaceUpdate{SurfaceID: surfaceID, Updates: updates}, nil

	case KindUpdateComponents:
		surfaceID, components, err := f.componentList("components")
		if err != nil {
			return nil, err
		}
		return UpdateComponents{SurfaceID: surfaceID, Components: components}, nil

	case KindDataModelUpdate:
		return f.dataModelUpdate()

	case KindUpdateDataModel:
		return f.updateDataModel()

	case KindDeleteSurface:
		surfaceID, err := f.requiredString("surfaceId")
		if err != nil {
			return nil, err
		}
		return DeleteSurface{SurfaceID: surfaceID}, nil
	}

	return nil, parseErrorf("Unknown message type: expected one of %s", acceptedKeys())
}

type fields struct {
	kind Kind
	body map[string]any
}

func (f fields) requiredString(name string) (string, error) {
	s, ok := f.body[name].(string)
	if !ok || s == "" {
		return "", parseErrorf("%s.%s must be a non-empty string", f.kind, name)
	}
	return s, nil
}

func (f fields) optionalString(name string) (string, error) {
	raw, present := f.body[name]
	if !present || raw == nil {
		return "", nil
	}
	s, ok := raw.(string)
	if !ok {
		return "", parseErrorf("%s.%s must be a string", f.kind, name)
	}
	return s, nil
}

func (f fields) optionalObject(name string) (map[string]any, error) {
	raw, present := f.body[name]
	if !present || raw == nil {
		return nil, nil
	}
	obj, ok := raw.(map[string]any)
	if !ok {
		return nil, parseErrorf("%s.%s must be an object", f.kind, name)
	}
	return obj, nil
}

func (f fields) componentList(listField string) (string, []ComponentUpdate, error) {
	surfaceID, err := f.requiredString("surfaceId")
	if err != nil {
		return "", nil, err
	}

	list, ok := f.body[listField].([]any)
	if !ok {
		return "", nil, parseErrorf("%s.%s must be an array", f.kind, listField)
	}

	updates := make([]ComponentUpdate, 0, len(list))
	for i, item := range list {
		prefix := fmt.Sprintf("%s.%s[%d]", f.kind, listField, i)
		entry, ok := item.(map[string]any)
		if !ok {
			return "", nil, parseErrorf("%s must be an object", prefix)
		}
		id, ok := entry["id"].(string)
		if !ok || id == "" {
			return "", nil, parseErrorf("%s.id must be a non-empty string", prefix)
		}
		component, ok := entry["component"].(map[string]any)
		if !ok {
			return "", nil, parseErrorf("%s.component must be an object", prefix)
		}

		extra := make(map[string]any, len(entry))
		for k, v := range entry {
			if k == "id" || k == "component" {
				continue
			}
			extra[k] = v
		}
		updates = append(updates, ComponentUpdate{ID: id, Component: component, Fields: extra})
	}
	return surfaceID, updates, nil
}

func (f fields) dataModelUpdate() (Message, error) {
	surfaceID, err := f.requiredString("surfaceId")
	if err != nil {
		return nil, err
	}
	base, err := f.optionalString("path")
	if err != nil {
		return nil, err
	}

	list, ok := f.body["values"].([]any)
	if !ok {
		return nil, parseErrorf("%s.values must be an array", f.kind)
	}

	values := make([]DataValue, 0, len(list))
	for i, item := range list {
		prefix := fmt.Sprintf("%s.values[%d]", f.kind, i)
		entry, ok := item.(map[string]any)
		if !ok {
			return nil, parseErrorf("%s must be an object", prefix)
		}
		path, ok := entry["path"].(string)
		if !ok || path == "" {
			return nil, parseErrorf("%s.path must be a non-empty string", prefix)
		}
		value, present := entry["value"]
		if !present {
			return nil, parseErrorf("%s.value is required", prefix)
		}
		values = append(values, DataValue{Path: path, Value: value})
	}

	return DataModelUpdate{SurfaceID: surfaceID, Path: base, Values: values}, nil
}

func (f fields) updateDataModel() (Message, error) {
	surfaceID, err := f.requiredString("surfaceId")
	if err != nil {
		return nil, err
	}
	path, err := f.optionalString("path")
	if err != nil {
		return nil, err
	}
	op, err := f.optionalString("op")
	if err != nil {
		return nil, err
	}
	switch Op(op) {
	case "", OpAdd, OpReplace, OpRemove:
	default:
		return nil, parseErrorf("%s.op must be one of %s, %s, %s", f.kind, OpAdd, OpReplace, OpRemove)
	}

	value, present := f.body["value"]
	return UpdateDataModel{
		SurfaceID: surfaceID,
		Path:      path,
		Op:        Op(op),
		Value:     value,
		HasValue:  present,
	}, nil
}

func acceptedKeys() string {
	names := make([]string, len(Kinds))
	for i, k := range Kinds {
		names[i] = string(k)
	}
	return strings.Join(names, ", ")
}
