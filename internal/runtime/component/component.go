// Package component holds the canonical in-memory component and the helpers
// that bridge the two wire encodings of component updates.
package component

import (
	"github.com/drblury/surfaceflow/internal/runtime/jsoncodec"
	"github.com/drblury/surfaceflow/internal/runtime/protocol"
)

// Component types the runtime treats specially.
const (
	TypeText  = "Text"
	TypeModal = "Modal"
	TypeTabs  = "Tabs"
)

// Component is one node of a surface tree. ID and Type form the common
// header; Props carries every other field and is open to any component type.
// Components stored in a surface are shared between snapshots and must be
// treated as read-only.
type Component struct {
	ID    string
	Type  string
	Props map[string]any
}

// Prop returns the named property.
func (c Component) Prop(name string) (any, bool) {
	v, ok := c.Props[name]
	return v, ok
}

// StringProp returns the named property when it is a string.
func (c Component) StringProp(name string) (string, bool) {
	s, ok := c.Props[name].(string)
	return s, ok
}

// Map returns the flat object form {id, type, ...props}.
func (c Component) Map() map[string]any {
	out := make(map[string]any, len(c.Props)+2)
	for k, v := range c.Props {
		out[k] = v
	}
	out["id"] = c.ID
	out["type"] = c.Type
	return out
}

func (c Component) MarshalJSON() ([]byte, error) {
	return jsoncodec.Marshal(c.Map())
}

// Normalize converts a wire update into a Component.
//
// When update.Component is a string it is the type name and the remaining
// entry fields become props. When it is an object, that object is the
// component: its id falls back to update.ID, and a Text component carrying
// content but no text gets text copied from content.
func Normalize(update protocol.ComponentUpdate) Component {
	switch body := update.Component.(type) {
	case string:
		return Component{ID: update.ID, Type: body, Props: cloneProps(update.Fields)}
	case map[string]any:
		c := Component{ID: update.ID, Props: make(map[string]any, len(body))}
		for k, v := range body {
			switch k {
			case "id":
				if id, ok := v.(string); ok && id != "" {
					c.ID = id
				}
			case "type":
				c.Type, _ = v.(string)
			default:
				c.Props[k] = v
			}
		}
		if c.Type == TypeText {
			if content, ok := c.Props["content"]; ok {
				if _, hasText := c.Props["text"]; !hasText {
					c.Props["text"] = content
				}
			}
		}
		return c
	default:
		return Component{ID: update.ID, Props: cloneProps(update.Fields)}
	}
}

// TextContent returns text, else content, else the empty string.
func TextContent(c Component) string {
	if s, ok := c.StringProp("text"); ok {
		return s
	}
	if s, ok := c.StringProp("content"); ok {
		return s
	}
	return ""
}

// UpdatesOf returns the component update list of either update generation.
// Other messages yield an empty list.
func UpdatesOf(msg protocol.Message) []protocol.ComponentUpdate {
	switch m := msg.(type) {
	case protocol.UpdateComponents:
		if m.Components != nil {
			return m.Components
		}
	case protocol.SurfaceUpdate:
		if m.Updates != nil {
			return m.Updates
		}
	}
	return []protocol.ComponentUpdate{}
}

func cloneProps(fields map[string]any) map[string]any {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		if k == "id" || k == "component" {
			continue
		}
		out[k] = v
	}
	return out
}
