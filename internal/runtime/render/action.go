package render

// Action is an event raised by a rendered component, typically on user
// interaction, and forwarded to the host.
type Action struct {
	ID        string         `json:"id,omitempty"`
	Type      string         `json:"type"`
	SurfaceID string         `json:"surfaceId,omitempty"`
	Payload   map[string]any `json:"payload,omitempty"`
}

// ActionEmitter receives actions raised by renderers.
type ActionEmitter interface {
	Emit(action Action)
}

// ActionEmitterFunc adapts a plain function to ActionEmitter.
type ActionEmitterFunc func(action Action)

// Emit calls f(action).
func (f ActionEmitterFunc) Emit(action Action) {
	f(action)
}

// DiscardActions drops every action.
var DiscardActions ActionEmitter = ActionEmitterFunc(func(Action) {})

// surfaceEmitter fills in the surface id of actions that do not carry one.
type surfaceEmitter struct {
	surfaceID string
	next      ActionEmitter
}

func (e surfaceEmitter) Emit(action Action) {
	if action.SurfaceID == "" {
		action.SurfaceID = e.surfaceID
	}
	e.next.Emit(action)
}
