package vdom

// VKind is the node type discriminator.
type VKind uint8

const (
	KindElement VKind = iota // <div>, <button>, etc.
	KindText                 // Plain text node
)

// String returns the string representation of the VKind.
func (k VKind) String() string {
	switch k {
	case KindElement:
		return "Element"
	case KindText:
		return "Text"
	default:
		return "Unknown"
	}
}

// VNode is the virtual DOM node produced by a component render.
//
// Element nodes use Tag, Attrs, Handlers and Children. Text nodes use Text.
// Children are identified by position only.
type VNode struct {
	Kind     VKind    // Node type
	Tag      string   // Element tag name (e.g., "div")
	Attrs    Attrs    // Ordered attributes
	Handlers Handlers // At most one handler per event kind
	Children []*VNode // Child nodes
	Text     string   // For KindText
}

// IsElement reports whether v is a non-nil element node.
func (v *VNode) IsElement() bool {
	return v != nil && v.Kind == KindElement
}

// IsInteractive returns true if this node is an element with event handlers.
func (v *VNode) IsInteractive() bool {
	return v.IsElement() && len(v.Handlers) > 0
}

// Handler returns the handler registered for kind, if any.
func (v *VNode) Handler(kind EventKind) (Handler, bool) {
	if !v.IsElement() {
		return nil, false
	}
	h, ok := v.Handlers[kind]
	if !ok || h == nil {
		return nil, false
	}
	return h, true
}

// Msg describes a state change requested by a handler.
// A nil Msg means the handler already applied its change (or made none).
type Msg any

// Handler is an event handler. It receives the host event and may return a
// Msg for the owning component to apply.
type Handler func(Event) Msg

// Handlers maps an event kind to its single handler.
type Handlers map[EventKind]Handler

// Event is the payload delivered to handlers.
type Event struct {
	Kind   EventKind
	Path   Path
	Detail EventDetail
}

// Modifiers represents keyboard/mouse modifier keys.
type Modifiers uint8

const (
	ModCtrl  Modifiers = 0x01
	ModShift Modifiers = 0x02
	ModAlt   Modifiers = 0x04
	ModMeta  Modifiers = 0x08
)

// Has returns true if the specified modifier is set.
func (m Modifiers) Has(mod Modifiers) bool {
	return m&mod != 0
}

// EventDetail carries the kind-specific fields of a host event.
// Fields that do not apply to the event kind are zero.
type EventDetail struct {
	ClientX   int       `json:"clientX,omitempty"`
	ClientY   int       `json:"clientY,omitempty"`
	Button    uint8     `json:"button,omitempty"`
	Key       string    `json:"key,omitempty"`
	Code      string    `json:"code,omitempty"`
	Value     string    `json:"value,omitempty"`
	Modifiers Modifiers `json:"modifiers,omitempty"`
}

// Component is anything that can render to a VNode.
// Render must be a pure function of component state.
type Component interface {
	Render() *VNode
}

// Updater is implemented by components that apply handler messages.
type Updater interface {
	Update(Msg)
}

// FuncComponent wraps a render function.
type FuncComponent struct {
	render func() *VNode
}

// Render implements Component.
func (f *FuncComponent) Render() *VNode {
	return f.render()
}

// Func creates a component from a render function.
func Func(render func() *VNode) Component {
	return &FuncComponent{render: render}
}
