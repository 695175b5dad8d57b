package vdom

// EventKind names a host event (e.g., "click").
type EventKind string

// Supported event kinds. Any other kind can be used through On.
const (
	EventClick    EventKind = "click"
	EventDblClick EventKind = "dblclick"
	EventKeyDown  EventKind = "keydown"
	EventKeyUp    EventKind = "keyup"
	EventInput    EventKind = "input"
	EventChange   EventKind = "change"
	EventSubmit   EventKind = "submit"
	EventFocus    EventKind = "focus"
	EventBlur     EventKind = "blur"
)

// DefaultEventKinds are subscribed at mount unless overridden.
var DefaultEventKinds = []EventKind{EventClick, EventKeyDown, EventInput}

// EventHandler binds a handler to an event kind.
type EventHandler struct {
	Kind    EventKind
	Handler Handler
}

// On binds handler to an arbitrary event kind.
func On(kind EventKind, handler Handler) EventHandler {
	return EventHandler{Kind: kind, Handler: handler}
}

// Mouse events

// OnClick handles click events.
func OnClick(handler Handler) EventHandler { return On(EventClick, handler) }

// OnDblClick handles double-click events.
func OnDblClick(handler Handler) EventHandler { return On(EventDblClick, handler) }

// Keyboard events

// OnKeyDown handles keydown events.
func OnKeyDown(handler Handler) EventHandler { return On(EventKeyDown, handler) }

// OnKeyUp handles keyup events.
func OnKeyUp(handler Handler) EventHandler { return On(EventKeyUp, handler) }

// Form events

// OnInput handles input events (fired when value changes).
func OnInput(handler Handler) EventHandler { return On(EventInput, handler) }

// OnChange handles change events (fired when value is committed).
func OnChange(handler Handler) EventHandler { return On(EventChange, handler) }

// OnSubmit handles form submit events.
func OnSubmit(handler Handler) EventHandler { return On(EventSubmit, handler) }

// OnFocus handles focus events.
func OnFocus(handler Handler) EventHandler { return On(EventFocus, handler) }

// OnBlur handles blur events.
func OnBlur(handler Handler) EventHandler { return On(EventBlur, handler) }

// Adapters

// Do adapts a function that mutates captured state into a Handler.
func Do(fn func()) Handler {
	return func(Event) Msg {
		fn()
		return nil
	}
}

// Send returns a Handler that always emits msg.
func Send(msg Msg) Handler {
	return func(Event) Msg { return msg }
}
