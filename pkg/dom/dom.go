package dom

import "github.com/vango-dev/reconcile/pkg/vdom"

// Node is a live document node.
type Node interface {
	// Parent returns the parent node, or nil for a detached or top node.
	Parent() Node

	// Children returns the child nodes in order.
	Children() []Node

	// ChildAt returns the child at index i.
	ChildAt(i int) (Node, bool)

	// ChildCount returns the number of children.
	ChildCount() int

	// ReplaceChild puts newChild in place of old.
	ReplaceChild(newChild, old Node) error

	// RemoveChild detaches child.
	RemoveChild(child Node) error

	// InsertBefore inserts newChild before ref. A nil ref appends.
	InsertBefore(newChild, ref Node) error

	// AppendChild adds child as the last child.
	AppendChild(child Node) error
}

// Element is a live element node.
type Element interface {
	Node

	Tag() string
	Attribute(name string) (string, bool)
	SetAttribute(name, value string)
	RemoveAttribute(name string)

	// Attributes returns the current attributes in document order.
	Attributes() vdom.Attrs

	// Subscribe registers listener for events of kind delivered to this
	// element or bubbling up from a descendant.
	Subscribe(kind vdom.EventKind, listener Listener) Subscription
}

// Document creates nodes and locates the mount element.
type Document interface {
	// CreateFromMarkup parses markup into exactly one detached node.
	CreateFromMarkup(markup string) (Node, error)

	// SetInnerMarkup replaces the children of el with the parsed markup.
	SetInnerMarkup(el Element, markup string) error

	// ElementByID finds the element with the given id attribute.
	ElementByID(id string) (Element, bool)
}

// Payload carries the kind-specific fields of a host event.
type Payload = vdom.EventDetail

// Event is a host event delivered to listeners.
type Event struct {
	Kind    vdom.EventKind
	Target  Node
	Payload Payload
}

// Listener receives host events.
type Listener func(Event)

// Subscription is a registered listener.
type Subscription interface {
	// Cancel removes the listener. Cancelling twice is a no-op.
	Cancel()
}

// AsElement is a checked downcast from Node to Element.
func AsElement(n Node) (Element, bool) {
	if n == nil {
		return nil, false
	}
	el, ok := n.(Element)
	return el, ok
}

// SameNode reports whether a and b are the same live node.
func SameNode(a, b Node) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a == b
}

// IndexOf returns the index of child among parent's children by identity,
// or -1.
func IndexOf(parent, child Node) int {
	for i, c := range parent.Children() {
		if SameNode(c, child) {
			return i
		}
	}
	return -1
}
