package htmldom

import (
	"fmt"

	"golang.org/x/net/html"

	"github.com/vango-dev/reconcile/pkg/dom"
	"github.com/vango-dev/reconcile/pkg/vdom"
)

// Node is a live node handle. Text, comment and document nodes are Nodes;
// elements are *Element.
type Node struct {
	n   *html.Node
	doc *Document
}

// HTML returns the underlying html node.
func (x *Node) HTML() *html.Node {
	return x.n
}

// IsText reports whether x is a text node.
func (x *Node) IsText() bool {
	return x.n.Type == html.TextNode
}

// Text returns the text of a text node.
func (x *Node) Text() string {
	if x.n.Type != html.TextNode {
		return ""
	}
	return x.n.Data
}

// Parent returns the parent node, or nil for a detached node.
func (x *Node) Parent() dom.Node {
	if x.n.Parent == nil {
		return nil
	}
	return x.doc.wrap(x.n.Parent)
}

// Children returns the child nodes in order.
func (x *Node) Children() []dom.Node {
	var out []dom.Node
	for c := x.n.FirstChild; c != nil; c = c.NextSibling {
		out = append(out, x.doc.wrap(c))
	}
	return out
}

// ChildAt returns the child at index i.
func (x *Node) ChildAt(i int) (dom.Node, bool) {
	if i < 0 {
		return nil, false
	}
	c := x.n.FirstChild
	for ; c != nil && i > 0; i-- {
		c = c.NextSibling
	}
	if c == nil {
		return nil, false
	}
	return x.doc.wrap(c), true
}

// ChildCount returns the number of children.
func (x *Node) ChildCount() int {
	count := 0
	for c := x.n.FirstChild; c != nil; c = c.NextSibling {
		count++
	}
	return count
}

// ReplaceChild puts newChild in place of old.
func (x *Node) ReplaceChild(newChild, old dom.Node) error {
	nn, on, err := x.pair(newChild, old)
	if err != nil {
		return err
	}
	detach(nn)
	x.n.InsertBefore(nn, on)
	x.n.RemoveChild(on)
	x.doc.forget(on)
	return nil
}

// RemoveChild detaches child.
func (x *Node) RemoveChild(child dom.Node) error {
	cn, err := x.doc.unwrap(child)
	if err != nil {
		return err
	}
	if cn.Parent != x.n {
		return fmt.Errorf("htmldom: remove: not a child")
	}
	x.n.RemoveChild(cn)
	x.doc.forget(cn)
	return nil
}

// InsertBefore inserts newChild before ref. A nil ref appends.
func (x *Node) InsertBefore(newChild, ref dom.Node) error {
	if ref == nil {
		return x.AppendChild(newChild)
	}
	nn, rn, err := x.pair(newChild, ref)
	if err != nil {
		return err
	}
	detach(nn)
	x.n.InsertBefore(nn, rn)
	return nil
}

// AppendChild adds child as the last child.
func (x *Node) AppendChild(child dom.Node) error {
	cn, err := x.doc.unwrap(child)
	if err != nil {
		return err
	}
	if x.n.Type != html.ElementNode && x.n.Type != html.DocumentNode {
		return fmt.Errorf("htmldom: append to %s node", nodeType(x.n))
	}
	detach(cn)
	x.n.AppendChild(cn)
	return nil
}

// pair unwraps a new node and an existing child of x.
func (x *Node) pair(newChild, existing dom.Node) (*html.Node, *html.Node, error) {
	nn, err := x.doc.unwrap(newChild)
	if err != nil {
		return nil, nil, err
	}
	en, err := x.doc.unwrap(existing)
	if err != nil {
		return nil, nil, err
	}
	if en.Parent != x.n {
		return nil, nil, fmt.Errorf("htmldom: reference node is not a child")
	}
	if nn == en {
		return nil, nil, fmt.Errorf("htmldom: node inserted relative to itself")
	}
	return nn, en, nil
}

func detach(n *html.Node) {
	if n.Parent != nil {
		n.Parent.RemoveChild(n)
	}
}

func nodeType(n *html.Node) string {
	switch n.Type {
	case html.TextNode:
		return "text"
	case html.DocumentNode:
		return "document"
	case html.ElementNode:
		return "element"
	case html.CommentNode:
		return "comment"
	case html.DoctypeNode:
		return "doctype"
	default:
		return "unknown"
	}
}

// Element is a live element handle.
type Element struct {
	Node
}

// Tag returns the element's tag name.
func (e *Element) Tag() string {
	return e.n.Data
}

// Attribute returns the value of the named attribute.
func (e *Element) Attribute(name string) (string, bool) {
	for _, a := range e.n.Attr {
		if a.Namespace == "" && a.Key == name {
			return a.Val, true
		}
	}
	return "", false
}

// SetAttribute sets the named attribute, keeping its position if present.
func (e *Element) SetAttribute(name, value string) {
	for i, a := range e.n.Attr {
		if a.Namespace == "" && a.Key == name {
			e.n.Attr[i].Val = value
			return
		}
	}
	e.n.Attr = append(e.n.Attr, html.Attribute{Key: name, Val: value})
}

// RemoveAttribute removes the named attribute.
func (e *Element) RemoveAttribute(name string) {
	out := e.n.Attr[:0]
	for _, a := range e.n.Attr {
		if a.Namespace == "" && a.Key == name {
			continue
		}
		out = append(out, a)
	}
	e.n.Attr = out
}

// Attributes returns the current attributes in document order.
func (e *Element) Attributes() vdom.Attrs {
	if len(e.n.Attr) == 0 {
		return nil
	}
	out := make(vdom.Attrs, 0, len(e.n.Attr))
	for _, a := range e.n.Attr {
		out = append(out, vdom.Attr{Name: attrName(a), Value: a.Val})
	}
	return out
}

// Subscribe registers listener for events of kind on e or bubbling from a
// descendant.
func (e *Element) Subscribe(kind vdom.EventKind, listener dom.Listener) dom.Subscription {
	return e.doc.subscribe(e.n, kind, listener)
}

func attrName(a html.Attribute) string {
	if a.Namespace == "" {
		return a.Key
	}
	return a.Namespace + ":" + a.Key
}
