package dom

import "github.com/vango-dev/reconcile/pkg/vdom"

// TextNode is implemented by hosts whose nodes expose text content.
type TextNode interface {
	Node
	IsText() bool
	Text() string
}

// SnapshotOf converts a live subtree into a snapshot. Nodes that are
// neither elements nor text, such as comments, are skipped.
func SnapshotOf(n Node) *vdom.Snapshot {
	if n == nil {
		return nil
	}
	if el, ok := AsElement(n); ok {
		s := &vdom.Snapshot{Kind: vdom.KindElement, Tag: el.Tag(), Attrs: el.Attributes()}
		for _, c := range el.Children() {
			if cs := SnapshotOf(c); cs != nil {
				s.Children = append(s.Children, cs)
			}
		}
		return s
	}
	if t, ok := n.(TextNode); ok && t.IsText() {
		return vdom.TextSnapshot(t.Text())
	}
	return nil
}

// TreeSnapshot returns the snapshot of the tree mounted in root, or nil if
// nothing is mounted.
func TreeSnapshot(root Node) *vdom.Snapshot {
	first, ok := root.ChildAt(0)
	if !ok {
		return nil
	}
	return SnapshotOf(first)
}
