package dom

import (
	"github.com/vango-dev/reconcile/internal/errors"
	"github.com/vango-dev/reconcile/pkg/vdom"
)

// ErrOutsideRoot matches errors for targets that are not inside the mount
// element.
var ErrOutsideRoot = errors.New(errors.CodeOutsideRoot)

// PathOf returns the path of target relative to the tree mounted in root.
// The path is empty when target is root itself or the tree root. It fails
// with ErrOutsideRoot when walking up from target never reaches root.
func PathOf(root, target Node) (vdom.Path, error) {
	if target == nil {
		return nil, errors.New(errors.CodeOutsideRoot).With("target", "nil")
	}
	if SameNode(root, target) {
		return vdom.Path{}, nil
	}

	var rev []int
	cur := target
	for {
		parent := cur.Parent()
		if parent == nil {
			return nil, errors.New(errors.CodeOutsideRoot).With("depth", len(rev))
		}
		if SameNode(parent, root) {
			// Only the first child of the mount element is the tree root.
			if idx := IndexOf(root, cur); idx != 0 {
				return nil, errors.New(errors.CodeOutsideRoot).
					With("index", idx).
					WithDetail("The target is not under the mounted tree root.")
			}
			break
		}
		idx := IndexOf(parent, cur)
		if idx < 0 {
			return nil, errors.New(errors.CodeOutsideRoot).
				WithDetail("A node is not listed among its parent's children.")
		}
		rev = append(rev, idx)
		cur = parent
	}

	path := make(vdom.Path, len(rev))
	for i, idx := range rev {
		path[len(rev)-1-i] = idx
	}
	return path, nil
}

// NodeAt resolves path against the tree mounted in root. It never returns a
// partial match.
func NodeAt(root Node, path vdom.Path) (Node, bool) {
	cur, ok := root.ChildAt(0)
	if !ok {
		return nil, false
	}
	for _, idx := range path {
		if idx < 0 {
			return nil, false
		}
		if cur, ok = cur.ChildAt(idx); !ok {
			return nil, false
		}
	}
	return cur, true
}
