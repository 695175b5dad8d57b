package dom

import (
	"github.com/vango-dev/reconcile/internal/errors"
	"github.com/vango-dev/reconcile/pkg/render"
	"github.com/vango-dev/reconcile/pkg/vdom"
)

// ErrDesync matches errors for patches that do not fit the live document.
var ErrDesync = errors.New(errors.CodeDesync)

// Apply applies patches in order to the tree mounted in root. Each path is
// resolved against the document as left by the previous patch. Application
// stops at the first patch that does not fit, returning an ErrDesync error
// carrying its index, op and path. An empty patch list touches nothing.
func Apply(doc Document, root Element, patches vdom.Patches) error {
	for i, p := range patches {
		if err := applyPatch(doc, root, p); err != nil {
			return errors.New(errors.CodeDesync).
				With("index", i).
				With("op", p.Op).
				With("path", p.Path).
				Wrap(err)
		}
	}
	return nil
}

func applyPatch(doc Document, root Element, p vdom.Patch) error {
	if p.Op == vdom.OpUpdateAttributes {
		return updateAttributes(root, p)
	}

	parent, idx, err := resolveParent(root, p.Path)
	if err != nil {
		return err
	}

	switch p.Op {
	case vdom.OpReplace:
		node, err := createNode(doc, p.Node)
		if err != nil {
			return err
		}
		old, ok := parent.ChildAt(idx)
		if !ok {
			// Nothing mounted yet: a root replace installs the tree.
			if p.Path.IsRoot() && parent.ChildCount() == 0 {
				return parent.AppendChild(node)
			}
			return errors.Newf(errors.CategoryReconcile, "no child at index %d", idx)
		}
		return parent.ReplaceChild(node, old)

	case vdom.OpInsert:
		count := parent.ChildCount()
		if idx > count {
			return errors.Newf(errors.CategoryReconcile, "insert index %d beyond %d children", idx, count)
		}
		node, err := createNode(doc, p.Node)
		if err != nil {
			return err
		}
		if idx == count {
			return parent.AppendChild(node)
		}
		ref, _ := parent.ChildAt(idx)
		return parent.InsertBefore(node, ref)

	case vdom.OpDelete:
		old, ok := parent.ChildAt(idx)
		if !ok {
			return errors.Newf(errors.CategoryReconcile, "no child at index %d", idx)
		}
		return parent.RemoveChild(old)

	default:
		return errors.New(errors.CodeUnknownOp).With("op", p.Op)
	}
}

// resolveParent splits path into the node owning the child list and the
// index within it. The empty path addresses the mount element's child 0.
func resolveParent(root Element, path vdom.Path) (Node, int, error) {
	parentPath, idx, ok := path.Split()
	if !ok {
		return root, 0, nil
	}
	if idx < 0 {
		return nil, 0, errors.New(errors.CodeInvalidPath).With("index", idx)
	}
	parent, found := NodeAt(root, parentPath)
	if !found {
		return nil, 0, errors.Newf(errors.CategoryReconcile, "parent %s not found", parentPath)
	}
	return parent, idx, nil
}

// updateAttributes makes the element's attributes equal to the mapping:
// every entry is set and live attributes absent from it are removed.
func updateAttributes(root Element, p vdom.Patch) error {
	node, ok := NodeAt(root, p.Path)
	if !ok {
		return errors.Newf(errors.CategoryReconcile, "node %s not found", p.Path)
	}
	el, ok := AsElement(node)
	if !ok {
		return errors.Newf(errors.CategoryReconcile, "node %s is not an element", p.Path)
	}

	for _, a := range el.Attributes() {
		if _, keep := p.Attrs.Get(a.Name); !keep {
			el.RemoveAttribute(a.Name)
		}
	}
	for _, a := range p.Attrs {
		if cur, ok := el.Attribute(a.Name); !ok || cur != a.Value {
			el.SetAttribute(a.Name, a.Value)
		}
	}
	return nil
}

func createNode(doc Document, s *vdom.Snapshot) (Node, error) {
	if s == nil {
		return nil, errors.New(errors.CodeMarkup).WithDetail("Patch carries no node.")
	}
	return doc.CreateFromMarkup(render.Markup(s))
}
