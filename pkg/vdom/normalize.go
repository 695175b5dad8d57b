package vdom

import "strings"

// Normalize rewrites the child lists of tree in place so that no element has
// two adjacent text children or an empty text child. It returns tree.
//
// Child indices count text and element nodes alike. A markup round-trip
// merges adjacent text and drops empty text, so every tree is normalized
// before it is addressed, reduced or serialized; otherwise node-tree paths
// and live-document paths would disagree. An empty text root is kept.
func Normalize(tree *VNode) *VNode {
	if !tree.IsElement() {
		return tree
	}

	out := tree.Children[:0:0]
	var run strings.Builder
	inRun := false

	flush := func() {
		if inRun && run.Len() > 0 {
			out = append(out, Text(run.String()))
		}
		run.Reset()
		inRun = false
	}

	for _, child := range tree.Children {
		if child == nil {
			continue
		}
		if child.Kind == KindText {
			run.WriteString(child.Text)
			inRun = true
			continue
		}
		flush()
		out = append(out, Normalize(child))
	}
	flush()

	tree.Children = out
	return tree
}

// IsNormalized reports whether tree already satisfies Normalize's invariant.
func IsNormalized(tree *VNode) bool {
	if !tree.IsElement() {
		return true
	}
	prevText := false
	for _, child := range tree.Children {
		if child == nil {
			return false
		}
		if child.Kind == KindText {
			if prevText || child.Text == "" {
				return false
			}
			prevText = true
			continue
		}
		prevText = false
		if !IsNormalized(child) {
			return false
		}
	}
	return true
}
