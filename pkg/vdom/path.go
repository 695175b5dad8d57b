package vdom

import (
	"strconv"
	"strings"
)

// Path addresses a node by child indices from the tree root.
// The empty path is the root itself.
type Path []int

// String returns the path as "[0 1 2]".
func (p Path) String() string {
	var b strings.Builder
	b.WriteByte('[')
	for i, idx := range p {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(strconv.Itoa(idx))
	}
	b.WriteByte(']')
	return b.String()
}

// IsRoot reports whether p addresses the root.
func (p Path) IsRoot() bool {
	return len(p) == 0
}

// Split returns the parent prefix and the final index.
// ok is false for the root path.
func (p Path) Split() (parent Path, last int, ok bool) {
	if len(p) == 0 {
		return nil, 0, false
	}
	return p[:len(p)-1], p[len(p)-1], true
}

// Child returns a new path extended by idx.
func (p Path) Child(idx int) Path {
	out := make(Path, len(p)+1)
	copy(out, p)
	out[len(p)] = idx
	return out
}

// Clone returns an independent copy.
func (p Path) Clone() Path {
	if p == nil {
		return nil
	}
	out := make(Path, len(p))
	copy(out, p)
	return out
}

// Equal compares two paths.
func (p Path) Equal(o Path) bool {
	if len(p) != len(o) {
		return false
	}
	for i := range p {
		if p[i] != o[i] {
			return false
		}
	}
	return true
}

// Valid reports whether every index is non-negative.
func (p Path) Valid() bool {
	for _, idx := range p {
		if idx < 0 {
			return false
		}
	}
	return true
}

// NodeAt descends tree by path. It never returns a partial match.
func NodeAt(tree *VNode, path Path) (*VNode, bool) {
	cur := tree
	for _, idx := range path {
		if !cur.IsElement() || idx < 0 || idx >= len(cur.Children) {
			return nil, false
		}
		cur = cur.Children[idx]
	}
	return cur, cur != nil
}
