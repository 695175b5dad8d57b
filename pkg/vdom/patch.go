package vdom

import (
	"fmt"
	"strings"
)

// Op is the type of patch operation.
type Op uint8

const (
	OpReplace          Op = 0x01 // Replace node at path
	OpInsert           Op = 0x02 // Insert child at path
	OpDelete           Op = 0x03 // Remove node at path
	OpUpdateAttributes Op = 0x04 // Replace attribute mapping of element at path
)

// String returns the wire name of the Op.
func (op Op) String() string {
	switch op {
	case OpReplace:
		return "replace"
	case OpInsert:
		return "insert"
	case OpDelete:
		return "delete"
	case OpUpdateAttributes:
		return "update_attributes"
	default:
		return "unknown"
	}
}

// ParseOp parses a wire op name.
func ParseOp(s string) (Op, bool) {
	switch s {
	case "replace":
		return OpReplace, true
	case "insert":
		return OpInsert, true
	case "delete":
		return OpDelete, true
	case "update_attributes":
		return OpUpdateAttributes, true
	default:
		return 0, false
	}
}

// Patch is a single positional edit.
type Patch struct {
	Op    Op        // Operation type
	Path  Path      // Target position
	Node  *Snapshot // For Replace/Insert
	Attrs Attrs     // For UpdateAttributes: complete new mapping
}

// String returns a compact description, e.g. "insert [2] <p>".
func (p Patch) String() string {
	switch p.Op {
	case OpReplace, OpInsert:
		return fmt.Sprintf("%s %s %s", p.Op, p.Path, describe(p.Node))
	case OpUpdateAttributes:
		parts := make([]string, len(p.Attrs))
		for i, a := range p.Attrs {
			parts[i] = fmt.Sprintf("%s=%q", a.Name, a.Value)
		}
		return fmt.Sprintf("%s %s {%s}", p.Op, p.Path, strings.Join(parts, " "))
	default:
		return fmt.Sprintf("%s %s", p.Op, p.Path)
	}
}

func describe(s *Snapshot) string {
	switch {
	case s == nil:
		return "<nil>"
	case s.Kind == KindText:
		return fmt.Sprintf("%q", s.Text)
	default:
		return "<" + s.Tag + ">"
	}
}

// NewReplace creates a Replace patch.
func NewReplace(path Path, node *Snapshot) Patch {
	return Patch{Op: OpReplace, Path: path, Node: node}
}

// NewInsert creates an Insert patch.
func NewInsert(path Path, node *Snapshot) Patch {
	return Patch{Op: OpInsert, Path: path, Node: node}
}

// NewDelete creates a Delete patch.
func NewDelete(path Path) Patch {
	return Patch{Op: OpDelete, Path: path}
}

// NewUpdateAttributes creates an UpdateAttributes patch.
func NewUpdateAttributes(path Path, attrs Attrs) Patch {
	return Patch{Op: OpUpdateAttributes, Path: path, Attrs: attrs}
}

// Patches is an ordered patch list. Entries must be applied in order.
type Patches []Patch

// Empty reports whether there is nothing to apply.
func (ps Patches) Empty() bool {
	return len(ps) == 0
}

// CountByOp returns the number of patches per op.
func (ps Patches) CountByOp() map[Op]int {
	counts := make(map[Op]int)
	for _, p := range ps {
		counts[p.Op]++
	}
	return counts
}

// String returns one patch per line.
func (ps Patches) String() string {
	lines := make([]string, len(ps))
	for i, p := range ps {
		lines[i] = p.String()
	}
	return strings.Join(lines, "\n")
}
