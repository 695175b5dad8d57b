package vdom

// Diff compares two snapshots and returns the patches that turn prev into
// next. Children are matched by position. Identical snapshots produce no
// patches.
//
// Ordering within one parent: recursive child diffs in ascending index,
// then inserts in ascending index, then deletes in descending index, then
// the parent's own attribute update. Deletes run from the end so that a
// pending delete never addresses a position an earlier delete has shifted.
func Diff(prev, next *Snapshot) Patches {
	var patches Patches

	switch {
	case prev == nil && next == nil:
		// Nothing to do
	case prev == nil:
		patches = append(patches, NewReplace(Path{}, next.Clone()))
	case next == nil:
		patches = append(patches, NewDelete(Path{}))
	default:
		diff(prev, next, Path{}, &patches)
	}

	return patches
}

// diff recursively compares nodes and appends patches.
func diff(prev, next *Snapshot, path Path, patches *Patches) {
	// Different types or tags - replace, no descent
	if prev.Kind != next.Kind {
		*patches = append(*patches, NewReplace(path.Clone(), next.Clone()))
		return
	}

	switch prev.Kind {
	case KindText:
		diffText(prev, next, path, patches)
	case KindElement:
		diffElement(prev, next, path, patches)
	}
}

// diffText compares text nodes. Changed text replaces the node.
func diffText(prev, next *Snapshot, path Path, patches *Patches) {
	if prev.Text != next.Text {
		*patches = append(*patches, NewReplace(path.Clone(), next.Clone()))
	}
}

// diffElement compares element nodes.
func diffElement(prev, next *Snapshot, path Path, patches *Patches) {
	if prev.Tag != next.Tag {
		*patches = append(*patches, NewReplace(path.Clone(), next.Clone()))
		return
	}

	diffChildren(prev.Children, next.Children, path, patches)

	if !prev.Attrs.Equal(next.Attrs) {
		*patches = append(*patches, NewUpdateAttributes(path.Clone(), next.Attrs.Clone()))
	}
}

// diffChildren handles children using positional matching.
func diffChildren(prev, next []*Snapshot, path Path, patches *Patches) {
	common := len(prev)
	if len(next) < common {
		common = len(next)
	}

	for i := 0; i < common; i++ {
		diff(prev[i], next[i], path.Child(i), patches)
	}

	// New trailing children, appended in order
	for i := len(prev); i < len(next); i++ {
		*patches = append(*patches, NewInsert(path.Child(i), next[i].Clone()))
	}

	// Removed trailing children, last first
	for i := len(prev) - 1; i >= len(next); i-- {
		*patches = append(*patches, NewDelete(path.Child(i)))
	}
}
