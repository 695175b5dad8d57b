package vdom

import "sort"

// NodeID is a stable index into an Arena.
type NodeID int

// NoNode is returned by lookups that find nothing.
const NoNode NodeID = -1

type arenaEntry struct {
	node     *VNode
	parent   NodeID
	index    int // position among parent's children
	children []NodeID
}

// Arena is a flattened, index-addressed view of a rendered tree.
// Finding a node by path and acting on it are separate steps over IDs, so a
// lookup never holds on to the tree structure it walked.
type Arena struct {
	entries []arenaEntry
}

// NewArena flattens tree in pre-order. The root gets ID 0.
func NewArena(tree *VNode) *Arena {
	a := &Arena{}
	if tree != nil {
		a.add(tree, NoNode, 0)
	}
	return a
}

func (a *Arena) add(n *VNode, parent NodeID, index int) NodeID {
	id := NodeID(len(a.entries))
	a.entries = append(a.entries, arenaEntry{node: n, parent: parent, index: index})
	if n.Kind != KindElement {
		return id
	}
	kids := make([]NodeID, 0, len(n.Children))
	for _, child := range n.Children {
		if child == nil {
			continue
		}
		kids = append(kids, a.add(child, id, len(kids)))
	}
	a.entries[id].children = kids
	return id
}

// Len returns the number of nodes.
func (a *Arena) Len() int {
	return len(a.entries)
}

// Root returns the root ID, or NoNode for an empty arena.
func (a *Arena) Root() NodeID {
	if len(a.entries) == 0 {
		return NoNode
	}
	return 0
}

// Node returns the VNode for id.
func (a *Arena) Node(id NodeID) *VNode {
	if !a.valid(id) {
		return nil
	}
	return a.entries[id].node
}

// Parent returns the parent ID of id.
func (a *Arena) Parent(id NodeID) NodeID {
	if !a.valid(id) {
		return NoNode
	}
	return a.entries[id].parent
}

// Children returns the child IDs of id.
func (a *Arena) Children(id NodeID) []NodeID {
	if !a.valid(id) {
		return nil
	}
	return a.entries[id].children
}

// Lookup resolves path to a node ID.
func (a *Arena) Lookup(path Path) (NodeID, bool) {
	id := a.Root()
	if id == NoNode {
		return NoNode, false
	}
	for _, idx := range path {
		kids := a.entries[id].children
		if idx < 0 || idx >= len(kids) {
			return NoNode, false
		}
		id = kids[idx]
	}
	return id, true
}

// PathOf returns the path from the root to id.
func (a *Arena) PathOf(id NodeID) Path {
	if !a.valid(id) {
		return nil
	}
	var rev []int
	for cur := id; a.entries[cur].parent != NoNode; cur = a.entries[cur].parent {
		rev = append(rev, a.entries[cur].index)
	}
	path := make(Path, len(rev))
	for i, idx := range rev {
		path[len(rev)-1-i] = idx
	}
	return path
}

// Handler returns the handler registered on id for kind.
// Text nodes and elements without a matching handler report false.
func (a *Arena) Handler(id NodeID, kind EventKind) (Handler, bool) {
	n := a.Node(id)
	if n == nil {
		return nil, false
	}
	return n.Handler(kind)
}

// Kinds returns every event kind with at least one handler in the tree,
// sorted by name.
func (a *Arena) Kinds() []EventKind {
	seen := make(map[EventKind]bool)
	var kinds []EventKind
	for _, e := range a.entries {
		for kind, h := range e.node.Handlers {
			if h != nil && !seen[kind] {
				seen[kind] = true
				kinds = append(kinds, kind)
			}
		}
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

func (a *Arena) valid(id NodeID) bool {
	return id >= 0 && int(id) < len(a.entries)
}
