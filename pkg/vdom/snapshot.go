package vdom

// Snapshot is the handler-free projection of a VNode tree. It is the diff
// baseline and the record of what the live document currently contains.
type Snapshot struct {
	Kind     VKind
	Tag      string
	Attrs    Attrs
	Text     string
	Children []*Snapshot
}

// Reduce projects a VNode tree onto a Snapshot by dropping handlers.
// Nil children are skipped; Reduce(nil) is nil.
func Reduce(v *VNode) *Snapshot {
	if v == nil {
		return nil
	}
	if v.Kind == KindText {
		return &Snapshot{Kind: KindText, Text: v.Text}
	}
	s := &Snapshot{
		Kind:  KindElement,
		Tag:   v.Tag,
		Attrs: v.Attrs.Clone(),
	}
	if len(v.Children) > 0 {
		s.Children = make([]*Snapshot, 0, len(v.Children))
		for _, child := range v.Children {
			if child == nil {
				continue
			}
			s.Children = append(s.Children, Reduce(child))
		}
	}
	return s
}

// TextSnapshot creates a text snapshot.
func TextSnapshot(text string) *Snapshot {
	return &Snapshot{Kind: KindText, Text: text}
}

// ElementSnapshot creates an element snapshot.
func ElementSnapshot(tag string, attrs Attrs, children ...*Snapshot) *Snapshot {
	return &Snapshot{Kind: KindElement, Tag: tag, Attrs: attrs, Children: children}
}

// IsElement reports whether s is a non-nil element snapshot.
func (s *Snapshot) IsElement() bool {
	return s != nil && s.Kind == KindElement
}

// Equal reports structural equality. Attributes compare key-by-key.
func (s *Snapshot) Equal(o *Snapshot) bool {
	if s == nil || o == nil {
		return s == o
	}
	if s.Kind != o.Kind {
		return false
	}
	if s.Kind == KindText {
		return s.Text == o.Text
	}
	if s.Tag != o.Tag || !s.Attrs.Equal(o.Attrs) || len(s.Children) != len(o.Children) {
		return false
	}
	for i := range s.Children {
		if !s.Children[i].Equal(o.Children[i]) {
			return false
		}
	}
	return true
}

// Clone returns a deep copy.
func (s *Snapshot) Clone() *Snapshot {
	if s == nil {
		return nil
	}
	c := &Snapshot{Kind: s.Kind, Tag: s.Tag, Attrs: s.Attrs.Clone(), Text: s.Text}
	if s.Children != nil {
		c.Children = make([]*Snapshot, len(s.Children))
		for i, child := range s.Children {
			c.Children[i] = child.Clone()
		}
	}
	return c
}

// At returns the snapshot node addressed by path.
func (s *Snapshot) At(path Path) (*Snapshot, bool) {
	cur := s
	for _, idx := range path {
		if !cur.IsElement() || idx < 0 || idx >= len(cur.Children) {
			return nil, false
		}
		cur = cur.Children[idx]
	}
	return cur, cur != nil
}

// Count returns the number of nodes in the snapshot.
func (s *Snapshot) Count() int {
	if s == nil {
		return 0
	}
	n := 1
	for _, child := range s.Children {
		n += child.Count()
	}
	return n
}
