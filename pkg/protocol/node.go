package protocol

import (
	"github.com/vango-dev/reconcile/internal/errors"
	"github.com/vango-dev/reconcile/pkg/vdom"
)

// nullNode marks an absent snapshot.
const nullNode = 0xFF

// EncodeSnapshot appends s to e.
//
//	text:    kind byte, text string
//	element: kind byte, tag string, attr count, (name, value)*, child count, child*
//	nil:     0xFF
func EncodeSnapshot(e *Encoder, s *vdom.Snapshot) {
	if s == nil {
		e.WriteByte(nullNode)
		return
	}

	e.WriteByte(byte(s.Kind))
	if s.Kind == vdom.KindText {
		e.WriteString(s.Text)
		return
	}

	e.WriteString(s.Tag)
	encodeAttrs(e, s.Attrs)
	e.WriteUvarint(uint64(len(s.Children)))
	for _, c := range s.Children {
		EncodeSnapshot(e, c)
	}
}

// DecodeSnapshot reads a snapshot written by EncodeSnapshot.
// Nesting deeper than MaxNodeDepth is rejected.
func DecodeSnapshot(d *Decoder) (*vdom.Snapshot, error) {
	return decodeSnapshot(d, 0)
}

func decodeSnapshot(d *Decoder, depth int) (*vdom.Snapshot, error) {
	if depth >= MaxNodeDepth {
		return nil, ErrMaxDepthExceeded
	}

	kind, err := d.ReadByte()
	if err != nil {
		return nil, err
	}

	switch vdom.VKind(kind) {
	case nullNode:
		return nil, nil

	case vdom.KindText:
		text, err := d.ReadString()
		if err != nil {
			return nil, err
		}
		return vdom.TextSnapshot(text), nil

	case vdom.KindElement:
		tag, err := d.ReadString()
		if err != nil {
			return nil, err
		}
		attrs, err := decodeAttrs(d)
		if err != nil {
			return nil, err
		}
		count, err := d.ReadCollectionCount()
		if err != nil {
			return nil, err
		}
		s := &vdom.Snapshot{Kind: vdom.KindElement, Tag: tag, Attrs: attrs}
		if count > 0 {
			s.Children = make([]*vdom.Snapshot, 0, count)
		}
		for i := 0; i < count; i++ {
			c, err := decodeSnapshot(d, depth+1)
			if err != nil {
				return nil, err
			}
			if c == nil {
				return nil, errors.New(errors.CodeInvalidMessage).
					WithDetail("null child in element")
			}
			s.Children = append(s.Children, c)
		}
		return s, nil

	default:
		return nil, errors.New(errors.CodeInvalidMessage).With("kind", kind)
	}
}

func encodeAttrs(e *Encoder, attrs vdom.Attrs) {
	e.WriteUvarint(uint64(len(attrs)))
	for _, a := range attrs {
		e.WriteString(a.Name)
		e.WriteString(a.Value)
	}
}

func decodeAttrs(d *Decoder) (vdom.Attrs, error) {
	count, err := d.ReadCollectionCount()
	if err != nil || count == 0 {
		return nil, err
	}
	attrs := make(vdom.Attrs, 0, count)
	for i := 0; i < count; i++ {
		name, err := d.ReadString()
		if err != nil {
			return nil, err
		}
		value, err := d.ReadString()
		if err != nil {
			return nil, err
		}
		attrs = append(attrs, vdom.Attr{Name: name, Value: value})
	}
	return attrs, nil
}
