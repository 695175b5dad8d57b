package protocol

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/vango-dev/reconcile/internal/errors"
	"github.com/vango-dev/reconcile/pkg/dom/htmldom"
	"github.com/vango-dev/reconcile/pkg/render"
	"github.com/vango-dev/reconcile/pkg/vdom"
)

// PatchesVersion is the first byte of a binary patch message.
const PatchesVersion = 0x01

// EncodePatches encodes a patch list in binary form:
//
//	version byte, seq uvarint, count uvarint, then per patch:
//	op byte, path, payload
//
// The payload is a snapshot for replace and insert, an attribute list for
// update_attributes and empty for delete.
func EncodePatches(seq uint64, patches vdom.Patches) []byte {
	e := NewEncoder()
	e.WriteByte(PatchesVersion)
	e.WriteUvarint(seq)
	e.WriteUvarint(uint64(len(patches)))
	for _, p := range patches {
		e.WriteByte(byte(p.Op))
		e.WritePath(p.Path)
		switch p.Op {
		case vdom.OpReplace, vdom.OpInsert:
			EncodeSnapshot(e, p.Node)
		case vdom.OpUpdateAttributes:
			encodeAttrs(e, p.Attrs)
		}
	}
	return e.Bytes()
}

// DecodePatches decodes a message written by EncodePatches.
func DecodePatches(data []byte) (uint64, vdom.Patches, error) {
	seq, patches, err := decodePatches(NewDecoder(data))
	if err != nil {
		return 0, nil, invalid(err)
	}
	return seq, patches, nil
}

func decodePatches(d *Decoder) (uint64, vdom.Patches, error) {
	version, err := d.ReadByte()
	if err != nil {
		return 0, nil, err
	}
	if version != PatchesVersion {
		return 0, nil, fmt.Errorf("unsupported version %d", version)
	}
	seq, err := d.ReadUvarint()
	if err != nil {
		return 0, nil, err
	}
	count, err := d.ReadCollectionCount()
	if err != nil {
		return 0, nil, err
	}

	var patches vdom.Patches
	for i := 0; i < count; i++ {
		b, err := d.ReadByte()
		if err != nil {
			return 0, nil, err
		}
		op := vdom.Op(b)
		path, err := d.ReadPath()
		if err != nil {
			return 0, nil, err
		}

		p := vdom.Patch{Op: op, Path: vdom.Path(path)}
		switch op {
		case vdom.OpReplace, vdom.OpInsert:
			if p.Node, err = DecodeSnapshot(d); err != nil {
				return 0, nil, err
			}
			if p.Node == nil {
				return 0, nil, fmt.Errorf("patch %d: %s without node", i, op)
			}
		case vdom.OpUpdateAttributes:
			if p.Attrs, err = decodeAttrs(d); err != nil {
				return 0, nil, err
			}
		case vdom.OpDelete:
		default:
			return 0, nil, errors.New(errors.CodeUnknownOp).With("op", b).With("index", i)
		}
		patches = append(patches, p)
	}
	if !d.EOF() {
		return 0, nil, fmt.Errorf("%d trailing bytes", d.Remaining())
	}
	return seq, patches, nil
}

// JSONPatch is the JSON form of one patch:
//
//	{"path": [0, 1], "op": "replace", "payload": "<p>hi</p>"}
//	{"path": [2], "op": "update_attributes", "payload": {"class": "b"}}
//	{"path": [3], "op": "delete"}
type JSONPatch struct {
	Path    []int           `json:"path"`
	Op      string          `json:"op"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// ToJSONPatches converts patches to their JSON form. Nodes are rendered as
// markup.
func ToJSONPatches(patches vdom.Patches) ([]JSONPatch, error) {
	out := make([]JSONPatch, 0, len(patches))
	for _, p := range patches {
		jp := JSONPatch{Path: p.Path, Op: p.Op.String()}
		if jp.Path == nil {
			jp.Path = []int{}
		}

		var payload any
		switch p.Op {
		case vdom.OpReplace, vdom.OpInsert:
			payload = render.Markup(p.Node)
		case vdom.OpUpdateAttributes:
			payload = p.Attrs.Map()
		}
		if payload != nil {
			raw, err := marshal(payload)
			if err != nil {
				return nil, err
			}
			jp.Payload = raw
		}
		out = append(out, jp)
	}
	return out, nil
}

// FromJSONPatches converts JSON patches back into patches. Markup payloads
// are parsed with the HTML5 algorithm and must hold exactly one node.
func FromJSONPatches(in []JSONPatch) (vdom.Patches, error) {
	out := make(vdom.Patches, 0, len(in))
	for i, jp := range in {
		op, ok := vdom.ParseOp(jp.Op)
		if !ok {
			return nil, errors.New(errors.CodeUnknownOp).With("op", jp.Op).With("index", i)
		}
		path := vdom.Path(jp.Path)
		if !path.Valid() || len(path) > MaxPathLen {
			return nil, errors.New(errors.CodeInvalidPath).With("path", path).With("index", i)
		}

		p := vdom.Patch{Op: op, Path: path}
		switch op {
		case vdom.OpReplace, vdom.OpInsert:
			var markup string
			if err := json.Unmarshal(jp.Payload, &markup); err != nil {
				return nil, invalid(err).With("index", i)
			}
			node, err := htmldom.ParseSnapshot(markup)
			if err != nil {
				return nil, invalid(err).With("index", i)
			}
			p.Node = node
		case vdom.OpUpdateAttributes:
			var attrs map[string]string
			if len(jp.Payload) > 0 {
				if err := json.Unmarshal(jp.Payload, &attrs); err != nil {
					return nil, invalid(err).With("index", i)
				}
			}
			p.Attrs = vdom.AttrsFromMap(attrs)
		}
		out = append(out, p)
	}
	return out, nil
}

// EncodePatchesJSON encodes patches as a JSON array.
func EncodePatchesJSON(patches vdom.Patches) ([]byte, error) {
	jps, err := ToJSONPatches(patches)
	if err != nil {
		return nil, err
	}
	return marshal(jps)
}

// DecodePatchesJSON decodes a JSON array written by EncodePatchesJSON.
func DecodePatchesJSON(data []byte) (vdom.Patches, error) {
	var jps []JSONPatch
	if err := json.Unmarshal(data, &jps); err != nil {
		return nil, invalid(err)
	}
	return FromJSONPatches(jps)
}

// invalid wraps err as an invalid message error unless it already carries
// a protocol code.
func invalid(err error) *errors.Error {
	if re, ok := err.(*errors.Error); ok && re.Category == errors.CategoryProtocol {
		return re
	}
	return errors.New(errors.CodeInvalidMessage).Wrap(err)
}

// marshal encodes v as JSON without escaping markup characters.
func marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}
