// Package protocol encodes patches and events for transport.
//
// # JSON
//
// Patches cross the socket as an ordered JSON array:
//
//	[
//	  {"path": [0, 1, 0], "op": "replace", "payload": "1"},
//	  {"path": [2], "op": "insert", "payload": "<li>c</li>"},
//	  {"path": [3], "op": "delete"},
//	  {"path": [], "op": "update_attributes", "payload": {"class": "b"}}
//	]
//
// Replace and insert payloads are markup; update_attributes carries the
// complete new attribute mapping. Events travel the other way:
//
//	{"kind": "click", "path": [0, 1], "payload": {"clientX": 4}}
//
// Every socket message is wrapped in a Frame whose type is one of hello,
// event, patches or error.
//
// # Binary
//
// EncodePatches writes a compact varint form used by the CLI:
//
//	┌─────────┬──────────┬──────────┬──────────────────────────────┐
//	│ version │ seq      │ count    │ op, path, payload (× count)  │
//	│ 1 byte  │ uvarint  │ uvarint  │                              │
//	└─────────┴──────────┴──────────┴──────────────────────────────┘
//
// Nodes are encoded structurally rather than as markup. The decoder
// bounds string sizes, collection counts and nesting depth.
package protocol
