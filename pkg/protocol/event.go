package protocol

import (
	"encoding/json"

	"github.com/vango-dev/reconcile/internal/errors"
	"github.com/vango-dev/reconcile/pkg/vdom"
)

// Event is a host event sent by a client:
//
//	{"kind": "click", "path": [0, 1], "payload": {"clientX": 10}}
//
// Path addresses the target relative to the tree root.
type Event struct {
	Kind    vdom.EventKind   `json:"kind"`
	Path    []int            `json:"path"`
	Payload vdom.EventDetail `json:"payload"`
}

// Validate checks the kind and path.
func (e *Event) Validate() error {
	if e.Kind == "" {
		return errors.New(errors.CodeInvalidMessage).WithDetail("event kind is empty")
	}
	p := vdom.Path(e.Path)
	if !p.Valid() || len(p) > MaxPathLen {
		return errors.New(errors.CodeInvalidPath).With("path", p)
	}
	return nil
}

// EncodeEvent encodes ev as JSON.
func EncodeEvent(ev Event) ([]byte, error) {
	if ev.Path == nil {
		ev.Path = []int{}
	}
	return marshal(ev)
}

// DecodeEvent decodes and validates a JSON event.
func DecodeEvent(data []byte) (Event, error) {
	var ev Event
	if err := json.Unmarshal(data, &ev); err != nil {
		return Event{}, invalid(err)
	}
	if err := ev.Validate(); err != nil {
		return Event{}, err
	}
	return ev, nil
}
