package protocol

import (
	"encoding/json"
	stderrors "errors"

	"github.com/vango-dev/reconcile/internal/errors"
	"github.com/vango-dev/reconcile/pkg/vdom"
)

// FrameType identifies a socket message.
type FrameType string

const (
	FrameHello   FrameType = "hello"   // server → client, first frame
	FrameEvent   FrameType = "event"   // client → server
	FramePatches FrameType = "patches" // server → client
	FrameError   FrameType = "error"   // server → client
)

// Frame is the JSON envelope of every socket message. Only the fields
// matching Type are set. Markup carries the full mount content on hello
// and on a resynced error. Kinds lists event kinds the client must start
// listening for.
type Frame struct {
	Type    FrameType        `json:"type"`
	Seq     uint64           `json:"seq,omitempty"`
	Session string           `json:"session,omitempty"`
	Markup  string           `json:"markup,omitempty"`
	Kinds   []vdom.EventKind `json:"kinds,omitempty"`
	Event   *Event           `json:"event,omitempty"`
	Patches []JSONPatch      `json:"patches,omitempty"`
	Error   *ErrorInfo       `json:"error,omitempty"`
}

// ErrorInfo reports a failed dispatch to the client.
type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`

	// Resynced is set when the server rebuilt its document from the
	// session snapshot; the client should reload the mount element.
	Resynced bool `json:"resynced,omitempty"`
}

// HelloFrame starts a connection for session id whose mount element
// holds markup and which handles events of kinds.
func HelloFrame(id, markup string, kinds ...vdom.EventKind) Frame {
	return Frame{Type: FrameHello, Session: id, Markup: markup, Kinds: kinds}
}

// EventFrame wraps a client event.
func EventFrame(ev Event) Frame {
	return Frame{Type: FrameEvent, Event: &ev}
}

// PatchesFrame wraps the patches of dispatch seq.
func PatchesFrame(seq uint64, patches vdom.Patches) (Frame, error) {
	jps, err := ToJSONPatches(patches)
	if err != nil {
		return Frame{}, err
	}
	return Frame{Type: FramePatches, Seq: seq, Patches: jps}, nil
}

// ErrorFrame reports err for dispatch seq. Structured errors keep their
// code; other errors are reported as internal.
func ErrorFrame(seq uint64, err error, resynced bool) Frame {
	info := &ErrorInfo{Code: "internal", Message: err.Error(), Resynced: resynced}
	var re *errors.Error
	if stderrors.As(err, &re) && re.Code != "" {
		info.Code = re.Code
	}
	return Frame{Type: FrameError, Seq: seq, Error: info}
}

// EncodeFrame encodes f as JSON.
func EncodeFrame(f Frame) ([]byte, error) {
	return marshal(f)
}

// DecodeFrame decodes and validates a JSON frame.
func DecodeFrame(data []byte) (Frame, error) {
	var f Frame
	if err := json.Unmarshal(data, &f); err != nil {
		return Frame{}, invalid(err)
	}

	switch f.Type {
	case FrameHello, FramePatches:
	case FrameEvent:
		if f.Event == nil {
			return Frame{}, errors.New(errors.CodeInvalidMessage).WithDetail("event frame without event")
		}
		if err := f.Event.Validate(); err != nil {
			return Frame{}, err
		}
	case FrameError:
		if f.Error == nil {
			return Frame{}, errors.New(errors.CodeInvalidMessage).WithDetail("error frame without error")
		}
	default:
		return Frame{}, errors.New(errors.CodeUnknownFrame).With("type", f.Type)
	}
	return f, nil
}
