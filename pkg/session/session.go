package session

import (
	"context"
	"log/slog"
	"slices"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/vango-dev/reconcile/internal/errors"
	"github.com/vango-dev/reconcile/pkg/dom"
	"github.com/vango-dev/reconcile/pkg/render"
	"github.com/vango-dev/reconcile/pkg/vdom"
)

// Sentinel errors. Compare with errors.Is; returned errors carry details.
var (
	ErrRootNotFound       = errors.New(errors.CodeRootNotFound)
	ErrReentrantDispatch  = errors.New(errors.CodeReentrantDispatch)
	ErrDispatchInProgress = errors.New(errors.CodeDispatchBusy)
	ErrNoUpdater          = errors.New(errors.CodeNoUpdater)
	ErrUnmounted          = errors.New(errors.CodeUnmounted)
	ErrPanic              = errors.New(errors.CodeDispatchPanic)
)

// Session states.
const (
	stateIdle int32 = iota
	stateDispatching
	stateUnmounted
)

// Session is one mounted component: the component, the snapshot of what the
// live document shows, and the live mount element.
//
// All live-document work happens inside Mount, Dispatch and Unmount. Only
// one dispatch runs at a time; a second one started while the first is in
// flight fails with ErrReentrantDispatch.
type Session struct {
	id        string
	doc       dom.Document
	root      dom.Element
	component vdom.Component

	// Owned by the running dispatch.
	snapshot *vdom.Snapshot

	state atomic.Int32
	seq   atomic.Uint64

	subsMu sync.Mutex
	subs   []dom.Subscription
	kinds  []vdom.EventKind

	dispatch DispatchFunc
	observer func(Result, error)
	ctx      context.Context
	logger   *slog.Logger
}

// Mount renders component once, installs its markup as the only content of
// the element with id rootID, stores the snapshot and subscribes the session
// to events on that element. If the element does not exist, Mount returns
// an ErrRootNotFound error and installs nothing.
func Mount(doc dom.Document, rootID string, component vdom.Component, opts ...Option) (*Session, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	root, ok := doc.ElementByID(rootID)
	if !ok {
		return nil, errors.New(errors.CodeRootNotFound).
			With("id", rootID).
			WithSuggestion("Add an element with this id to the page before mounting.")
	}

	tree, err := renderTree(component)
	if err != nil {
		return nil, err
	}
	snapshot := vdom.Reduce(tree)
	if err := doc.SetInnerMarkup(root, render.Markup(snapshot)); err != nil {
		return nil, err
	}

	id := o.id
	if id == "" {
		id = uuid.NewString()
	}

	s := &Session{
		id:        id,
		doc:       doc,
		root:      root,
		component: component,
		snapshot:  snapshot,
		observer:  o.observer,
		ctx:       o.ctx,
		logger:    o.logger.With("session_id", id),
	}
	s.dispatch = chain(s.run, o.middleware)
	s.subscribe(eventKinds(o.kinds, vdom.NewArena(tree).Kinds()))

	s.logger.Info("mounted",
		"root", rootID,
		"nodes", snapshot.Count(),
		"kinds", len(s.Kinds()))

	return s, nil
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// Root returns the live mount element.
func (s *Session) Root() dom.Element {
	return s.root
}

// Document returns the host document.
func (s *Session) Document() dom.Document {
	return s.doc
}

// Kinds returns the event kinds the session is subscribed to.
func (s *Session) Kinds() []vdom.EventKind {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	return append([]vdom.EventKind(nil), s.kinds...)
}

// subscribe adds a mount element subscription for every kind not yet
// subscribed and returns the kinds it added, sorted. Nothing is added
// once the session is unmounted.
func (s *Session) subscribe(kinds []vdom.EventKind) []vdom.EventKind {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()

	if s.state.Load() == stateUnmounted {
		return nil
	}

	var added []vdom.EventKind
	for _, kind := range kinds {
		if kind == "" || slices.Contains(s.kinds, kind) {
			continue
		}
		s.subs = append(s.subs, s.root.Subscribe(kind, s.listen))
		s.kinds = append(s.kinds, kind)
		added = append(added, kind)
	}
	slices.Sort(s.kinds)
	slices.Sort(added)
	return added
}

// Seq returns the number of dispatches started so far.
func (s *Session) Seq() uint64 {
	return s.seq.Load()
}

// Mounted reports whether the session is still mounted.
func (s *Session) Mounted() bool {
	return s.state.Load() != stateUnmounted
}

// Snapshot returns a copy of the stored snapshot. It fails with
// ErrDispatchInProgress while a dispatch owns the session state.
func (s *Session) Snapshot() (*vdom.Snapshot, error) {
	switch s.state.Load() {
	case stateDispatching:
		return nil, errors.New(errors.CodeDispatchBusy)
	case stateUnmounted:
		return nil, errors.New(errors.CodeUnmounted)
	}
	return s.snapshot.Clone(), nil
}

// Unmount cancels every subscription and empties the mount element.
// Dispatching after Unmount fails with ErrUnmounted.
func (s *Session) Unmount() error {
	prev := s.state.Swap(stateUnmounted)
	if prev == stateUnmounted {
		return errors.New(errors.CodeUnmounted)
	}

	s.subsMu.Lock()
	for _, sub := range s.subs {
		sub.Cancel()
	}
	s.subs = nil
	s.subsMu.Unlock()

	if prev == stateDispatching {
		// The running dispatch still owns the document.
		s.logger.Warn("unmounted during dispatch")
		return nil
	}

	s.logger.Info("unmounted")
	return s.doc.SetInnerMarkup(s.root, "")
}

// listen is the subscription callback for host-delivered events.
func (s *Session) listen(ev dom.Event) {
	res, err := s.Dispatch(s.ctx, ev)
	if err != nil {
		s.logger.Warn("dispatch failed", "kind", ev.Kind, "error", err)
	}
	if s.observer != nil {
		s.observer(res, err)
	}
}

// renderTree renders component and normalizes the result.
func renderTree(component vdom.Component) (tree *vdom.VNode, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.New(errors.CodeDispatchPanic).With("panic", r).With("phase", "render")
		}
	}()
	return vdom.Normalize(component.Render()), nil
}

// eventKinds merges the configured kinds with those used by the tree.
func eventKinds(configured, used []vdom.EventKind) []vdom.EventKind {
	seen := make(map[vdom.EventKind]bool)
	var out []vdom.EventKind
	for _, list := range [][]vdom.EventKind{configured, used} {
		for _, k := range list {
			if k != "" && !seen[k] {
				seen[k] = true
				out = append(out, k)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
