package session

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/vango-dev/reconcile/internal/errors"
	"github.com/vango-dev/reconcile/pkg/dom"
	"github.com/vango-dev/reconcile/pkg/render"
	"github.com/vango-dev/reconcile/pkg/vdom"
)

// Result describes one dispatch cycle.
type Result struct {
	// Seq is the dispatch sequence number, starting at 1. Zero when the
	// dispatch was rejected before it started.
	Seq uint64

	// Kind is the event kind.
	Kind vdom.EventKind

	// Path is the target path relative to the tree root.
	Path vdom.Path

	// Handled reports whether a handler ran.
	Handled bool

	// Patches is the patch computed after the handler ran. It may be empty
	// even when Handled is true.
	Patches vdom.Patches

	// Resynced reports that applying Patches failed and the live subtree was
	// rebuilt from the stored snapshot.
	Resynced bool

	// Subscribed lists event kinds first used by the re-rendered tree. The
	// session subscribed to them during this dispatch.
	Subscribed []vdom.EventKind
}

// DispatchFunc runs one dispatch cycle.
type DispatchFunc func(ctx context.Context, ev dom.Event) (Result, error)

// Middleware wraps a dispatch. It must call next at most once.
type Middleware func(ctx context.Context, ev dom.Event, next DispatchFunc) (Result, error)

// chain wraps final with mw; mw[0] is the outermost.
func chain(final DispatchFunc, mw []Middleware) DispatchFunc {
	h := final
	for i := len(mw) - 1; i >= 0; i-- {
		m, next := mw[i], h
		h = func(ctx context.Context, ev dom.Event) (Result, error) {
			return m(ctx, ev, next)
		}
	}
	return h
}

// Dispatch routes a host event through the session: it resolves the target
// path, finds the handler for ev.Kind in a fresh render, runs it and patches
// the live document with the difference between the stored snapshot and the
// post-handler render.
//
// An event whose target has no handler for its kind is not an error: the
// result has Handled false and the document is left untouched.
func (s *Session) Dispatch(ctx context.Context, ev dom.Event) (Result, error) {
	return s.dispatch(context.WithValue(ctx, idKey{}, s.id), ev)
}

type idKey struct{}

// IDFromContext returns the ID of the session running the dispatch that
// ctx was passed to.
func IDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(idKey{}).(string)
	return id, ok
}

// run is the innermost DispatchFunc.
func (s *Session) run(ctx context.Context, ev dom.Event) (Result, error) {
	res := Result{Kind: ev.Kind}

	if !s.state.CompareAndSwap(stateIdle, stateDispatching) {
		if s.state.Load() == stateUnmounted {
			return res, errors.New(errors.CodeUnmounted)
		}
		return res, errors.New(errors.CodeReentrantDispatch).With("kind", ev.Kind)
	}
	defer s.state.CompareAndSwap(stateDispatching, stateIdle)

	res.Seq = s.seq.Add(1)
	if err := ctx.Err(); err != nil {
		return res, err
	}

	path, err := dom.PathOf(s.root, ev.Target)
	if err != nil {
		return res, err
	}
	res.Path = path

	tree, err := renderTree(s.component)
	if err != nil {
		return res, err
	}
	arena := vdom.NewArena(tree)
	id, ok := arena.Lookup(path)
	if !ok {
		s.logger.Debug("no node at target", "path", path, "kind", ev.Kind)
		return res, nil
	}
	handler, ok := arena.Handler(id, ev.Kind)
	if !ok {
		s.logger.Debug("no handler", "path", path, "kind", ev.Kind)
		return res, nil
	}

	msg, err := invoke(handler, vdom.Event{Kind: ev.Kind, Path: path.Clone(), Detail: ev.Payload})
	if err != nil {
		return res, err
	}
	res.Handled = true

	if msg != nil {
		updater, ok := s.component.(vdom.Updater)
		if !ok {
			return res, errors.New(errors.CodeNoUpdater).
				With("msg", fmt.Sprintf("%T", msg)).
				With("path", path)
		}
		if err := update(updater, msg); err != nil {
			return res, err
		}
	}

	next, err := renderTree(s.component)
	if err != nil {
		return res, err
	}
	res.Subscribed = s.subscribe(vdom.NewArena(next).Kinds())

	snapshot := vdom.Reduce(next)
	res.Patches = vdom.Diff(s.snapshot, snapshot)
	prev := s.snapshot
	s.snapshot = snapshot

	if res.Patches.Empty() {
		return res, nil
	}
	if err := dom.Apply(s.doc, s.root, res.Patches); err != nil {
		res.Resynced = s.resync()
		if !res.Resynced {
			s.snapshot = prev
		}
		s.logger.Warn("patch failed",
			"path", path,
			"kind", ev.Kind,
			"patches", len(res.Patches),
			"resynced", res.Resynced,
			"error", err)
		return res, err
	}

	s.logger.Debug("dispatched",
		"seq", res.Seq,
		"path", path,
		"kind", ev.Kind,
		"patches", len(res.Patches))
	return res, nil
}

// resync rebuilds the live subtree from the stored snapshot.
func (s *Session) resync() bool {
	if err := s.doc.SetInnerMarkup(s.root, render.Markup(s.snapshot)); err != nil {
		s.logger.Error("resync failed", "error", err)
		return false
	}
	return true
}

func invoke(handler vdom.Handler, ev vdom.Event) (msg vdom.Msg, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.New(errors.CodeDispatchPanic).
				With("panic", r).
				With("phase", "handler").
				With("path", ev.Path)
		}
	}()
	return handler(ev), nil
}

func update(u vdom.Updater, msg vdom.Msg) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.New(errors.CodeDispatchPanic).
				With("panic", r).
				With("phase", "update")
		}
	}()
	u.Update(msg)
	return nil
}

// Verify compares the live subtree with the stored snapshot. On mismatch it
// returns a desync error whose detail is a diff of the two markups.
func (s *Session) Verify() error {
	switch s.state.Load() {
	case stateDispatching:
		return errors.New(errors.CodeDispatchBusy)
	case stateUnmounted:
		return errors.New(errors.CodeUnmounted)
	}

	live := dom.TreeSnapshot(s.root)
	if live.Equal(s.snapshot) {
		return nil
	}
	return errors.New(errors.CodeDesync).
		With("session", s.id).
		WithDetail(MarkupDiff(render.Markup(s.snapshot), render.Markup(live)))
}

// IsDesync reports whether err is a structural desync.
func IsDesync(err error) bool {
	return stderrors.Is(err, dom.ErrDesync)
}
