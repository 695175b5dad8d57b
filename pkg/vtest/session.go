package vtest

import (
	"io"
	"log/slog"
	"testing"

	"github.com/vango-dev/reconcile/pkg/dom"
	"github.com/vango-dev/reconcile/pkg/dom/htmldom"
	"github.com/vango-dev/reconcile/pkg/session"
	"github.com/vango-dev/reconcile/pkg/vdom"
)

// Harness is a component mounted into an in-memory document.
type Harness struct {
	t       testing.TB
	Doc     *htmldom.Document
	Session *session.Session

	observed bool
	result   session.Result
	err      error
}

// Mount mounts component into a fresh document and unmounts it when the
// test ends. Logging is discarded unless opts set a logger. Any observer in
// opts is replaced by the harness's own.
func Mount(t testing.TB, component vdom.Component, opts ...session.Option) *Harness {
	t.Helper()

	h := &Harness{t: t, Doc: htmldom.New()}
	all := append([]session.Option{session.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))}, opts...)
	all = append(all, session.WithObserver(h.observe))

	s, err := session.Mount(h.Doc, "root", component, all...)
	if err != nil {
		t.Fatalf("vtest: mount: %v", err)
	}
	h.Session = s
	t.Cleanup(func() {
		if s.Mounted() {
			s.Unmount()
		}
	})
	return h
}

func (h *Harness) observe(res session.Result, err error) {
	h.observed = true
	h.result = res
	h.err = err
}

// Node returns the live node at path, failing the test if there is none.
func (h *Harness) Node(path ...int) dom.Node {
	h.t.Helper()
	n, ok := dom.NodeAt(h.Session.Root(), vdom.Path(path))
	if !ok {
		h.t.Fatalf("vtest: no node at %v in %s", vdom.Path(path), h.Markup())
	}
	return n
}

// Fire delivers an event of kind at path through the document, as a host
// would, and returns the dispatch outcome. An event kind the session does
// not listen to returns a zero Result.
func (h *Harness) Fire(kind vdom.EventKind, detail vdom.EventDetail, path ...int) (session.Result, error) {
	h.t.Helper()
	h.observed = false
	h.Doc.Fire(dom.Event{Kind: kind, Target: h.Node(path...), Payload: detail})
	if !h.observed {
		return session.Result{Kind: kind}, nil
	}
	return h.result, h.err
}

// Click fires a click at path and fails the test if the dispatch fails.
func (h *Harness) Click(path ...int) session.Result {
	h.t.Helper()
	return h.must(h.Fire(vdom.EventClick, vdom.EventDetail{}, path...))
}

// Input fires an input event carrying value at path.
func (h *Harness) Input(value string, path ...int) session.Result {
	h.t.Helper()
	return h.must(h.Fire(vdom.EventInput, vdom.EventDetail{Value: value}, path...))
}

// KeyDown fires a keydown event for key at path.
func (h *Harness) KeyDown(key string, path ...int) session.Result {
	h.t.Helper()
	return h.must(h.Fire(vdom.EventKeyDown, vdom.EventDetail{Key: key}, path...))
}

func (h *Harness) must(res session.Result, err error) session.Result {
	h.t.Helper()
	if err != nil {
		h.t.Fatalf("vtest: dispatch %s at %v: %v", res.Kind, res.Path, err)
	}
	return res
}

// Markup returns the markup inside the mount element.
func (h *Harness) Markup() string {
	return htmldom.InnerMarkup(h.Session.Root())
}

// ExpectMarkup asserts the mount element holds exactly want.
func (h *Harness) ExpectMarkup(want string) {
	h.t.Helper()
	if got := h.Markup(); got != want {
		h.t.Errorf("markup mismatch:\n%s", session.MarkupDiff(want, got))
	}
}

// ExpectInSync asserts the live document matches the session snapshot.
func (h *Harness) ExpectInSync() {
	h.t.Helper()
	if err := h.Session.Verify(); err != nil {
		h.t.Errorf("document out of sync: %v", err)
	}
}
