package session_test

import (
	"bytes"
	"context"
	stderrors "errors"
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/vango-dev/reconcile/internal/errors"
	"github.com/vango-dev/reconcile/pkg/dom"
	"github.com/vango-dev/reconcile/pkg/dom/htmldom"
	"github.com/vango-dev/reconcile/pkg/session"
	. "github.com/vango-dev/reconcile/pkg/vdom"
)

var snapOpts = cmp.Options{cmpopts.EquateEmpty()}

// counter renders Div(Div(Span("Count"), Button("N"))) with the click
// handler on the button at path [0 1].
type counter struct {
	n int
}

func (c *counter) Render() *VNode {
	return Div(Class("app"),
		Div(
			Span(Text("Count")),
			Button(OnClick(Do(func() { c.n++ })), Text(strconv.Itoa(c.n))),
		),
	)
}

type increment struct{ by int }

// msgCounter applies handler messages through Update.
type msgCounter struct {
	n int
}

func (c *msgCounter) Render() *VNode {
	return Div(
		P(Text(strconv.Itoa(c.n))),
		Button(OnClick(Send(increment{by: 2})), Text("+2")),
	)
}

func (c *msgCounter) Update(msg Msg) {
	if m, ok := msg.(increment); ok {
		c.n += m.by
	}
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

func mount(t *testing.T, c Component, opts ...session.Option) (*htmldom.Document, *session.Session) {
	t.Helper()
	doc := htmldom.New()
	opts = append([]session.Option{session.WithLogger(quietLogger())}, opts...)
	sess, err := session.Mount(doc, "root", c, opts...)
	if err != nil {
		t.Fatalf("Mount: %v", err)
	}
	return doc, sess
}

func nodeAt(t *testing.T, sess *session.Session, p Path) dom.Node {
	t.Helper()
	n, ok := dom.NodeAt(sess.Root(), p)
	if !ok {
		t.Fatalf("NodeAt(%v) not found", p)
	}
	return n
}

func TestMountInstallsMarkup(t *testing.T) {
	doc, sess := mount(t, &counter{})

	want := `<div class="app"><div><span>Count</span><button>0</button></div></div>`
	if got := htmldom.InnerMarkup(sess.Root()); got != want {
		t.Errorf("markup = %q, want %q", got, want)
	}
	if sess.ID() == "" {
		t.Error("session id should default to a uuid")
	}
	if d := cmp.Diff([]EventKind{EventClick, EventInput, EventKeyDown}, sess.Kinds()); d != "" {
		t.Errorf("kinds mismatch (-want +got):\n%s", d)
	}
	if doc.ListenerCount() != 3 {
		t.Errorf("ListenerCount = %d, want 3", doc.ListenerCount())
	}
	if err := sess.Verify(); err != nil {
		t.Errorf("Verify after mount: %v", err)
	}
}

func TestMountRootNotFound(t *testing.T) {
	doc := htmldom.New()
	before := doc.String()

	sess, err := session.Mount(doc, "missing", &counter{}, session.WithLogger(quietLogger()))
	if sess != nil {
		t.Error("Mount should not return a session")
	}
	if !stderrors.Is(err, session.ErrRootNotFound) {
		t.Fatalf("error = %v, want ErrRootNotFound", err)
	}
	if doc.String() != before || doc.ListenerCount() != 0 {
		t.Error("failed mount changed the document")
	}
}

func TestMountAddsHandlerKinds(t *testing.T) {
	c := Func(func() *VNode {
		return Form(OnSubmit(Do(func() {})), Input(OnChange(Do(func() {}))))
	})
	_, sess := mount(t, c, session.WithEventKinds(EventClick))

	want := []EventKind{EventChange, EventClick, EventSubmit}
	if d := cmp.Diff(want, sess.Kinds()); d != "" {
		t.Errorf("kinds mismatch (-want +got):\n%s", d)
	}
}

func TestCounterClick(t *testing.T) {
	c := &counter{}
	doc, sess := mount(t, c)

	button := nodeAt(t, sess, Path{0, 1})
	res, err := sess.Dispatch(context.Background(), dom.Event{Kind: EventClick, Target: button})
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}

	if !res.Handled || !res.Path.Equal(Path{0, 1}) || res.Seq != 1 {
		t.Errorf("result = %+v", res)
	}
	want := Patches{NewReplace(Path{0, 1, 0}, TextSnapshot("1"))}
	if d := cmp.Diff(want, res.Patches, snapOpts); d != "" {
		t.Errorf("patches mismatch (-want +got):\n%s", d)
	}

	got, err := sess.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if d := cmp.Diff(Reduce(Normalize(c.Render())), got, snapOpts); d != "" {
		t.Errorf("snapshot mismatch (-want +got):\n%s", d)
	}
	if markup := htmldom.InnerMarkup(sess.Root()); !strings.Contains(markup, "<button>1</button>") {
		t.Errorf("markup = %q", markup)
	}

	// The button handle survives a text replace underneath it.
	doc.Click(button)
	if c.n != 2 {
		t.Errorf("n = %d, want 2", c.n)
	}
	if err := sess.Verify(); err != nil {
		t.Errorf("Verify: %v", err)
	}
}

func TestClickBubblesFromText(t *testing.T) {
	c := &counter{}
	var got []session.Result
	doc, sess := mount(t, c, session.WithObserver(func(r session.Result, err error) {
		if err != nil {
			t.Errorf("dispatch: %v", err)
		}
		got = append(got, r)
	}))

	// The text node itself has no handler; the button's does not run
	// because routing resolves the exact target.
	doc.Click(nodeAt(t, sess, Path{0, 1, 0}))
	if c.n != 0 {
		t.Errorf("n = %d, want 0", c.n)
	}
	if len(got) != 1 || got[0].Handled {
		t.Errorf("results = %+v", got)
	}
}

func TestDispatchWithoutHandlerLeavesDocument(t *testing.T) {
	renders := 0
	c := Func(func() *VNode {
		renders++
		return Div(H1(Text("static")), P(Text("body")))
	})
	doc, sess := mount(t, c)
	before := doc.String()
	renders = 0

	for _, p := range []Path{{}, {0}, {1, 0}} {
		res, err := sess.Dispatch(context.Background(), dom.Event{Kind: EventClick, Target: nodeAt(t, sess, p)})
		if err != nil {
			t.Fatalf("Dispatch(%v): %v", p, err)
		}
		if res.Handled || len(res.Patches) != 0 {
			t.Errorf("Dispatch(%v) = %+v, want unhandled", p, res)
		}
	}
	if renders != 3 {
		t.Errorf("renders = %d, want one per dispatch", renders)
	}
	if doc.String() != before {
		t.Error("document changed")
	}
}

func TestDispatchWrongKindIsNoop(t *testing.T) {
	c := &counter{}
	doc, sess := mount(t, c)
	before := doc.String()

	doc.KeyDown(nodeAt(t, sess, Path{0, 1}), "Enter")
	if c.n != 0 || doc.String() != before {
		t.Error("keydown should not run the click handler")
	}
}

func TestDispatchTargetOutsideRoot(t *testing.T) {
	doc, err := htmldom.Parse(`<html><body><button id="outside">x</button><div id="root"></div></body></html>`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	sess, err := session.Mount(doc, "root", &counter{}, session.WithLogger(quietLogger()))
	if err != nil {
		t.Fatalf("Mount: %v", err)
	}
	outside, _ := doc.ElementByID("outside")

	_, err = sess.Dispatch(context.Background(), dom.Event{Kind: EventClick, Target: outside})
	if !stderrors.Is(err, dom.ErrOutsideRoot) {
		t.Errorf("error = %v, want ErrOutsideRoot", err)
	}
}

func TestMessageUpdater(t *testing.T) {
	c := &msgCounter{}
	doc, sess := mount(t, c)

	doc.Click(nodeAt(t, sess, Path{1}))
	doc.Click(nodeAt(t, sess, Path{1}))

	if c.n != 4 {
		t.Errorf("n = %d, want 4", c.n)
	}
	if got := htmldom.InnerMarkup(sess.Root()); got != "<div><p>4</p><button>+2</button></div>" {
		t.Errorf("markup = %q", got)
	}
}

func TestMessageWithoutUpdater(t *testing.T) {
	c := Func(func() *VNode {
		return Button(OnClick(Send(increment{by: 1})), Text("x"))
	})
	_, sess := mount(t, c)

	res, err := sess.Dispatch(context.Background(), dom.Event{Kind: EventClick, Target: nodeAt(t, sess, Path{})})
	if !stderrors.Is(err, session.ErrNoUpdater) {
		t.Fatalf("error = %v, want ErrNoUpdater", err)
	}
	if !res.Handled {
		t.Error("handler ran, result should be handled")
	}
}

func TestReentrantDispatch(t *testing.T) {
	var sess *session.Session
	var inner error
	var snapErr error
	c := Func(func() *VNode {
		return Button(OnClick(Do(func() {
			_, inner = sess.Dispatch(context.Background(), dom.Event{Kind: EventClick, Target: sess.Root()})
			_, snapErr = sess.Snapshot()
		})), Text("go"))
	})
	_, sess = mount(t, c)

	res, err := sess.Dispatch(context.Background(), dom.Event{Kind: EventClick, Target: nodeAt(t, sess, Path{})})
	if err != nil {
		t.Fatalf("outer Dispatch: %v", err)
	}
	if !stderrors.Is(inner, session.ErrReentrantDispatch) {
		t.Errorf("inner error = %v, want ErrReentrantDispatch", inner)
	}
	if !stderrors.Is(snapErr, session.ErrDispatchInProgress) {
		t.Errorf("Snapshot during dispatch = %v, want ErrDispatchInProgress", snapErr)
	}
	if res.Seq != 1 || sess.Seq() != 1 {
		t.Errorf("seq = %d/%d, rejected dispatch should not count", res.Seq, sess.Seq())
	}

	// The session is idle again.
	if _, err := sess.Dispatch(context.Background(), dom.Event{Kind: EventClick, Target: nodeAt(t, sess, Path{})}); err != nil {
		t.Errorf("second Dispatch: %v", err)
	}
}

func TestDispatchDetachedTarget(t *testing.T) {
	c := &counter{}
	_, sess := mount(t, c)

	wrapper, _ := dom.AsElement(nodeAt(t, sess, Path{0}))
	button := nodeAt(t, sess, Path{0, 1})
	if err := wrapper.RemoveChild(button); err != nil {
		t.Fatalf("RemoveChild: %v", err)
	}
	if err := sess.Verify(); !stderrors.Is(err, dom.ErrDesync) {
		t.Fatalf("Verify = %v, want desync", err)
	}

	res, err := sess.Dispatch(context.Background(), dom.Event{Kind: EventClick, Target: button})
	if !stderrors.Is(err, dom.ErrOutsideRoot) {
		t.Fatalf("error = %v, want ErrOutsideRoot", err)
	}
	if res.Handled || c.n != 0 {
		t.Error("detached target should not be handled")
	}
}

func TestDesyncDuringPatch(t *testing.T) {
	c := &counter{}
	doc, sess := mount(t, c)
	button := nodeAt(t, sess, Path{0, 1})

	// Remove the button's text so the Replace at [0 1 0] has no target.
	label := nodeAt(t, sess, Path{0, 1, 0})
	if err := button.RemoveChild(label); err != nil {
		t.Fatal(err)
	}

	res, err := sess.Dispatch(context.Background(), dom.Event{Kind: EventClick, Target: button})
	if !stderrors.Is(err, dom.ErrDesync) {
		t.Fatalf("error = %v, want ErrDesync", err)
	}
	var re *errors.Error
	if !stderrors.As(err, &re) {
		t.Fatalf("error %T is not *errors.Error", err)
	}
	if v, _ := re.Attr("path"); v != "[0 1 0]" {
		t.Errorf("path attr = %q", v)
	}
	if !res.Handled || !res.Resynced {
		t.Errorf("result = %+v, want handled and resynced", res)
	}
	if err := sess.Verify(); err != nil {
		t.Errorf("Verify after resync: %v", err)
	}

	// Later events work again.
	doc.Click(nodeAt(t, sess, Path{0, 1}))
	if c.n != 2 {
		t.Errorf("n = %d, want 2", c.n)
	}
	if !strings.Contains(htmldom.InnerMarkup(sess.Root()), "<button>2</button>") {
		t.Errorf("markup = %q", htmldom.InnerMarkup(sess.Root()))
	}
}

func TestHandlerPanic(t *testing.T) {
	c := Func(func() *VNode {
		return Button(OnClick(Do(func() { panic("boom") })), Text("x"))
	})
	_, sess := mount(t, c)

	_, err := sess.Dispatch(context.Background(), dom.Event{Kind: EventClick, Target: nodeAt(t, sess, Path{})})
	if !stderrors.Is(err, session.ErrPanic) {
		t.Fatalf("error = %v, want ErrPanic", err)
	}
	var re *errors.Error
	stderrors.As(err, &re)
	if v, _ := re.Attr("panic"); v != "boom" {
		t.Errorf("panic attr = %q", v)
	}
	if !sess.Mounted() {
		t.Error("session should stay mounted")
	}
	if _, err := sess.Snapshot(); err != nil {
		t.Errorf("Snapshot after panic: %v", err)
	}
}

func TestVerifyReportsDiff(t *testing.T) {
	doc, sess := mount(t, &counter{})
	label := nodeAt(t, sess, Path{0, 0, 0})
	span, _ := dom.AsElement(nodeAt(t, sess, Path{0, 0}))
	replacement, _ := doc.CreateFromMarkup("Xyz")
	if err := span.ReplaceChild(replacement, label); err != nil {
		t.Fatal(err)
	}

	err := sess.Verify()
	var re *errors.Error
	if !stderrors.As(err, &re) || re.Code != errors.CodeDesync {
		t.Fatalf("Verify = %v, want desync", err)
	}
	if !strings.Contains(re.Detail, "<span>[-Count-]{+Xyz+}</span>") {
		t.Errorf("detail = %q", re.Detail)
	}
}

func TestMarkupDiff(t *testing.T) {
	tests := []struct {
		want, got, diff string
	}{
		{"<p>a</p>", "<p>a</p>", ""},
		{"<p>a</p>", "<p>ab</p>", "<p>a{+b+}</p>"},
		{"<p>ab</p>", "<p>a</p>", "<p>a[-b-]</p>"},
	}
	for _, tt := range tests {
		if got := session.MarkupDiff(tt.want, tt.got); got != tt.diff {
			t.Errorf("MarkupDiff(%q, %q) = %q, want %q", tt.want, tt.got, got, tt.diff)
		}
	}
}

func TestUnmount(t *testing.T) {
	c := &counter{}
	doc, sess := mount(t, c)
	button := nodeAt(t, sess, Path{0, 1})

	if err := sess.Unmount(); err != nil {
		t.Fatalf("Unmount: %v", err)
	}
	if doc.ListenerCount() != 0 {
		t.Errorf("ListenerCount = %d after unmount", doc.ListenerCount())
	}
	if sess.Root().ChildCount() != 0 {
		t.Error("mount element should be empty")
	}
	if sess.Mounted() {
		t.Error("Mounted should be false")
	}

	if _, err := sess.Dispatch(context.Background(), dom.Event{Kind: EventClick, Target: button}); !stderrors.Is(err, session.ErrUnmounted) {
		t.Errorf("Dispatch after unmount = %v", err)
	}
	if _, err := sess.Snapshot(); !stderrors.Is(err, session.ErrUnmounted) {
		t.Errorf("Snapshot after unmount = %v", err)
	}
	if err := sess.Unmount(); !stderrors.Is(err, session.ErrUnmounted) {
		t.Errorf("second Unmount = %v", err)
	}
	if c.n != 0 {
		t.Error("handler ran after unmount")
	}
}

func TestMiddlewareOrder(t *testing.T) {
	var order []string
	trace := func(name string) session.Middleware {
		return func(ctx context.Context, ev dom.Event, next session.DispatchFunc) (session.Result, error) {
			order = append(order, name+">")
			res, err := next(ctx, ev)
			order = append(order, "<"+name)
			return res, err
		}
	}

	_, sess := mount(t, &counter{}, session.WithMiddleware(trace("a"), trace("b")))
	if _, err := sess.Dispatch(context.Background(), dom.Event{Kind: EventClick, Target: nodeAt(t, sess, Path{0, 1})}); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}

	if d := cmp.Diff([]string{"a>", "b>", "<b", "<a"}, order); d != "" {
		t.Errorf("order mismatch (-want +got):\n%s", d)
	}
}

func TestCancelledContext(t *testing.T) {
	c := &counter{}
	_, sess := mount(t, c)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := sess.Dispatch(ctx, dom.Event{Kind: EventClick, Target: nodeAt(t, sess, Path{0, 1})})
	if !stderrors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
	if c.n != 0 {
		t.Error("handler ran on a cancelled context")
	}
}

func TestSessionsAreIndependent(t *testing.T) {
	a, b := &counter{}, &counter{}
	docA, sa := mount(t, a, session.WithID("a"))
	_, sb := mount(t, b, session.WithID("b"))

	docA.Click(nodeAt(t, sa, Path{0, 1}))
	if a.n != 1 || b.n != 0 {
		t.Errorf("a=%d b=%d", a.n, b.n)
	}
	if sa.ID() != "a" || sb.ID() != "b" {
		t.Errorf("ids = %q, %q", sa.ID(), sb.ID())
	}
}

func TestIDFromContext(t *testing.T) {
	var seen string
	mw := func(ctx context.Context, ev dom.Event, next session.DispatchFunc) (session.Result, error) {
		seen, _ = session.IDFromContext(ctx)
		return next(ctx, ev)
	}
	_, sess := mount(t, &counter{}, session.WithID("s-1"), session.WithMiddleware(mw))

	if _, err := sess.Dispatch(context.Background(), dom.Event{Kind: EventClick, Target: sess.Root()}); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if seen != "s-1" {
		t.Errorf("IDFromContext = %q, want s-1", seen)
	}
	if _, ok := session.IDFromContext(context.Background()); ok {
		t.Error("IDFromContext on a bare context should fail")
	}
}

// reveal shows a double-clickable span after the button is clicked.
type reveal struct {
	shown   bool
	doubled int
}

func (r *reveal) Render() *VNode {
	return Div(
		Button(OnClick(Do(func() { r.shown = true })), Text("show")),
		If(r.shown, Span(OnDblClick(Do(func() { r.doubled++ })), Text("hi"))),
	)
}

func TestSubscribesKindsAddedByRerender(t *testing.T) {
	r := &reveal{}
	doc, sess := mount(t, r)
	if slices.Contains(sess.Kinds(), EventDblClick) {
		t.Fatalf("kinds = %v, dblclick not in use yet", sess.Kinds())
	}

	res, err := sess.Dispatch(context.Background(), dom.Event{Kind: EventClick, Target: nodeAt(t, sess, Path{0})})
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if d := cmp.Diff([]EventKind{EventDblClick}, res.Subscribed); d != "" {
		t.Errorf("subscribed mismatch (-want +got):\n%s", d)
	}
	if !slices.Contains(sess.Kinds(), EventDblClick) {
		t.Errorf("kinds = %v, want dblclick", sess.Kinds())
	}

	if called := doc.Fire(dom.Event{Kind: EventDblClick, Target: nodeAt(t, sess, Path{1})}); called != 1 {
		t.Errorf("dblclick reached %d listeners, want 1", called)
	}
	if r.doubled != 1 {
		t.Errorf("doubled = %d, want 1", r.doubled)
	}

	res, err = sess.Dispatch(context.Background(), dom.Event{Kind: EventClick, Target: nodeAt(t, sess, Path{0})})
	if err != nil {
		t.Fatalf("second Dispatch: %v", err)
	}
	if len(res.Subscribed) != 0 {
		t.Errorf("subscribed = %v on second click, want none", res.Subscribed)
	}

	if err := sess.Unmount(); err != nil {
		t.Fatalf("Unmount: %v", err)
	}
	if n := doc.ListenerCount(); n != 0 {
		t.Errorf("ListenerCount = %d after Unmount, want 0", n)
	}
}

// refusingDoc fails SetInnerMarkup once refuse is set.
type refusingDoc struct {
	*htmldom.Document
	refuse bool
}

func (d *refusingDoc) SetInnerMarkup(el dom.Element, markup string) error {
	if d.refuse {
		return stderrors.New("write refused")
	}
	return d.Document.SetInnerMarkup(el, markup)
}

func TestFailedResyncKeepsPreviousSnapshot(t *testing.T) {
	c := &counter{}
	doc := &refusingDoc{Document: htmldom.New()}
	sess, err := session.Mount(doc, "root", c, session.WithLogger(quietLogger()))
	if err != nil {
		t.Fatalf("Mount: %v", err)
	}
	before, _ := sess.Snapshot()

	button := nodeAt(t, sess, Path{0, 1})
	if err := button.RemoveChild(nodeAt(t, sess, Path{0, 1, 0})); err != nil {
		t.Fatal(err)
	}
	doc.refuse = true

	res, err := sess.Dispatch(context.Background(), dom.Event{Kind: EventClick, Target: button})
	if !stderrors.Is(err, dom.ErrDesync) {
		t.Fatalf("error = %v, want ErrDesync", err)
	}
	if res.Resynced {
		t.Error("resync should have failed")
	}

	after, err := sess.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if d := cmp.Diff(before, after, snapOpts); d != "" {
		t.Errorf("snapshot changed after failed resync (-want +got):\n%s", d)
	}
}

func TestManyDispatchesKeepHandleCacheBounded(t *testing.T) {
	c := &counter{}
	doc, sess := mount(t, c)
	doc.Click(nodeAt(t, sess, Path{0, 1}))
	baseline := doc.HandleCount()

	for i := 0; i < 2000; i++ {
		doc.Click(nodeAt(t, sess, Path{0, 1}))
	}
	if c.n != 2001 {
		t.Fatalf("n = %d, want 2001", c.n)
	}
	if got := doc.HandleCount(); got > baseline+2 {
		t.Errorf("HandleCount = %d after 2000 clicks, want at most %d", got, baseline+2)
	}
}
