package htmldom

import (
	stderrors "errors"
	"strconv"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/vango-dev/reconcile/internal/errors"
	"github.com/vango-dev/reconcile/pkg/dom"
	"github.com/vango-dev/reconcile/pkg/render"
	"github.com/vango-dev/reconcile/pkg/vdom"
)

func mountRoot(t *testing.T, doc *Document) dom.Element {
	t.Helper()
	root, ok := doc.ElementByID("root")
	if !ok {
		t.Fatal("mount element missing")
	}
	return root
}

func TestMarkupRoundTrip(t *testing.T) {
	trees := []*vdom.VNode{
		vdom.Text("plain & simple"),
		vdom.Div(vdom.Class("card"), vdom.H1(vdom.Text("Title")), vdom.P(vdom.Text("a < b"))),
		vdom.Form(vdom.Input(vdom.Type("checkbox"), vdom.Checked()), vdom.Label(vdom.For("x"), vdom.Text("X"))),
		vdom.Ul(vdom.Li(vdom.Text("1"), vdom.Strong(vdom.Text("!"))), vdom.Li()),
		vdom.Table(vdom.Tbody(vdom.Tr(vdom.Td(vdom.Text("cell"))))),
		vdom.Pre(vdom.Text("\nindented\n  code")),
		vdom.Div(vdom.Script(vdom.Text("if (a < b) { x = '&'; }"))),
		vdom.Button(vdom.TitleAttr("say \"hi\"\n"), vdom.Text("it's")),
	}

	for _, tree := range trees {
		want := vdom.Reduce(vdom.Normalize(tree))
		doc := New()
		root := mountRoot(t, doc)
		if err := doc.SetInnerMarkup(root, render.Markup(want)); err != nil {
			t.Fatalf("SetInnerMarkup: %v", err)
		}

		got := dom.TreeSnapshot(root)
		if d := cmp.Diff(want, got, cmpopts.EquateEmpty()); d != "" {
			t.Errorf("round-trip of %q mismatch (-want +got):\n%s", render.Markup(want), d)
		}
	}
}

func TestCreateFromMarkup(t *testing.T) {
	doc := New()

	tests := []struct {
		markup string
		tag    string
	}{
		{"<p>x</p>", "p"},
		{"<tr><td>1</td></tr>", "tr"},
		{"<td>1</td>", "td"},
		{"<tbody></tbody>", "tbody"},
		{"<li>a</li>", "li"},
		{`<input type="text">`, "input"},
	}

	for _, tt := range tests {
		n, err := doc.CreateFromMarkup(tt.markup)
		if err != nil {
			t.Errorf("CreateFromMarkup(%q): %v", tt.markup, err)
			continue
		}
		el, ok := dom.AsElement(n)
		if !ok || el.Tag() != tt.tag {
			t.Errorf("CreateFromMarkup(%q) = %v, want <%s>", tt.markup, n, tt.tag)
		}
		if n.Parent() != nil {
			t.Errorf("CreateFromMarkup(%q) returned an attached node", tt.markup)
		}
	}

	text, err := doc.CreateFromMarkup("hello")
	if err != nil {
		t.Fatalf("CreateFromMarkup(text): %v", err)
	}
	if x, ok := text.(*Node); !ok || x.Text() != "hello" {
		t.Errorf("text node = %v", text)
	}
}

func TestCreateFromMarkupRequiresOneNode(t *testing.T) {
	doc := New()

	for _, markup := range []string{"", "<p></p><p></p>", "a<b>c</b>"} {
		_, err := doc.CreateFromMarkup(markup)
		if err == nil {
			t.Errorf("CreateFromMarkup(%q) should fail", markup)
			continue
		}
		if !stderrors.Is(err, errors.New(errors.CodeMarkup)) {
			t.Errorf("CreateFromMarkup(%q) error = %v, want markup error", markup, err)
		}
	}
}

func TestCanonicalHandles(t *testing.T) {
	doc := New()
	root := mountRoot(t, doc)
	doc.SetInnerMarkup(root, "<div><span></span></div>")

	a, _ := root.ChildAt(0)
	b := root.Children()[0]
	if !dom.SameNode(a, b) {
		t.Error("same node returned different handles")
	}
	again, _ := doc.ElementByID("root")
	if !dom.SameNode(root, again) {
		t.Error("ElementByID returned a different handle")
	}

	span, _ := a.ChildAt(0)
	if !dom.SameNode(span.Parent(), a) {
		t.Error("Parent() handle differs")
	}
}

func TestNodeMutations(t *testing.T) {
	doc := New()
	root := mountRoot(t, doc)
	doc.SetInnerMarkup(root, "<ul><li>a</li><li>b</li></ul>")
	ul, _ := root.ChildAt(0)

	c, _ := doc.CreateFromMarkup("<li>c</li>")
	if err := ul.AppendChild(c); err != nil {
		t.Fatalf("AppendChild: %v", err)
	}
	first, _ := ul.ChildAt(0)
	z, _ := doc.CreateFromMarkup("<li>z</li>")
	if err := ul.InsertBefore(z, first); err != nil {
		t.Fatalf("InsertBefore: %v", err)
	}
	second, _ := ul.ChildAt(2)
	y, _ := doc.CreateFromMarkup("<li>y</li>")
	if err := ul.ReplaceChild(y, second); err != nil {
		t.Fatalf("ReplaceChild: %v", err)
	}
	if err := ul.RemoveChild(first); err != nil {
		t.Fatalf("RemoveChild: %v", err)
	}

	if got := InnerMarkup(root); got != "<ul><li>z</li><li>y</li><li>c</li></ul>" {
		t.Errorf("markup = %q", got)
	}
	if ul.ChildCount() != 3 {
		t.Errorf("ChildCount = %d, want 3", ul.ChildCount())
	}

	if err := ul.RemoveChild(first); err == nil {
		t.Error("removing a detached node should fail")
	}
	if err := ul.InsertBefore(c, first); err == nil {
		t.Error("inserting before a non-child should fail")
	}
	other := New()
	foreign, _ := other.CreateFromMarkup("<li>f</li>")
	if err := ul.AppendChild(foreign); err == nil {
		t.Error("appending a node from another document should fail")
	}
}

func TestElementAttributes(t *testing.T) {
	doc := New()
	root := mountRoot(t, doc)
	doc.SetInnerMarkup(root, `<a href="/x" id="l" hidden></a>`)
	n, _ := root.ChildAt(0)
	a, _ := dom.AsElement(n)

	if v, ok := a.Attribute("hidden"); !ok || v != "" {
		t.Errorf("hidden = %q, %v", v, ok)
	}
	a.SetAttribute("href", "/y")
	a.SetAttribute("rel", "next")
	a.RemoveAttribute("id")

	want := vdom.Attrs{{Name: "href", Value: "/y"}, {Name: "hidden", Value: ""}, {Name: "rel", Value: "next"}}
	if d := cmp.Diff(want, a.Attributes()); d != "" {
		t.Errorf("attributes mismatch (-want +got):\n%s", d)
	}
	if _, ok := a.Attribute("id"); ok {
		t.Error("id should be removed")
	}
}

func TestElementByIDQuoting(t *testing.T) {
	doc, err := Parse(`<html><body><div id="it's"></div><div id='say "x"'></div><div id="a'b&quot;c"></div></body></html>`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	for _, id := range []string{"it's", `say "x"`, `a'b"c`} {
		el, ok := doc.ElementByID(id)
		if !ok {
			t.Errorf("ElementByID(%q) not found", id)
			continue
		}
		if v, _ := el.Attribute("id"); v != id {
			t.Errorf("ElementByID(%q) found id %q", id, v)
		}
	}
	if _, ok := doc.ElementByID("missing"); ok {
		t.Error("ElementByID(missing) should fail")
	}
}

func TestQuery(t *testing.T) {
	doc := New()
	root := mountRoot(t, doc)
	doc.SetInnerMarkup(root, `<ul><li class="x">a</li><li>b</li><li class="x">c</li></ul>`)

	found, err := doc.Query(`//li[@class="x"]`)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(found) != 2 {
		t.Errorf("Query found %d, want 2", len(found))
	}
	if _, err := doc.Query("//li[@"); err == nil {
		t.Error("invalid expression should fail")
	}
}

func TestFireBubbles(t *testing.T) {
	doc := New()
	root := mountRoot(t, doc)
	doc.SetInnerMarkup(root, "<div><button>go</button></div>")
	div, _ := root.ChildAt(0)
	button, _ := div.ChildAt(0)
	label, _ := button.ChildAt(0)

	var order []string
	root.Subscribe(vdom.EventClick, func(ev dom.Event) {
		order = append(order, "root")
		if !dom.SameNode(ev.Target, label) {
			t.Error("target changed while bubbling")
		}
	})
	btn, _ := dom.AsElement(button)
	btn.Subscribe(vdom.EventClick, func(dom.Event) { order = append(order, "button") })
	btn.Subscribe(vdom.EventKeyDown, func(dom.Event) { order = append(order, "keydown") })

	if called := doc.Click(label); called != 2 {
		t.Errorf("Click called %d listeners, want 2", called)
	}
	if d := cmp.Diff([]string{"button", "root"}, order); d != "" {
		t.Errorf("bubble order mismatch (-want +got):\n%s", d)
	}
}

func TestSubscriptionCancel(t *testing.T) {
	doc := New()
	root := mountRoot(t, doc)

	calls := 0
	sub := root.Subscribe(vdom.EventInput, func(ev dom.Event) {
		calls++
		if ev.Payload.Value != "typed" {
			t.Errorf("payload value = %q", ev.Payload.Value)
		}
	})
	if doc.ListenerCount() != 1 {
		t.Errorf("ListenerCount = %d, want 1", doc.ListenerCount())
	}

	doc.Input(root, "typed")
	sub.Cancel()
	sub.Cancel()
	doc.Input(root, "typed")

	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
	if doc.ListenerCount() != 0 {
		t.Errorf("ListenerCount = %d after cancel, want 0", doc.ListenerCount())
	}
}

func TestSnapshotOfSkipsComments(t *testing.T) {
	doc := New()
	root := mountRoot(t, doc)
	doc.SetInnerMarkup(root, "<p>a<!-- note -->b</p>")

	got := dom.TreeSnapshot(root)
	if got == nil || got.Tag != "p" || len(got.Children) != 2 {
		t.Errorf("TreeSnapshot = %+v", got)
	}
	if dom.TreeSnapshot(mountRoot(t, New())) != nil {
		t.Error("TreeSnapshot of empty mount should be nil")
	}
}

func TestParseSnapshot(t *testing.T) {
	want := vdom.Reduce(vdom.Normalize(vdom.Ul(vdom.Class("x"), vdom.Li(vdom.Text("a & b")))))
	got, err := ParseSnapshot(render.Markup(want))
	if err != nil {
		t.Fatalf("ParseSnapshot: %v", err)
	}
	if d := cmp.Diff(want, got, cmpopts.EquateEmpty()); d != "" {
		t.Errorf("snapshot mismatch (-want +got):\n%s", d)
	}

	for _, bad := range []string{"", "<!-- c -->", "<p></p><p></p>"} {
		if _, err := ParseSnapshot(bad); !stderrors.Is(err, errors.New(errors.CodeMarkup)) {
			t.Errorf("ParseSnapshot(%q) error = %v, want markup error", bad, err)
		}
	}
}

func TestDetachedHandlesAreForgotten(t *testing.T) {
	doc := New()
	root := mountRoot(t, doc)
	doc.SetInnerMarkup(root, "<div><button>0</button></div>")
	div, _ := root.ChildAt(0)
	button, _ := div.ChildAt(0)
	baseline := doc.HandleCount()

	for i := 1; i <= 500; i++ {
		label, _ := button.ChildAt(0)
		text, err := doc.CreateFromMarkup(strconv.Itoa(i))
		if err != nil {
			t.Fatalf("CreateFromMarkup: %v", err)
		}
		if err := button.ReplaceChild(text, label); err != nil {
			t.Fatalf("ReplaceChild: %v", err)
		}
	}
	if got := doc.HandleCount(); got > baseline+1 {
		t.Errorf("HandleCount = %d after replacements, want at most %d", got, baseline+1)
	}

	for i := 0; i < 100; i++ {
		doc.SetInnerMarkup(root, "<ul><li>a</li><li>b</li></ul>")
		ul, _ := root.ChildAt(0)
		first, _ := ul.ChildAt(0)
		if err := ul.RemoveChild(first); err != nil {
			t.Fatalf("RemoveChild: %v", err)
		}
	}
	if got := doc.HandleCount(); got > baseline+1 {
		t.Errorf("HandleCount = %d after resets, want at most %d", got, baseline+1)
	}
}

func TestForgottenHandleIsAdoptedAgain(t *testing.T) {
	doc := New()
	root := mountRoot(t, doc)
	doc.SetInnerMarkup(root, "<ul><li>a</li><li>b</li></ul>")
	ul, _ := root.ChildAt(0)
	first, _ := ul.ChildAt(0)

	if err := ul.RemoveChild(first); err != nil {
		t.Fatalf("RemoveChild: %v", err)
	}
	if err := ul.AppendChild(first); err != nil {
		t.Fatalf("AppendChild: %v", err)
	}

	last, _ := ul.ChildAt(1)
	if !dom.SameNode(first, last) {
		t.Error("re-attached node got a new handle")
	}
	if got := InnerMarkup(root); got != "<ul><li>b</li><li>a</li></ul>" {
		t.Errorf("markup = %q", got)
	}
}
