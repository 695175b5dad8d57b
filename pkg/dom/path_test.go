package dom_test

import (
	stderrors "errors"
	"testing"

	"github.com/vango-dev/reconcile/pkg/dom"
	"github.com/vango-dev/reconcile/pkg/dom/htmldom"
	. "github.com/vango-dev/reconcile/pkg/vdom"
)

func TestPathOfNodeAtRoundTrip(t *testing.T) {
	_, root := mount(t, snap(Div(Class("app"),
		Header(H1(Text("Title"))),
		Ul(Li(Text("a")), Li(Text("b"), Button(Text("x")))),
		Text("tail"),
	)))

	var walk func(n dom.Node)
	visited := 0
	walk = func(n dom.Node) {
		visited++
		path, err := dom.PathOf(root, n)
		if err != nil {
			t.Fatalf("PathOf: %v", err)
		}
		back, ok := dom.NodeAt(root, path)
		if !ok {
			t.Fatalf("NodeAt(%v) not found", path)
		}
		if !dom.SameNode(back, n) {
			t.Errorf("NodeAt(PathOf(n)) at %v is a different node", path)
		}
		for _, c := range n.Children() {
			walk(c)
		}
	}

	treeRoot, ok := root.ChildAt(0)
	if !ok {
		t.Fatal("nothing mounted")
	}
	walk(treeRoot)

	if visited != 12 {
		t.Errorf("visited %d nodes, want 12", visited)
	}
}

func TestPathOfKnownPaths(t *testing.T) {
	_, root := mount(t, snap(Div(Span(), Div(Text("x"), Button(Text("0"))))))

	tests := []struct {
		path Path
	}{
		{Path{}},
		{Path{0}},
		{Path{1}},
		{Path{1, 1}},
		{Path{1, 1, 0}},
	}

	for _, tt := range tests {
		n := mustNode(t, root, tt.path)
		got, err := dom.PathOf(root, n)
		if err != nil {
			t.Fatalf("PathOf: %v", err)
		}
		if !got.Equal(tt.path) {
			t.Errorf("PathOf = %v, want %v", got, tt.path)
		}
	}
}

func TestPathOfMountElementIsEmpty(t *testing.T) {
	_, root := mount(t, snap(Div()))

	got, err := dom.PathOf(root, root)
	if err != nil {
		t.Fatalf("PathOf: %v", err)
	}
	if !got.IsRoot() {
		t.Errorf("PathOf(root, root) = %v, want []", got)
	}
}

func TestPathOfOutsideRoot(t *testing.T) {
	doc, err := htmldom.Parse(`<html><body><p id="other"><b>x</b></p>` +
		`<div id="root"><div></div><p id="stray"><i>y</i></p></div></body></html>`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	root, _ := doc.ElementByID("root")
	other, _ := doc.ElementByID("other")
	inside, _ := other.ChildAt(0)
	stray, _ := doc.ElementByID("stray")
	underStray, _ := stray.ChildAt(0)

	detached, err := doc.CreateFromMarkup("<span></span>")
	if err != nil {
		t.Fatalf("CreateFromMarkup: %v", err)
	}

	for name, target := range map[string]dom.Node{
		"sibling subtree":       other,
		"descendant of sibling": inside,
		"second mount child":    stray,
		"under second child":    underStray,
		"detached":              detached,
		"nil":                   nil,
	} {
		t.Run(name, func(t *testing.T) {
			path, err := dom.PathOf(root, target)
			if err == nil {
				t.Fatalf("PathOf = %v, want error", path)
			}
			if !stderrors.Is(err, dom.ErrOutsideRoot) {
				t.Errorf("error %v is not ErrOutsideRoot", err)
			}
			if path != nil {
				t.Errorf("path = %v, want nil", path)
			}
		})
	}
}

func TestNodeAtNoPartialMatch(t *testing.T) {
	_, root := mount(t, snap(Div(Span(Text("a")))))

	for _, p := range []Path{{1}, {0, 1}, {0, 0, 0}, {-1}} {
		if n, ok := dom.NodeAt(root, p); ok || n != nil {
			t.Errorf("NodeAt(%v) = %v, %v; want not found", p, n, ok)
		}
	}

	_, empty := mount(t, nil)
	if _, ok := dom.NodeAt(empty, Path{}); ok {
		t.Error("NodeAt on empty mount should fail")
	}
}

func TestAsElement(t *testing.T) {
	_, root := mount(t, snap(Div(Text("x"))))

	div := mustNode(t, root, Path{})
	if el, ok := dom.AsElement(div); !ok || el.Tag() != "div" {
		t.Errorf("AsElement(div) = %v, %v", el, ok)
	}
	if _, ok := dom.AsElement(mustNode(t, root, Path{0})); ok {
		t.Error("AsElement(text) should fail")
	}
	if _, ok := dom.AsElement(nil); ok {
		t.Error("AsElement(nil) should fail")
	}
}
