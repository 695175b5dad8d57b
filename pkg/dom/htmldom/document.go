// Package htmldom is an in-memory live document built on golang.org/x/net/html.
//
// It implements the dom capabilities with browser-like semantics: node
// handles are canonical, events bubble from the target to its ancestors and
// markup is parsed with the HTML5 algorithm. The server keeps one Document
// per connection as a mirror of the browser's page; the CLI and tests use it
// as the host document directly.
//
// A Document is not safe for concurrent mutation. Subscriptions may be
// cancelled from any goroutine.
package htmldom

import (
	"fmt"
	"strings"
	"sync"

	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/vango-dev/reconcile/internal/errors"
	"github.com/vango-dev/reconcile/pkg/dom"
)

// EmptyPage is the markup of a document with an empty mount element.
const EmptyPage = `<!DOCTYPE html><html><head></head><body><div id="root"></div></body></html>`

// Document is a parsed HTML document.
type Document struct {
	root  *html.Node
	nodes map[*html.Node]dom.Node

	mu        sync.Mutex
	listeners map[*html.Node][]*registration
}

// New returns a document containing an empty mount element with id "root".
func New() *Document {
	doc, err := Parse(EmptyPage)
	if err != nil {
		// The constant page always parses.
		panic(err)
	}
	return doc
}

// Parse parses a complete HTML document.
func Parse(markup string) (*Document, error) {
	root, err := html.Parse(strings.NewReader(markup))
	if err != nil {
		return nil, errors.New(errors.CodeMarkup).Wrap(err)
	}
	return &Document{
		root:      root,
		nodes:     make(map[*html.Node]dom.Node),
		listeners: make(map[*html.Node][]*registration),
	}, nil
}

// Root returns the underlying document node.
func (d *Document) Root() *html.Node {
	return d.root
}

// ElementByID finds the element with the given id attribute.
func (d *Document) ElementByID(id string) (dom.Element, bool) {
	n := htmlquery.FindOne(d.root, "//*[@id="+xpathLiteral(id)+"]")
	if n == nil {
		return nil, false
	}
	return dom.AsElement(d.wrap(n))
}

// Query returns every element matching the XPath expression.
func (d *Document) Query(expr string) ([]dom.Element, error) {
	found, err := htmlquery.QueryAll(d.root, expr)
	if err != nil {
		return nil, fmt.Errorf("invalid query %q: %w", expr, err)
	}
	var out []dom.Element
	for _, n := range found {
		if el, ok := dom.AsElement(d.wrap(n)); ok {
			out = append(out, el)
		}
	}
	return out, nil
}

// CreateFromMarkup parses markup into exactly one detached node.
func (d *Document) CreateFromMarkup(markup string) (dom.Node, error) {
	nodes, err := html.ParseFragment(strings.NewReader(markup), contextFor(markup))
	if err != nil {
		return nil, errors.New(errors.CodeMarkup).Wrap(err)
	}
	if len(nodes) != 1 {
		return nil, errors.New(errors.CodeMarkup).
			With("nodes", len(nodes)).
			WithDetail(fmt.Sprintf("Markup %q did not parse into exactly one node.", truncate(markup, 60)))
	}
	return d.wrap(nodes[0]), nil
}

// SetInnerMarkup replaces the children of el with the parsed markup.
func (d *Document) SetInnerMarkup(el dom.Element, markup string) error {
	n, err := d.unwrap(el)
	if err != nil {
		return err
	}
	nodes, err := html.ParseFragment(strings.NewReader(markup), n)
	if err != nil {
		return errors.New(errors.CodeMarkup).Wrap(err)
	}

	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		n.RemoveChild(c)
		d.forget(c)
		c = next
	}
	for _, c := range nodes {
		n.AppendChild(c)
	}
	return nil
}

// String renders the whole document.
func (d *Document) String() string {
	var sb strings.Builder
	html.Render(&sb, d.root)
	return sb.String()
}

// wrap returns the canonical handle for n.
func (d *Document) wrap(n *html.Node) dom.Node {
	if n == nil {
		return nil
	}
	if w, ok := d.nodes[n]; ok {
		return w
	}
	base := Node{n: n, doc: d}
	var w dom.Node
	if n.Type == html.ElementNode {
		w = &Element{Node: base}
	} else {
		w = &base
	}
	d.nodes[n] = w
	return w
}

// forget drops the cached handles of n and its descendants. A handle still
// held by a caller is adopted again by unwrap when it is used.
func (d *Document) forget(n *html.Node) {
	delete(d.nodes, n)
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		d.forget(c)
	}
}

// HandleCount returns the number of cached node handles.
func (d *Document) HandleCount() int {
	return len(d.nodes)
}

// unwrap returns the html node behind a handle created by this document.
func (d *Document) unwrap(x dom.Node) (*html.Node, error) {
	var n *Node
	switch v := x.(type) {
	case *Node:
		n = v
	case *Element:
		n = &v.Node
	default:
		return nil, fmt.Errorf("htmldom: foreign node %T", x)
	}
	if n == nil || n.n == nil {
		return nil, fmt.Errorf("htmldom: nil node")
	}
	if n.doc != d {
		return nil, fmt.Errorf("htmldom: node belongs to another document")
	}
	if _, ok := d.nodes[n.n]; !ok {
		d.nodes[n.n] = x
	}
	return n.n, nil
}

// contextFor picks the fragment parsing context. Table parts are only kept
// by the parser inside their table context.
func contextFor(markup string) *html.Node {
	tag := leadingTag(markup)
	ctx := atom.Div
	switch tag {
	case "tr":
		ctx = atom.Tbody
	case "td", "th":
		ctx = atom.Tr
	case "tbody", "thead", "tfoot", "caption", "colgroup":
		ctx = atom.Table
	case "col":
		ctx = atom.Colgroup
	}
	return &html.Node{Type: html.ElementNode, Data: ctx.String(), DataAtom: ctx}
}

func leadingTag(markup string) string {
	if !strings.HasPrefix(markup, "<") {
		return ""
	}
	end := strings.IndexAny(markup[1:], " >/\t\n")
	if end < 0 {
		return ""
	}
	return strings.ToLower(markup[1 : 1+end])
}

// xpathLiteral quotes s as an XPath string literal.
func xpathLiteral(s string) string {
	if !strings.Contains(s, "'") {
		return "'" + s + "'"
	}
	if !strings.Contains(s, `"`) {
		return `"` + s + `"`
	}
	parts := strings.Split(s, "'")
	return "concat('" + strings.Join(parts, `', "'", '`) + "')"
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
