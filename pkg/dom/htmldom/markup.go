package htmldom

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"

	"github.com/vango-dev/reconcile/internal/errors"
	"github.com/vango-dev/reconcile/pkg/dom"
	"github.com/vango-dev/reconcile/pkg/vdom"
)

// Markup serializes node and its subtree.
func Markup(node dom.Node) string {
	n := htmlNode(node)
	if n == nil {
		return ""
	}
	var sb strings.Builder
	html.Render(&sb, n)
	return sb.String()
}

// InnerMarkup serializes the children of node.
func InnerMarkup(node dom.Node) string {
	n := htmlNode(node)
	if n == nil {
		return ""
	}
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		html.Render(&sb, c)
	}
	return sb.String()
}

func htmlNode(node dom.Node) *html.Node {
	switch v := node.(type) {
	case *Node:
		if v != nil {
			return v.n
		}
	case *Element:
		if v != nil {
			return v.n
		}
	}
	return nil
}

// ParseSnapshot parses markup holding exactly one node into a snapshot.
func ParseSnapshot(markup string) (*vdom.Snapshot, error) {
	n, err := New().CreateFromMarkup(markup)
	if err != nil {
		return nil, err
	}
	s := dom.SnapshotOf(n)
	if s == nil {
		return nil, errors.New(errors.CodeMarkup).
			WithDetail(fmt.Sprintf("Markup %q is neither an element nor text.", truncate(markup, 60)))
	}
	return s, nil
}
