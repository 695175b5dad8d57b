package render

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/vango-dev/reconcile/pkg/vdom"
)

// RendererConfig configures the HTML renderer.
type RendererConfig struct {
	// Pretty enables pretty-printed HTML output with indentation.
	// Pretty output adds whitespace text nodes, so it must never be
	// installed into a live document.
	Pretty bool

	// Indent is the string used for each indentation level in pretty mode.
	// Defaults to two spaces if not specified.
	Indent string
}

// Renderer serializes snapshots to HTML markup.
type Renderer struct {
	config RendererConfig
}

// NewRenderer creates a new Renderer with the given configuration.
func NewRenderer(config RendererConfig) *Renderer {
	if config.Indent == "" {
		config.Indent = "  "
	}
	return &Renderer{config: config}
}

// Markup renders s with the default configuration. The result parses back
// into a node structurally equal to s.
func Markup(s *vdom.Snapshot) string {
	var buf bytes.Buffer
	// A bytes.Buffer never fails a write.
	_ = defaultRenderer.RenderToWriter(&buf, s)
	return buf.String()
}

// MarkupVNode normalizes and reduces tree, then renders it.
func MarkupVNode(tree *vdom.VNode) string {
	return Markup(vdom.Reduce(vdom.Normalize(tree)))
}

var defaultRenderer = NewRenderer(RendererConfig{})

// RenderToString renders a snapshot to an HTML string.
func (r *Renderer) RenderToString(s *vdom.Snapshot) (string, error) {
	var buf bytes.Buffer
	if err := r.RenderToWriter(&buf, s); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// RenderToWriter streams a snapshot to the given writer.
func (r *Renderer) RenderToWriter(w io.Writer, s *vdom.Snapshot) error {
	return r.renderNode(w, s, "", 0)
}

// renderNode dispatches rendering based on node kind.
func (r *Renderer) renderNode(w io.Writer, s *vdom.Snapshot, parentTag string, depth int) error {
	if s == nil {
		return nil
	}

	switch s.Kind {
	case vdom.KindElement:
		return r.renderElement(w, s, depth)
	case vdom.KindText:
		return r.renderText(w, s, parentTag)
	default:
		return fmt.Errorf("unknown node kind: %d", s.Kind)
	}
}

// renderElement renders an HTML element with its attributes and children.
func (r *Renderer) renderElement(w io.Writer, s *vdom.Snapshot, depth int) error {
	tag := s.Tag

	if r.config.Pretty && depth > 0 {
		r.writeIndent(w, depth)
	}

	if _, err := io.WriteString(w, "<"+tag); err != nil {
		return err
	}
	if err := r.renderAttributes(w, s.Attrs); err != nil {
		return err
	}
	if _, err := io.WriteString(w, ">"); err != nil {
		return err
	}

	if isVoidElement(tag) {
		if r.config.Pretty {
			io.WriteString(w, "\n")
		}
		return nil
	}

	// The parser drops one leading newline inside these elements.
	if len(s.Children) > 0 && s.Children[0].Kind == vdom.KindText &&
		strings.HasPrefix(s.Children[0].Text, "\n") &&
		(tag == "pre" || tag == "textarea" || tag == "listing") {
		if _, err := io.WriteString(w, "\n"); err != nil {
			return err
		}
	}

	hasBlockChildren := len(s.Children) > 0 && !isInlineElement(tag)
	if r.config.Pretty && hasBlockChildren {
		io.WriteString(w, "\n")
	}

	for _, child := range s.Children {
		if r.config.Pretty && hasBlockChildren && child.Kind == vdom.KindText {
			r.writeIndent(w, depth+1)
		}
		if err := r.renderNode(w, child, tag, depth+1); err != nil {
			return err
		}
		if r.config.Pretty && hasBlockChildren && child.Kind == vdom.KindText {
			io.WriteString(w, "\n")
		}
	}

	if r.config.Pretty && hasBlockChildren {
		r.writeIndent(w, depth)
	}

	if _, err := fmt.Fprintf(w, "</%s>", tag); err != nil {
		return err
	}
	if r.config.Pretty {
		io.WriteString(w, "\n")
	}
	return nil
}

// renderText renders a text node. Text inside raw-text elements is written
// verbatim.
func (r *Renderer) renderText(w io.Writer, s *vdom.Snapshot, parentTag string) error {
	text := s.Text
	if !isRawTextElement(parentTag) {
		text = escapeHTML(text)
	}
	_, err := io.WriteString(w, text)
	return err
}

// renderAttributes renders attributes in declaration order. Empty values
// render as bare names, which is how boolean attributes appear.
func (r *Renderer) renderAttributes(w io.Writer, attrs vdom.Attrs) error {
	for _, a := range attrs {
		if a.IsEmpty() {
			continue
		}
		if a.Value == "" {
			if _, err := io.WriteString(w, " "+a.Name); err != nil {
				return err
			}
			continue
		}
		if _, err := fmt.Fprintf(w, ` %s="%s"`, a.Name, escapeAttr(a.Value)); err != nil {
			return err
		}
	}
	return nil
}

// writeIndent writes indentation for pretty printing.
func (r *Renderer) writeIndent(w io.Writer, depth int) {
	io.WriteString(w, strings.Repeat(r.config.Indent, depth))
}
