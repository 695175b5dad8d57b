package render

import (
	"fmt"
	"io"

	"github.com/vango-dev/reconcile/pkg/vdom"
)

// PageData contains all data needed to render a complete HTML page.
type PageData struct {
	// Body is the snapshot installed as the mount element's only child.
	Body *vdom.Snapshot

	// RootID is the id of the mount element. Defaults to "root".
	RootID string

	// Title is the page title
	Title string

	// Meta contains meta tags for the page
	Meta []MetaTag

	// StyleSheets contains paths to external stylesheets
	StyleSheets []string

	// Styles contains inline CSS styles
	Styles []string

	// SessionID identifies the server-side session for the socket handshake.
	SessionID string

	// SocketPath is the websocket endpoint the client connects to.
	// Defaults to "/ws".
	SocketPath string

	// ClientScript is the path to the client JavaScript.
	// Defaults to "/_reconcile/client.js".
	ClientScript string

	// Lang is the language attribute for the html element
	// Defaults to "en" if not specified
	Lang string
}

// MetaTag represents a meta element in the document head.
type MetaTag struct {
	Name    string // name attribute
	Content string // content attribute
}

// RenderPage renders a complete HTML document to the given writer.
// The mount element contains exactly the body markup with no surrounding
// whitespace, so the body root is the mount element's first child.
func (r *Renderer) RenderPage(w io.Writer, page PageData) error {
	lang := page.Lang
	if lang == "" {
		lang = "en"
	}
	rootID := page.RootID
	if rootID == "" {
		rootID = "root"
	}

	if _, err := io.WriteString(w, "<!DOCTYPE html>\n"); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, `<html lang="%s">`+"\n", escapeAttr(lang)); err != nil {
		return err
	}

	if err := r.renderHead(w, page); err != nil {
		return err
	}

	if _, err := io.WriteString(w, "<body>\n"); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, `<div id="%s">`, escapeAttr(rootID)); err != nil {
		return err
	}
	if err := defaultRenderer.RenderToWriter(w, page.Body); err != nil {
		return err
	}
	if _, err := io.WriteString(w, "</div>\n"); err != nil {
		return err
	}

	if err := r.renderClientScript(w, page, rootID); err != nil {
		return err
	}

	_, err := io.WriteString(w, "</body>\n</html>\n")
	return err
}

// renderHead renders the document head section.
func (r *Renderer) renderHead(w io.Writer, page PageData) error {
	if _, err := io.WriteString(w, "<head>\n"); err != nil {
		return err
	}
	if _, err := io.WriteString(w, `  <meta charset="utf-8">`+"\n"); err != nil {
		return err
	}
	if _, err := io.WriteString(w, `  <meta name="viewport" content="width=device-width, initial-scale=1">`+"\n"); err != nil {
		return err
	}

	if page.Title != "" {
		if _, err := fmt.Fprintf(w, "  <title>%s</title>\n", escapeHTML(page.Title)); err != nil {
			return err
		}
	}

	for _, meta := range page.Meta {
		if _, err := fmt.Fprintf(w, `  <meta name="%s" content="%s">`+"\n",
			escapeAttr(meta.Name), escapeAttr(meta.Content)); err != nil {
			return err
		}
	}

	for _, href := range page.StyleSheets {
		if _, err := fmt.Fprintf(w, `  <link rel="stylesheet" href="%s">`+"\n", escapeAttr(href)); err != nil {
			return err
		}
	}

	for _, style := range page.Styles {
		if _, err := fmt.Fprintf(w, "  <style>%s</style>\n", style); err != nil {
			return err
		}
	}

	_, err := io.WriteString(w, "</head>\n")
	return err
}

// renderClientScript injects the client script and its configuration.
func (r *Renderer) renderClientScript(w io.Writer, page PageData, rootID string) error {
	socketPath := page.SocketPath
	if socketPath == "" {
		socketPath = "/ws"
	}
	clientPath := page.ClientScript
	if clientPath == "" {
		clientPath = "/_reconcile/client.js"
	}

	_, err := fmt.Fprintf(w,
		`<script src="%s" data-root="%s" data-socket="%s" data-session="%s" defer></script>`+"\n",
		escapeAttr(clientPath), escapeAttr(rootID), escapeAttr(socketPath), escapeAttr(page.SessionID))
	return err
}
