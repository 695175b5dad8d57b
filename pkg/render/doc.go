// Package render serializes snapshots to HTML markup.
//
// Markup is the payload of Replace and Insert patches and the way a live
// document is first populated, so the output is exact rather than pretty:
// parsing it back yields a node structurally equal to the input snapshot.
//
//   - Text and attribute values are escaped
//   - Void elements (input, br, img, etc.) have no closing tag
//   - Attributes with an empty value render as bare names
//   - Text inside script and style is written verbatim
//
// # Basic Usage
//
//	html := render.Markup(snapshot)
//
// A Renderer with Pretty set produces indented output for display. Pretty
// output adds whitespace text nodes and must not be installed into a
// document.
//
// # Full Page Rendering
//
//	err := render.NewRenderer(render.RendererConfig{}).RenderPage(w, render.PageData{
//	    Body:      snapshot,
//	    Title:     "Counter",
//	    SessionID: id,
//	})
package render
