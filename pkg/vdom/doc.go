// Package vdom provides the virtual node tree and the positional diff engine.
//
// A component renders a VNode tree: elements carry a tag, ordered attributes,
// event handlers and children; text nodes carry a string. Children are
// identified only by their index among their siblings, text and element
// nodes alike.
//
// # Element API
//
// Elements are created using variadic factory functions:
//
//	Div(Class("card"), ID("main"),
//	    H1(Text("Title")),
//	    Button(OnClick(Do(inc)), Text("+")),
//	)
//
// # Snapshots
//
// Reduce drops handlers from a VNode tree, producing the Snapshot the diff
// engine compares. A session keeps exactly one Snapshot, the shape of what
// the live document currently shows.
//
// # Diffing
//
// Diff compares two snapshots and returns Patches addressed by Path. Applying
// the patches in order to a document that matches the first snapshot yields
// one that matches the second.
//
// # Normalization
//
// Normalize merges adjacent text children and drops empty ones. Rendered
// trees are normalized before they are reduced or addressed so that their
// child indices agree with a document parsed back from markup.
package vdom
