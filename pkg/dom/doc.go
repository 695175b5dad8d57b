// Package dom defines the host document capabilities the reconciler needs
// and implements the two operations that act on a live document: resolving
// paths and applying patches.
//
// Paths are relative to the tree root, which is the mount element's first
// child. Child indices count text and element nodes alike.
//
// A host returns canonical handles: asking for the same live node twice
// yields values that compare equal. SameNode relies on this.
package dom
