// Package errors provides structured, actionable errors for the reconciler.
//
// Every failure the engine can surface has a registered code that maps to a
// category, a short message and a longer explanation:
//   - reconcile: desync between snapshot and live document, dispatch misuse
//   - mount: mount and unmount failures
//   - protocol: wire decoding errors
//   - config: configuration loading and validation
//   - archive: dispatch record storage
//
// Errors carry diagnostic attributes (path, op, patch index) so a failed
// dispatch can be reported with enough detail to locate the desync.
//
// # Usage
//
//	err := errors.New(errors.CodeDesync).
//	    With("path", "[0 2]").
//	    With("op", "delete").
//	    WithDetail("parent has 1 children")
//
//	fmt.Println(err.Format())
//	// Output:
//	// ERROR R001: Live document out of sync with snapshot
//	//
//	//   path = [0 2]
//	//   op   = delete
//	//
//	//   parent has 1 children
//
// Errors created from the same code compare equal under errors.Is, so
// packages can export sentinels built with New and callers can match on them.
package errors
