// Package session mounts a component into a live document and routes host
// events through it.
//
// A Session owns three things: the root component, the snapshot of what the
// live document currently shows, and the live mount element. Every update
// starts from a host event:
//
//	sess, err := session.Mount(doc, "root", counter,
//	    session.WithLogger(logger),
//	    session.WithMiddleware(middleware.Logging(logger)),
//	)
//	if err != nil {
//	    return err
//	}
//	defer sess.Unmount()
//
// The session subscribes to the mount element, so events fired on any
// descendant bubble to it and start a dispatch cycle: resolve the target
// path, render, find the handler, run it, render again, diff against the
// stored snapshot, store the new snapshot and patch the live document.
// Dispatch can also be called directly.
//
// Mount subscribes the default event kinds and every kind the first render
// has a handler for. A kind that first appears in a later render is
// subscribed during that dispatch and reported in Result.Subscribed.
//
// Only one dispatch runs at a time. A handler that triggers another
// dispatch on the same session gets ErrReentrantDispatch.
//
// # Messages
//
// Handlers may mutate captured component state and return nil, or return a
// Msg that the session hands to the component's Update method:
//
//	func (c *Counter) Update(msg vdom.Msg) {
//	    switch msg.(type) {
//	    case Increment:
//	        c.n++
//	    }
//	}
//
// # Desync
//
// If a patch cannot be applied, the dispatch returns a dom.ErrDesync error
// and the live subtree is rebuilt from the stored snapshot so later events
// keep working. If the rebuild fails too, the session keeps the snapshot it
// had before the dispatch. Verify compares the live subtree with the snapshot at any
// time between dispatches.
package session
