// Package server serves a component over HTTP and a websocket.
//
// GET / returns a page with the component pre-rendered into the mount
// element. The page script opens the socket, and the server mounts a fresh
// component instance into a mirror document for that connection:
//
//	srv := server.New(server.DefaultConfig(), func() vdom.Component {
//	    return &Counter{}
//	})
//	http.ListenAndServe(":8080", srv.Handler())
//
// # Frames
//
// Every socket message is a JSON protocol.Frame. The server sends a hello
// frame with the session id, the mount markup and the event kinds the
// session handles; later frames list kinds that became handled since. The
// client sends event frames whose path addresses the target from the tree
// root. The server resolves the path in the mirror, fires the event there
// and answers with the patches frame the session applied to the mirror.
// Failed dispatches are answered with an error frame; the connection stays
// open.
//
// # Archive
//
// When an archive.Store is configured with WithArchive, each dispatch that
// changed the document is stored with its patches and resulting markup.
package server
