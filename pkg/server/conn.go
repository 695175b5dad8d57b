package server

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/vango-dev/reconcile/internal/errors"
	"github.com/vango-dev/reconcile/pkg/archive"
	"github.com/vango-dev/reconcile/pkg/dom"
	"github.com/vango-dev/reconcile/pkg/dom/htmldom"
	"github.com/vango-dev/reconcile/pkg/middleware"
	"github.com/vango-dev/reconcile/pkg/protocol"
	"github.com/vango-dev/reconcile/pkg/render"
	"github.com/vango-dev/reconcile/pkg/session"
	"github.com/vango-dev/reconcile/pkg/vdom"
)

// Conn is one websocket connection and the session mounted for it.
type Conn struct {
	server  *Server
	ws      *websocket.Conn
	doc     *htmldom.Document
	session *session.Session

	ctx    context.Context
	cancel context.CancelFunc

	writeMu      sync.Mutex
	teardownOnce sync.Once

	// Set by observe during doc.Fire.
	observed bool
	result   session.Result
	err      error

	logger *slog.Logger
}

// open mounts a fresh component into a new mirror document and greets the
// client.
func open(s *Server, ws *websocket.Conn) (*Conn, error) {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Conn{
		server: s,
		ws:     ws,
		doc:    htmldom.New(),
		ctx:    ctx,
		cancel: cancel,
	}

	opts := []session.Option{
		session.WithLogger(s.logger),
		session.WithContext(ctx),
		session.WithObserver(c.observe),
		session.WithMiddleware(s.middleware...),
	}
	if len(s.kinds) > 0 {
		opts = append(opts, session.WithEventKinds(s.kinds...))
	}

	sess, err := session.Mount(c.doc, "root", s.factory(), opts...)
	if err != nil {
		cancel()
		return nil, err
	}
	c.session = sess
	c.logger = s.logger.With("session_id", sess.ID())
	middleware.RecordSessionMount()

	hello := protocol.HelloFrame(sess.ID(), htmldom.InnerMarkup(sess.Root()), sess.Kinds()...)
	if err := c.send(hello); err != nil {
		c.teardown()
		return nil, err
	}
	return c, nil
}

// ID returns the session id.
func (c *Conn) ID() string {
	return c.session.ID()
}

// Session returns the mounted session.
func (c *Conn) Session() *session.Session {
	return c.session
}

// Document returns the mirror document.
func (c *Conn) Document() *htmldom.Document {
	return c.doc
}

// Close ends the connection by cancelling its context and closing the
// socket. The read loop then returns and the handler unmounts the session.
// It is safe to call from any goroutine.
func (c *Conn) Close() {
	c.cancel()
	c.ws.Close()
}

// teardown unmounts the session and closes the socket. It runs once, on the
// goroutine that ran the read loop, so the mirror document is never touched
// concurrently.
func (c *Conn) teardown() {
	c.teardownOnce.Do(func() {
		c.cancel()
		if err := c.session.Unmount(); err != nil {
			c.logger.Warn("unmount failed", "error", err)
		}
		c.ws.Close()
		middleware.RecordSessionUnmount()
	})
}

// readLoop reads frames until the socket fails or closes.
func (c *Conn) readLoop() {
	for {
		c.ws.SetReadDeadline(time.Now().Add(c.server.config.ReadTimeout))

		_, msg, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure,
				websocket.CloseNormalClosure) {
				middleware.RecordWebSocketError("read")
				c.logger.Error("read error", "error", err)
			}
			return
		}

		frame, err := protocol.DecodeFrame(msg)
		if err != nil {
			middleware.RecordWebSocketError("decode")
			c.logger.Warn("frame decode error", "error", err)
			c.trySend(protocol.ErrorFrame(c.session.Seq(), err, false))
			continue
		}

		switch frame.Type {
		case protocol.FrameEvent:
			c.handleEvent(*frame.Event)
		default:
			c.logger.Warn("unexpected frame type", "type", frame.Type)
			c.trySend(protocol.ErrorFrame(c.session.Seq(),
				errors.New(errors.CodeUnknownFrame).With("type", frame.Type), false))
		}
	}
}

// handleEvent fires ev at its target in the mirror and reports the
// dispatch outcome to the client.
func (c *Conn) handleEvent(ev protocol.Event) {
	path := vdom.Path(ev.Path)
	target, ok := dom.NodeAt(c.session.Root(), path)
	if !ok {
		c.trySend(protocol.ErrorFrame(c.session.Seq(),
			errors.New(errors.CodeInvalidPath).With("path", path).WithDetail("no node at path"), false))
		return
	}

	c.observed = false
	c.doc.Fire(dom.Event{Kind: ev.Kind, Target: target, Payload: ev.Payload})
	if !c.observed {
		c.logger.Debug("event kind not subscribed", "kind", ev.Kind)
		return
	}

	res, err := c.result, c.err
	if err != nil {
		frame := protocol.ErrorFrame(res.Seq, err, res.Resynced)
		frame.Kinds = res.Subscribed
		if res.Resynced {
			frame.Markup = htmldom.InnerMarkup(c.session.Root())
		}
		c.trySend(frame)
		return
	}

	frame, err := protocol.PatchesFrame(res.Seq, res.Patches)
	if err != nil {
		c.logger.Error("patch encode failed", "seq", res.Seq, "error", err)
		c.trySend(protocol.ErrorFrame(res.Seq, err, false))
		return
	}
	frame.Kinds = res.Subscribed
	if c.server.archive != nil && !res.Patches.Empty() {
		c.archive(res)
	}
	c.trySend(frame)
}

// observe records the outcome of a dispatch started by doc.Fire.
func (c *Conn) observe(res session.Result, err error) {
	c.observed = true
	c.result = res
	c.err = err
}

func (c *Conn) archive(res session.Result) {
	patches, err := protocol.EncodePatchesJSON(res.Patches)
	if err != nil {
		c.logger.Error("archive encode failed", "seq", res.Seq, "error", err)
		return
	}
	snap, err := c.session.Snapshot()
	if err != nil {
		c.logger.Error("archive snapshot failed", "seq", res.Seq, "error", err)
		return
	}

	err = c.server.archive.Put(c.ctx, archive.Record{
		SessionID: c.ID(),
		Seq:       res.Seq,
		Kind:      string(res.Kind),
		Path:      []int(res.Path),
		Patches:   patches,
		Markup:    render.Markup(snap),
		Time:      time.Now().UTC(),
	})
	if err != nil {
		c.logger.Error("archive write failed", "seq", res.Seq, "error", err)
	}
}

// send writes one frame.
func (c *Conn) send(f protocol.Frame) error {
	data, err := protocol.EncodeFrame(f)
	if err != nil {
		return err
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	c.ws.SetWriteDeadline(time.Now().Add(c.server.config.WriteTimeout))
	return c.ws.WriteMessage(websocket.TextMessage, data)
}

// trySend writes f and logs a failure.
func (c *Conn) trySend(f protocol.Frame) {
	if err := c.send(f); err != nil {
		middleware.RecordWebSocketError("write")
		c.logger.Warn("write failed", "type", f.Type, "error", err)
	}
}
