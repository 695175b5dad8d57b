package htmldom

import (
	"golang.org/x/net/html"

	"github.com/vango-dev/reconcile/pkg/dom"
	"github.com/vango-dev/reconcile/pkg/vdom"
)

type registration struct {
	kind     vdom.EventKind
	listener dom.Listener
}

type subscription struct {
	doc *Document
	n   *html.Node
	reg *registration
}

// Cancel removes the listener. Cancelling twice is a no-op.
func (s *subscription) Cancel() {
	s.doc.mu.Lock()
	defer s.doc.mu.Unlock()

	regs := s.doc.listeners[s.n]
	for i, r := range regs {
		if r == s.reg {
			s.doc.listeners[s.n] = append(regs[:i:i], regs[i+1:]...)
			break
		}
	}
	if len(s.doc.listeners[s.n]) == 0 {
		delete(s.doc.listeners, s.n)
	}
}

func (d *Document) subscribe(n *html.Node, kind vdom.EventKind, listener dom.Listener) dom.Subscription {
	reg := &registration{kind: kind, listener: listener}

	d.mu.Lock()
	d.listeners[n] = append(d.listeners[n], reg)
	d.mu.Unlock()

	return &subscription{doc: d, n: n, reg: reg}
}

// ListenerCount returns the number of registered listeners.
func (d *Document) ListenerCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()

	count := 0
	for _, regs := range d.listeners {
		count += len(regs)
	}
	return count
}

// Fire delivers ev to listeners on the target and then on each ancestor,
// like a bubbling browser event. It returns the number of listeners called.
// The ancestor chain is fixed before the first listener runs.
func (d *Document) Fire(ev dom.Event) int {
	target, err := d.unwrap(ev.Target)
	if err != nil {
		return 0
	}

	var chain []*html.Node
	for n := target; n != nil; n = n.Parent {
		chain = append(chain, n)
	}

	called := 0
	for _, n := range chain {
		for _, l := range d.listenersFor(n, ev.Kind) {
			l(ev)
			called++
		}
	}
	return called
}

func (d *Document) listenersFor(n *html.Node, kind vdom.EventKind) []dom.Listener {
	d.mu.Lock()
	defer d.mu.Unlock()

	var out []dom.Listener
	for _, r := range d.listeners[n] {
		if r.kind == kind {
			out = append(out, r.listener)
		}
	}
	return out
}

// Click fires a click event at target.
func (d *Document) Click(target dom.Node) int {
	return d.Fire(dom.Event{Kind: vdom.EventClick, Target: target})
}

// Input fires an input event carrying value at target.
func (d *Document) Input(target dom.Node, value string) int {
	return d.Fire(dom.Event{Kind: vdom.EventInput, Target: target, Payload: dom.Payload{Value: value}})
}

// KeyDown fires a keydown event at target.
func (d *Document) KeyDown(target dom.Node, key string) int {
	return d.Fire(dom.Event{Kind: vdom.EventKeyDown, Target: target, Payload: dom.Payload{Key: key}})
}
