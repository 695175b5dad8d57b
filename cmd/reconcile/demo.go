package main

import (
	"strconv"

	"github.com/vango-dev/reconcile/pkg/vdom"
)

type (
	addMsg  struct{ by int }
	nameMsg string
)

// demo is the component served by "reconcile serve".
type demo struct {
	count int
	name  string
}

func newDemo() vdom.Component {
	return &demo{}
}

func (d *demo) Render() *vdom.VNode {
	greeting := "Hello, stranger"
	if d.name != "" {
		greeting = "Hello, " + d.name
	}

	return vdom.Div(vdom.Class("demo"),
		vdom.H1(vdom.Text("Counter")),
		vdom.P(vdom.Class("count"), vdom.Text("Count: "+strconv.Itoa(d.count))),
		vdom.Button(vdom.OnClick(vdom.Send(addMsg{by: -1})), vdom.Text("-1")),
		vdom.Button(vdom.OnClick(vdom.Send(addMsg{by: 1})), vdom.Text("+1")),
		vdom.Input(vdom.Type("text"), vdom.Placeholder("Your name"),
			vdom.OnInput(func(ev vdom.Event) vdom.Msg { return nameMsg(ev.Detail.Value) })),
		vdom.P(vdom.Text(greeting)),
	)
}

func (d *demo) Update(msg vdom.Msg) {
	switch m := msg.(type) {
	case addMsg:
		d.count += m.by
	case nameMsg:
		d.name = string(m)
	}
}
