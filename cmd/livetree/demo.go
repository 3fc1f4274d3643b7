package main

import (
	"context"
	"strings"
	"sync"

	"github.com/vango-dev/livetree/pkg/vdom"
)

// binder creates handlers that request a pass after they run.
// *render.Root implements it.
type binder interface {
	Handle(fn func(vdom.Event)) *vdom.Handler
	HandleFunc(fn func()) *vdom.Handler
}

// counterDemo is a counter with increment, decrement and reset buttons.
type counterDemo struct {
	mu    sync.Mutex
	count int

	inc, dec, reset *vdom.Handler
}

func newCounterDemo(b binder) *counterDemo {
	d := &counterDemo{}
	update := func(fn func()) *vdom.Handler {
		return b.HandleFunc(func() {
			d.mu.Lock()
			fn()
			d.mu.Unlock()
		})
	}
	d.inc = update(func() { d.count++ })
	d.dec = update(func() { d.count-- })
	d.reset = update(func() { d.count = 0 })
	return d
}

func (d *counterDemo) render(context.Context) vdom.Node {
	d.mu.Lock()
	defer d.mu.Unlock()

	return vdom.Div(vdom.Class("counter"),
		vdom.H1("Counter"),
		vdom.P(vdom.ClassIf(d.count < 0, "negative"), vdom.Textf("%d", d.count)),
		vdom.Button(vdom.OnClick(d.dec), "-"),
		vdom.Button(vdom.OnClick(d.inc), "+"),
		vdom.If(d.count != 0, vdom.Button(vdom.OnClick(d.reset), "Reset")),
	)
}

type todoItem struct {
	id   int
	text string
	done bool
}

// todoDemo is a todo list. Row handlers are created once per item so an
// unchanged row keeps its listeners across passes.
type todoDemo struct {
	mu     sync.Mutex
	b      binder
	items  []todoItem
	draft  string
	nextID int

	input, add *vdom.Handler
	toggles    map[int]*vdom.Handler
	removes    map[int]*vdom.Handler
}

func newTodoDemo(b binder) *todoDemo {
	d := &todoDemo{
		b:       b,
		toggles: make(map[int]*vdom.Handler),
		removes: make(map[int]*vdom.Handler),
	}
	d.input = b.Handle(func(ev vdom.Event) {
		d.mu.Lock()
		d.draft = ev.Data["value"]
		d.mu.Unlock()
	})
	d.add = b.HandleFunc(func() {
		d.mu.Lock()
		text := strings.TrimSpace(d.draft)
		if text != "" {
			d.addLocked(text)
			d.draft = ""
		}
		d.mu.Unlock()
	})
	return d
}

func (d *todoDemo) addLocked(text string) {
	d.nextID++
	id := d.nextID
	d.items = append(d.items, todoItem{id: id, text: text})
	d.toggles[id] = d.b.HandleFunc(func() {
		d.mu.Lock()
		for i := range d.items {
			if d.items[i].id == id {
				d.items[i].done = !d.items[i].done
			}
		}
		d.mu.Unlock()
	})
	d.removes[id] = d.b.HandleFunc(func() {
		d.mu.Lock()
		for i := range d.items {
			if d.items[i].id == id {
				d.items = append(d.items[:i], d.items[i+1:]...)
				break
			}
		}
		delete(d.toggles, id)
		delete(d.removes, id)
		d.mu.Unlock()
	})
}

func (d *todoDemo) render(context.Context) vdom.Node {
	d.mu.Lock()
	defer d.mu.Unlock()

	left := 0
	for _, it := range d.items {
		if !it.done {
			left++
		}
	}

	return vdom.Div(vdom.Class("todo"),
		vdom.H1("Todo"),
		vdom.Form(vdom.OnSubmit(d.add),
			vdom.Input(vdom.Type("text"), vdom.Placeholder("What needs doing?"),
				vdom.Value(d.draft), vdom.OnInput(d.input)),
			vdom.Button(vdom.Type("submit"), "Add"),
		),
		vdom.Ul(vdom.Range(d.items, func(it todoItem, _ int) vdom.Node {
			return vdom.Li(vdom.ClassIf(it.done, "done"),
				vdom.Span(vdom.OnClick(d.toggles[it.id]), it.text),
				vdom.Button(vdom.AriaLabel("Remove"), vdom.OnClick(d.removes[it.id]), "×"),
			)
		})),
		vdom.P(vdom.Class("left"), vdom.Textf("%d left", left)),
	)
}
