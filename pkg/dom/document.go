package dom

import (
	"errors"
	"maps"
	"slices"
	"sync"

	"github.com/vango-dev/livetree/pkg/vdom"
)

// Render-target errors.
var (
	ErrNotChild    = errors.New("dom: node is not a child of this node")
	ErrForeignNode = errors.New("dom: node belongs to another document")
	ErrTextNode    = errors.New("dom: operation not supported on a text node")
	ErrNotText     = errors.New("dom: node is not a text node")
	ErrHasParent   = errors.New("dom: node already has a parent")
	ErrHierarchy   = errors.New("dom: node would become its own descendant")
	ErrEmptyName   = errors.New("dom: empty tag, attribute or event name")
	ErrUnknownNode = errors.New("dom: unknown node id")
)

// Document is an in-memory render target. Every node it creates carries an
// ID unique within the document, and every successful primitive is appended
// to a mutation log that Flush drains.
//
// A Document and its nodes are safe for concurrent use.
type Document struct {
	mu     sync.Mutex
	nextID uint64
	nodes  map[uint64]*Node // nodes reachable from a container or not yet attached
	log    []Mutation
}

// New creates an empty Document.
func New() *Document {
	return &Document{nodes: make(map[uint64]*Node)}
}

var _ vdom.Document = (*Document)(nil)

// CreateElement implements vdom.Document.
func (d *Document) CreateElement(tag string) (vdom.LiveNode, error) {
	if tag == "" {
		return nil, ErrEmptyName
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	n := d.newNode(tag, "")
	d.record(Mutation{Op: OpCreateElement, Target: n.id, Key: tag})
	return n, nil
}

// CreateTextNode implements vdom.Document.
func (d *Document) CreateTextNode(text string) (vdom.LiveNode, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	n := d.newNode("", text)
	d.record(Mutation{Op: OpCreateText, Target: n.id, Value: text})
	return n, nil
}

// Container creates a detached element that hosts a render root. Unlike
// CreateElement it is not logged: remote viewers learn about containers
// from the page shell, not from the mutation stream.
func (d *Document) Container(tag string) *Node {
	if tag == "" {
		tag = "div"
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.newNode(tag, "")
}

// Node returns the node with the given id, if it is still part of the
// document.
func (d *Document) Node(id uint64) (*Node, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	n, ok := d.nodes[id]
	return n, ok
}

// Len returns the number of nodes currently indexed.
func (d *Document) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.nodes)
}

// Flush returns the mutations logged since the last Flush and empties the log.
func (d *Document) Flush() []Mutation {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := d.log
	d.log = nil
	return out
}

// Pending returns the number of mutations waiting to be flushed.
func (d *Document) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.log)
}

// Replay returns the mutations that rebuild the children of n on an empty
// copy of n. Attributes and listeners are emitted in sorted order. The log
// is not touched.
func (d *Document) Replay(n *Node) []Mutation {
	d.mu.Lock()
	defer d.mu.Unlock()
	return replayChildren(nil, n)
}

// Sync drains the log and returns the replay of n taken at the same
// instant. A viewer that applies replay and then every later Flush sees
// each mutation exactly once.
func (d *Document) Sync(n *Node) (flushed, replay []Mutation) {
	d.mu.Lock()
	defer d.mu.Unlock()
	flushed = d.log
	d.log = nil
	return flushed, replayChildren(nil, n)
}

func replayChildren(out []Mutation, n *Node) []Mutation {
	for _, c := range n.children {
		out = replay(out, c)
		out = append(out, Mutation{Op: OpAppendChild, Target: n.id, Child: c.id})
	}
	return out
}

func replay(out []Mutation, n *Node) []Mutation {
	if n.IsText() {
		return append(out, Mutation{Op: OpCreateText, Target: n.id, Value: n.text})
	}
	out = append(out, Mutation{Op: OpCreateElement, Target: n.id, Key: n.tag})
	for _, name := range slices.Sorted(maps.Keys(n.attrs)) {
		out = append(out, Mutation{Op: OpSetAttr, Target: n.id, Key: name, Value: n.attrs[name]})
	}
	for _, event := range slices.Sorted(maps.Keys(n.listeners)) {
		if len(n.listeners[event]) > 0 {
			out = append(out, Mutation{Op: OpAddListener, Target: n.id, Key: event})
		}
	}
	return replayChildren(out, n)
}

// newNode allocates and indexes a detached node. Callers hold d.mu.
func (d *Document) newNode(tag, text string) *Node {
	d.nextID++
	n := &Node{doc: d, id: d.nextID, tag: tag, text: text}
	d.nodes[n.id] = n
	return n
}

// record appends m to the log. Callers hold d.mu.
func (d *Document) record(m Mutation) {
	d.log = append(d.log, m)
}

// index makes n and its descendants reachable by id. Callers hold d.mu.
func (d *Document) index(n *Node) {
	d.nodes[n.id] = n
	for _, c := range n.children {
		d.index(c)
	}
}

// unindex forgets n and its descendants. Callers hold d.mu.
func (d *Document) unindex(n *Node) {
	delete(d.nodes, n.id)
	for _, c := range n.children {
		d.unindex(c)
	}
}
