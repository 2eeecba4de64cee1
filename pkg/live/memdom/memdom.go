// Package memdom is an in-memory live document implementing live.Host.
//
// It keeps a real node tree, records every Host call in an operation log
// and fans each record out to observers. It backs the CLI and the
// inspector, and lets tests assert exactly which live mutations a
// reconciliation issued.
package memdom

import (
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/vango-dev/shadowdom/pkg/live"
)

// NodeType is the live node type discriminator.
type NodeType uint8

const (
	DocumentNode NodeType = iota
	ElementNode
	TextNode
	CommentNode
)

// Attr is a live attribute holding a decoded value.
type Attr struct {
	Name  string
	Value string
}

// Node is a live node. Handles passed to and returned from the Host
// methods are *Node.
type Node struct {
	ID       string
	Type     NodeType
	Tag      string // lower-case
	Attrs    []Attr
	Data     string // text or comment content
	Parent   *Node
	Children []*Node
}

// Attr returns the value of the named attribute.
func (n *Node) Attr(name string) (string, bool) {
	for _, a := range n.Attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

func (n *Node) indexOf(child *Node) int {
	for i, c := range n.Children {
		if c == child {
			return i
		}
	}
	return -1
}

// Document is an in-memory live document. It is safe for concurrent use.
type Document struct {
	mu        sync.Mutex
	root      *Node
	ops       []Record
	observers map[int]func(Record)
	nextObs   int
	failures  map[live.Op]error
}

// New creates an empty document.
func New() *Document {
	return &Document{
		root:      &Node{ID: uuid.NewString(), Type: DocumentNode},
		observers: make(map[int]func(Record)),
		failures:  make(map[live.Op]error),
	}
}

// Root returns the handle of the document node.
func (d *Document) Root() *Node {
	return d.root
}

// FailOn makes every subsequent call of op return err. A nil err clears it.
func (d *Document) FailOn(op live.Op, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err == nil {
		delete(d.failures, op)
		return
	}
	d.failures[op] = err
}

// Observe registers fn to receive every recorded operation and returns a
// function that unregisters it. fn is called with the document unlocked.
func (d *Document) Observe(fn func(Record)) (cancel func()) {
	d.mu.Lock()
	id := d.nextObs
	d.nextObs++
	d.observers[id] = fn
	d.mu.Unlock()

	return func() {
		d.mu.Lock()
		delete(d.observers, id)
		d.mu.Unlock()
	}
}

// Ops returns a copy of the operation log.
func (d *Document) Ops() []Record {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]Record, len(d.ops))
	copy(out, d.ops)
	return out
}

// Count returns how many logged operations have the given op.
func (d *Document) Count(op live.Op) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := 0
	for _, r := range d.ops {
		if r.Op == op {
			n++
		}
	}
	return n
}

// Reset clears the operation log.
func (d *Document) Reset() {
	d.mu.Lock()
	d.ops = nil
	d.mu.Unlock()
}

// record appends r to the log and returns the observers to notify.
// Callers hold d.mu.
func (d *Document) record(r Record) []func(Record) {
	r.Seq = len(d.ops) + 1
	d.ops = append(d.ops, r)
	if len(d.observers) == 0 {
		return nil
	}
	fns := make([]func(Record), 0, len(d.observers))
	for _, fn := range d.observers {
		fns = append(fns, fn)
	}
	return fns
}

func notify(fns []func(Record), r Record) {
	for _, fn := range fns {
		fn(r)
	}
}

func asNode(h live.Handle) (*Node, error) {
	n, ok := h.(*Node)
	if !ok || n == nil {
		return nil, fmt.Errorf("memdom: foreign handle %T", h)
	}
	return n, nil
}

func (d *Document) create(op live.Op, n *Node) (live.Handle, error) {
	d.mu.Lock()
	if err := d.failures[op]; err != nil {
		d.mu.Unlock()
		return nil, err
	}
	r := Record{Op: op, Target: n.ID, Tag: n.Tag, Value: n.Data}
	fns := d.record(r)
	r.Seq = len(d.ops)
	d.mu.Unlock()

	notify(fns, r)
	return n, nil
}

// CreateElement implements live.Host.
func (d *Document) CreateElement(tag string) (live.Handle, error) {
	return d.create(live.OpCreateElement, &Node{
		ID:   uuid.NewString(),
		Type: ElementNode,
		Tag:  strings.ToLower(tag),
	})
}

// CreateText implements live.Host.
func (d *Document) CreateText(content string) (live.Handle, error) {
	return d.create(live.OpCreateText, &Node{ID: uuid.NewString(), Type: TextNode, Data: content})
}

// CreateComment implements live.Host.
func (d *Document) CreateComment(content string) (live.Handle, error) {
	return d.create(live.OpCreateComment, &Node{ID: uuid.NewString(), Type: CommentNode, Data: content})
}

// mutate runs fn under the lock, records r on success and notifies observers.
func (d *Document) mutate(r Record, fn func() error) error {
	d.mu.Lock()
	if err := d.failures[r.Op]; err != nil {
		d.mu.Unlock()
		return err
	}
	if err := fn(); err != nil {
		d.mu.Unlock()
		return err
	}
	fns := d.record(r)
	r.Seq = len(d.ops)
	d.mu.Unlock()

	notify(fns, r)
	return nil
}

// SetAttribute implements live.Host.
func (d *Document) SetAttribute(h live.Handle, name, value string) error {
	n, err := asNode(h)
	if err != nil {
		return err
	}
	return d.mutate(Record{Op: live.OpSetAttribute, Target: n.ID, Name: name, Value: value}, func() error {
		if n.Type != ElementNode {
			return fmt.Errorf("memdom: set attribute on non-element %s", n.ID)
		}
		for i := range n.Attrs {
			if n.Attrs[i].Name == name {
				n.Attrs[i].Value = value
				return nil
			}
		}
		n.Attrs = append(n.Attrs, Attr{Name: name, Value: value})
		return nil
	})
}

// RemoveAttribute implements live.Host.
func (d *Document) RemoveAttribute(h live.Handle, name string) error {
	n, err := asNode(h)
	if err != nil {
		return err
	}
	return d.mutate(Record{Op: live.OpRemoveAttribute, Target: n.ID, Name: name}, func() error {
		for i := range n.Attrs {
			if n.Attrs[i].Name == name {
				n.Attrs = append(n.Attrs[:i], n.Attrs[i+1:]...)
				return nil
			}
		}
		return nil
	})
}

// AppendChild implements live.Host.
func (d *Document) AppendChild(parent, child live.Handle) error {
	p, err := asNode(parent)
	if err != nil {
		return err
	}
	c, err := asNode(child)
	if err != nil {
		return err
	}
	return d.mutate(Record{Op: live.OpAppendChild, Parent: p.ID, Target: c.ID}, func() error {
		if c.Parent != nil {
			detach(c)
		}
		c.Parent = p
		p.Children = append(p.Children, c)
		return nil
	})
}

// ReplaceChild implements live.Host.
func (d *Document) ReplaceChild(parent, newChild, oldChild live.Handle) error {
	p, err := asNode(parent)
	if err != nil {
		return err
	}
	nc, err := asNode(newChild)
	if err != nil {
		return err
	}
	oc, err := asNode(oldChild)
	if err != nil {
		return err
	}
	return d.mutate(Record{Op: live.OpReplaceChild, Parent: p.ID, Target: nc.ID, Old: oc.ID}, func() error {
		i := p.indexOf(oc)
		if i < 0 {
			return fmt.Errorf("memdom: %s is not a child of %s", oc.ID, p.ID)
		}
		if nc.Parent != nil {
			detach(nc)
			i = p.indexOf(oc)
		}
		p.Children[i] = nc
		nc.Parent = p
		oc.Parent = nil
		return nil
	})
}

// RemoveChild implements live.Host.
func (d *Document) RemoveChild(parent, child live.Handle) error {
	p, err := asNode(parent)
	if err != nil {
		return err
	}
	c, err := asNode(child)
	if err != nil {
		return err
	}
	return d.mutate(Record{Op: live.OpRemoveChild, Parent: p.ID, Target: c.ID}, func() error {
		if c.Parent != p {
			return fmt.Errorf("memdom: %s is not a child of %s", c.ID, p.ID)
		}
		detach(c)
		return nil
	})
}

func detach(n *Node) {
	p := n.Parent
	if i := p.indexOf(n); i >= 0 {
		p.Children = append(p.Children[:i], p.Children[i+1:]...)
	}
	n.Parent = nil
}

var _ live.Host = (*Document)(nil)
