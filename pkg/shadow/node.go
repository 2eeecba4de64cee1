package shadow

import (
	"context"
	"strings"

	"github.com/vango-dev/shadowdom/pkg/live"
	"github.com/vango-dev/shadowdom/pkg/markup"
)

// Kind is the node type discriminator.
type Kind = markup.Kind

const (
	KindElement = markup.KindElement
	KindText    = markup.KindText
	KindComment = markup.KindComment
)

// Node is a shadow node mirroring one live node.
//
// Read methods do not lock. Callers that share a Document across
// goroutines read inside Document.View. Mutating methods go through
// the owning Document and are serialized by it.
type Node struct {
	doc *Document
	ref Ref

	kind    Kind
	tag     string // upper-case; "" for the document root
	void    bool
	attrs   attrMap
	id      string // decoded id attribute
	content string // raw text or comment content

	parent   *Node
	children []*Node
	handle   live.Handle
}

// Kind returns the node type.
func (n *Node) Kind() Kind { return n.kind }

// Tag returns the upper-cased tag name, or "" for text, comments and the
// document root.
func (n *Node) Tag() string { return n.tag }

// IsVoid reports whether n is a void element.
func (n *Node) IsVoid() bool { return n.void }

// IsElement reports whether n is an element other than the document root.
func (n *Node) IsElement() bool { return n.kind == KindElement && n.tag != "" }

// IsRoot reports whether n is the document root.
func (n *Node) IsRoot() bool { return n.kind == KindElement && n.tag == "" }

// ID returns the decoded id attribute, or "".
func (n *Node) ID() string { return n.id }

// Ref returns n's arena reference.
func (n *Node) Ref() Ref { return n.ref }

// Handle returns the live node n mirrors. It is nil once n is destroyed.
func (n *Node) Handle() live.Handle { return n.handle }

// Document returns the owning document.
func (n *Node) Document() *Document { return n.doc }

// Content returns the raw content of a text or comment node.
func (n *Node) Content() string { return n.content }

// Attr returns the decoded value of the named attribute.
func (n *Node) Attr(name string) (string, bool) {
	v, ok := n.attrs.get(strings.ToLower(name))
	if !ok {
		return "", false
	}
	return markup.Decode(v), true
}

// RawAttr returns the named attribute as written in the source.
func (n *Node) RawAttr(name string) (string, bool) {
	return n.attrs.get(strings.ToLower(name))
}

// HasAttr reports whether the named attribute is present.
func (n *Node) HasAttr(name string) bool {
	_, ok := n.attrs.get(strings.ToLower(name))
	return ok
}

// Attrs returns the raw attributes in serialization order.
func (n *Node) Attrs() []markup.Attr {
	return n.attrs.list()
}

// HasClass reports whether the class attribute contains name.
func (n *Node) HasClass(name string) bool {
	return n.ClassList().Contains(name)
}

// Parent returns the parent node, or nil for the root and detached nodes.
func (n *Node) Parent() *Node { return n.parent }

// Children returns a copy of n's children.
func (n *Node) Children() []*Node {
	out := make([]*Node, len(n.children))
	copy(out, n.children)
	return out
}

// ChildCount returns the number of children.
func (n *Node) ChildCount() int { return len(n.children) }

// Child returns the i-th child, or nil when out of range.
func (n *Node) Child(i int) *Node {
	if i < 0 || i >= len(n.children) {
		return nil
	}
	return n.children[i]
}

// Index returns n's position among its parent's children, or -1.
func (n *Node) Index() int {
	if n.parent == nil {
		return -1
	}
	for i, c := range n.parent.children {
		if c == n {
			return i
		}
	}
	return -1
}

// TextContent returns the decoded concatenation of all descendant text.
func (n *Node) TextContent() string {
	if n.kind == KindText {
		return markup.Decode(n.content)
	}
	var b strings.Builder
	n.Walk(func(c *Node) bool {
		if c.kind == KindText {
			if c.parent != nil && markup.IsRawText(c.parent.tag) {
				b.WriteString(c.content)
			} else {
				b.WriteString(markup.Decode(c.content))
			}
		}
		return true
	})
	return b.String()
}

// Walk calls fn for each descendant of n in document order. Returning
// false from fn skips that node's subtree.
func (n *Node) Walk(fn func(*Node) bool) {
	for _, c := range n.children {
		if fn(c) {
			c.Walk(fn)
		}
	}
}

// SetInnerHTML replaces n's children with the parsed markup.
func (n *Node) SetInnerHTML(src string) error {
	return n.doc.SetInnerHTML(context.Background(), n, src)
}

// SetOuterHTML replaces n in its parent with the parsed markup.
func (n *Node) SetOuterHTML(src string) error {
	return n.doc.SetOuterHTML(context.Background(), n, src)
}

// SetAttrs makes n's attributes equal to attrs (raw values).
func (n *Node) SetAttrs(attrs []markup.Attr) error {
	return n.doc.SetAttrs(context.Background(), n, attrs)
}

// SetAttr sets a single attribute to a plain (unescaped) value.
func (n *Node) SetAttr(name, value string) error {
	return n.doc.SetAttr(context.Background(), n, name, value)
}

// RemoveAttr removes a single attribute.
func (n *Node) RemoveAttr(name string) error {
	return n.doc.RemoveAttr(context.Background(), n, name)
}

// Remove detaches n from its parent and destroys its subtree.
func (n *Node) Remove() error {
	return n.doc.Remove(context.Background(), n)
}
