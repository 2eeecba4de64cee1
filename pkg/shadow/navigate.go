package shadow

import (
	"github.com/vango-dev/shadowdom/pkg/selector"
)

// element adapts a Node to selector.Element. The document root is not
// an element, so top-level elements have no parent element.
type element struct {
	*Node
}

func asElement(n *Node) selector.Element {
	if n == nil || !n.IsElement() {
		return nil
	}
	return element{n}
}

func (e element) ParentElement() selector.Element {
	return asElement(e.parent)
}

func (e element) PreviousElementSibling() selector.Element {
	return asElement(e.prevElement())
}

func (e element) NextElementSibling() selector.Element {
	return asElement(e.nextElement())
}

// siblings returns n's parent's children and n's index among them.
func (n *Node) siblings() ([]*Node, int) {
	i := n.Index()
	if i < 0 {
		return nil, -1
	}
	return n.parent.children, i
}

func (n *Node) prevElement() *Node {
	sibs, i := n.siblings()
	for j := i - 1; j >= 0; j-- {
		if sibs[j].IsElement() {
			return sibs[j]
		}
	}
	return nil
}

func (n *Node) nextElement() *Node {
	sibs, i := n.siblings()
	if i < 0 {
		return nil
	}
	for _, s := range sibs[i+1:] {
		if s.IsElement() {
			return s
		}
	}
	return nil
}

// compile returns nil for an empty selector, meaning "any".
func compile(sel string) (selector.List, error) {
	if sel == "" {
		return nil, nil
	}
	return selector.Compile(sel)
}

func (n *Node) accepts(l selector.List) bool {
	if !n.IsElement() {
		return false
	}
	return l == nil || l.Match(element{n})
}

// NextSibling returns the next sibling of any kind, or nil.
func (n *Node) NextSibling() *Node {
	if sibs, i := n.siblings(); i >= 0 && i+1 < len(sibs) {
		return sibs[i+1]
	}
	return nil
}

// PreviousSibling returns the previous sibling of any kind, or nil.
func (n *Node) PreviousSibling() *Node {
	if sibs, i := n.siblings(); i > 0 {
		return sibs[i-1]
	}
	return nil
}

// NextSiblingMatching returns the next sibling matching sel. An empty sel
// returns the immediate next sibling, including text and comments; a
// non-empty sel only ever matches elements.
func (n *Node) NextSiblingMatching(sel string) (*Node, error) {
	if sel == "" {
		return n.NextSibling(), nil
	}
	return n.NextElementSibling(sel)
}

// PreviousSiblingMatching is the backwards counterpart of NextSiblingMatching.
func (n *Node) PreviousSiblingMatching(sel string) (*Node, error) {
	if sel == "" {
		return n.PreviousSibling(), nil
	}
	return n.PreviousElementSibling(sel)
}

// NextElementSibling returns the next element sibling matching sel ("" for any).
func (n *Node) NextElementSibling(sel string) (*Node, error) {
	l, err := compile(sel)
	if err != nil {
		return nil, err
	}
	sibs, i := n.siblings()
	if i < 0 {
		return nil, nil
	}
	for _, s := range sibs[i+1:] {
		if s.accepts(l) {
			return s, nil
		}
	}
	return nil, nil
}

// PreviousElementSibling returns the previous element sibling matching sel.
func (n *Node) PreviousElementSibling(sel string) (*Node, error) {
	l, err := compile(sel)
	if err != nil {
		return nil, err
	}
	sibs, i := n.siblings()
	for j := i - 1; j >= 0; j-- {
		if sibs[j].accepts(l) {
			return sibs[j], nil
		}
	}
	return nil, nil
}

// FirstElementChild returns the first element child matching sel.
func (n *Node) FirstElementChild(sel string) (*Node, error) {
	l, err := compile(sel)
	if err != nil {
		return nil, err
	}
	for _, c := range n.children {
		if c.accepts(l) {
			return c, nil
		}
	}
	return nil, nil
}

// LastElementChild returns the last element child matching sel.
func (n *Node) LastElementChild(sel string) (*Node, error) {
	l, err := compile(sel)
	if err != nil {
		return nil, err
	}
	for i := len(n.children) - 1; i >= 0; i-- {
		if c := n.children[i]; c.accepts(l) {
			return c, nil
		}
	}
	return nil, nil
}

// IsFirstOfType reports whether no earlier sibling has n's tag.
func (n *Node) IsFirstOfType() bool {
	if !n.IsElement() {
		return false
	}
	sibs, i := n.siblings()
	for j := i - 1; j >= 0; j-- {
		if sibs[j].kind == KindElement && sibs[j].tag == n.tag {
			return false
		}
	}
	return true
}

// IsLastOfType reports whether no later sibling has n's tag.
func (n *Node) IsLastOfType() bool {
	if !n.IsElement() {
		return false
	}
	sibs, i := n.siblings()
	if i < 0 {
		return true
	}
	for _, s := range sibs[i+1:] {
		if s.kind == KindElement && s.tag == n.tag {
			return false
		}
	}
	return true
}

// Contains reports whether other is n or one of n's descendants.
func (n *Node) Contains(other *Node) bool {
	for cur := other; cur != nil; cur = cur.parent {
		if cur == n {
			return true
		}
	}
	return false
}

// Matches reports whether n matches sel. A syntax error is returned as an
// error, never as a non-match.
func (n *Node) Matches(sel string) (bool, error) {
	l, err := selector.Compile(sel)
	if err != nil {
		return false, err
	}
	return n.accepts(l), nil
}

// QuerySelector returns the first descendant matching sel in document order.
func (n *Node) QuerySelector(sel string) (*Node, error) {
	l, err := selector.Compile(sel)
	if err != nil {
		return nil, err
	}
	var found *Node
	n.Walk(func(c *Node) bool {
		if found != nil {
			return false
		}
		if c.accepts(l) {
			found = c
			return false
		}
		return true
	})
	return found, nil
}

// QuerySelectorAll returns every descendant matching sel in document order.
func (n *Node) QuerySelectorAll(sel string) ([]*Node, error) {
	l, err := selector.Compile(sel)
	if err != nil {
		return nil, err
	}
	var out []*Node
	n.Walk(func(c *Node) bool {
		if c.accepts(l) {
			out = append(out, c)
		}
		return true
	})
	return out, nil
}

// Closest returns n or its nearest ancestor matching sel.
func (n *Node) Closest(sel string) (*Node, error) {
	l, err := selector.Compile(sel)
	if err != nil {
		return nil, err
	}
	for cur := n; cur != nil; cur = cur.parent {
		if cur.accepts(l) {
			return cur, nil
		}
	}
	return nil, nil
}
