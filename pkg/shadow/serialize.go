package shadow

import (
	"strings"

	"github.com/vango-dev/shadowdom/pkg/markup"
)

// InnerHTML serializes n's children. Element children serialize as their
// outer markup and text as its raw content; comments are omitted.
func (n *Node) InnerHTML() string {
	var b strings.Builder
	n.writeInner(&b)
	return b.String()
}

// OuterHTML serializes n itself. Text and comment nodes return their raw
// content and the document root returns its inner markup.
func (n *Node) OuterHTML() string {
	switch n.kind {
	case KindText, KindComment:
		return n.content
	}
	if n.IsRoot() {
		return n.InnerHTML()
	}
	var b strings.Builder
	n.writeOuter(&b)
	return b.String()
}

func (n *Node) writeInner(b *strings.Builder) {
	for _, c := range n.children {
		switch c.kind {
		case KindText:
			b.WriteString(c.content)
		case KindElement:
			c.writeOuter(b)
		}
	}
}

func (n *Node) writeOuter(b *strings.Builder) {
	tag := strings.ToLower(n.tag)
	markup.WriteStartTag(b, tag, n.attrs.list())
	if n.void {
		return
	}
	n.writeInner(b)
	b.WriteString("</")
	b.WriteString(tag)
	b.WriteByte('>')
}

// rawText returns the concatenated text children, the literal content of
// a SCRIPT or STYLE element.
func (n *Node) rawText() string {
	var b strings.Builder
	for _, c := range n.children {
		if c.kind == KindText {
			b.WriteString(c.content)
		}
	}
	return b.String()
}
