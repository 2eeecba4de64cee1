package memdom

import (
	"strings"

	"github.com/vango-dev/shadowdom/pkg/markup"
)

var textEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

var attrEscaper = strings.NewReplacer("&", "&amp;", `"`, "&quot;")

// OuterHTML serializes n and its subtree. The document node serializes
// as its children.
func (d *Document) OuterHTML(n *Node) string {
	d.mu.Lock()
	defer d.mu.Unlock()
	var b strings.Builder
	writeNode(&b, n, false)
	return b.String()
}

// InnerHTML serializes the children of n.
func (d *Document) InnerHTML(n *Node) string {
	d.mu.Lock()
	defer d.mu.Unlock()
	var b strings.Builder
	for _, c := range n.Children {
		writeNode(&b, c, isRaw(n))
	}
	return b.String()
}

// HTML serializes the whole document.
func (d *Document) HTML() string {
	return d.InnerHTML(d.root)
}

func isRaw(n *Node) bool {
	return n.Type == ElementNode && (n.Tag == "script" || n.Tag == "style")
}

func writeNode(b *strings.Builder, n *Node, raw bool) {
	switch n.Type {
	case DocumentNode:
		for _, c := range n.Children {
			writeNode(b, c, false)
		}
	case TextNode:
		if raw {
			b.WriteString(n.Data)
		} else {
			b.WriteString(textEscaper.Replace(n.Data))
		}
	case CommentNode:
		b.WriteString("<!--")
		b.WriteString(n.Data)
		b.WriteString("-->")
	case ElementNode:
		b.WriteByte('<')
		b.WriteString(n.Tag)
		for _, a := range n.Attrs {
			b.WriteByte(' ')
			b.WriteString(a.Name)
			b.WriteString(`="`)
			b.WriteString(attrEscaper.Replace(a.Value))
			b.WriteByte('"')
		}
		b.WriteByte('>')
		if len(n.Children) == 0 && markup.IsVoid(strings.ToUpper(n.Tag)) {
			return
		}
		for _, c := range n.Children {
			writeNode(b, c, isRaw(n))
		}
		b.WriteString("</")
		b.WriteString(n.Tag)
		b.WriteByte('>')
	}
}
