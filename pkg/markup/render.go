package markup

import (
	"io"
	"strings"
)

// Render writes n as markup. A fragment root renders its children only.
// Tags are written lower-case, attribute values in double quotes with any
// embedded double quote written as &quot;. Text is written as stored.
func Render(w io.Writer, n *Node) error {
	var b strings.Builder
	render(&b, n)
	_, err := io.WriteString(w, b.String())
	return err
}

// RenderString renders n to a string.
func RenderString(n *Node) string {
	var b strings.Builder
	render(&b, n)
	return b.String()
}

func render(b *strings.Builder, n *Node) {
	if n == nil {
		return
	}
	switch n.Kind {
	case KindText:
		b.WriteString(n.Content)
	case KindComment:
		b.WriteString("<!--")
		b.WriteString(n.Content)
		b.WriteString("-->")
	case KindElement:
		if n.IsFragment() {
			for _, c := range n.Children {
				render(b, c)
			}
			return
		}
		tag := strings.ToLower(n.Tag)
		WriteStartTag(b, tag, n.Attrs)
		if n.Void {
			return
		}
		for _, c := range n.Children {
			render(b, c)
		}
		b.WriteString("</")
		b.WriteString(tag)
		b.WriteByte('>')
	}
}

// WriteStartTag writes <tag name="value"...> for an already lower-cased tag.
func WriteStartTag(b *strings.Builder, tag string, attrs []Attr) {
	b.WriteByte('<')
	b.WriteString(tag)
	for _, a := range attrs {
		b.WriteByte(' ')
		b.WriteString(a.Name)
		b.WriteString(`="`)
		b.WriteString(QuoteAttr(a.Value))
		b.WriteByte('"')
	}
	b.WriteByte('>')
}

// QuoteAttr escapes a raw attribute value for a double-quoted context.
func QuoteAttr(raw string) string {
	if strings.IndexByte(raw, '"') < 0 {
		return raw
	}
	return strings.ReplaceAll(raw, `"`, "&quot;")
}
