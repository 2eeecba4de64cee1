package markup

import (
	"strings"

	"golang.org/x/net/html"
)

// Kind is the parse node type discriminator.
type Kind uint8

const (
	KindElement Kind = iota // <div>, <li>, etc.
	KindText                // Literal text
	KindComment             // <!-- ... -->
)

// String returns the string representation of the Kind.
func (k Kind) String() string {
	switch k {
	case KindElement:
		return "Element"
	case KindText:
		return "Text"
	case KindComment:
		return "Comment"
	default:
		return "Unknown"
	}
}

// Attr is a single attribute as written in the source.
type Attr struct {
	Name  string // Lower-cased
	Value string // Raw value, entities not decoded
}

// Node is a transient parse node. The root returned by Parse is a
// synthetic fragment element with an empty Tag whose children are the
// top-level forest.
type Node struct {
	Kind     Kind
	Tag      string  // Upper-cased tag name (KindElement)
	Attrs    []Attr  // Source order, first occurrence wins
	Void     bool    // Never has children or a closing tag
	Children []*Node // KindElement only
	Content  string  // KindText and KindComment
}

// Element creates an element parse node.
func Element(tag string, attrs []Attr, children ...*Node) *Node {
	tag = strings.ToUpper(tag)
	return &Node{
		Kind:     KindElement,
		Tag:      tag,
		Attrs:    attrs,
		Void:     IsVoid(tag),
		Children: children,
	}
}

// Text creates a text parse node.
func Text(content string) *Node {
	return &Node{Kind: KindText, Content: content}
}

// Comment creates a comment parse node.
func Comment(content string) *Node {
	return &Node{Kind: KindComment, Content: content}
}

// IsFragment reports whether n is the synthetic root returned by Parse.
func (n *Node) IsFragment() bool {
	return n != nil && n.Kind == KindElement && n.Tag == ""
}

// Attr returns the raw value of the named attribute.
func (n *Node) Attr(name string) (string, bool) {
	if n == nil {
		return "", false
	}
	name = strings.ToLower(name)
	for _, a := range n.Attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// RawText returns the concatenated content of n's text children. For the
// raw-text elements this is the literal content between the tags.
func (n *Node) RawText() string {
	var b strings.Builder
	for _, c := range n.Children {
		if c.Kind == KindText {
			b.WriteString(c.Content)
		}
	}
	return b.String()
}

// Decode returns a raw attribute value or text with character references
// resolved, i.e. the value a live document would hold.
func Decode(raw string) string {
	if strings.IndexByte(raw, '&') < 0 {
		return raw
	}
	return html.UnescapeString(raw)
}
