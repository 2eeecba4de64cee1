package markup

import (
	"regexp"
	"strings"

	"github.com/vango-dev/shadowdom/internal/errors"
)

// Sentinel errors for errors.Is.
var (
	// ErrNoProgress is returned when a scan iteration consumes no input.
	ErrNoProgress = errors.New("E100")

	// ErrUnclosedRawText is returned for a SCRIPT or STYLE element missing
	// its closing tag. It has its own code; use IsParseError to match any
	// markup error.
	ErrUnclosedRawText = errors.New("E101")
)

// IsParseError reports whether err is any markup syntax error.
func IsParseError(err error) bool {
	return errors.CategoryOf(err) == errors.CategoryParse
}

var (
	startTagRe = regexp.MustCompile(`^<([-A-Za-z0-9_:]+)((?:\s+[^\s"'>/=]+(?:\s*=\s*(?:"[^"]*"|'[^']*'|[^>\s]+))?)*)\s*(/?)>`)
	endTagRe   = regexp.MustCompile(`^</([-A-Za-z0-9_:]*)[^>]*>`)
	attrRe     = regexp.MustCompile(`([^\s"'>/=]+)(?:\s*(=)\s*(?:"([^"]*)"|'([^']*)'|([^>\s]+)))?`)
	rawMarkRe  = regexp.MustCompile(`(?s)<!--(.*?)-->|<!\[CDATA\[(.*?)\]\]>`)
)

// parser holds the scan state for a single Parse call.
type parser struct {
	src string
	pos int

	// stack is the stack of open elements; stack[0] is the fragment root.
	stack []*Node
}

// Parse parses src into a synthetic fragment root whose children are the
// top-level nodes of src.
func Parse(src string) (*Node, error) {
	p := &parser{
		src:   src,
		stack: []*Node{{Kind: KindElement}},
	}
	if err := p.run(); err != nil {
		return nil, err
	}
	return p.stack[0], nil
}

// ParseFragment parses src and returns its top-level nodes.
func ParseFragment(src string) ([]*Node, error) {
	root, err := Parse(src)
	if err != nil {
		return nil, err
	}
	return root.Children, nil
}

func (p *parser) run() error {
	for p.pos < len(p.src) {
		start := p.pos
		top := p.top()

		if top.Tag != "" && IsRawText(top.Tag) {
			if !p.rawText(top) {
				return errors.New("E101").
					WithSource(p.src, start).
					WithDetailf("no </%s> after offset %d", strings.ToLower(top.Tag), start)
			}
			continue
		}

		consumed := false
		rest := p.src[p.pos:]
		switch {
		case strings.HasPrefix(rest, "<!--"):
			if end := strings.Index(rest[4:], "-->"); end >= 0 {
				p.appendChild(Comment(rest[4 : 4+end]))
				p.pos += 4 + end + 3
				consumed = true
			}
		case strings.HasPrefix(rest, "<!"), strings.HasPrefix(rest, "<?"):
			// Doctype, CDATA outside raw text and processing instructions
			// carry no tree content.
			if end := strings.IndexByte(rest, '>'); end >= 0 {
				p.pos += end + 1
				consumed = true
			}
		case strings.HasPrefix(rest, "</"):
			if m := endTagRe.FindStringSubmatch(rest); m != nil {
				p.closeTag(strings.ToUpper(m[1]))
				p.pos += len(m[0])
				consumed = true
			}
		case strings.HasPrefix(rest, "<"):
			if m := startTagRe.FindStringSubmatch(rest); m != nil {
				p.openTag(strings.ToUpper(m[1]), parseAttrs(m[2]), m[3] == "/")
				p.pos += len(m[0])
				consumed = true
			}
		}

		if !consumed {
			text := rest
			if i := strings.IndexByte(rest, '<'); i >= 0 {
				text = rest[:i]
			}
			if text != "" {
				p.appendText(text)
				p.pos += len(text)
			}
		}

		if p.pos == start {
			return errors.New("E100").
				WithSource(p.src, start).
				WithDetailf("unparseable input %q", excerpt(rest))
		}
	}

	// End of input closes everything left open.
	p.stack = p.stack[:1]
	return nil
}

func (p *parser) top() *Node {
	return p.stack[len(p.stack)-1]
}

func (p *parser) appendChild(n *Node) {
	top := p.top()
	top.Children = append(top.Children, n)
}

func (p *parser) appendText(text string) {
	top := p.top()
	if k := len(top.Children); k > 0 && top.Children[k-1].Kind == KindText {
		top.Children[k-1].Content += text
		return
	}
	p.appendChild(Text(text))
}

func (p *parser) openTag(tag string, attrs []Attr, selfClosing bool) {
	if IsBlock(tag) {
		for len(p.stack) > 1 && IsInline(p.top().Tag) {
			p.pop()
		}
	}
	if IsCloseSelf(tag) && p.top().Tag == tag {
		p.pop()
	}

	el := &Node{
		Kind:  KindElement,
		Tag:   tag,
		Attrs: attrs,
		Void:  IsVoid(tag),
	}
	p.appendChild(el)
	if !el.Void && !selfClosing {
		p.stack = append(p.stack, el)
	}
}

// closeTag closes the nearest open element named tag and everything opened
// after it. An empty or unmatched name closes the whole open stack.
func (p *parser) closeTag(tag string) {
	depth := 1
	if tag != "" {
		for i := len(p.stack) - 1; i >= 1; i-- {
			if p.stack[i].Tag == tag {
				depth = i
				break
			}
		}
	}
	p.stack = p.stack[:depth]
}

func (p *parser) pop() {
	if len(p.stack) > 1 {
		p.stack = p.stack[:len(p.stack)-1]
	}
}

// rawText consumes the content of a SCRIPT/STYLE element up to and
// including its closing tag. It reports false if no closing tag exists.
func (p *parser) rawText(el *Node) bool {
	rest := p.src[p.pos:]
	idx := indexEndTag(rest, el.Tag)
	if idx < 0 {
		return false
	}
	gt := strings.IndexByte(rest[idx:], '>')
	if gt < 0 {
		return false
	}

	text := rawMarkRe.ReplaceAllString(rest[:idx], "$1$2")
	if text != "" {
		el.Children = append(el.Children, Text(text))
	}
	p.pos += idx + gt + 1
	p.pop()
	return true
}

// indexEndTag returns the offset of the first "</tag" in s, comparing the
// tag name case-insensitively on the original bytes, or -1. tag is ASCII,
// so only an ASCII run of the same length can fold equal to it.
func indexEndTag(s, tag string) int {
	for off := 0; ; {
		i := strings.Index(s[off:], "</")
		if i < 0 {
			return -1
		}
		name := off + i + 2
		if name+len(tag) <= len(s) && strings.EqualFold(s[name:name+len(tag)], tag) {
			return off + i
		}
		off = name
	}
}

// parseAttrs extracts attributes from the text between the tag name and '>'.
func parseAttrs(s string) []Attr {
	matches := attrRe.FindAllStringSubmatch(s, -1)
	if len(matches) == 0 {
		return nil
	}
	attrs := make([]Attr, 0, len(matches))
	seen := make(map[string]bool, len(matches))
	for _, m := range matches {
		name := strings.ToLower(m[1])
		if seen[name] {
			continue
		}
		seen[name] = true

		var value string
		switch {
		case m[2] == "=":
			value = m[3] + m[4] + m[5]
		case IsFillAttr(name):
			value = name
		}
		attrs = append(attrs, Attr{Name: name, Value: value})
	}
	return attrs
}

func excerpt(s string) string {
	const max = 16
	if len(s) > max {
		return s[:max] + "..."
	}
	return s
}
