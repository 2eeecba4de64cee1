package selector

import (
	"strings"
	"sync"

	"github.com/vango-dev/shadowdom/internal/errors"
)

// Sentinel errors for errors.Is.
var (
	ErrUnterminated = errors.New("E110")
	ErrEmptyBranch  = errors.New("E111")
	ErrMalformed    = errors.New("E112")
	ErrPseudo       = errors.New("E113")
)

// IsSyntax reports whether err is any selector syntax error, as opposed to
// a plain non-match.
func IsSyntax(err error) bool {
	return errors.CategoryOf(err) == errors.CategorySelector
}

// FilterKind is the filter type discriminator.
type FilterKind uint8

const (
	FilterID         FilterKind = iota // #id
	FilterClass                        // .class
	FilterAttrExists                   // [attr]
	FilterAttrEquals                   // [attr=value]
	FilterPseudo                       // :first-child etc.
)

// Pseudo-class names.
const (
	PseudoFirstChild  = "first-child"
	PseudoLastChild   = "last-child"
	PseudoFirstOfType = "first-of-type"
	PseudoLastOfType  = "last-of-type"
)

// Filter is a single condition inside a compound selector.
type Filter struct {
	Kind   FilterKind
	Name   string // id, class, attribute name or pseudo-class
	Value  string // attribute value (FilterAttrEquals)
	Quoted bool   // value was quoted: compare as a string
}

// Compound is a tag plus filters, all of which must hold.
type Compound struct {
	Tag     string // upper-cased; "" matches any tag
	Filters []Filter
}

// Complex is a chain of compounds separated by descendant combinators,
// in source order.
type Complex []Compound

// List is a comma-separated selector list.
type List []Complex

// Compile parses a selector list.
func Compile(sel string) (List, error) {
	src := normalize(sel)
	branches, err := splitTopLevel(src, ',')
	if err != nil {
		return nil, err
	}

	list := make(List, 0, len(branches))
	offset := 0
	for _, branch := range branches {
		trimmed := strings.TrimSpace(branch)
		if trimmed == "" {
			return nil, errors.New("E111").WithSource(src, offset)
		}
		cx, err := compileComplex(src, offset+strings.Index(branch, trimmed), trimmed)
		if err != nil {
			return nil, err
		}
		list = append(list, cx)
		offset += len(branch) + 1
	}
	return list, nil
}

// MustCompile is like Compile but panics on error.
func MustCompile(sel string) List {
	l, err := Compile(sel)
	if err != nil {
		panic(err)
	}
	return l
}

func compileComplex(src string, base int, s string) (Complex, error) {
	parts, err := splitTopLevel(s, ' ')
	if err != nil {
		return nil, err
	}
	cx := make(Complex, 0, len(parts))
	offset := base
	for _, part := range parts {
		c, err := compileCompound(src, offset, part)
		if err != nil {
			return nil, err
		}
		cx = append(cx, c)
		offset += len(part) + 1
	}
	return cx, nil
}

func compileCompound(src string, base int, s string) (Compound, error) {
	var c Compound
	i := 0

	switch {
	case s == "":
		return c, errors.New("E112").WithSource(src, base)
	case s[0] == '*':
		i = 1
	case isIdentStart(s[0]):
		j := scanIdent(s, 0)
		c.Tag = strings.ToUpper(s[:j])
		i = j
	}

	for i < len(s) {
		start := i
		switch s[i] {
		case '#', '.', ':':
			j := scanIdent(s, i+1)
			if j == i+1 {
				return c, errors.New("E112").WithSource(src, base+i).
					WithDetailf("expected a name after %q", s[i])
			}
			name := s[i+1 : j]
			switch s[i] {
			case '#':
				c.Filters = append(c.Filters, Filter{Kind: FilterID, Name: name})
			case '.':
				c.Filters = append(c.Filters, Filter{Kind: FilterClass, Name: name})
			default:
				pseudo := strings.ToLower(name)
				switch pseudo {
				case PseudoFirstChild, PseudoLastChild, PseudoFirstOfType, PseudoLastOfType:
				default:
					return c, errors.New("E113").WithSource(src, base+i).WithDetail(name)
				}
				c.Filters = append(c.Filters, Filter{Kind: FilterPseudo, Name: pseudo})
			}
			i = j
		case '[':
			end := closingBracket(s, i)
			if end < 0 {
				return c, errors.New("E110").WithSource(src, base+i)
			}
			f, err := compileAttr(s[i+1 : end])
			if err != nil {
				return c, err.WithSource(src, base+i)
			}
			c.Filters = append(c.Filters, f)
			i = end + 1
		default:
			return c, errors.New("E112").WithSource(src, base+i).
				WithDetailf("unexpected %q", s[i])
		}
		if i == start {
			return c, errors.New("E112").WithSource(src, base+i)
		}
	}
	return c, nil
}

func compileAttr(body string) (Filter, *errors.Error) {
	eq := strings.IndexByte(body, '=')
	if eq < 0 {
		name := strings.TrimSpace(body)
		if name == "" || scanIdent(name, 0) != len(name) {
			return Filter{}, errors.New("E112").WithDetailf("bad attribute name %q", name)
		}
		return Filter{Kind: FilterAttrExists, Name: strings.ToLower(name)}, nil
	}

	name := strings.TrimSpace(body[:eq])
	if name == "" || scanIdent(name, 0) != len(name) {
		return Filter{}, errors.New("E112").WithDetailf("bad attribute name %q", name)
	}
	value := strings.TrimSpace(body[eq+1:])
	f := Filter{Kind: FilterAttrEquals, Name: strings.ToLower(name), Value: value}
	if n := len(value); n >= 2 && (value[0] == '"' || value[0] == '\'') {
		if value[n-1] != value[0] {
			return Filter{}, errors.New("E110").WithDetail("unterminated quoted value")
		}
		f.Value = value[1 : n-1]
		f.Quoted = true
	} else if n == 1 && (value[0] == '"' || value[0] == '\'') {
		return Filter{}, errors.New("E110").WithDetail("unterminated quoted value")
	}
	return f, nil
}

// normalize maps whitespace to single spaces and trims the ends.
func normalize(sel string) string {
	var b strings.Builder
	b.Grow(len(sel))
	space := false
	for i := 0; i < len(sel); i++ {
		ch := sel[i]
		switch ch {
		case ' ', '\t', '\n', '\r', '\f':
			space = true
			continue
		}
		if space && b.Len() > 0 {
			b.WriteByte(' ')
		}
		space = false
		b.WriteByte(ch)
	}
	return b.String()
}

// splitTopLevel splits s on sep outside brackets and quotes. Spaces
// adjacent to a comma are not separators.
func splitTopLevel(s string, sep byte) ([]string, error) {
	var parts []string
	depth := 0
	var quote byte
	start := 0
	for i := 0; i < len(s); i++ {
		ch := s[i]
		switch {
		case quote != 0:
			if ch == quote {
				quote = 0
			}
		case ch == '"' || ch == '\'':
			if depth > 0 {
				quote = ch
			}
		case ch == '[':
			depth++
		case ch == ']':
			if depth > 0 {
				depth--
			}
		case ch == sep && depth == 0:
			parts = append(parts, s[start:i])
			start = i + 1
		}
	}
	if depth > 0 || quote != 0 {
		return nil, errors.New("E110").WithSource(s, strings.LastIndexByte(s, '['))
	}
	parts = append(parts, s[start:])
	return parts, nil
}

// closingBracket returns the index of the ']' closing the '[' at open,
// skipping quoted values, or -1.
func closingBracket(s string, open int) int {
	var quote byte
	for i := open + 1; i < len(s); i++ {
		ch := s[i]
		switch {
		case quote != 0:
			if ch == quote {
				quote = 0
			}
		case ch == '"' || ch == '\'':
			quote = ch
		case ch == ']':
			return i
		}
	}
	return -1
}

func isIdentStart(ch byte) bool {
	return ch >= 'a' && ch <= 'z' || ch >= 'A' && ch <= 'Z' || ch == '_' || ch == '-'
}

func isIdentChar(ch byte) bool {
	return isIdentStart(ch) || ch >= '0' && ch <= '9'
}

func scanIdent(s string, i int) int {
	for i < len(s) && isIdentChar(s[i]) {
		i++
	}
	return i
}

// cache holds recently compiled selector lists.
var cache = struct {
	sync.Mutex
	lists map[string]List
}{lists: make(map[string]List)}

const maxCached = 256

// cached compiles sel, reusing a previous compilation when possible.
func cached(sel string) (List, error) {
	cache.Lock()
	l, ok := cache.lists[sel]
	cache.Unlock()
	if ok {
		return l, nil
	}

	l, err := Compile(sel)
	if err != nil {
		return nil, err
	}

	cache.Lock()
	if len(cache.lists) >= maxCached {
		cache.lists = make(map[string]List)
	}
	cache.lists[sel] = l
	cache.Unlock()
	return l, nil
}
