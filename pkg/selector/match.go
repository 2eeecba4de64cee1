package selector

import (
	"math"
	"strconv"
	"strings"
)

// Element is the view of a node the matcher needs. Implementations must
// return a nil interface (not a typed nil) when there is no parent or
// sibling element.
type Element interface {
	// Tag returns the upper-cased tag name.
	Tag() string
	// ID returns the element's id, or "".
	ID() string
	// Attr returns the decoded value of the named (lower-case) attribute.
	Attr(name string) (string, bool)
	// HasClass reports whether the class attribute contains name.
	HasClass(name string) bool
	// ParentElement returns the parent element, or nil at the root.
	ParentElement() Element
	// PreviousElementSibling returns the previous sibling element, or nil.
	PreviousElementSibling() Element
	// NextElementSibling returns the next sibling element, or nil.
	NextElementSibling() Element
}

// TypePositioner is an optional Element extension answering the of-type
// pseudo-classes directly. Without it they walk siblings one at a time.
type TypePositioner interface {
	IsFirstOfType() bool
	IsLastOfType() bool
}

// Match compiles sel (using a small cache) and reports whether el matches it.
func Match(sel string, el Element) (bool, error) {
	l, err := cached(sel)
	if err != nil {
		return false, err
	}
	return l.Match(el), nil
}

// Match reports whether el matches any branch of the list.
func (l List) Match(el Element) bool {
	if el == nil {
		return false
	}
	for _, cx := range l {
		if cx.Match(el) {
			return true
		}
	}
	return false
}

// Match matches the rightmost compound against el, then each compound to
// its left against the nearest matching ancestor of the previous match.
func (cx Complex) Match(el Element) bool {
	if len(cx) == 0 || !cx[len(cx)-1].Match(el) {
		return false
	}
	cur := el
	for k := len(cx) - 2; k >= 0; k-- {
		cur = cur.ParentElement()
		for cur != nil && !cx[k].Match(cur) {
			cur = cur.ParentElement()
		}
		if cur == nil {
			return false
		}
	}
	return true
}

// Match reports whether el satisfies the tag and every filter.
func (c Compound) Match(el Element) bool {
	if c.Tag != "" && c.Tag != el.Tag() {
		return false
	}
	for _, f := range c.Filters {
		if !f.Match(el) {
			return false
		}
	}
	return true
}

// Match reports whether el satisfies the filter.
func (f Filter) Match(el Element) bool {
	switch f.Kind {
	case FilterID:
		return el.ID() == f.Name
	case FilterClass:
		return el.HasClass(f.Name)
	case FilterAttrExists:
		_, ok := el.Attr(f.Name)
		return ok
	case FilterAttrEquals:
		v, ok := el.Attr(f.Name)
		return ok && ValueEquals(v, f.Value, f.Quoted)
	case FilterPseudo:
		return matchPseudo(f.Name, el)
	}
	return false
}

func matchPseudo(name string, el Element) bool {
	switch name {
	case PseudoFirstChild:
		return el.PreviousElementSibling() == nil
	case PseudoLastChild:
		return el.NextElementSibling() == nil
	case PseudoFirstOfType:
		if tp, ok := el.(TypePositioner); ok {
			return tp.IsFirstOfType()
		}
		for s := el.PreviousElementSibling(); s != nil; s = s.PreviousElementSibling() {
			if s.Tag() == el.Tag() {
				return false
			}
		}
		return true
	case PseudoLastOfType:
		if tp, ok := el.(TypePositioner); ok {
			return tp.IsLastOfType()
		}
		for s := el.NextElementSibling(); s != nil; s = s.NextElementSibling() {
			if s.Tag() == el.Tag() {
				return false
			}
		}
		return true
	}
	return false
}

// ValueEquals compares a stored attribute value with a selector value.
// Quoted selector values compare as strings. Unquoted "true"/"false"
// compare as booleans; every other unquoted value compares as a number,
// and a value that is not a number never matches.
func ValueEquals(stored, want string, quoted bool) bool {
	if quoted {
		return stored == want
	}
	if b, ok := parseBool(want); ok {
		sb, sok := parseBool(strings.TrimSpace(stored))
		return sok && sb == b
	}
	return parseNumber(stored) == parseNumber(want)
}

func parseBool(s string) (value, ok bool) {
	if len(s) < 4 || len(s) > 5 {
		return false, false
	}
	switch {
	case strings.EqualFold(s, "true"):
		return true, true
	case strings.EqualFold(s, "false"):
		return false, true
	}
	return false, false
}

// parseNumber returns NaN for anything that is not a number, so two
// non-numbers never compare equal.
func parseNumber(s string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return math.NaN()
	}
	return f
}
