package shadow

import (
	"context"
	"strings"

	"github.com/vango-dev/shadowdom/pkg/markup"
)

// ClassSet is a view of an element's class attribute. It holds no state
// of its own; every read reflects the node's current attribute. Add,
// Remove and Toggle read and write the attribute under the owning
// Document's lock, so concurrent edits never drop each other's changes.
type ClassSet struct {
	node *Node
}

// ClassList returns the class set view of n.
func (n *Node) ClassList() ClassSet {
	return ClassSet{node: n}
}

// Values returns the distinct class names in attribute order.
func (c ClassSet) Values() []string {
	v, ok := c.node.Attr("class")
	if !ok {
		return nil
	}
	return classNames(v)
}

func classNames(v string) []string {
	fields := strings.Fields(v)
	out := fields[:0]
	seen := make(map[string]bool, len(fields))
	for _, f := range fields {
		if !seen[f] {
			seen[f] = true
			out = append(out, f)
		}
	}
	return out
}

// Len returns the number of distinct class names.
func (c ClassSet) Len() int {
	return len(c.Values())
}

// Contains reports whether name is in the set.
func (c ClassSet) Contains(name string) bool {
	v, ok := c.node.Attr("class")
	if !ok || name == "" {
		return false
	}
	for _, f := range strings.Fields(v) {
		if f == name {
			return true
		}
	}
	return false
}

// Add adds names that are not already present.
func (c ClassSet) Add(ctx context.Context, names ...string) error {
	return c.update(ctx, "shadow.ClassList.Add", func(values []string) ([]string, bool) {
		changed := false
		for _, name := range names {
			if name != "" && !contains(values, name) {
				values = append(values, name)
				changed = true
			}
		}
		return values, changed
	})
}

// Remove removes names that are present.
func (c ClassSet) Remove(ctx context.Context, names ...string) error {
	return c.update(ctx, "shadow.ClassList.Remove", func(values []string) ([]string, bool) {
		var kept []string
		for _, v := range values {
			if !contains(names, v) {
				kept = append(kept, v)
			}
		}
		return kept, len(kept) != len(values)
	})
}

// Toggle removes name if present and adds it otherwise. It reports
// whether name is present afterwards.
func (c ClassSet) Toggle(ctx context.Context, name string) (bool, error) {
	var present bool
	err := c.update(ctx, "shadow.ClassList.Toggle", func(values []string) ([]string, bool) {
		if name == "" {
			return values, false
		}
		if contains(values, name) {
			var kept []string
			for _, v := range values {
				if v != name {
					kept = append(kept, v)
				}
			}
			return kept, true
		}
		present = true
		return append(values, name), true
	})
	return present, err
}

// update derives the new class list from the current one under the
// document lock. fn reports false to leave the attribute untouched.
func (c ClassSet) update(ctx context.Context, op string, fn func(values []string) ([]string, bool)) error {
	return c.node.doc.updateAttrs(ctx, op, c.node, func(cur []markup.Attr) []markup.Attr {
		at := -1
		var values []string
		for i, a := range cur {
			if a.Name == "class" {
				at = i
				values = classNames(markup.Decode(a.Value))
				break
			}
		}
		next, changed := fn(values)
		if !changed {
			return cur
		}
		raw := escapeAttr(strings.Join(next, " "))
		if at >= 0 {
			cur[at].Value = raw
			return cur
		}
		return append(cur, markup.Attr{Name: "class", Value: raw})
	})
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
