package shadow

import (
	"github.com/emirpasic/gods/maps/linkedhashmap"

	"github.com/vango-dev/shadowdom/pkg/markup"
)

// attrMap is an insertion-ordered attribute map holding raw values.
// Overwriting a key keeps its position.
type attrMap struct {
	m *linkedhashmap.Map
}

func newAttrMap(attrs []markup.Attr) attrMap {
	a := attrMap{m: linkedhashmap.New()}
	for _, at := range attrs {
		if _, ok := a.m.Get(at.Name); !ok {
			a.m.Put(at.Name, at.Value)
		}
	}
	return a
}

func (a attrMap) get(name string) (string, bool) {
	if a.m == nil {
		return "", false
	}
	v, ok := a.m.Get(name)
	if !ok {
		return "", false
	}
	return v.(string), true
}

func (a attrMap) put(name, value string) {
	a.m.Put(name, value)
}

func (a attrMap) remove(name string) {
	a.m.Remove(name)
}

func (a attrMap) len() int {
	if a.m == nil {
		return 0
	}
	return a.m.Size()
}

func (a attrMap) list() []markup.Attr {
	if a.m == nil || a.m.Empty() {
		return nil
	}
	out := make([]markup.Attr, 0, a.m.Size())
	it := a.m.Iterator()
	for it.Next() {
		out = append(out, markup.Attr{Name: it.Key().(string), Value: it.Value().(string)})
	}
	return out
}

func (a attrMap) names() []string {
	if a.m == nil {
		return nil
	}
	out := make([]string, 0, a.m.Size())
	for _, k := range a.m.Keys() {
		out = append(out, k.(string))
	}
	return out
}
