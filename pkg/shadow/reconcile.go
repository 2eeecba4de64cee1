package shadow

import (
	"strings"

	"github.com/vango-dev/shadowdom/internal/errors"
	"github.com/vango-dev/shadowdom/pkg/live"
	"github.com/vango-dev/shadowdom/pkg/markup"
)

// Stats counts the structural work done by one reconciliation.
type Stats struct {
	Created      int // shadow nodes materialized
	Replaced     int // child slots swapped with ReplaceChild
	Appended     int // child slots added with AppendChild
	Removed      int // child slots dropped with RemoveChild
	Destroyed    int // shadow nodes destroyed
	AttrsSet     int
	AttrsRemoved int
}

// Mutations returns the number of live mutations that changed a child
// list or an attribute.
func (s Stats) Mutations() int {
	return s.Replaced + s.Appended + s.Removed + s.AttrsSet + s.AttrsRemoved
}

// reconciler applies one positional diff. It runs with Document.mu held.
type reconciler struct {
	d     *Document
	host  live.Host
	stats Stats
}

func (d *Document) newReconciler() *reconciler {
	return &reconciler{d: d, host: d.host}
}

func hostErr(op live.Op, err error) error {
	return errors.New("E130").WithDetail(string(op)).Wrap(err)
}

// children makes parent's children match next, slot by slot.
func (r *reconciler) children(parent *Node, next []*markup.Node) error {
	common := len(parent.children)
	if len(next) < common {
		common = len(next)
	}

	for i := 0; i < common; i++ {
		if err := r.patch(parent, i, next[i]); err != nil {
			return err
		}
	}

	for i := common; i < len(next); i++ {
		child, err := r.build(next[i], markup.IsRawText(parent.tag))
		if err != nil {
			return err
		}
		if err := r.host.AppendChild(parent.handle, child.handle); err != nil {
			r.discard(child)
			return hostErr(live.OpAppendChild, err)
		}
		child.parent = parent
		parent.children = append(parent.children, child)
		r.stats.Appended++
	}

	for len(parent.children) > len(next) {
		last := len(parent.children) - 1
		old := parent.children[last]
		if err := r.host.RemoveChild(parent.handle, old.handle); err != nil {
			return hostErr(live.OpRemoveChild, err)
		}
		parent.children[last] = nil
		parent.children = parent.children[:last]
		r.stats.Removed++
		if err := r.destroy(old); err != nil {
			return err
		}
	}
	return nil
}

// compatible reports whether old can be updated in place to match pn.
func compatible(old *Node, pn *markup.Node) bool {
	if old.kind != pn.Kind {
		return false
	}
	if old.kind != KindElement {
		return true
	}
	if old.tag != pn.Tag {
		return false
	}
	if markup.IsRawText(old.tag) && old.rawText() != pn.RawText() {
		return false
	}
	return true
}

// patch reconciles parent.children[i] against pn.
func (r *reconciler) patch(parent *Node, i int, pn *markup.Node) error {
	old := parent.children[i]

	if !compatible(old, pn) {
		return r.replace(parent, i, pn)
	}

	switch old.kind {
	case KindElement:
		if err := r.attrs(old, pn.Attrs); err != nil {
			return err
		}
		return r.children(old, pn.Children)

	default:
		if old.content == pn.Content {
			return nil
		}
		raw := markup.IsRawText(parent.tag)
		if old.kind == KindText && !raw && markup.Decode(old.content) == markup.Decode(pn.Content) {
			// Same live text, different escaping.
			old.content = pn.Content
			return nil
		}
		h, err := r.createLeaf(pn, raw)
		if err != nil {
			return err
		}
		if err := r.host.ReplaceChild(parent.handle, h, old.handle); err != nil {
			return hostErr(live.OpReplaceChild, err)
		}
		r.stats.Replaced++
		if err := r.d.unbind(old); err != nil {
			return err
		}
		if err := r.d.bind(old, h); err != nil {
			return err
		}
		old.content = pn.Content
		return nil
	}
}

// replace swaps parent.children[i] for a freshly built subtree.
func (r *reconciler) replace(parent *Node, i int, pn *markup.Node) error {
	old := parent.children[i]
	nn, err := r.build(pn, markup.IsRawText(parent.tag))
	if err != nil {
		return err
	}
	if err := r.host.ReplaceChild(parent.handle, nn.handle, old.handle); err != nil {
		r.discard(nn)
		return hostErr(live.OpReplaceChild, err)
	}
	r.stats.Replaced++
	nn.parent = parent
	parent.children[i] = nn
	return r.destroy(old)
}

// attrs applies the attribute difference: removals first, then every
// addition or changed value, then the identifier refresh.
func (r *reconciler) attrs(n *Node, next []markup.Attr) error {
	want := newAttrMap(next)

	for _, name := range n.attrs.names() {
		if _, keep := want.get(name); keep {
			continue
		}
		if err := r.host.RemoveAttribute(n.handle, name); err != nil {
			return hostErr(live.OpRemoveAttribute, err)
		}
		n.attrs.remove(name)
		r.stats.AttrsRemoved++
	}

	for _, a := range want.list() {
		cur, ok := n.attrs.get(a.Name)
		if ok && cur == a.Value {
			continue
		}
		if ok && markup.Decode(cur) == markup.Decode(a.Value) {
			n.attrs.put(a.Name, a.Value)
			continue
		}
		if err := r.host.SetAttribute(n.handle, a.Name, markup.Decode(a.Value)); err != nil {
			return hostErr(live.OpSetAttribute, err)
		}
		n.attrs.put(a.Name, a.Value)
		r.stats.AttrsSet++
	}

	r.d.refreshID(n)
	return nil
}

func (r *reconciler) createLeaf(pn *markup.Node, raw bool) (live.Handle, error) {
	if pn.Kind == KindComment {
		h, err := r.host.CreateComment(pn.Content)
		if err != nil {
			return nil, hostErr(live.OpCreateComment, err)
		}
		return h, nil
	}
	content := pn.Content
	if !raw {
		content = markup.Decode(content)
	}
	h, err := r.host.CreateText(content)
	if err != nil {
		return nil, hostErr(live.OpCreateText, err)
	}
	return h, nil
}

// build materializes pn as a detached subtree: live nodes are created and
// assembled under the new root, which the caller attaches with a single
// AppendChild or ReplaceChild. On failure nothing stays registered.
func (r *reconciler) build(pn *markup.Node, raw bool) (*Node, error) {
	var (
		h   live.Handle
		err error
	)
	if pn.Kind == KindElement {
		h, err = r.host.CreateElement(strings.ToLower(pn.Tag))
		if err != nil {
			return nil, hostErr(live.OpCreateElement, err)
		}
	} else {
		if h, err = r.createLeaf(pn, raw); err != nil {
			return nil, err
		}
	}

	n, err := r.d.newNode(pn, h)
	if err != nil {
		return nil, err
	}
	r.stats.Created++
	if pn.Kind != KindElement {
		return n, nil
	}

	for _, a := range n.attrs.list() {
		if err := r.host.SetAttribute(h, a.Name, markup.Decode(a.Value)); err != nil {
			r.discard(n)
			return nil, hostErr(live.OpSetAttribute, err)
		}
	}

	if n.void {
		return n, nil
	}
	childRaw := markup.IsRawText(n.tag)
	for _, pc := range pn.Children {
		c, err := r.build(pc, childRaw)
		if err != nil {
			r.discard(n)
			return nil, err
		}
		if err := r.host.AppendChild(h, c.handle); err != nil {
			r.discard(c)
			r.discard(n)
			return nil, hostErr(live.OpAppendChild, err)
		}
		c.parent = n
		n.children = append(n.children, c)
	}
	return n, nil
}

// destroy tears down n's subtree, children first.
func (r *reconciler) destroy(n *Node) error {
	var firstErr error
	for _, c := range n.children {
		if err := r.destroy(c); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if err := r.d.release(n); err != nil && firstErr == nil {
		firstErr = err
	}
	r.stats.Destroyed++
	return firstErr
}

// discard drops a detached subtree whose construction or attachment
// failed. Its live nodes were never attached, so only the registry
// entries need to go.
func (r *reconciler) discard(n *Node) {
	before := r.stats
	_ = r.destroy(n)
	r.stats = before
}
