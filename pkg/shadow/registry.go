package shadow

import (
	"github.com/vango-dev/shadowdom/internal/errors"
	"github.com/vango-dev/shadowdom/pkg/live"
)

// Ref is a stable reference to a node slot in a document's arena. A Ref
// outlives its node: once the node is destroyed the slot's generation
// moves on and the Ref no longer resolves.
type Ref struct {
	Index uint32
	Gen   uint32
}

type slot struct {
	node *Node
	gen  uint32
}

// registry owns the document's nodes by arena index and maps live
// handles and identifiers back to them. It is guarded by Document.mu.
type registry struct {
	slots    []slot
	free     []uint32
	byHandle map[live.Handle]uint32
	byID     map[string]live.Handle
}

func newRegistry() *registry {
	return &registry{
		byHandle: make(map[live.Handle]uint32),
		byID:     make(map[string]live.Handle),
	}
}

// alloc places n in a free slot and returns its Ref.
func (r *registry) alloc(n *Node) Ref {
	if k := len(r.free); k > 0 {
		idx := r.free[k-1]
		r.free = r.free[:k-1]
		r.slots[idx].node = n
		return Ref{Index: idx, Gen: r.slots[idx].gen}
	}
	r.slots = append(r.slots, slot{node: n})
	return Ref{Index: uint32(len(r.slots) - 1)}
}

// release frees n's slot. The generation is bumped so stale Refs miss.
func (r *registry) release(n *Node) {
	idx := n.ref.Index
	if int(idx) >= len(r.slots) || r.slots[idx].node != n {
		return
	}
	r.slots[idx].node = nil
	r.slots[idx].gen++
	r.free = append(r.free, idx)
}

// get resolves a Ref.
func (r *registry) get(ref Ref) (*Node, bool) {
	if int(ref.Index) >= len(r.slots) {
		return nil, false
	}
	s := r.slots[ref.Index]
	if s.node == nil || s.gen != ref.Gen {
		return nil, false
	}
	return s.node, true
}

// alive reports whether n still occupies its slot.
func (r *registry) alive(n *Node) bool {
	got, ok := r.get(n.ref)
	return ok && got == n
}

// bind maps h to n. Mapping a handle that already mirrors another node is
// an invariant violation.
func (r *registry) bind(n *Node, h live.Handle) *errors.Error {
	if idx, ok := r.byHandle[h]; ok && r.slots[idx].node != n {
		return errors.New("E120").WithDetailf("handle %v", h)
	}
	r.byHandle[h] = n.ref.Index
	n.handle = h
	return nil
}

// unbind removes n's handle mapping.
func (r *registry) unbind(n *Node) *errors.Error {
	idx, ok := r.byHandle[n.handle]
	if !ok || r.slots[idx].node != n {
		return errors.New("E121").WithDetailf("handle %v", n.handle)
	}
	delete(r.byHandle, n.handle)
	return nil
}

// lookup returns the node mirroring h.
func (r *registry) lookup(h live.Handle) (*Node, bool) {
	idx, ok := r.byHandle[h]
	if !ok {
		return nil, false
	}
	return r.slots[idx].node, true
}

// setID moves n's identifier mapping from old to id. The old mapping is
// dropped only if it still points at n, so the last writer of a
// colliding identifier keeps it.
func (r *registry) setID(n *Node, old, id string) {
	if old == id {
		if id != "" {
			r.byID[id] = n.handle
		}
		return
	}
	if old != "" && r.byID[old] == n.handle {
		delete(r.byID, old)
	}
	if id != "" {
		r.byID[id] = n.handle
	}
}

// handleForID returns the live handle registered for id.
func (r *registry) handleForID(id string) (live.Handle, bool) {
	h, ok := r.byID[id]
	return h, ok
}

// len returns the number of live slots.
func (r *registry) len() int {
	return len(r.slots) - len(r.free)
}
