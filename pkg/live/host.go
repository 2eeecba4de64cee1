// Package live defines the contract between the shadow tree and the
// externally owned live document it mirrors.
//
// The core never inspects a Handle; it only compares handles for identity
// and uses them as map keys, so a Handle must be comparable (a pointer,
// an integer, a string...). Every mutation the core performs on the live
// document goes through a Host.
package live

// Handle is an opaque, comparable reference to a live node.
type Handle any

// Host creates and mutates live nodes on behalf of the core. Errors are
// propagated to the caller unchanged; the core never retries a call.
type Host interface {
	CreateElement(tag string) (Handle, error)
	CreateText(content string) (Handle, error)
	CreateComment(content string) (Handle, error)

	SetAttribute(h Handle, name, value string) error
	RemoveAttribute(h Handle, name string) error

	AppendChild(parent, child Handle) error
	ReplaceChild(parent, newChild, oldChild Handle) error
	RemoveChild(parent, child Handle) error
}

// Op names one Host method, used for operation logs and metrics labels.
type Op string

const (
	OpCreateElement   Op = "create_element"
	OpCreateText      Op = "create_text"
	OpCreateComment   Op = "create_comment"
	OpSetAttribute    Op = "set_attribute"
	OpRemoveAttribute Op = "remove_attribute"
	OpAppendChild     Op = "append_child"
	OpReplaceChild    Op = "replace_child"
	OpRemoveChild     Op = "remove_child"
)

// Ops lists every Op in a stable order.
var Ops = []Op{
	OpCreateElement,
	OpCreateText,
	OpCreateComment,
	OpSetAttribute,
	OpRemoveAttribute,
	OpAppendChild,
	OpReplaceChild,
	OpRemoveChild,
}

// IsStructural reports whether op changes the live document's child lists.
func (op Op) IsStructural() bool {
	switch op {
	case OpAppendChild, OpReplaceChild, OpRemoveChild:
		return true
	}
	return false
}
