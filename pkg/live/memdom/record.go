package memdom

import (
	"fmt"

	"github.com/vango-dev/shadowdom/pkg/live"
)

// Record is one logged Host call. Node references are live node IDs.
type Record struct {
	Seq    int     `json:"seq"`
	Op     live.Op `json:"op"`
	Target string  `json:"target"`
	Parent string  `json:"parent,omitempty"`
	Old    string  `json:"old,omitempty"`
	Tag    string  `json:"tag,omitempty"`
	Name   string  `json:"name,omitempty"`
	Value  string  `json:"value,omitempty"`
}

// String returns a compact one-line rendering of the record.
func (r Record) String() string {
	switch r.Op {
	case live.OpCreateElement:
		return fmt.Sprintf("#%d %s <%s> %s", r.Seq, r.Op, r.Tag, short(r.Target))
	case live.OpCreateText, live.OpCreateComment:
		return fmt.Sprintf("#%d %s %q %s", r.Seq, r.Op, r.Value, short(r.Target))
	case live.OpSetAttribute:
		return fmt.Sprintf("#%d %s %s %s=%q", r.Seq, r.Op, short(r.Target), r.Name, r.Value)
	case live.OpRemoveAttribute:
		return fmt.Sprintf("#%d %s %s %s", r.Seq, r.Op, short(r.Target), r.Name)
	case live.OpReplaceChild:
		return fmt.Sprintf("#%d %s %s: %s -> %s", r.Seq, r.Op, short(r.Parent), short(r.Old), short(r.Target))
	default:
		return fmt.Sprintf("#%d %s %s: %s", r.Seq, r.Op, short(r.Parent), short(r.Target))
	}
}

func short(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
