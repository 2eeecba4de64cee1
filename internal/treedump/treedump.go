// Package treedump renders shadow and parse trees as indented text trees
// for the CLI and the inspector.
package treedump

import (
	"fmt"
	"strings"

	"github.com/xlab/treeprint"

	"github.com/vango-dev/shadowdom/pkg/markup"
	"github.com/vango-dev/shadowdom/pkg/shadow"
)

const maxText = 40

// Shadow renders n and its subtree.
func Shadow(n *shadow.Node) string {
	t := treeprint.New()
	t.SetValue(shadowLabel(n))
	for _, c := range n.Children() {
		addShadow(t, c)
	}
	return t.String()
}

func addShadow(t treeprint.Tree, n *shadow.Node) {
	if n.ChildCount() == 0 {
		t.AddNode(shadowLabel(n))
		return
	}
	branch := t.AddBranch(shadowLabel(n))
	for _, c := range n.Children() {
		addShadow(branch, c)
	}
}

func shadowLabel(n *shadow.Node) string {
	switch {
	case n.IsRoot():
		return "#document"
	case n.Kind() == shadow.KindText:
		return fmt.Sprintf("#text %q", clip(n.Content()))
	case n.Kind() == shadow.KindComment:
		return fmt.Sprintf("#comment %q", clip(n.Content()))
	}
	return elementLabel(n.Tag(), n.Attrs(), n.IsVoid()) + fmt.Sprintf(" @%d.%d", n.Ref().Index, n.Ref().Gen)
}

// Parse renders a parse tree. A fragment root is labelled #fragment.
func Parse(n *markup.Node) string {
	t := treeprint.New()
	t.SetValue(parseLabel(n))
	for _, c := range n.Children {
		addParse(t, c)
	}
	return t.String()
}

func addParse(t treeprint.Tree, n *markup.Node) {
	if len(n.Children) == 0 {
		t.AddNode(parseLabel(n))
		return
	}
	branch := t.AddBranch(parseLabel(n))
	for _, c := range n.Children {
		addParse(branch, c)
	}
}

func parseLabel(n *markup.Node) string {
	switch {
	case n.IsFragment():
		return "#fragment"
	case n.Kind == markup.KindText:
		return fmt.Sprintf("#text %q", clip(n.Content))
	case n.Kind == markup.KindComment:
		return fmt.Sprintf("#comment %q", clip(n.Content))
	}
	return elementLabel(n.Tag, n.Attrs, n.Void)
}

func elementLabel(tag string, attrs []markup.Attr, void bool) string {
	var b strings.Builder
	markup.WriteStartTag(&b, strings.ToLower(tag), attrs)
	if void {
		b.WriteString(" (void)")
	}
	return b.String()
}

func clip(s string) string {
	if len(s) <= maxText {
		return s
	}
	return s[:maxText] + "..."
}
