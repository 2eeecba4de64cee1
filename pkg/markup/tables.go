package markup

import (
	"bytes"
	"strings"
	"sync"

	"golang.org/x/net/html"
)

// Tag classification tables. Keys are upper-cased tag names. The tables are
// fixed; they are not meant to be configured.

// voidElements can never have children or a closing tag.
var voidElements = map[string]bool{
	"AREA":     true,
	"BASE":     true,
	"BASEFONT": true,
	"BR":       true,
	"COL":      true,
	"EMBED":    true,
	"FRAME":    true,
	"HR":       true,
	"IMG":      true,
	"INPUT":    true,
	"ISINDEX":  true,
	"LINK":     true,
	"META":     true,
	"PARAM":    true,
	"SOURCE":   true,
	"TRACK":    true,
	"WBR":      true,
}

// blockElements close any open inline elements when opened.
var blockElements = map[string]bool{
	"ADDRESS":    true,
	"APPLET":     true,
	"BLOCKQUOTE": true,
	"BUTTON":     true,
	"CENTER":     true,
	"DD":         true,
	"DEL":        true,
	"DIR":        true,
	"DIV":        true,
	"DL":         true,
	"DT":         true,
	"FIELDSET":   true,
	"FORM":       true,
	"FRAMESET":   true,
	"HR":         true,
	"IFRAME":     true,
	"INS":        true,
	"ISINDEX":    true,
	"LI":         true,
	"MAP":        true,
	"MENU":       true,
	"NOFRAMES":   true,
	"NOSCRIPT":   true,
	"OBJECT":     true,
	"OL":         true,
	"P":          true,
	"PRE":        true,
	"SCRIPT":     true,
	"TABLE":      true,
	"TBODY":      true,
	"TD":         true,
	"TFOOT":      true,
	"TH":         true,
	"THEAD":      true,
	"TR":         true,
	"UL":         true,
}

// inlineElements are closed implicitly by an opening block element.
var inlineElements = map[string]bool{
	"A":        true,
	"ABBR":     true,
	"ACRONYM":  true,
	"APPLET":   true,
	"B":        true,
	"BASEFONT": true,
	"BDO":      true,
	"BIG":      true,
	"BR":       true,
	"BUTTON":   true,
	"CITE":     true,
	"CODE":     true,
	"DEL":      true,
	"DFN":      true,
	"EM":       true,
	"FONT":     true,
	"I":        true,
	"IFRAME":   true,
	"IMG":      true,
	"INPUT":    true,
	"INS":      true,
	"KBD":      true,
	"LABEL":    true,
	"MAP":      true,
	"OBJECT":   true,
	"Q":        true,
	"S":        true,
	"SAMP":     true,
	"SCRIPT":   true,
	"SELECT":   true,
	"SMALL":    true,
	"SPAN":     true,
	"STRIKE":   true,
	"STRONG":   true,
	"SUB":      true,
	"SUP":      true,
	"TEXTAREA": true,
	"TT":       true,
	"U":        true,
	"VAR":      true,
}

// closeSelfElements close an open element of the same name when opened.
var closeSelfElements = map[string]bool{
	"COLGROUP": true,
	"DD":       true,
	"DT":       true,
	"LI":       true,
	"OPTIONS":  true,
	"P":        true,
	"TD":       true,
	"TFOOT":    true,
	"TH":       true,
	"THEAD":    true,
	"TR":       true,
}

// fillAttrs default to their own name when written without a value.
var fillAttrs = map[string]bool{
	"checked":  true,
	"compact":  true,
	"declare":  true,
	"defer":    true,
	"disabled": true,
	"ismap":    true,
	"multiple": true,
	"nohref":   true,
	"noresize": true,
	"noshade":  true,
	"nowrap":   true,
	"readonly": true,
	"selected": true,
}

// rawTextElements hold literal content that is never tokenized.
var rawTextElements = map[string]bool{
	"SCRIPT": true,
	"STYLE":  true,
}

// IsBlock returns true if the tag is a block-level element.
func IsBlock(tag string) bool { return blockElements[tag] }

// IsInline returns true if the tag is an inline-level element.
func IsInline(tag string) bool { return inlineElements[tag] }

// IsRawText returns true if the tag's content is not tokenized.
func IsRawText(tag string) bool { return rawTextElements[tag] }

// IsCloseSelf returns true if opening the tag closes an open tag of the same name.
func IsCloseSelf(tag string) bool { return closeSelfElements[tag] }

// IsFillAttr returns true if a valueless attribute defaults to its own name.
func IsFillAttr(name string) bool { return fillAttrs[name] }

// known reports whether tag appears in any classification table.
func known(tag string) bool {
	return voidElements[tag] || blockElements[tag] || inlineElements[tag] ||
		closeSelfElements[tag] || rawTextElements[tag]
}

// probed memoizes the void classification of tags missing from the tables.
var probed sync.Map

// IsVoid returns true if the tag is a void element. Tags missing from the
// classification tables are probed once by rendering an empty element and
// checking whether a closing tag is emitted; the answer depends only on
// the tag name and is memoized for the life of the process.
func IsVoid(tag string) bool {
	if tag == "" {
		return false
	}
	if known(tag) {
		return voidElements[tag]
	}
	if v, ok := probed.Load(tag); ok {
		return v.(bool)
	}
	v, _ := probed.LoadOrStore(tag, probeVoid(tag))
	return v.(bool)
}

func probeVoid(tag string) bool {
	lower := strings.ToLower(tag)
	var buf bytes.Buffer
	if err := html.Render(&buf, &html.Node{Type: html.ElementNode, Data: lower}); err != nil {
		return false
	}
	return !bytes.Contains(buf.Bytes(), []byte("</"+lower+">"))
}
