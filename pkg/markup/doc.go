// Package markup implements the streaming tokenizer/parser that turns a
// markup string into a forest of lightweight parse nodes.
//
// The grammar is a forgiving subset of HTML: comments, opening and closing
// tags with quoted, single-quoted or bare attribute values, text, and the
// two raw-text elements (SCRIPT and STYLE) whose content is never
// tokenized. It is not an HTML5-compliant parser. Malformed nesting
// degrades gracefully:
//
//   - opening a block-level tag closes any open inline-level tags
//   - opening LI, TD, P and the other self-closing-allowed tags while the
//     same tag is open closes the open one first (so <p>A<p>B yields two
//     siblings)
//   - a closing tag closes the nearest open tag of that name and every tag
//     opened after it; a closing tag matching nothing closes everything
//
// The only fatal condition is a scan iteration that consumes no input,
// reported as ErrNoProgress with the offending offset.
//
// # Usage
//
//	root, err := markup.Parse(`<ul><li>first</li><li>second</li></ul>`)
//	if err != nil {
//	    return err
//	}
//	ul := root.Children[0] // Tag "UL"
//
// Attribute values and text are kept exactly as written (entities are not
// decoded) so that Render reproduces the source.
package markup
