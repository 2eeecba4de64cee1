// Package shadow keeps a lightweight tree of nodes mirroring a live
// document, so that selector queries and ancestor or sibling walks never
// touch the live document, and bulk content updates touch it as little
// as possible.
//
// A Document owns the tree. Its nodes live in an arena addressed by Ref,
// with side maps from live handle to node and from identifier to live
// handle. Every mutation goes through the Document:
//
//	doc := shadow.New(host, host.Root(), shadow.Options{})
//	if err := doc.Mount(ctx, `<ul id="list"><li>first</li></ul>`); err != nil {
//	    return err
//	}
//	list, _ := doc.ElementByID("list")
//	err := doc.SetInnerHTML(ctx, list, "<li>first</li><li>second</li>")
//
// # Reconciliation
//
// Setting inner or outer markup parses it completely first, so a parse
// error changes nothing. The parsed forest is then diffed against the
// existing children by position, not by key:
//
//   - same tag: attributes are patched (removals, then changed values)
//     and the children are diffed recursively
//   - different tag, different kind, or SCRIPT/STYLE with changed
//     content: a new subtree is built detached and swapped in with one
//     ReplaceChild
//   - text or comment with changed content: a new live node replaces the
//     old one and the shadow node keeps its identity
//   - extra new children are appended; extra old children are removed
//
// A live document call that fails aborts the reconciliation and is
// returned wrapped in ErrHost. The tree may then be partially updated.
//
// # Serialization
//
// InnerHTML and OuterHTML emit attribute values and text exactly as they
// were written, so entity escapes round-trip. Comments are not part of
// InnerHTML, which makes reconciling a comment-free tree against its own
// serialization a no-op.
package shadow
