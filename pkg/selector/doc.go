// Package selector compiles and evaluates a compact CSS selector subset.
//
// Grammar:
//
//	list     = complex { "," complex }
//	complex  = compound { " " compound }        descendant at any depth
//	compound = [ tag | "*" ] { filter }
//	filter   = "#" ident | "." ident | "[" name [ "=" value ] "]" | ":" pseudo
//	pseudo   = "first-child" | "last-child" | "first-of-type" | "last-of-type"
//
// All filters of a compound must hold. A list matches if any branch
// matches. Whitespace runs are collapsed before splitting.
//
// # Attribute value coercion
//
// A quoted value is compared as a literal string. An unquoted value is
// typed: "true"/"false" (any case) compare as booleans, anything else
// compares as a floating-point number. So [count=3] matches count="3.0",
// [flag=TRUE] matches flag="true", and [type=text] never matches because
// "text" is not a number; write [type="text"] instead. This asymmetry is
// kept for compatibility with existing selectors.
//
// Syntax errors are reported, never treated as "no match":
//
//	ok, err := selector.Match("div[a", el) // err is ErrUnterminated
package selector
