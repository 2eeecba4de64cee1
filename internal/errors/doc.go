// Package errors provides structured, coded errors for shadowdom.
//
// Every failure the core can report has a registered code (e.g. "E100")
// that maps to a category, a short message and an optional hint. Errors
// carry an optional Location pointing into the markup or selector text
// that caused them, so a parse failure can be rendered with the
// offending column marked:
//
//	ERROR E100: Markup parse made no progress
//
//	  offset 5 (line 1, column 6)
//
//	  → 1 │ <p>a < b</p>
//	      │      ^
//
// # Matching
//
// Error implements Is by comparing codes, so a registered template works
// as a sentinel with the standard library:
//
//	if errors.Is(err, markup.ErrNoProgress) { ... }
package errors
