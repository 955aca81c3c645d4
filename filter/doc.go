/*
Package filter compiles typed predicates into the table store's textual
filter grammar.

Predicates are tagged-variant expression trees built from comparisons,
logical combinators, and a small whitelist of string functions:

	pred := filter.And(
	    filter.Eq("Country", "CA"),
	    filter.Or(
	        filter.Gt("Score", 1200),
	        filter.StartsWith("Club", "TT"),
	    ),
	)
	text, err := filter.Translate(pred)
	// (Country eq 'CA') and ((Score gt 1200) or (startswith(Club, 'TT')))

Literal encoding follows the store's rules per scalar type: strings double
embedded quotes, datetimes render as datetime'<ISO-8601>', binary as
X'<hex>', GUIDs as guid'<uuid>', and 64-bit integers carry an L suffix.
Constants are captured values and encode exactly once at translation time.

The store's parser is naive: it infers no operator precedence, so Translate
always parenthesizes logical operands and preserves the written
left-to-right shape. Parse is the matching reference parser, used by
in-process providers and by round-trip tests; Match evaluates a tree
structurally against a row.

Selectors (TranslateMembers) compile ordering and projection clauses into
ordered property-name lists. Anything outside the supported grammar fails
with an UnsupportedExpressionError, which indicates a caller bug and is
never retried.
*/
package filter
