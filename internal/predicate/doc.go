// Package predicate compiles include/exclude rule lists into tests over a
// single field value and evaluates records against them.
//
// Each test expression is one of:
//
//	error               exact match (bare text or "quoted text")
//	== v   != v         equality / inequality
//	< v  <= v  > v  >= v
//	                    numeric when both sides parse as numbers, lexical otherwise
//	contains v          substring
//	prefix v  suffix v
//	~ re   !~ re        RE2 match, unanchored; use ^...$ to anchor
//	empty  present      value is / is not the empty string
//	not <expr>          negation
//
// Matching is case-sensitive. A regex may opt out with (?i).
//
// Absent fields are tested as the empty string.
package predicate
