// Package projection extracts the configured output columns from a record.
//
// Each column names a field, an optional transform pipeline and an optional
// width. Positive widths right-justify, negative widths left-justify, and
// either truncates to the absolute width. Widths are measured in terminal
// cells, so wide runes count double.
//
// Transform pipelines are stages joined by "|":
//
//	upper | lower | trim | basename | label
//	strip_prefix v | strip_suffix v | prepend v | append v | default v
//	replace re repl | field other
package projection
