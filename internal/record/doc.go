// Package record turns raw log lines into flat field maps.
//
// Two encodings are recognised, tried in order:
//
//  1. A single-line JSON object: {"level":"error","msg":"boom"}
//  2. Whitespace separated key=value tokens: level=error msg="boom boom"
//
// Lines that yield no keys in either encoding are reported as not parsed and
// are expected to be dropped by the caller. Mixed logs routinely contain such
// noise (stack traces, banners), so this is not treated as an error.
//
// # Value Conversion
//
// JSON scalars are rendered as their literal text: strings unquoted, numbers
// exactly as written, booleans as true/false and null as the empty string.
// Nested objects and arrays are kept as compact JSON text.
//
// # Key=Value Precedence
//
// A quoted token (key="value") always beats an unquoted token (key=value) for
// the same key, regardless of position. Between tokens of the same kind the
// last occurrence wins.
package record
